// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// Delimiter separates documents in a combined corpus file.
	Delimiter = "\n\n--------\n\n"

	// NeutralizedDelimiter replaces delimiter occurrences found inside a
	// document's own content, so a document can never split the corpus.
	NeutralizedDelimiter = "\n\n++++++++\n\n"
)

// readBufferSize is the raw read size used when streaming a corpus.
const readBufferSize = 8192

// NeutralizeDelimiter rewrites in-document delimiter occurrences to the
// neutralized marker. Applied to every extracted text before it joins the
// delimiter-separated corpus.
func NeutralizeDelimiter(text string) string {
	return strings.ReplaceAll(text, Delimiter, NeutralizedDelimiter)
}

// Source yields the documents of a corpus in a stable order. ForEach may be
// called more than once; each call re-streams from the origin.
type Source interface {
	// ForEach calls fn once per document, in corpus order. A non-nil error
	// from fn stops the iteration and is returned.
	ForEach(ctx context.Context, fn func(text string) error) error

	// DocumentCount reports the number of documents when the source knows it
	// upfront. Sources that stream without pre-counting return (0, false).
	DocumentCount() (int, bool)
}

// NewSource dispatches on the path kind: a regular file becomes a
// DelimitedSource, a directory becomes a DirectorySource.
func NewSource(path string, opts ...SourceOption) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return NewDirectorySource(path, opts...)
	}
	return NewDelimitedSource(path, opts...)
}

// SourceOption configures a source.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	logger   *slog.Logger
	poolSize int
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) SourceOption {
	return func(c *sourceConfig) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// WithPoolSize sets the worker pool size used for directory extraction.
// Ignored by file sources. Default is half the CPU count, minimum 1.
func WithPoolSize(size int) SourceOption {
	return func(c *sourceConfig) {
		if size < 1 {
			size = 1
		}
		c.poolSize = size
	}
}

// DelimitedSource streams documents from a single delimiter-joined corpus
// file.
type DelimitedSource struct {
	path   string
	logger *slog.Logger
}

var _ Source = (*DelimitedSource)(nil)

// NewDelimitedSource creates a source over a delimiter-joined corpus file.
func NewDelimitedSource(path string, opts ...SourceOption) (*DelimitedSource, error) {
	cfg := sourceConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("expected a file, got a directory: %s", path)
	}

	cfg.logger.Info("preparing dataset from delimited corpus file", "path", path)

	return &DelimitedSource{path: path, logger: cfg.logger}, nil
}

func (s *DelimitedSource) ForEach(ctx context.Context, fn func(text string) error) error {
	s.logger.Debug("streaming documents", "path", s.path)

	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return splitDelimited(ctx, f, fn)
}

// DocumentCount is unknown for a flat file without pre-counting.
func (s *DelimitedSource) DocumentCount() (int, bool) {
	return 0, false
}

// splitDelimited streams r in fixed-size reads and calls fn for each
// delimiter-separated document. A delimiter may span read boundaries, so a
// residual buffer carries unconsumed bytes between reads; a document is only
// emitted once its terminating delimiter has been fully observed. The final
// trailing fragment is emitted after whitespace trimming, only if non-empty.
// Whole-corpus materialization never happens: at most one document plus one
// read buffer is resident.
func splitDelimited(ctx context.Context, r io.Reader, fn func(text string) error) error {
	delim := []byte(Delimiter)
	buf := make([]byte, readBufferSize)
	var residual []byte

	emit := func(segment []byte) error {
		text := strings.TrimSpace(string(segment))
		if text == "" {
			return nil
		}
		return fn(text)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			residual = append(residual, buf[:n]...)
			for {
				idx := bytes.Index(residual, delim)
				if idx < 0 {
					break
				}
				if err := emit(residual[:idx]); err != nil {
					return err
				}
				residual = residual[:copy(residual, residual[idx+len(delim):])]
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	return emit(residual)
}
