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
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/searchit/core"
)

// CacheFileName is the compressed cache artifact written next to a scanned
// directory. Its presence short-circuits re-extraction on later runs; there
// is no staleness check against file modification times, so changed source
// files are not picked up until the artifact is deleted.
const CacheFileName = ".searchit_cache.txt.zst"

// cacheHeader identifies the delimiter scheme the artifact was written
// with. A mismatch on read means the artifact predates a scheme change and
// must be rebuilt.
func cacheHeader() string {
	return fmt.Sprintf("searchit-cache:%016x\n", core.Fingerprint(Delimiter+NeutralizedDelimiter))
}

// DirectorySource streams documents extracted from a directory tree via its
// cache artifact.
type DirectorySource struct {
	dir       string
	cachePath string
	registry  *Registry
	logger    *slog.Logger
	poolSize  int

	docCount int
	counted  bool
}

var _ Source = (*DirectorySource)(nil)

// NewDirectorySource creates a source over a directory of mixed-format
// files. If the cache artifact already exists and is readable it is trusted
// as-is; otherwise the directory is scanned, each file's text extracted,
// and the artifact written before the source is returned.
func NewDirectorySource(dir string, opts ...SourceOption) (*DirectorySource, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	cfg := sourceConfig{logger: slog.Default(), poolSize: poolSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("expected a directory, got a file: %s", dir)
	}

	s := &DirectorySource{
		dir:       dir,
		cachePath: filepath.Join(dir, CacheFileName),
		registry:  NewRegistry(cfg.logger),
		logger:    cfg.logger,
		poolSize:  cfg.poolSize,
	}

	s.logger.Info("preparing dataset from directory", "dir", dir)

	if _, err := os.Stat(s.cachePath); err == nil {
		if verifyErr := s.verifyArtifact(); verifyErr == nil {
			s.logger.Info("using cached dataset", "artifact", s.cachePath)
			return s, nil
		} else {
			s.logger.Warn("cache artifact unusable, re-extracting directory",
				"artifact", s.cachePath, "err", verifyErr)
			if removeErr := os.Remove(s.cachePath); removeErr != nil {
				return nil, removeErr
			}
		}
	}

	if err := s.buildArtifact(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DirectorySource) ForEach(ctx context.Context, fn func(text string) error) error {
	s.logger.Debug("streaming documents from cache artifact", "artifact", s.cachePath)

	f, err := os.Open(s.cachePath)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer decoder.Close()

	reader := bufio.NewReaderSize(decoder, readBufferSize)
	header, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCacheHeader, s.cachePath)
	}
	if header != cacheHeader() {
		return fmt.Errorf("%w: %s", ErrCacheHeader, s.cachePath)
	}

	return splitDelimited(ctx, reader, fn)
}

// DocumentCount is known only when this process created the artifact.
func (s *DirectorySource) DocumentCount() (int, bool) {
	return s.docCount, s.counted
}

// verifyArtifact checks that the existing artifact decompresses and carries
// the expected header.
func (s *DirectorySource) verifyArtifact() error {
	f, err := os.Open(s.cachePath)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer decoder.Close()

	header, err := bufio.NewReader(decoder).ReadString('\n')
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCacheHeader, s.cachePath)
	}
	if header != cacheHeader() {
		return fmt.Errorf("%w: %s", ErrCacheHeader, s.cachePath)
	}
	return nil
}

// buildArtifact scans the directory in lexicographic full-path order,
// extracts each supported file on a worker pool one batch at a time, and
// appends the non-empty texts to the artifact in enumeration order. Memory
// is bounded to one batch of extracted texts.
func (s *DirectorySource) buildArtifact() error {
	files, err := s.enumerate()
	if err != nil {
		return err
	}
	s.logger.Info("scanning directory", "files", len(files),
		"supported", s.registry.Supported())

	tmpPath := s.cachePath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	encoder, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	writeErr := s.writeArtifact(encoder, files)

	if closeErr := encoder.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}

	if err := os.Rename(tmpPath, s.cachePath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	s.counted = true
	s.logger.Info("cached extracted documents",
		"documents", s.docCount, "files", len(files), "artifact", s.cachePath)
	return nil
}

// enumerate collects regular files under the directory, excluding any cache
// artifact, sorted by full path.
func (s *DirectorySource) enumerate() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == CacheFileName || strings.HasSuffix(name, ".tmp") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (s *DirectorySource) writeArtifact(w *zstd.Encoder, files []string) error {
	if _, err := w.Write([]byte(cacheHeader())); err != nil {
		return err
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	batchSize := s.poolSize * 4

	for start := 0; start < len(files); start += batchSize {
		end := start + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]
		texts := make([]string, len(batch))

		var wg sync.WaitGroup
		for i, path := range batch {
			extractor, ok := s.registry.Lookup(filepath.Ext(path))
			if !ok {
				s.logger.Debug("ignoring unsupported file type", "path", path)
				continue
			}

			wg.Add(1)
			job := func() {
				defer wg.Done()
				text, extractErr := extractor.Extract(path)
				if extractErr != nil {
					// A single file failing never aborts the scan.
					s.logger.Error("failed to extract text", "path", path, "err", extractErr)
					return
				}
				texts[i] = text
			}
			if submitErr := pool.Submit(job); submitErr != nil {
				job()
			}
		}
		wg.Wait()

		for _, text := range texts {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if s.docCount > 0 {
				if _, err := w.Write([]byte(Delimiter)); err != nil {
					return err
				}
			}
			if _, err := w.Write([]byte(text)); err != nil {
				return err
			}
			s.docCount++
			if s.docCount%100 == 0 {
				s.logger.Info("extraction progress", "documents", s.docCount)
			}
		}
	}

	return nil
}
