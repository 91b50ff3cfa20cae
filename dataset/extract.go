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
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Extractor extracts plain text from one file. Returned text already has
// in-document delimiter occurrences neutralized. Empty text means the file
// contributed nothing to the corpus.
type Extractor interface {
	Extract(path string) (string, error)
}

// Registry maps file extensions (lowercase, with dot) to extractors.
// Availability of external extraction commands is probed once at
// construction, producing a static supported set; unsupported extensions
// are skipped silently during a scan.
type Registry struct {
	extractors map[string]Extractor
	logger     *slog.Logger
}

// richFormatExtensions are document formats handled by the mutool command
// when it is installed.
var richFormatExtensions = []string{".pdf", ".xps", ".epub", ".mobi", ".fb2", ".cbz"}

// NewRegistry builds the extension registry. Plain text formats are always
// supported; rich document formats are registered only when the mutool
// binary is on PATH.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		extractors: map[string]Extractor{
			".txt": plainTextExtractor{},
			".md":  plainTextExtractor{},
		},
		logger: logger,
	}

	if mutool, err := exec.LookPath("mutool"); err == nil {
		for _, ext := range richFormatExtensions {
			r.extractors[ext] = &commandExtractor{binary: mutool}
		}
		logger.Debug("rich document extraction available", "binary", mutool)
	} else {
		logger.Info("mutool not found on PATH, rich document formats will be skipped",
			"extensions", richFormatExtensions)
	}

	return r
}

// Lookup returns the extractor for an extension, if any.
func (r *Registry) Lookup(ext string) (Extractor, bool) {
	e, ok := r.extractors[strings.ToLower(ext)]
	return e, ok
}

// Supported returns the supported extensions in sorted order.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// plainTextExtractor passes .txt and .md content through unchanged apart
// from delimiter neutralization.
type plainTextExtractor struct{}

func (plainTextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return NeutralizeDelimiter(string(data)), nil
}

// commandExtractor shells out to mutool for rich document formats. mutool
// emits one form feed per page boundary; pages are rewrapped with marker
// lines so page positions survive chunking.
type commandExtractor struct {
	binary string
}

func (c *commandExtractor) Extract(path string) (string, error) {
	cmd := exec.Command(c.binary, "draw", "-F", "text", "-o", "-", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("extracting %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	return NeutralizeDelimiter(markPages(stdout.String())), nil
}

// markPages splits extracted text on form feeds and wraps each page in
// begin/end marker lines, numbered from 1.
func markPages(text string) string {
	pages := strings.Split(text, "\f")

	var out strings.Builder
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		fmt.Fprintf(&out, "---- Beginning of page %d ----\n\n", i+1)
		out.WriteString(page)
		fmt.Fprintf(&out, "\n\n---- End of page %d ----\n\n", i+1)
	}
	return out.String()
}
