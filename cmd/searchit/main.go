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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/searchit"
	"github.com/poiesic/searchit/ai"
	"github.com/poiesic/searchit/search"
	"github.com/poiesic/searchit/server"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "searchit",
		Usage: "Semantic search over document corpora",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Build or load an index and serve search requests over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dataset-path",
						Usage: "Path to a delimited corpus file or document directory; builds a fresh index",
					},
					&cli.StringFlag{
						Name:  "index-path",
						Usage: "Path to an existing index to load (mutually exclusive with --dataset-path)",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Index output path when building from a dataset",
						Value: "searchit-index",
					},
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP listen port",
						Value:   8889,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-input-tokens",
						Usage: "Encoder input limit used to size chunks",
						Value: 512,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks per encoder call",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "window-size",
						Usage: "Number of chunks accumulated per encode-index-store window",
						Value: 10000,
					},
					&cli.IntFlag{
						Name:  "cache-size",
						Usage: "Query response cache capacity",
						Value: 1024,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	ctx := context.Background()

	datasetPath := c.String("dataset-path")
	indexPath := c.String("index-path")
	if (datasetPath == "") == (indexPath == "") {
		return fmt.Errorf("exactly one of --dataset-path or --index-path is required")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithMaxInputTokens(c.Int("max-input-tokens")),
	)

	var (
		ix  *searchit.Index
		err error
	)
	if datasetPath != "" {
		ix, err = searchit.Build(ctx, datasetPath, c.String("output"),
			searchit.WithAIConfig(aiConfig),
			searchit.WithEncodeBatchSize(c.Int("batch-size")),
			searchit.WithAccumulateSize(c.Int("window-size")),
		)
		if err != nil {
			return fmt.Errorf("failed to build index: %w", err)
		}
	} else {
		ix, err = searchit.Open(indexPath, searchit.WithAIConfig(aiConfig))
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
	}
	defer ix.Close()

	service, err := ix.NewService(search.WithCacheSize(c.Int("cache-size")))
	if err != nil {
		return fmt.Errorf("failed to create search service: %w", err)
	}

	srv, err := server.New(service)
	if err != nil {
		return err
	}
	return srv.Run(c.Int("port"))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
