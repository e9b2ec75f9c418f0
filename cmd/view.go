// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakeview/config"
	"github.com/cardinalhq/lakeview/internal/duckdbx"
	"github.com/cardinalhq/lakeview/internal/engine"
	"github.com/cardinalhq/lakeview/internal/filereader"
	"github.com/cardinalhq/lakeview/internal/pipeline"
	"github.com/cardinalhq/lakeview/internal/render"
	"github.com/cardinalhq/lakeview/internal/sortspec"
)

type viewFlags struct {
	columns  string
	limit    int64
	format   string
	truncate int
	sort     string
}

func init() {
	flags := &viewFlags{}
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "View file contents with optional column selection and row limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runView(c, args[0], flags)
		},
	}
	cmd.Flags().StringVarP(&flags.columns, "columns", "c", "", "comma-separated column names to select (default all)")
	cmd.Flags().Int64VarP(&flags.limit, "limit", "l", 10, "number of rows to show (0 for unlimited)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "output format (table, ndjson or vertical)")
	cmd.Flags().IntVarP(&flags.truncate, "truncate", "t", 0, "truncate long column values (0 to disable)")
	cmd.Flags().StringVarP(&flags.sort, "sort", "s", "", `sort columns, e.g. "col1,col2-,col3:desc" (default ascending)`)
	rootCmd.AddCommand(cmd)
}

func runView(c *cobra.Command, arg string, flags *viewFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags the user left untouched fall back to config defaults.
	if !c.Flags().Changed("limit") {
		flags.limit = cfg.View.Limit
	}
	if !c.Flags().Changed("format") && cfg.View.Format != "" {
		flags.format = cfg.View.Format
	}
	if !c.Flags().Changed("truncate") {
		flags.truncate = cfg.View.Truncate
	}
	if flags.limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", flags.limit)
	}

	format, err := render.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	ctx, shutdown, err := setupTelemetry(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown() }()

	start := time.Now()
	defer func() {
		commandDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("command", "view"),
		))
	}()

	resolver := newInputResolver(cfg)
	defer resolver.Cleanup()

	local, err := resolver.Resolve(ctx, arg)
	if err != nil {
		return err
	}

	src, err := filereader.OpenSource(ctx, local, tempDir(cfg), cfg.BatchSize)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	var projection []string
	if flags.columns != "" {
		projection = strings.Split(flags.columns, ",")
		for i := range projection {
			projection[i] = strings.TrimSpace(projection[i])
		}
	}

	reader, err := openViewReader(ctx, cfg, src, projection, flags)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	// Every path passes through the row budget before rendering.
	limited := filereader.NewLimitReader(reader, flags.limit)
	if err := render.Stream(ctx, limited, os.Stdout, render.Options{
		Format:   format,
		Truncate: flags.truncate,
	}); err != nil {
		return err
	}
	rowsRendered.Add(ctx, limited.TotalRowsReturned(), metric.WithAttributes(
		attribute.String("command", "view"),
	))
	return nil
}

// openViewReader builds the record stream for one view invocation.
// Unsorted views read straight from the source with projection pushed
// down. Sorted views validate the specs, pick a strategy from the limit
// and key count, and then dispatch on the source kind: Parquet sorts
// inside DuckDB over the file itself, while ORC streams through the
// chunked approximate sort.
func openViewReader(ctx context.Context, cfg *config.Config, src filereader.Source, projection []string, flags *viewFlags) (pipeline.Reader, error) {
	if flags.sort == "" {
		return src.Open(ctx, projection)
	}

	specs, err := sortspec.Parse(flags.sort)
	if err != nil {
		return nil, err
	}
	if err := sortspec.Validate(specs, projection, src.Columns()); err != nil {
		return nil, err
	}

	strategy := filereader.ChooseSortStrategy(flags.limit, specs)
	slog.Debug("sort strategy selected",
		slog.String("strategy", strategy.String()),
		slog.String("kind", src.Kind().String()),
		slog.Int64("limit", flags.limit),
		slog.Int("specs", len(specs)))

	if strategy == filereader.StrategyTopK {
		source, err := src.Open(ctx, projection)
		if err != nil {
			return nil, err
		}
		return filereader.NewTopKReader(source, specs[0], flags.limit), nil
	}

	db, err := openDuckDB(cfg)
	if err != nil {
		return nil, err
	}

	if src.Kind() == filereader.FileKindParquet {
		reader, err := filereader.NewDuckDBSortReader(ctx, db, src.Path(), engine.Query{
			Columns: projection,
			Sorts:   specs,
			Limit:   flags.limit,
		}, cfg.BatchSize)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &closingReader{Reader: reader, db: db}, nil
	}

	// Streaming-only source: open unprojected, the chunk sorts project.
	source, err := src.Open(ctx, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	eng := engine.NewDuckDB(db, tempDir(cfg), cfg.BatchSize)
	reader := filereader.NewChunkedSortReader(source, eng, projection, specs, flags.limit)
	return &closingReader{Reader: reader, db: db}, nil
}

func openDuckDB(cfg *config.Config) (*duckdbx.DB, error) {
	return duckdbx.Open("",
		duckdbx.WithMemoryLimitMB(cfg.DuckDB.MemoryLimitMB),
		duckdbx.WithThreads(cfg.DuckDB.Threads),
		duckdbx.WithTempDirectory(tempDir(cfg)),
	)
}

// closingReader ties a DuckDB handle's lifetime to the reader built on
// top of it.
type closingReader struct {
	pipeline.Reader
	db *duckdbx.DB
}

func (r *closingReader) Close() error {
	err := r.Reader.Close()
	if dbErr := r.db.Close(); err == nil {
		err = dbErr
	}
	return err
}
