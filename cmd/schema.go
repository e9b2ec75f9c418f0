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
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakeview/config"
	"github.com/cardinalhq/lakeview/internal/filereader"
	"github.com/cardinalhq/lakeview/internal/inspect"
)

func init() {
	cmd := &cobra.Command{
		Use:   "schema <files...>",
		Short: "Display schema information",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			format, err := c.Flags().GetString("format")
			if err != nil {
				return err
			}
			return runInspect("schema", args, func(ctx context.Context, src filereader.Source) error {
				sf, err := inspect.ParseSchemaFormat(format)
				if err != nil {
					return err
				}
				return inspect.WriteSchema(ctx, os.Stdout, src, sf)
			})
		},
	}
	cmd.Flags().StringP("format", "f", "raw", "schema output format (raw or tree)")
	rootCmd.AddCommand(cmd)
}

// runInspect runs one of the per-file dump commands: for every argument
// it prints the "=== path ===" header with the path as given (s3 URLs
// included), resolves and opens the file, and hands the source to fn.
// The first failing file aborts the run.
func runInspect(name string, args []string, fn func(context.Context, filereader.Source) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, shutdown, err := setupTelemetry(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown() }()

	start := time.Now()
	defer func() {
		commandDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("command", name),
		))
	}()

	resolver := newInputResolver(cfg)
	defer resolver.Cleanup()

	for _, arg := range args {
		fmt.Printf("=== %s ===\n", arg)

		local, err := resolver.Resolve(ctx, arg)
		if err != nil {
			return err
		}
		src, err := filereader.OpenSource(ctx, local, tempDir(cfg), cfg.BatchSize)
		if err != nil {
			return err
		}
		err = fn(ctx, src)
		if closeErr := src.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}
