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
	"time"

	"github.com/cardinalhq/oteltools/pkg/telemetry"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/host"
	iruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakeview/config"
	"github.com/cardinalhq/lakeview/internal/idgen"
)

const serviceName = "lakeview"

var (
	commonAttributes attribute.Set

	meter = otel.Meter("github.com/cardinalhq/lakeview")

	myInstanceID int64

	commandDuration metric.Float64Histogram
	rowsRendered    metric.Int64Counter
)

// setupTelemetry configures logging and, when the OTLP gate is open,
// the OpenTelemetry SDK. Logs go to stderr because stdout carries the
// rendered data; a log file from config fans out alongside. The
// returned function flushes and shuts everything down.
func setupTelemetry(cfg *config.Config) (context.Context, func() error, error) {
	myInstanceID = idgen.Flake().NextID()
	runID := idgen.RunID()

	// Catch signals to stop the process as gracefully as possible.
	doneCtx, doneCancel := handleSignals(context.Background())

	f := func() error {
		doneCancel()
		return nil
	}

	setupGlobalMetrics()

	commonAttributes = attribute.NewSet(
		attribute.Int64("instanceID", myInstanceID),
	)

	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose || os.Getenv("DEBUG") != "" || os.Getenv("LAKEVIEW_DEBUG") != "" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	if cfg.Logging.File != "" {
		lf, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			doneCancel()
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewTextHandler(lf, opts))
	}

	if os.Getenv("OTEL_SERVICE_NAME") != "" && os.Getenv("ENABLE_OTLP_TELEMETRY") == "true" {
		handlers = append(handlers, otelslog.NewHandler(serviceName))
		slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)).With(
			slog.String("service", serviceName),
			slog.Int64("instanceID", myInstanceID),
			slog.String("run", runID),
		))
		slog.Debug("OpenTelemetry exporting enabled")

		otelShutdown, err := telemetry.SetupOTelSDK(doneCtx)
		if err != nil {
			doneCancel()
			return nil, nil, fmt.Errorf("failed to setup OpenTelemetry SDK: %w", err)
		}

		if err := iruntime.Start(iruntime.WithMinimumReadMemStatsInterval(time.Second * 10)); err != nil {
			slog.Warn("failed to start runtime metrics", "error", err.Error())
		}

		if err := host.Start(); err != nil {
			slog.Warn("failed to start host metrics", "error", err.Error())
		}

		f = func() error {
			defer doneCancel()
			slog.Debug("Shutting down OpenTelemetry SDK")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return otelShutdown(ctx)
		}
	} else {
		slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)).With(
			slog.String("service", serviceName),
			slog.Int64("instanceID", myInstanceID),
			slog.String("run", runID),
		))
	}

	return doneCtx, f, nil
}

func setupGlobalMetrics() {
	h, err := meter.Float64Histogram(
		"lakeview.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("The duration in seconds of one command invocation"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create command.duration histogram: %w", err))
	}
	commandDuration = h

	c, err := meter.Int64Counter(
		"lakeview.rows.rendered",
		metric.WithDescription("Number of rows written to the output"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.rendered counter: %w", err))
	}
	rowsRendered = c
}
