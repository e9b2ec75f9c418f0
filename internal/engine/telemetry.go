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

package engine

import (
	"fmt"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	queryDurationHistogram otelmetric.Float64Histogram
	scratchBytesCounter    otelmetric.Int64Counter
	rowsStreamedCounter    otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/lakeview/internal/engine")

	var err error
	queryDurationHistogram, err = meter.Float64Histogram(
		"lakeview.engine.query.duration",
		otelmetric.WithDescription("Wall time of sort queries executed by the engine"),
		otelmetric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create query.duration histogram: %w", err))
	}

	scratchBytesCounter, err = meter.Int64Counter(
		"lakeview.engine.scratch.bytes",
		otelmetric.WithDescription("Bytes written to scratch parquet files handed to the engine"),
		otelmetric.WithUnit("By"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create scratch.bytes counter: %w", err))
	}

	rowsStreamedCounter, err = meter.Int64Counter(
		"lakeview.engine.rows.streamed",
		otelmetric.WithDescription("Rows streamed back from engine queries"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.streamed counter: %w", err))
	}
}
