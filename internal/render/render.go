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

// Package render writes a record stream to an output in one of three
// formats: an aligned table, newline-delimited JSON, or one field per
// line ("vertical"). Row budgets are enforced upstream; this package
// renders whatever the stream delivers.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// Format selects the output layout.
type Format int

const (
	FormatTable Format = iota
	FormatNDJSON
	FormatVertical
)

func (f Format) String() string {
	switch f {
	case FormatNDJSON:
		return "ndjson"
	case FormatVertical:
		return "vertical"
	default:
		return "table"
	}
}

// ParseFormat maps a --format flag value to a Format, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table":
		return FormatTable, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "vertical":
		return FormatVertical, nil
	default:
		return FormatTable, fmt.Errorf("unknown output format %q (use 'table', 'ndjson' or 'vertical')", s)
	}
}

// Options controls rendering. Truncate caps cell text at that many runes
// in the table format; zero disables truncation.
type Options struct {
	Format   Format
	Truncate int
}

// Stream drains r and writes every row to w in the chosen format. The
// table and vertical formats buffer all rows before writing (the limit
// stage upstream keeps that bounded); ndjson writes record by record.
// The reader is not closed.
func Stream(ctx context.Context, r pipeline.Reader, w io.Writer, opts Options) error {
	if opts.Format == FormatNDJSON {
		return streamNDJSON(ctx, r, w)
	}

	records, err := pipeline.ReadAll(ctx, r)
	if err != nil {
		return err
	}
	defer pipeline.ReleaseAll(records)

	if len(records) == 0 {
		return nil
	}
	switch opts.Format {
	case FormatVertical:
		return writeVertical(w, records)
	case FormatTable:
		return writeTable(w, records, opts.Truncate)
	default:
		return errors.New("unhandled output format")
	}
}
