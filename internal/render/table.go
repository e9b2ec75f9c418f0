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

package render

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/olekukonko/tablewriter"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// writeTable renders all records as one aligned table. Headers come from
// the first record's schema; truncate > 0 cuts each cell to that many
// runes.
func writeTable(w io.Writer, records []arrow.RecordBatch, truncate int) error {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(pipeline.FieldNames(records[0].Schema()))

	for _, rec := range records {
		for row := 0; row < int(rec.NumRows()); row++ {
			cells := make([]string, rec.NumCols())
			for col := range cells {
				cells[col] = truncateText(FormatValue(rec.Column(col), row), truncate)
			}
			table.Append(cells)
		}
	}
	table.Render()
	return nil
}
