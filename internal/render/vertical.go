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
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
)

// writeVertical renders one field per line with a banner before each row.
// The banner's row number restarts at 1 for every record, which matches
// how the psql-style tools this mimics count expanded rows.
func writeVertical(w io.Writer, records []arrow.RecordBatch) error {
	first := true
	for _, rec := range records {
		schema := rec.Schema()
		for row := 0; row < int(rec.NumRows()); row++ {
			if !first {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			first = false

			if _, err := fmt.Fprintf(w, "*************************** %d ***************************\n", row+1); err != nil {
				return err
			}
			for col := 0; col < int(rec.NumCols()); col++ {
				name := schema.Field(col).Name
				value := FormatValue(rec.Column(col), row)
				if _, err := fmt.Fprintf(w, "%20s: %s\n", name, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
