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
	"strings"
)

// QuoteIdent quotes a column name as a DuckDB identifier, doubling any
// embedded double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString quotes a string literal for DuckDB, doubling any embedded
// single quotes. Used for file paths in table functions.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ReadParquetExpr returns a read_parquet table function call for the path.
// union_by_name keeps the call robust to row groups written with evolving
// schemas.
func ReadParquetExpr(path string) string {
	return fmt.Sprintf("read_parquet(%s, union_by_name=true)", QuoteString(path))
}

// BuildSelect assembles the scan-project-sort-limit statement executed for
// every engine pass: projected columns (or *), ORDER BY terms with an
// explicit NULLS LAST on every key, and a LIMIT only when one was requested.
func BuildSelect(from string, q Query) string {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		sb.WriteString("*")
	} else {
		for i, col := range q.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(QuoteIdent(col))
		}
	}

	sb.WriteString(" FROM ")
	sb.WriteString(from)

	if len(q.Sorts) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, spec := range q.Sorts {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(QuoteIdent(spec.Column))
			if spec.Ascending {
				sb.WriteString(" ASC")
			} else {
				sb.WriteString(" DESC")
			}
			sb.WriteString(" NULLS LAST")
		}
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	return sb.String()
}
