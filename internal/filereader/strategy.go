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

package filereader

import "github.com/cardinalhq/lakeview/internal/sortspec"

// SortStrategy selects how a sorted view executes.
type SortStrategy int

const (
	// StrategyTopK materializes the source and keeps each batch's first k
	// rows in its local order.
	StrategyTopK SortStrategy = iota

	// StrategyExternal delegates ordering to the query engine.
	StrategyExternal
)

func (s SortStrategy) String() string {
	switch s {
	case StrategyTopK:
		return "topk"
	default:
		return "external"
	}
}

// topKLimitThreshold is the largest limit the in-memory top-k path takes.
const topKLimitThreshold = 1000

// ChooseSortStrategy picks TopK only for a small limit on exactly one
// key. Materialize-then-truncate is only cheap when picking a handful of
// winners on one ordering column; tie-break keys or large results need
// the engine's genuine multi-key sorted output.
func ChooseSortStrategy(limit int64, specs []sortspec.Spec) SortStrategy {
	if limit < topKLimitThreshold && len(specs) == 1 {
		return StrategyTopK
	}
	return StrategyExternal
}
