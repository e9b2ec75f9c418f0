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

package idgen

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGeneratorMonotonic(t *testing.T) {
	gen := NewULIDGenerator()
	now := time.Now()

	a := gen.Make(now)
	b := gen.Make(now)
	require.Len(t, a, 26)
	require.Len(t, b, 26)
	assert.Less(t, a, b, "same-millisecond ulids should still be ordered")
}

func TestFlakeNextIDPositive(t *testing.T) {
	gen := Flake()
	seen := make(map[int64]bool)
	for range 100 {
		id := gen.NextID()
		assert.Positive(t, id)
		assert.False(t, seen[id], "flake ids must not repeat")
		seen[id] = true
	}
}

func TestRunID(t *testing.T) {
	a := RunID()
	b := RunID()
	assert.Len(t, a, 8)
	assert.Len(t, b, 8)
	assert.Equal(t, a, strings.ToLower(a))
	assert.NotEqual(t, a, b)
}

func TestUUIDToBase36FixedLength(t *testing.T) {
	assert.Len(t, UUIDToBase36(uuid.Nil), 25)
	assert.Len(t, UUIDToBase36(uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")), 25)
	for range 20 {
		assert.Len(t, NewBase36ID(), 25)
	}
}
