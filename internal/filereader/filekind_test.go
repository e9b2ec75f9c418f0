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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCompression(t *testing.T) {
	tests := []struct {
		name string
		want Compression
	}{
		{"data.parquet.gz", CompressionGzip},
		{"data.parquet.zlib", CompressionZlib},
		{"data.parquet.z", CompressionZlib},
		{"data.orc.snappy", CompressionSnappy},
		{"data.orc.sz", CompressionSnappy},
		{"data.parquet.zst", CompressionZstd},
		{"data.parquet.zstd", CompressionZstd},
		{"data.parquet", CompressionNone},
		{"data.orc", CompressionNone},
		{"DATA.PARQUET.GZ", CompressionGzip},
		{"archive.tar", CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCompression(tt.name))
		})
	}
}

func TestStripCompression(t *testing.T) {
	assert.Equal(t, "data.parquet", StripCompression("data.parquet.gz"))
	assert.Equal(t, "data.orc", StripCompression("data.orc.zstd"))
	assert.Equal(t, "data.parquet", StripCompression("data.parquet"))
	// Only one layer comes off.
	assert.Equal(t, "data.parquet.gz", StripCompression("data.parquet.gz.zst"))
}

func TestDetectFileKind(t *testing.T) {
	tests := []struct {
		name string
		want FileKind
	}{
		{"events.parquet", FileKindParquet},
		{"events.orc", FileKindORC},
		{"events.parquet.gz", FileKindParquet},
		{"events.orc.zst", FileKindORC},
		{"events.PARQUET", FileKindParquet},
		{"events.gz", FileKindUnknown},
		{"events.txt", FileKindUnknown},
		{"events", FileKindUnknown},
		{"events.parquet.tar", FileKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFileKind(tt.name))
		})
	}
}

func TestFileKindString(t *testing.T) {
	assert.Equal(t, "parquet", FileKindParquet.String())
	assert.Equal(t, "orc", FileKindORC.String())
	assert.Equal(t, "unknown", FileKindUnknown.String())
}
