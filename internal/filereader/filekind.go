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
	"path/filepath"
	"strings"
)

// FileKind identifies the columnar container format of an input file.
type FileKind int

const (
	FileKindUnknown FileKind = iota
	FileKindParquet
	FileKindORC
)

func (k FileKind) String() string {
	switch k {
	case FileKindParquet:
		return "parquet"
	case FileKindORC:
		return "orc"
	default:
		return "unknown"
	}
}

// Compression identifies the outer compression codec of an input file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZlib
	CompressionSnappy
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	default:
		return "none"
	}
}

// DetectCompression reports the codec implied by the path's last
// extension. Extensions are matched case-insensitively.
func DetectCompression(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return CompressionGzip
	case ".zlib", ".z":
		return CompressionZlib
	case ".snappy", ".sz":
		return CompressionSnappy
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// StripCompression removes one compression extension from the path, or
// returns it unchanged when the last extension is not a known codec.
func StripCompression(name string) string {
	if DetectCompression(name) == CompressionNone {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// DetectFileKind classifies a path as Parquet or ORC, looking through at
// most one compression extension: "events.parquet.gz" is gzipped Parquet,
// but "events.gz" is unknown.
func DetectFileKind(name string) FileKind {
	switch strings.ToLower(filepath.Ext(StripCompression(name))) {
	case ".parquet":
		return FileKindParquet
	case ".orc":
		return FileKindORC
	default:
		return FileKindUnknown
	}
}
