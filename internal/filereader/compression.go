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
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// DecompressToTemp inflates a compressed input into a fresh file under
// dir. Both pqarrow and DuckDB need random access to a plain local file,
// so compressed inputs are always fully materialized first. The temp name
// ends with the inner filename so kind detection keeps working on the
// result. The caller removes the file when done with it.
func DecompressToTemp(ctx context.Context, path string, c Compression, dir string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = in.Close() }()

	var src io.Reader
	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("gzip %s: %w", path, err)
		}
		defer func() { _ = gz.Close() }()
		src = gz
	case CompressionZlib:
		zr, err := zlib.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("zlib %s: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		src = zr
	case CompressionSnappy:
		src = snappy.NewReader(in)
	case CompressionZstd:
		dec, err := zstd.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("zstd %s: %w", path, err)
		}
		defer dec.Close()
		src = dec
	default:
		return "", fmt.Errorf("no decompressor for %s", c)
	}

	inner := StripCompression(filepath.Base(path))
	out, err := os.CreateTemp(dir, "*-"+inner)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	written, err := io.Copy(out, src)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("decompress %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}
	decompressedBytesCounter.Add(ctx, written)
	return out.Name(), nil
}
