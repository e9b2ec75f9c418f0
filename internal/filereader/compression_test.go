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
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressToTempRoundTrip(t *testing.T) {
	payload := []byte("not actually parquet, but enough to round-trip")

	cases := []struct {
		name     string
		compress func(w io.Writer) io.WriteCloser
	}{
		{"data.parquet.gz", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) }},
		{"data.parquet.zlib", func(w io.Writer) io.WriteCloser { return zlib.NewWriter(w) }},
		{"data.parquet.snappy", func(w io.Writer) io.WriteCloser {
			return snappy.NewBufferedWriter(w)
		}},
		{"data.parquet.zst", func(w io.Writer) io.WriteCloser {
			zw, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return zw
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tc.name)
			f, err := os.Create(path)
			require.NoError(t, err)
			cw := tc.compress(f)
			_, err = cw.Write(payload)
			require.NoError(t, err)
			require.NoError(t, cw.Close())
			require.NoError(t, f.Close())

			out, err := DecompressToTemp(context.Background(),
				path, DetectCompression(tc.name), dir)
			require.NoError(t, err)
			t.Cleanup(func() { _ = os.Remove(out) })

			got, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, payload, got)

			// The inflated file keeps the inner name so kind detection
			// still sees a parquet file.
			assert.True(t, strings.HasSuffix(out, "data.parquet"), "got %s", out)
			assert.Equal(t, FileKindParquet, DetectFileKind(out))
		})
	}
}

func TestDecompressToTempRejectsUncompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.parquet")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := DecompressToTemp(context.Background(), path, CompressionNone, dir)
	assert.Error(t, err)
}
