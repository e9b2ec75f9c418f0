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

package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cardinalhq/lakeview/config"
	"github.com/cardinalhq/lakeview/internal/awsclient"
	"github.com/cardinalhq/lakeview/internal/cloudstorage"
	"github.com/cardinalhq/lakeview/internal/idgen"
)

// inputResolver turns command arguments into local file paths. Local
// paths pass through; s3:// URLs are downloaded into the temp dir. The
// AWS client is only built when the first s3 URL shows up, so purely
// local runs never touch AWS config. Cleanup removes every download.
type inputResolver struct {
	cfg     *config.Config
	client  *awsclient.S3Client
	scratch []string
}

func newInputResolver(cfg *config.Config) *inputResolver {
	return &inputResolver{cfg: cfg}
}

func (r *inputResolver) s3Client(ctx context.Context) (*awsclient.S3Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	mgr, err := awsclient.NewManager(ctx,
		awsclient.WithAssumeRoleSessionName("lakeview"),
	)
	if err != nil {
		return nil, err
	}

	var opts []awsclient.S3Option
	s3cfg := r.cfg.S3
	if s3cfg.RoleARN != "" {
		opts = append(opts, awsclient.WithRole(s3cfg.RoleARN))
	}
	if s3cfg.Region != "" {
		opts = append(opts, awsclient.WithRegion(s3cfg.Region))
	}
	if s3cfg.Endpoint != "" {
		opts = append(opts, awsclient.WithEndpoint(s3cfg.Endpoint))
	}
	if s3cfg.PathStyle {
		opts = append(opts, awsclient.WithPathStyle())
	}
	if s3cfg.InsecureTLS {
		opts = append(opts, awsclient.WithInsecureTLS())
	}
	if s3cfg.CloudProvider == "gcp" {
		opts = append(opts, awsclient.WithGCPProvider())
	}

	client, err := mgr.GetS3(ctx, opts...)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

// Resolve returns a local path for the given input, downloading s3://
// URLs first.
func (r *inputResolver) Resolve(ctx context.Context, raw string) (string, error) {
	bucket, key, ok := cloudstorage.ParseS3URL(raw)
	if !ok {
		return raw, nil
	}

	client, err := r.s3Client(ctx)
	if err != nil {
		return "", err
	}

	local, err := cloudstorage.DownloadS3Object(ctx, tempDir(r.cfg), client, bucket, key)
	if err != nil {
		return "", err
	}
	slog.Debug("downloaded s3 object", slog.String("url", raw), slog.String("local", local))
	r.scratch = append(r.scratch, local)
	return local, nil
}

// Cleanup removes all downloaded scratch files and the invocation's
// scratch directory.
func (r *inputResolver) Cleanup() {
	for _, path := range r.scratch {
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove downloaded file", slog.String("path", path), slog.Any("error", err))
		}
	}
	r.scratch = nil
	if err := os.RemoveAll(filepath.Join(scratchBase(r.cfg), runTag)); err != nil {
		slog.Warn("failed to remove scratch directory", slog.Any("error", err))
	}
}

// runTag names this invocation's scratch subdirectory, so concurrent
// invocations sharing one temp dir never collide.
var runTag = idgen.NewBase36ID()

func scratchBase(cfg *config.Config) string {
	if cfg.TempDir != "" {
		return cfg.TempDir
	}
	return os.TempDir()
}

// tempDir returns the invocation's scratch directory, creating it on
// first use. Downloads, staged sort files, and DuckDB spill all land
// here and Cleanup removes the whole directory.
func tempDir(cfg *config.Config) string {
	base := scratchBase(cfg)
	dir := filepath.Join(base, runTag)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("failed to create scratch directory, using base", slog.String("path", dir), slog.Any("error", err))
		return base
	}
	return dir
}
