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
	"os"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakeview/internal/filereader"
	"github.com/cardinalhq/lakeview/internal/inspect"
)

func init() {
	cmd := &cobra.Command{
		Use:   "metadata <files...>",
		Short: "Display metadata about ORC/Parquet files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInspect("metadata", args, func(ctx context.Context, src filereader.Source) error {
				return inspect.WriteMetadata(ctx, os.Stdout, src)
			})
		},
	}
	rootCmd.AddCommand(cmd)
}
