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

import "errors"

var (
	// ErrUnsupportedFileType indicates a path whose extension maps to no
	// known columnar format, after looking through one compression suffix.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileNotFound indicates an input path that does not exist locally.
	ErrFileNotFound = errors.New("file not found")
)
