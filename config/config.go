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

package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates configuration for the application.
type Config struct {
	Logging   LoggingConfig `mapstructure:"logging"`
	TempDir   string        `mapstructure:"temp_dir"`
	BatchSize int           `mapstructure:"batch_size"`
	View      ViewConfig    `mapstructure:"view"`
	DuckDB    DuckDBConfig  `mapstructure:"duckdb"`
	S3        S3Config      `mapstructure:"s3"`
}

type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `mapstructure:"level"`

	// File appends logs to this path in addition to stderr when set.
	File string `mapstructure:"file"`
}

// ViewConfig supplies the view command's flag defaults.
type ViewConfig struct {
	Limit    int64  `mapstructure:"limit"`
	Format   string `mapstructure:"format"`
	Truncate int    `mapstructure:"truncate"`
}

type DuckDBConfig struct {
	MemoryLimitMB int64 `mapstructure:"memory_limit_mb"`
	Threads       int   `mapstructure:"threads"`
}

// S3Config shapes the client used for s3:// inputs.
type S3Config struct {
	Region      string `mapstructure:"region"`
	Endpoint    string `mapstructure:"endpoint"`
	PathStyle   bool   `mapstructure:"path_style"`
	InsecureTLS bool   `mapstructure:"insecure_tls"`
	RoleARN     string `mapstructure:"role_arn"`

	// CloudProvider switches on S3-interoperable stores that need
	// different request signing; "gcp" is the only special value.
	CloudProvider string `mapstructure:"cloud_provider"`
}

// Load reads configuration from an optional config.yaml in the working
// directory and from environment variables. Environment variables use the
// prefix "LAKEVIEW" and the dot character in keys is replaced by an
// underscore. For example, "view.limit" becomes "LAKEVIEW_VIEW_LIMIT".
func Load() (*Config, error) {
	cfg := &Config{
		Logging:   LoggingConfig{Level: "info"},
		BatchSize: 1000,
		View: ViewConfig{
			Limit:  10,
			Format: "table",
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("LAKEVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
