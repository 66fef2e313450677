/*
 *  MIT License
 *
 *  Copyright (c) 2025 David Fischer
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

// Package config holds the immutable option set a reader is constructed
// with: extraction overwrite policy, tar trailer verification, alternate
// decoder backends, and the fallback encodings for zip text fields.
package config

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is a single immutable value passed at reader construction. The
// zero value is not usable; start from Default.
type Config struct {
	// OverwriteMode decides what extraction does when the destination
	// already exists.
	OverwriteMode OverwriteMode `mapstructure:"overwrite_mode" json:"overwrite_mode" yaml:"overwrite_mode"`

	// TarCheckIntegrity verifies the two all-zero 512-byte trailer blocks
	// after the last tar record, when the transport is seekable.
	TarCheckIntegrity bool `mapstructure:"tar_check_integrity" json:"tar_check_integrity" yaml:"tar_check_integrity"`

	// UseKlauspostGzip selects github.com/klauspost/compress/gzip over the
	// standard library for gzip transports.
	UseKlauspostGzip bool `mapstructure:"use_klauspost_gzip" json:"use_klauspost_gzip" yaml:"use_klauspost_gzip"`

	// UseDsnetBzip2 selects github.com/dsnet/compress/bzip2 over the
	// standard library for bzip2 transports.
	UseDsnetBzip2 bool `mapstructure:"use_dsnet_bzip2" json:"use_dsnet_bzip2" yaml:"use_dsnet_bzip2"`

	// ZipFallbackEncodings is the ordered list of encodings tried for zip
	// text fields that are not flagged UTF-8.
	ZipFallbackEncodings []string `mapstructure:"zip_fallback_encodings" json:"zip_fallback_encodings" yaml:"zip_fallback_encodings"`
}

// Default returns the configuration used when a caller passes nil.
func Default() *Config {
	return &Config{
		OverwriteMode:        OverwriteError,
		TarCheckIntegrity:    false,
		ZipFallbackEncodings: []string{"cp437", "cp1252", "latin-1"},
	}
}

// Load reads a configuration file (any format viper understands) and merges
// it over the defaults.
func Load(path string) (*Config, error) {
	var (
		cfg = Default()
		vpr = viper.New()
	)

	vpr.SetConfigFile(path)

	if err := vpr.ReadInConfig(); err != nil {
		return nil, ErrorConfigRead.Error(err)
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	// a list given in the file replaces the default list instead of being
	// decoded over it element by element
	if vpr.IsSet("zip_fallback_encodings") {
		cfg.ZipFallbackEncodings = nil
	}

	if err := vpr.Unmarshal(cfg, hook); err != nil {
		return nil, ErrorConfigParse.Error(err)
	}

	return cfg, nil
}

// Clone returns a copy so that a caller-held Config cannot mutate a reader's
// snapshot.
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}

	res := *c
	res.ZipFallbackEncodings = append([]string(nil), c.ZipFallbackEncodings...)

	return &res
}
