// Package filesource reads the catalog from a local JSON or YAML file.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/library-desk/catalog"
)

// Format is the encoding of a catalog file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrEmptyPath is returned by New when no path was supplied.
var ErrEmptyPath = errors.New("empty catalog file path supplied")

// ErrUnknownFormat is returned for formats other than json and yaml.
var ErrUnknownFormat = errors.New("unknown catalog file format")

// Source is a catalog.Source reading a file on every Fetch.
type Source struct {
	path   string
	format Format
}

// Option defines a functional option for configuring a Source.
type Option func(*Source) error

// WithFormat overrides the format detected from the file extension.
func WithFormat(format Format) Option {
	return func(s *Source) error {
		switch format {
		case FormatJSON, FormatYAML:
			s.format = format
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
	}
}

// New creates a Source for the file at path.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func New(path string, options ...Option) (*Source, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	source := &Source{
		path:   path,
		format: formatFromExtension(path),
	}

	for _, option := range options {
		if err := option(source); err != nil {
			return nil, err
		}
	}

	return source, nil
}

// Fetch reads and decodes the file.
func (s *Source) Fetch(ctx context.Context) ([]catalog.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, err)
	}

	var records []catalog.Record

	switch s.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &records)
	default:
		err = jsoniter.ConfigFastest.Unmarshal(data, &records)
	}

	if err != nil {
		return nil, errors.Join(catalog.ErrDecodingCatalogFailed, fmt.Errorf("%s: %w", s.path, err))
	}

	return records, nil
}

func formatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
