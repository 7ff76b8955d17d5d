// Package config loads the label map and service settings. Label maps are
// data: a provider with a different vocabulary gets a file, not a code change.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"value_investor/pkg/core/calc"
)

// Mapping is the content of a label-map file. Concepts override the defaults
// one by one; Cards, when present, replace the default header cards.
type Mapping struct {
	Concepts calc.LabelMap   `json:"concepts" yaml:"concepts"`
	Cards    []calc.InfoCard `json:"cards,omitempty" yaml:"cards,omitempty"`
}

// DefaultMapping is the built-in yfinance-style mapping.
func DefaultMapping() Mapping {
	return Mapping{
		Concepts: calc.DefaultLabelMap(),
		Cards:    calc.DefaultInfoCards(),
	}
}

var validate = validator.New()

// Validate checks every concept source and card.
func (m Mapping) Validate() error {
	for _, c := range m.Concepts.Concepts() {
		if c == "" {
			return errors.New("label map: empty concept name")
		}
		if err := validate.Struct(m.Concepts[c]); err != nil {
			return errors.Wrapf(err, "label map: concept %q", c)
		}
	}
	for i, card := range m.Cards {
		if err := validate.Struct(card); err != nil {
			return errors.Wrapf(err, "label map: card %d (%s)", i, card.Title)
		}
	}
	return nil
}

// ParseMapping decodes a mapping document. ext selects the syntax: ".hjson" and
// ".json" go through Hjson (a superset of JSON), everything else is YAML.
// The result is merged over DefaultMapping and validated.
func ParseMapping(data []byte, ext string) (Mapping, error) {
	var override Mapping
	switch strings.ToLower(ext) {
	case ".hjson", ".json":
		if err := hjson.Unmarshal(data, &override); err != nil {
			return Mapping{}, errors.Wrap(err, "parse hjson label map")
		}
	default:
		if err := yaml.UnmarshalStrict(data, &override); err != nil {
			return Mapping{}, errors.Wrap(err, "parse yaml label map")
		}
	}

	m := DefaultMapping()
	m.Concepts = m.Concepts.Merge(override.Concepts)
	if len(override.Cards) > 0 {
		m.Cards = override.Cards
	}
	if err := m.Validate(); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

// LoadMapping reads a mapping file. An empty path returns DefaultMapping.
func LoadMapping(path string) (Mapping, error) {
	if path == "" {
		return DefaultMapping(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, errors.Wrapf(err, "read label map %s", path)
	}
	return ParseMapping(data, filepath.Ext(path))
}
