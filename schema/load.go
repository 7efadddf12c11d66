package schema

import (
	_ "embed"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/hupe1980/leadrec/model"
)

//go:embed market.yaml
var marketYAML []byte

// DefaultYAML returns the embedded market schema document.
func DefaultYAML() []byte {
	out := make([]byte, len(marketYAML))
	copy(out, marketYAML)
	return out
}

// Default returns the embedded market schema.
func Default() (*Schema, error) {
	return Parse(marketYAML)
}

// MustDefault is like Default but panics on error.
func MustDefault() *Schema {
	s, err := Default()
	if err != nil {
		panic(fmt.Errorf("embedded market schema: %w", err))
	}
	return s
}

// Parse decodes and validates a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, model.WrapSchemaError("", err, "parse schema")
	}
	return unmarshal(k)
}

// LoadFile reads, decodes and validates a YAML schema file.
func LoadFile(path string) (*Schema, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, model.WrapSchemaError("", err, "load schema %s", path)
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Schema, error) {
	s := &Schema{}
	if err := k.UnmarshalWithConf("", s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, model.WrapSchemaError("", err, "decode schema")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
