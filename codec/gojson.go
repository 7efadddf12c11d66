package codec

import gojson "github.com/goccy/go-json"

// GoJSON is the default manifest codec. Manifests hold only ids, schema
// names and tokens, so HTML escaping is skipped.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.MarshalNoEscape(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

func (GoJSON) Name() string { return "go-json" }

// MarshalIndent renders v as two-space indented JSON for terminal output.
func MarshalIndent(v any) ([]byte, error) { return gojson.MarshalIndent(v, "", "  ") }
