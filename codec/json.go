package codec

import "encoding/json"

// JSON writes manifests any JSON tool can read back; artifacts written with
// it stay loadable without go-json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }

// Default is the codec for new artifacts.
var Default Codec = GoJSON{}
