// Package codec encodes the structured parts of a model artifact.
//
// The codec name is written into every artifact header, so changing the
// default never breaks reading older files: Load picks the codec by name.
package codec

import "slices"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// MaxNameLen is the longest codec name an artifact header can hold.
const MaxNameLen = 16

var builtin = map[string]Codec{
	"json":    JSON{},
	"go-json": GoJSON{},
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}

// Names lists the built-in codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
