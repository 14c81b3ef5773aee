package field

import "github.com/vmihailenco/msgpack/v5"

// anyRoundTrip confirms v is representable in the engine's opaque payload
// encoding (msgpack, the same codec package action uses for provenance
// result data) and returns the decoded, canonicalized form.
func anyRoundTrip(v any) (any, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := msgpack.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
