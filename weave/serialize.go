package weave

import "github.com/vmihailenco/msgpack/v5"

// wireWeave is the on-the-wire shape of a Weave (§6): the owning site plus
// the canonical atom sequence, nothing else. Every other field is rebuilt by
// FromSerialized.
type wireWeave[V comparable] struct {
	Owner SiteID    `msgpack:"owner"`
	Atoms []Atom[V] `msgpack:"atoms"`
}

// MarshalBinary encodes the weave's owner and canonical atom sequence as
// msgpack. Auxiliary indices (yarn cache, weft, weave-index map) are not
// serialized; FromSerialized rebuilds them on load.
func (w *Weave[V]) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(wireWeave[V]{Owner: w.owner, Atoms: w.atoms})
}

// UnmarshalWeave decodes a weave previously written by MarshalBinary and
// rebuilds its auxiliary indices. It does not validate the result; call
// Validate on the returned weave if data may not be trustworthy.
func UnmarshalWeave[V comparable](data []byte) (*Weave[V], error) {
	var wire wireWeave[V]
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return FromSerialized[V](wire.Owner, wire.Atoms), nil
}
