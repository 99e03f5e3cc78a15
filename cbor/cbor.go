// Package cbor provides the wire encoding of keys, credentials and protocol
// messages, by wrapping functions provided by github.com/fxamacker/cbor.
//
// 1. CBOR is encoded using Core Deterministic Encoding defined in
//    RFC 8949, so that a message has exactly one encoding.
// 2. CBOR decoder detects and rejects duplicate map keys and unknown
//    struct fields.
// 3. Group elements and scalars implement encoding.BinaryMarshaler and
//    are encoded as byte strings holding their canonical encoding.
//
// For more info, see:
//   * https://github.com/fxamacker/cbor
//   * https://tools.ietf.org/html/rfc8949
package cbor

import (
	"io"

	"github.com/fxamacker/cbor/v2" // imports as cbor
	"github.com/go-errors/errors"
)

// Protocol messages carry at most one entry per attribute slot, so these
// bounds are generous.
const MaxArrayElements = 1024 * 16
const MaxMapPairs = 1024 * 16

var (
	encOptions = cbor.EncOptions{
		// See https://datatracker.ietf.org/doc/html/rfc8949#section-4.2.1
		IndefLength:   cbor.IndefLengthForbidden,
		NaNConvert:    cbor.NaNConvert7e00,
		InfConvert:    cbor.InfConvertFloat16,
		ShortestFloat: cbor.ShortestFloat16,
		Sort:          cbor.SortCoreDeterministic,

		TagsMd: cbor.TagsForbidden,
	}

	decOptions = cbor.DecOptions{
		IndefLength: cbor.IndefLengthForbidden,

		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: MaxArrayElements,
		MaxMapPairs:      MaxMapPairs,

		TagsMd:  cbor.TagsForbidden,
		TimeTag: cbor.DecTagIgnored,

		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}

	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = encOptions.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = decOptions.DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes src into a CBOR-encoded byte slice.
func Marshal(src interface{}) ([]byte, error) {
	bts, err := encMode.Marshal(src)
	if err != nil {
		return nil, errors.WrapPrefix(err, "failed to encode CBOR", 0)
	}
	return bts, nil
}

// Unmarshal decodes CBOR in data into dst.
func Unmarshal(data []byte, dst interface{}) error {
	if err := decMode.Unmarshal(data, dst); err != nil {
		return errors.WrapPrefix(err, "failed to decode CBOR", 0)
	}
	return nil
}

// Wellformed checks whether data is a single well-formed CBOR data item within the decoder's limits.
func Wellformed(data []byte) error {
	return decMode.Wellformed(data)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
