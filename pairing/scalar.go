// Package pairing contains the group and scalar types of the credential scheme:
// scalars modulo the group order, the two source groups G1 and G2, and the
// pairing target group GT, all over the BN254 curve.
package pairing

import (
	"encoding/base64"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/go-errors/errors"
)

// ScalarSize is the length in bytes of an encoded Scalar.
const ScalarSize = fr.Bytes

// Scalar is an integer modulo the order of the groups. The zero value is 0.
type Scalar struct {
	v fr.Element
}

// Order returns the (prime) order of G1, G2 and GT.
func Order() *big.Int {
	return fr.Modulus()
}

// RandomScalar returns a uniformly random scalar read from crypto/rand.
func RandomScalar() (*Scalar, error) {
	s := new(Scalar)
	if _, err := s.v.SetRandom(); err != nil {
		return nil, errors.WrapPrefix(err, "failed to sample random scalar", 0)
	}
	return s, nil
}

// NewScalar returns the scalar x mod r.
func NewScalar(x int64) *Scalar {
	s := new(Scalar)
	s.v.SetInt64(x)
	return s
}

// ScalarFromBigInt returns x mod r.
func ScalarFromBigInt(x *big.Int) *Scalar {
	s := new(Scalar)
	s.v.SetBigInt(x)
	return s
}

// ScalarFromBytes interprets b as a big-endian unsigned integer of any length and reduces it mod r.
func ScalarFromBytes(b []byte) *Scalar {
	s := new(Scalar)
	s.v.SetBytes(b)
	return s
}

func (s *Scalar) Set(a *Scalar) *Scalar {
	s.v.Set(&a.v)
	return s
}

func (s *Scalar) Add(a, b *Scalar) *Scalar {
	s.v.Add(&a.v, &b.v)
	return s
}

func (s *Scalar) Sub(a, b *Scalar) *Scalar {
	s.v.Sub(&a.v, &b.v)
	return s
}

func (s *Scalar) Mul(a, b *Scalar) *Scalar {
	s.v.Mul(&a.v, &b.v)
	return s
}

func (s *Scalar) Neg(a *Scalar) *Scalar {
	s.v.Neg(&a.v)
	return s
}

func (s *Scalar) Equal(a *Scalar) bool {
	return s.v.Equal(&a.v)
}

func (s *Scalar) IsZero() bool {
	return s.v.IsZero()
}

// BigInt returns s as an integer in [0, r).
func (s *Scalar) BigInt() *big.Int {
	return s.v.BigInt(new(big.Int))
}

// Bytes returns the 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	b := s.v.Bytes()
	return b[:]
}

func (s *Scalar) String() string {
	return s.v.String()
}

func (s *Scalar) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

// UnmarshalBinary only accepts canonical encodings, i.e. 32 bytes holding a value below r.
func (s *Scalar) UnmarshalBinary(data []byte) error {
	if err := s.v.SetBytesCanonical(data); err != nil {
		return errors.WrapPrefix(err, "invalid scalar encoding", 0)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler, returning the base64-encoding of s.Bytes().
func (s *Scalar) MarshalText() ([]byte, error) {
	return encodeText(s.Bytes()), nil
}

func (s *Scalar) UnmarshalText(text []byte) error {
	b, err := decodeText(text)
	if err != nil {
		return err
	}
	return s.UnmarshalBinary(b)
}

func encodeText(bts []byte) []byte {
	enc := make([]byte, base64.StdEncoding.EncodedLen(len(bts)))
	base64.StdEncoding.Encode(enc, bts)
	return enc
}

func decodeText(text []byte) ([]byte, error) {
	bts := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(bts, text)
	if err != nil {
		return nil, errors.WrapPrefix(err, "text was not base64", 0)
	}
	return bts[:n], nil
}
