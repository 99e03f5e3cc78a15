package pairing

import (
	"encoding/hex"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/go-errors/errors"
)

// Element is implemented by the group types on which proofs of knowledge are built.
// All groups are written multiplicatively. Operations set and return the receiver.
type Element[E any] interface {
	// Identity returns a fresh neutral element of the receiver's group.
	Identity() E
	Set(a E) E
	Mul(a, b E) E
	Exp(a E, s *Scalar) E
	Inverse(a E) E
	Equal(b E) bool
	IsIdentity() bool
	// Bytes returns the canonical encoding of the element.
	Bytes() []byte
}

var (
	ErrInvalidElement = errors.New("invalid group element")

	g1Gen bn254.G1Affine
	g2Gen bn254.G2Affine
)

func init() {
	_, _, g1Gen, g2Gen = bn254.Generators()
}

// G1 is an element of the first source group. The zero value is the neutral element.
type G1 struct {
	p bn254.G1Affine
}

// G2 is an element of the second source group. The zero value is the neutral element.
type G2 struct {
	p bn254.G2Affine
}

// GT is an element of the pairing target group. Use NewGT, the zero value is not a group element.
type GT struct {
	e bn254.GT
}

// G1Generator returns the fixed generator of G1.
func G1Generator() *G1 {
	return &G1{p: g1Gen}
}

// G2Generator returns the fixed generator of G2.
func G2Generator() *G2 {
	return &G2{p: g2Gen}
}

// NewGT returns the neutral element of GT.
func NewGT() *GT {
	e := new(GT)
	e.e.SetOne()
	return e
}

// Pair computes e(a, b).
func Pair(a *G1, b *G2) (*GT, error) {
	e, err := bn254.Pair([]bn254.G1Affine{a.p}, []bn254.G2Affine{b.p})
	if err != nil {
		return nil, errors.WrapPrefix(err, "pairing failed", 0)
	}
	return &GT{e: e}, nil
}

func (g *G1) Identity() *G1 { return new(G1) }

func (g *G1) Set(a *G1) *G1 {
	g.p.Set(&a.p)
	return g
}

func (g *G1) Mul(a, b *G1) *G1 {
	g.p.Add(&a.p, &b.p)
	return g
}

func (g *G1) Div(a, b *G1) *G1 {
	g.p.Sub(&a.p, &b.p)
	return g
}

func (g *G1) Exp(a *G1, s *Scalar) *G1 {
	g.p.ScalarMultiplication(&a.p, s.BigInt())
	return g
}

func (g *G1) Inverse(a *G1) *G1 {
	g.p.Neg(&a.p)
	return g
}

func (g *G1) Equal(b *G1) bool {
	return g.p.Equal(&b.p)
}

func (g *G1) IsIdentity() bool {
	return g.p.IsInfinity()
}

// IsValid reports whether g lies in the prime-order subgroup.
func (g *G1) IsValid() bool {
	return g.p.IsOnCurve() && g.p.IsInSubGroup()
}

func (g *G1) Bytes() []byte {
	b := g.p.Bytes()
	return b[:]
}

func (g *G1) String() string {
	return hex.EncodeToString(g.Bytes())
}

func (g *G1) MarshalBinary() ([]byte, error) {
	return g.Bytes(), nil
}

func (g *G1) UnmarshalBinary(data []byte) error {
	n, err := g.p.SetBytes(data)
	if err != nil {
		return errors.WrapPrefix(err, "invalid G1 encoding", 0)
	}
	if n != len(data) {
		return errors.WrapPrefix(ErrInvalidElement, "trailing bytes after G1 element", 0)
	}
	return nil
}

func (g *G1) MarshalText() ([]byte, error) {
	return encodeText(g.Bytes()), nil
}

func (g *G1) UnmarshalText(text []byte) error {
	b, err := decodeText(text)
	if err != nil {
		return err
	}
	return g.UnmarshalBinary(b)
}

func (g *G2) Set(a *G2) *G2 {
	g.p.Set(&a.p)
	return g
}

func (g *G2) Mul(a, b *G2) *G2 {
	g.p.Add(&a.p, &b.p)
	return g
}

func (g *G2) Exp(a *G2, s *Scalar) *G2 {
	g.p.ScalarMultiplication(&a.p, s.BigInt())
	return g
}

func (g *G2) Equal(b *G2) bool {
	return g.p.Equal(&b.p)
}

func (g *G2) IsIdentity() bool {
	return g.p.IsInfinity()
}

func (g *G2) IsValid() bool {
	return g.p.IsOnCurve() && g.p.IsInSubGroup()
}

func (g *G2) Bytes() []byte {
	b := g.p.Bytes()
	return b[:]
}

func (g *G2) String() string {
	return hex.EncodeToString(g.Bytes())
}

func (g *G2) MarshalBinary() ([]byte, error) {
	return g.Bytes(), nil
}

func (g *G2) UnmarshalBinary(data []byte) error {
	n, err := g.p.SetBytes(data)
	if err != nil {
		return errors.WrapPrefix(err, "invalid G2 encoding", 0)
	}
	if n != len(data) {
		return errors.WrapPrefix(ErrInvalidElement, "trailing bytes after G2 element", 0)
	}
	return nil
}

func (g *G2) MarshalText() ([]byte, error) {
	return encodeText(g.Bytes()), nil
}

func (g *G2) UnmarshalText(text []byte) error {
	b, err := decodeText(text)
	if err != nil {
		return err
	}
	return g.UnmarshalBinary(b)
}

func (g *GT) Identity() *GT { return NewGT() }

func (g *GT) Set(a *GT) *GT {
	g.e.Set(&a.e)
	return g
}

func (g *GT) Mul(a, b *GT) *GT {
	g.e.Mul(&a.e, &b.e)
	return g
}

func (g *GT) Div(a, b *GT) *GT {
	var inv bn254.GT
	inv.Inverse(&b.e)
	g.e.Mul(&a.e, &inv)
	return g
}

func (g *GT) Exp(a *GT, s *Scalar) *GT {
	g.e.Exp(a.e, s.BigInt())
	return g
}

func (g *GT) Inverse(a *GT) *GT {
	g.e.Inverse(&a.e)
	return g
}

func (g *GT) Equal(b *GT) bool {
	return g.e.Equal(&b.e)
}

func (g *GT) IsIdentity() bool {
	return g.e.IsOne()
}

func (g *GT) IsValid() bool {
	return g.e.IsInSubGroup()
}

func (g *GT) Bytes() []byte {
	b := g.e.Bytes()
	return b[:]
}

func (g *GT) String() string {
	return hex.EncodeToString(g.Bytes())
}

func (g *GT) MarshalBinary() ([]byte, error) {
	return g.Bytes(), nil
}

func (g *GT) UnmarshalBinary(data []byte) error {
	if err := g.e.SetBytes(data); err != nil {
		return errors.WrapPrefix(err, "invalid GT encoding", 0)
	}
	if !g.e.IsInSubGroup() {
		return errors.WrapPrefix(ErrInvalidElement, "GT element not in subgroup", 0)
	}
	return nil
}

func (g *GT) MarshalText() ([]byte, error) {
	return encodeText(g.Bytes()), nil
}

func (g *GT) UnmarshalText(text []byte) error {
	b, err := decodeText(text)
	if err != nil {
		return err
	}
	return g.UnmarshalBinary(b)
}
