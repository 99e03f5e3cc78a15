// Package pskeys contains the issuer key pair of the PS signature scheme and
// the attribute catalog it is generated for.
package pskeys

import (
	"fmt"
	"io"
	"os"

	"github.com/go-errors/errors"
	"github.com/intx4/Atopet/cbor"
	"github.com/intx4/Atopet/internal/common"
	"github.com/intx4/Atopet/pairing"
	"github.com/multiformats/go-multihash"
)

type (
	// PublicKey represents an issuer's public key.
	PublicKey struct {
		G       *pairing.G1   `json:"g"`
		GTilde  *pairing.G2   `json:"gtilde"`
		XTilde  *pairing.G2   `json:"xtilde"` // g~^x
		Y       []*pairing.G1 `json:"y"`      // g^y_i, one per slot
		YTilde  []*pairing.G2 `json:"ytilde"` // g~^y_i, one per slot
		Catalog Catalog       `json:"catalog"`
	}

	// SecretKey represents an issuer's secret key.
	SecretKey struct {
		X   *pairing.Scalar   `json:"x"`
		XG1 *pairing.G1       `json:"xg1"` // g^x
		Y   []*pairing.Scalar `json:"y"`
	}
)

var ErrSlotMismatch = errors.New("number of key elements does not match the attribute catalog")

// GenerateKeyPair generates a fresh issuer key pair for the attribute catalog.
func GenerateKeyPair(catalog Catalog) (*SecretKey, *PublicKey, error) {
	if err := catalog.Validate(); err != nil {
		return nil, nil, err
	}

	x, err := pairing.RandomScalar()
	if err != nil {
		return nil, nil, err
	}
	ys, err := common.RandomScalars(catalog.NumSlots())
	if err != nil {
		return nil, nil, err
	}

	g, gt := pairing.G1Generator(), pairing.G2Generator()
	sk := &SecretKey{
		X:   x,
		XG1: new(pairing.G1).Exp(g, x),
		Y:   ys,
	}

	Y := make([]*pairing.G1, len(ys))
	YTilde := make([]*pairing.G2, len(ys))
	for i, y := range ys {
		Y[i] = new(pairing.G1).Exp(g, y)
		YTilde[i] = new(pairing.G2).Exp(gt, y)
	}
	pk, err := NewPublicKey(g, gt, new(pairing.G2).Exp(gt, x), Y, YTilde, catalog)
	if err != nil {
		return nil, nil, err
	}
	return sk, pk, nil
}

// NewPublicKey creates a new public key, checking that it has one pair of
// bases per slot of the catalog.
func NewPublicKey(g *pairing.G1, gtilde, xtilde *pairing.G2, y []*pairing.G1, ytilde []*pairing.G2, catalog Catalog) (*PublicKey, error) {
	c := make(Catalog, len(catalog))
	copy(c, catalog)
	pk := &PublicKey{
		G:       g,
		GTilde:  gtilde,
		XTilde:  xtilde,
		Y:       y,
		YTilde:  ytilde,
		Catalog: c,
	}
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	return pk, nil
}

// NewPublicKeyFromBytes decodes and validates a public key.
func NewPublicKeyFromBytes(bts []byte) (*PublicKey, error) {
	pk := &PublicKey{}
	if err := cbor.Unmarshal(bts, pk); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode public key", 0)
	}
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	return pk, nil
}

// NewPublicKeyFromFile reads and validates a public key from a file.
func NewPublicKeyFromFile(filename string) (*PublicKey, error) {
	bts, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(bts)
}

// Validate checks the shape of the public key against its catalog.
func (pubk *PublicKey) Validate() error {
	if err := pubk.Catalog.Validate(); err != nil {
		return err
	}
	if pubk.G == nil || pubk.GTilde == nil || pubk.XTilde == nil {
		return errors.WrapPrefix(ErrSlotMismatch, "missing generator", 0)
	}
	if pubk.G.IsIdentity() || pubk.GTilde.IsIdentity() {
		return errors.WrapPrefix(pairing.ErrInvalidElement, "generator is the neutral element", 0)
	}
	n := pubk.Catalog.NumSlots()
	if len(pubk.Y) != n || len(pubk.YTilde) != n {
		return errors.WrapPrefix(ErrSlotMismatch,
			fmt.Sprintf("%d catalog slots, %d Y and %d Y~ elements", n, len(pubk.Y), len(pubk.YTilde)), 0)
	}
	for i := range pubk.Y {
		if pubk.Y[i] == nil || pubk.YTilde[i] == nil {
			return errors.WrapPrefix(ErrSlotMismatch, "missing slot base", 0)
		}
	}
	return nil
}

// Base returns the pair of bases (Y_i, Y~_i) of a subscription attribute.
func (pubk *PublicKey) Base(name string) (*pairing.G1, *pairing.G2, error) {
	i, err := pubk.Catalog.Index(name)
	if err != nil {
		return nil, nil, err
	}
	return pubk.Y[i], pubk.YTilde[i], nil
}

// PrivateKeyBase returns the bases of the holder's private key slot.
func (pubk *PublicKey) PrivateKeyBase() (*pairing.G1, *pairing.G2) {
	i := pubk.Catalog.PrivateKeySlot()
	return pubk.Y[i], pubk.YTilde[i]
}

// UsernameBase returns the bases of the username slot; ok is false if the catalog has none.
func (pubk *PublicKey) UsernameBase() (y *pairing.G1, ytilde *pairing.G2, ok bool) {
	i := pubk.Catalog.UsernameSlot()
	if i < 0 {
		return nil, nil, false
	}
	return pubk.Y[i], pubk.YTilde[i], true
}

// Bytes returns the CBOR encoding of the public key.
func (pubk *PublicKey) Bytes() ([]byte, error) {
	return cbor.Marshal(pubk)
}

// Fingerprint returns the sha2-256 multihash of the encoded public key.
func (pubk *PublicKey) Fingerprint() (multihash.Multihash, error) {
	bts, err := pubk.Bytes()
	if err != nil {
		return nil, err
	}
	return multihash.Sum(bts, multihash.SHA2_256, -1)
}

// WriteTo writes the CBOR encoding of the public key to the given writer.
func (pubk *PublicKey) WriteTo(writer io.Writer) (int64, error) {
	bts, err := pubk.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := writer.Write(bts)
	return int64(n), err
}

// WriteToFile writes the public key to a file, refusing to overwrite an existing one unless forceOverwrite is set.
func (pubk *PublicKey) WriteToFile(filename string, forceOverwrite bool) (int64, error) {
	return writeToFile(pubk, filename, forceOverwrite, 0644)
}

// NewSecretKeyFromBytes decodes a secret key.
func NewSecretKeyFromBytes(bts []byte) (*SecretKey, error) {
	sk := &SecretKey{}
	if err := cbor.Unmarshal(bts, sk); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode secret key", 0)
	}
	if sk.X == nil || sk.XG1 == nil || len(sk.Y) == 0 {
		return nil, errors.WrapPrefix(ErrSlotMismatch, "incomplete secret key", 0)
	}
	for _, y := range sk.Y {
		if y == nil {
			return nil, errors.WrapPrefix(ErrSlotMismatch, "incomplete secret key", 0)
		}
	}
	return sk, nil
}

// NewSecretKeyFromFile reads a secret key from a file.
func NewSecretKeyFromFile(filename string) (*SecretKey, error) {
	bts, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSecretKeyFromBytes(bts)
}

// Validate checks that the secret key belongs to the public key.
func (privk *SecretKey) Validate(pubk *PublicKey) error {
	if len(privk.Y) != pubk.Catalog.NumSlots() {
		return errors.WrapPrefix(ErrSlotMismatch,
			fmt.Sprintf("%d catalog slots, %d y exponents", pubk.Catalog.NumSlots(), len(privk.Y)), 0)
	}
	if !new(pairing.G2).Exp(pubk.GTilde, privk.X).Equal(pubk.XTilde) || !new(pairing.G1).Exp(pubk.G, privk.X).Equal(privk.XG1) {
		return errors.New("secret key does not match public key")
	}
	for i, y := range privk.Y {
		if !new(pairing.G1).Exp(pubk.G, y).Equal(pubk.Y[i]) || !new(pairing.G2).Exp(pubk.GTilde, y).Equal(pubk.YTilde[i]) {
			return errors.Errorf("secret key does not match public key in slot %d", i)
		}
	}
	return nil
}

// Bytes returns the CBOR encoding of the secret key.
func (privk *SecretKey) Bytes() ([]byte, error) {
	return cbor.Marshal(privk)
}

// WriteTo writes the CBOR encoding of the secret key to the given writer.
func (privk *SecretKey) WriteTo(writer io.Writer) (int64, error) {
	bts, err := privk.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := writer.Write(bts)
	return int64(n), err
}

// WriteToFile writes the secret key to a file readable only by its owner,
// refusing to overwrite an existing one unless forceOverwrite is set.
func (privk *SecretKey) WriteToFile(filename string, forceOverwrite bool) (int64, error) {
	return writeToFile(privk, filename, forceOverwrite, 0600)
}

func writeToFile(w io.WriterTo, filename string, forceOverwrite bool, perm os.FileMode) (int64, error) {
	f, err := common.CreateFile(filename, forceOverwrite, perm)
	if err != nil {
		return 0, err
	}
	defer common.Close(f)

	return w.WriteTo(f)
}
