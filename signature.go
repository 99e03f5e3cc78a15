package atopet

import (
	"github.com/go-errors/errors"
	"github.com/intx4/Atopet/cbor"
	"github.com/intx4/Atopet/pairing"
	"github.com/intx4/Atopet/pskeys"
)

// Signature is a Pointcheval-Sanders signature (sigma1, sigma2) over one message per key slot.
type Signature struct {
	Sigma1 *pairing.G1 `json:"sigma1"`
	Sigma2 *pairing.G1 `json:"sigma2"`
}

// NeutralSignature returns the signature consisting of two neutral elements,
// which an issuer returns instead of a signature when it rejects a request.
func NeutralSignature() *Signature {
	return &Signature{Sigma1: new(pairing.G1), Sigma2: new(pairing.G1)}
}

// signMessageBlockAndCommitment signs the messages ms, one per slot starting
// at slot 0, together with a commitment C to the messages of the remaining slots:
// sigma1 = g^u, sigma2 = (X * C * Π Y_i^m_i)^u.
func signMessageBlockAndCommitment(sk *pskeys.SecretKey, pk *pskeys.PublicKey, C *pairing.G1, ms []*pairing.Scalar) (*Signature, error) {
	if len(ms) > len(pk.Y) {
		return nil, pskeys.ErrSlotMismatch
	}
	var u *pairing.Scalar
	for u == nil || u.IsZero() {
		var err error
		if u, err = pairing.RandomScalar(); err != nil {
			return nil, err
		}
	}

	M := new(pairing.G1).Mul(sk.XG1, C)
	for i, m := range ms {
		M.Mul(M, new(pairing.G1).Exp(pk.Y[i], m))
	}

	return &Signature{
		Sigma1: new(pairing.G1).Exp(pk.G, u),
		Sigma2: M.Exp(M, u),
	}, nil
}

// SignMessageBlock signs a message block (ms), holding one message per key
// slot, without blinding.
func SignMessageBlock(sk *pskeys.SecretKey, pk *pskeys.PublicKey, ms []*pairing.Scalar) (*Signature, error) {
	if len(ms) != pk.Catalog.NumSlots() {
		return nil, pskeys.ErrSlotMismatch
	}
	return signMessageBlockAndCommitment(sk, pk, new(pairing.G1), ms)
}

// NewSignatureFromBytes decodes a signature.
func NewSignatureFromBytes(bts []byte) (*Signature, error) {
	s := &Signature{}
	if err := cbor.Unmarshal(bts, s); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode signature", 0)
	}
	if s.Sigma1 == nil || s.Sigma2 == nil {
		return nil, errors.WrapPrefix(pairing.ErrInvalidElement, "incomplete signature", 0)
	}
	return s, nil
}

func (s *Signature) Bytes() ([]byte, error) {
	return cbor.Marshal(s)
}

// IsNeutral reports whether both components of the signature are the neutral
// element, i.e. whether the issuer rejected the request.
func (s *Signature) IsNeutral() bool {
	return s == nil || s.Sigma1 == nil || s.Sigma2 == nil || (s.Sigma1.IsIdentity() && s.Sigma2.IsIdentity())
}

// Verify checks whether the signature is correct while being given a public key
// and the messages, one per key slot:
// sigma1 != 1 and e(sigma1, X~ * Π Y~_i^m_i) == e(sigma2, g~).
func (s *Signature) Verify(pk *pskeys.PublicKey, ms []*pairing.Scalar) bool {
	if s == nil || s.Sigma1 == nil || s.Sigma2 == nil || s.Sigma1.IsIdentity() {
		return false
	}
	if len(ms) != len(pk.YTilde) {
		return false
	}

	rhs := new(pairing.G2).Set(pk.XTilde)
	for i, m := range ms {
		rhs.Mul(rhs, new(pairing.G2).Exp(pk.YTilde[i], m))
	}
	left, err := pairing.Pair(s.Sigma1, rhs)
	if err != nil {
		return false
	}
	right, err := pairing.Pair(s.Sigma2, pk.GTilde)
	if err != nil {
		return false
	}
	return left.Equal(right)
}

// Randomize returns the randomized signature (sigma1^r, (sigma1^t * sigma2)^r),
// which is valid for the messages of s plus t added to the exponent of g.
func (s *Signature) Randomize(r, t *pairing.Scalar) *Signature {
	sigma2 := new(pairing.G1).Exp(s.Sigma1, t)
	sigma2.Mul(sigma2, s.Sigma2)
	return &Signature{
		Sigma1: new(pairing.G1).Exp(s.Sigma1, r),
		Sigma2: sigma2.Exp(sigma2, r),
	}
}
