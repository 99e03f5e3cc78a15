// Package zkproof implements non-interactive proofs of knowledge of the
// representation of a Pedersen commitment, over any of the groups of the
// pairing package.
package zkproof

import (
	"reflect"

	"github.com/go-errors/errors"
	"github.com/intx4/Atopet/internal/common"
	"github.com/intx4/Atopet/pairing"
)

var ErrMalformedStatement = errors.New("secrets and generators do not match")

// PedersenProof proves knowledge of secrets s_i such that Commitment = Π g_i^s_i,
// for a list of generators g_i known to the verifier. The challenge is derived
// with the Fiat-Shamir heuristic over the proof commitment, Commitment, the
// generators and a message, which binds the proof to that message.
type PedersenProof[E pairing.Element[E]] struct {
	Commitment E                 `json:"commitment"`
	Challenge  *pairing.Scalar   `json:"challenge"`
	Responses  []*pairing.Scalar `json:"responses"`
}

// Commit computes Π generators_i^secrets_i.
func Commit[E pairing.Element[E]](secrets []*pairing.Scalar, generators []E) (E, error) {
	var res E
	if len(generators) == 0 || len(secrets) != len(generators) {
		return res, ErrMalformedStatement
	}
	res = generators[0].Identity()
	for i, g := range generators {
		if isNil(g) || secrets[i] == nil {
			return res, ErrMalformedStatement
		}
		res.Mul(res, g.Identity().Exp(g, secrets[i]))
	}
	return res, nil
}

// ProofBuilder holds the state of a proof between committing to randomizers
// and answering a challenge, so that several proofs can share one challenge.
type ProofBuilder[E pairing.Element[E]] struct {
	secrets     []*pairing.Scalar
	generators  []E
	commitment  E
	randomizers []*pairing.Scalar
}

// NewProofBuilder prepares a proof of knowledge of secrets for commitment, which
// must equal Commit(secrets, generators).
func NewProofBuilder[E pairing.Element[E]](secrets []*pairing.Scalar, generators []E, commitment E) (*ProofBuilder[E], error) {
	if len(generators) == 0 || len(secrets) != len(generators) || isNil(commitment) {
		return nil, ErrMalformedStatement
	}
	for i := range secrets {
		if secrets[i] == nil || isNil(generators[i]) {
			return nil, ErrMalformedStatement
		}
	}
	return &ProofBuilder[E]{secrets: secrets, generators: generators, commitment: commitment}, nil
}

// Commit samples fresh randomizers and returns the contributions of the proof
// to the challenge. The randomizers in fixed, keyed by secret index, are used
// instead of fresh ones; proofs sharing the randomizer of equal secrets have
// equal responses for them.
func (b *ProofBuilder[E]) Commit(fixed map[int]*pairing.Scalar) ([][]byte, error) {
	randomizers, err := common.RandomScalars(len(b.secrets))
	if err != nil {
		return nil, err
	}
	for i, r := range fixed {
		if i < 0 || i >= len(randomizers) || r == nil {
			return nil, ErrMalformedStatement
		}
		randomizers[i] = r
	}
	r, err := Commit(randomizers, b.generators)
	if err != nil {
		return nil, err
	}
	b.randomizers = randomizers
	return contributions(r, b.commitment, b.generators), nil
}

// CreateProof answers challenge c. Commit must have been called before.
func (b *ProofBuilder[E]) CreateProof(c *pairing.Scalar) *PedersenProof[E] {
	responses := make([]*pairing.Scalar, len(b.secrets))
	for i, s := range b.secrets {
		// response_i = r_i + c * s_i
		responses[i] = new(pairing.Scalar).Mul(c, s)
		responses[i].Add(responses[i], b.randomizers[i])
	}
	return &PedersenProof[E]{
		Commitment: b.commitment.Identity().Set(b.commitment),
		Challenge:  new(pairing.Scalar).Set(c),
		Responses:  responses,
	}
}

// Prove constructs a proof of knowledge of secrets for commitment, which must
// equal Commit(secrets, generators). The order of generators matters: the verifier
// must pass the same list in the same order.
func Prove[E pairing.Element[E]](secrets []*pairing.Scalar, generators []E, commitment E, message []byte) (*PedersenProof[E], error) {
	b, err := NewProofBuilder(secrets, generators, commitment)
	if err != nil {
		return nil, err
	}
	contribs, err := b.Commit(nil)
	if err != nil {
		return nil, err
	}
	return b.CreateProof(Challenge(contribs, message)), nil
}

// IsValid verifies the proof against generators and message. It returns false,
// and never panics, on any malformed or incorrect proof.
func (p *PedersenProof[E]) IsValid(generators []E, message []byte) bool {
	contribs, ok := p.ChallengeContributions(generators)
	return ok && Challenge(contribs, message).Equal(p.Challenge)
}

// ChallengeContributions reconstructs the contributions of the proof to its
// challenge, R' = Π g_i^response_i * Commitment^-c. It returns false if the
// proof is malformed.
func (p *PedersenProof[E]) ChallengeContributions(generators []E) ([][]byte, bool) {
	if p == nil || p.Challenge == nil || isNil(p.Commitment) || len(p.Responses) != len(generators) {
		return nil, false
	}
	r, err := Commit(p.Responses, generators)
	if err != nil {
		return nil, false
	}
	negc := new(pairing.Scalar).Neg(p.Challenge)
	r.Mul(r, p.Commitment.Identity().Exp(p.Commitment, negc))
	return contributions(r, p.Commitment, generators), true
}

// Challenge derives a challenge from the contributions of one or more proofs and a message.
func Challenge(contributions [][]byte, message []byte) *pairing.Scalar {
	values := make([][]byte, 0, len(contributions)+1)
	values = append(values, contributions...)
	return common.HashCommit(append(values, message))
}

func contributions[E pairing.Element[E]](r, commitment E, generators []E) [][]byte {
	values := make([][]byte, 0, len(generators)+2)
	values = append(values, r.Bytes(), commitment.Bytes())
	for _, g := range generators {
		values = append(values, g.Bytes())
	}
	return values
}

func isNil[E any](e E) bool {
	v := reflect.ValueOf(e)
	return !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil())
}
