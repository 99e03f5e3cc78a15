// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package atopet

import (
	"github.com/go-errors/errors"

	"github.com/intx4/Atopet/cbor"
	"github.com/intx4/Atopet/pairing"
	"github.com/intx4/Atopet/pskeys"
	"github.com/intx4/Atopet/zkproof"
)

// DisclosureProof proves possession of a credential of which the attributes
// named in Disclosed are subscribed, without revealing anything else. It
// contains a randomized signature of the credential and a proof of knowledge
// of the hidden attributes bound to a message.
type DisclosureProof struct {
	Signature *Signature                          `json:"signature"`
	Disclosed []string                            `json:"disclosed"`
	Proof     *zkproof.PedersenProof[*pairing.GT] `json:"proof"`
}

// NewDisclosureProofFromBytes decodes a disclosure proof.
func NewDisclosureProofFromBytes(bts []byte) (*DisclosureProof, error) {
	p := &DisclosureProof{}
	if err := cbor.Unmarshal(bts, p); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode disclosure proof", 0)
	}
	return p, nil
}

func (p *DisclosureProof) Bytes() ([]byte, error) {
	return cbor.Marshal(p)
}

// Verify checks that the proof shows possession of a credential issued under pk
// in which all attributes in disclosed are subscribed, and that the proof was
// made for message. It does not modify the proof.
func (p *DisclosureProof) Verify(pk *pskeys.PublicKey, disclosed []string, message []byte) bool {
	bases, ok := p.bases(pk, disclosed)
	return ok && p.Proof.IsValid(bases, message)
}

// bases checks everything about the proof except its challenge, and returns
// the bases of the proof of knowledge.
func (p *DisclosureProof) bases(pk *pskeys.PublicKey, disclosed []string) ([]*pairing.GT, bool) {
	if p == nil || p.Proof == nil || p.Signature == nil || p.Signature.Sigma1 == nil || p.Signature.Sigma2 == nil {
		return nil, false
	}
	if p.Signature.Sigma1.IsIdentity() {
		return nil, false
	}
	set, err := checkDisclosed(pk.Catalog, disclosed)
	if err != nil {
		Logger.Debug("disclosure proof rejected: ", err)
		return nil, false
	}
	if len(p.Disclosed) != len(set) {
		return nil, false
	}
	for _, name := range p.Disclosed {
		if _, ok := set[name]; !ok {
			return nil, false
		}
	}

	commitment, err := p.reconstructCommitment(pk, disclosed)
	if err != nil {
		Logger.Debug("disclosure proof rejected: ", err)
		return nil, false
	}
	if p.Proof.Commitment == nil || !commitment.Equal(p.Proof.Commitment) {
		Logger.Debug("disclosure proof rejected: commitment mismatch")
		return nil, false
	}

	bases, _, err := showingBases(pk, p.Signature.Sigma1, set)
	if err != nil {
		return nil, false
	}
	return bases, true
}

// privateKeyResponse returns the response of the proof for the private key.
func (p *DisclosureProof) privateKeyResponse(pk *pskeys.PublicKey) *pairing.Scalar {
	i := len(p.Proof.Responses) - 1
	if pk.Catalog.HasUsername() {
		i--
	}
	if i < 0 {
		return nil
	}
	return p.Proof.Responses[i]
}

// reconstructCommitment computes the commitment the prover must have made from
// the randomized signature, removing the contribution of the disclosed attributes:
// e(sigma2, g~) / e(sigma1, X~) * Π_disclosed e(sigma1, Y~_i)^-SubscribedYes.
func (p *DisclosureProof) reconstructCommitment(pk *pskeys.PublicKey, disclosed []string) (*pairing.GT, error) {
	commitment, err := pairing.Pair(p.Signature.Sigma2, pk.GTilde)
	if err != nil {
		return nil, err
	}
	ex, err := pairing.Pair(p.Signature.Sigma1, pk.XTilde)
	if err != nil {
		return nil, err
	}
	commitment.Div(commitment, ex)

	yes := pairing.NewScalar(SubscribedYes)
	for _, name := range disclosed {
		_, ytilde, err := pk.Base(name)
		if err != nil {
			return nil, err
		}
		h, err := pairing.Pair(p.Signature.Sigma1, ytilde)
		if err != nil {
			return nil, err
		}
		commitment.Div(commitment, h.Exp(h, yes))
	}
	return commitment, nil
}
