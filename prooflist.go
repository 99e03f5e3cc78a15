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

// ProofList represents a list of disclosure proofs sharing one challenge,
// typically showing credentials of several issuers at once.
type ProofList []*DisclosureProof

// ErrEmptyProofList is returned when building a proof list without builders.
var ErrEmptyProofList = errors.New("no disclosure proof builders")

// BuildProofList creates a list of disclosure proofs over a common challenge
// bound to message. If shouldBeBound is set, all proofs use the same
// randomizer for the private key, so that a verifier can check that all
// credentials have the same private key.
func BuildProofList(builders []*DisclosureProofBuilder, message []byte, shouldBeBound bool) (ProofList, error) {
	if len(builders) == 0 {
		return nil, ErrEmptyProofList
	}

	var skRandomizer *pairing.Scalar
	if shouldBeBound {
		var err error
		if skRandomizer, err = pairing.RandomScalar(); err != nil {
			return nil, err
		}
	}

	var contributions [][]byte
	for _, b := range builders {
		contribs, err := b.Commit(skRandomizer)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, contribs...)
	}

	challenge := zkproof.Challenge(contributions, message)
	list := make(ProofList, len(builders))
	for i, b := range builders {
		list[i] = b.CreateProof(challenge)
	}
	return list, nil
}

// NewProofListFromBytes decodes a proof list.
func NewProofListFromBytes(bts []byte) (ProofList, error) {
	var pl ProofList
	if err := cbor.Unmarshal(bts, &pl); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode proof list", 0)
	}
	return pl, nil
}

func (pl ProofList) Bytes() ([]byte, error) {
	return cbor.Marshal(pl)
}

// Verify returns true when all the proofs inside verify, where the i'th proof
// discloses disclosed[i] of a credential issued under publicKeys[i], and if
// shouldBeBound is set whether all proofs are properly bound.
func (pl ProofList) Verify(publicKeys []*pskeys.PublicKey, disclosed [][]string, message []byte, shouldBeBound bool) bool {
	if len(pl) == 0 || len(pl) != len(publicKeys) || len(pl) != len(disclosed) {
		return false
	}

	var contributions [][]byte
	for i, proof := range pl {
		bases, ok := proof.bases(publicKeys[i], disclosed[i])
		if !ok {
			return false
		}
		contribs, ok := proof.Proof.ChallengeContributions(bases)
		if !ok {
			return false
		}
		contributions = append(contributions, contribs...)
	}

	expectedChallenge := zkproof.Challenge(contributions, message)
	expectedSecretKeyResponse := pl[0].privateKeyResponse(publicKeys[0])
	for i, proof := range pl {
		if !expectedChallenge.Equal(proof.Proof.Challenge) {
			return false
		}
		if shouldBeBound && !expectedSecretKeyResponse.Equal(proof.privateKeyResponse(publicKeys[i])) {
			return false
		}
	}
	return true
}
