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

// Credential represents an attribute-based credential: a signature over the
// holder's private key, subscription attributes and username.
type Credential struct {
	Signature  *Signature      `json:"signature"`
	PrivateKey *pairing.Scalar `json:"privatekey"`
	Attributes AttributeMap    `json:"attributes"`
	Username   string          `json:"username"`
}

// NewCredentialFromBytes decodes a credential.
func NewCredentialFromBytes(bts []byte) (*Credential, error) {
	c := &Credential{}
	if err := cbor.Unmarshal(bts, c); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode credential", 0)
	}
	if c.Signature == nil || c.Signature.Sigma1 == nil || c.Signature.Sigma2 == nil || c.PrivateKey == nil {
		return nil, errors.New("incomplete credential")
	}
	return c, nil
}

func (c *Credential) Bytes() ([]byte, error) {
	return cbor.Marshal(c)
}

// Verify checks the signature of the credential over its contents.
func (c *Credential) Verify(pk *pskeys.PublicKey) bool {
	if !c.Attributes.Matches(pk.Catalog) || c.PrivateKey == nil {
		return false
	}
	return c.Signature.Verify(pk, c.Attributes.messages(pk.Catalog, c.Username, c.PrivateKey))
}

// showingBases lifts the bases of the hidden slots into GT using sigma1 of a
// randomized signature: first e(sigma1, g~), then e(sigma1, Y~_i) for each
// subscription not in disclosed in catalog order, then the private key base and
// the username base if the catalog has one. The returned indices are the slots
// of the hidden subscriptions.
func showingBases(pk *pskeys.PublicKey, sigma1 *pairing.G1, disclosed map[string]struct{}) ([]*pairing.GT, []int, error) {
	gstar, err := pairing.Pair(sigma1, pk.GTilde)
	if err != nil {
		return nil, nil, err
	}
	bases := []*pairing.GT{gstar}
	var hidden []int

	for i, name := range pk.Catalog.Subscriptions() {
		if _, ok := disclosed[name]; ok {
			continue
		}
		h, err := pairing.Pair(sigma1, pk.YTilde[i])
		if err != nil {
			return nil, nil, err
		}
		bases = append(bases, h)
		hidden = append(hidden, i)
	}

	_, ysk := pk.PrivateKeyBase()
	hsk, err := pairing.Pair(sigma1, ysk)
	if err != nil {
		return nil, nil, err
	}
	bases = append(bases, hsk)

	if _, yuser, ok := pk.UsernameBase(); ok {
		huser, err := pairing.Pair(sigma1, yuser)
		if err != nil {
			return nil, nil, err
		}
		bases = append(bases, huser)
	}

	return bases, hidden, nil
}

// DisclosureProofBuilder holds the state of a disclosure proof between
// committing and answering the challenge.
type DisclosureProofBuilder struct {
	randomized *Signature
	disclosed  []string
	skIndex    int
	builder    *zkproof.ProofBuilder[*pairing.GT]
}

// CreateDisclosureProofBuilder prepares a disclosure proof for the
// subscriptions named in disclosed. All other attributes, the private key and
// the username remain hidden. Every name in disclosed must be a catalog
// subscription.
func (c *Credential) CreateDisclosureProofBuilder(pk *pskeys.PublicKey, disclosed []string) (*DisclosureProofBuilder, error) {
	if !c.Attributes.Matches(pk.Catalog) {
		return nil, ErrCatalogMismatch
	}
	set, err := checkDisclosed(pk.Catalog, disclosed)
	if err != nil {
		return nil, err
	}

	r, err := pairing.RandomScalar()
	if err != nil {
		return nil, err
	}
	t, err := pairing.RandomScalar()
	if err != nil {
		return nil, err
	}
	randomized := c.Signature.Randomize(r, t)

	bases, hidden, err := showingBases(pk, randomized.Sigma1, set)
	if err != nil {
		return nil, errors.WrapPrefix(err, "could not compute disclosure bases", 0)
	}

	secrets := make([]*pairing.Scalar, 0, len(bases))
	secrets = append(secrets, t)
	for _, i := range hidden {
		secrets = append(secrets, pairing.NewScalar(c.Attributes[i].Value))
	}
	skIndex := len(secrets)
	secrets = append(secrets, c.PrivateKey)
	if pk.Catalog.HasUsername() {
		secrets = append(secrets, usernameScalar(c.Username))
	}

	commitment, err := zkproof.Commit(secrets, bases)
	if err != nil {
		return nil, err
	}
	builder, err := zkproof.NewProofBuilder(secrets, bases, commitment)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(disclosed))
	copy(names, disclosed)
	return &DisclosureProofBuilder{
		randomized: randomized,
		disclosed:  names,
		skIndex:    skIndex,
		builder:    builder,
	}, nil
}

// Commit returns the contributions of the proof to the challenge. If
// skRandomizer is not nil it is used as the randomizer of the private key.
func (b *DisclosureProofBuilder) Commit(skRandomizer *pairing.Scalar) ([][]byte, error) {
	var fixed map[int]*pairing.Scalar
	if skRandomizer != nil {
		fixed = map[int]*pairing.Scalar{b.skIndex: skRandomizer}
	}
	return b.builder.Commit(fixed)
}

// CreateProof answers the challenge.
func (b *DisclosureProofBuilder) CreateProof(challenge *pairing.Scalar) *DisclosureProof {
	return &DisclosureProof{
		Signature: b.randomized,
		Disclosed: b.disclosed,
		Proof:     b.builder.CreateProof(challenge),
	}
}

// CreateDisclosureProof creates a disclosure proof for the subscriptions named
// in disclosed, bound to message. See CreateDisclosureProofBuilder.
func (c *Credential) CreateDisclosureProof(pk *pskeys.PublicKey, disclosed []string, message []byte) (*DisclosureProof, error) {
	b, err := c.CreateDisclosureProofBuilder(pk, disclosed)
	if err != nil {
		return nil, err
	}
	contribs, err := b.Commit(nil)
	if err != nil {
		return nil, err
	}
	Logger.Tracef("created disclosure proof disclosing %d of %d attributes", len(disclosed), len(c.Attributes))
	return b.CreateProof(zkproof.Challenge(contribs, message)), nil
}
