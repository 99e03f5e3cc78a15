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

// IssueRequest is sent by the receiver to the issuer to request a credential.
// It holds the commitment C = g^t * Y_sk^sk to the receiver's private key sk,
// with a proof of knowledge of t and sk.
type IssueRequest struct {
	Proof *zkproof.PedersenProof[*pairing.G1] `json:"proof"`
}

var (
	// ErrRegistrationFailed is returned when the issuer refused to sign the issuance request.
	ErrRegistrationFailed = errors.New("Issuer could not issue a credential for the chosen subscriptions.")
	// ErrIncorrectSignature is returned when the signature on the attributes is not correct.
	ErrIncorrectSignature = errors.New("The signature on the attributes is not correct.")
)

// NewIssueRequestFromBytes decodes an issuance request.
func NewIssueRequestFromBytes(bts []byte) (*IssueRequest, error) {
	r := &IssueRequest{}
	if err := cbor.Unmarshal(bts, r); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode issuance request", 0)
	}
	return r, nil
}

func (r *IssueRequest) Bytes() ([]byte, error) {
	return cbor.Marshal(r)
}

// commitmentBases returns the bases of the commitment of the request, (g, Y_sk).
func commitmentBases(pk *pskeys.PublicKey) []*pairing.G1 {
	ysk, _ := pk.PrivateKeyBase()
	return []*pairing.G1{pk.G, ysk}
}

func (r *IssueRequest) verify(pk *pskeys.PublicKey, username string) bool {
	if r == nil || r.Proof == nil {
		return false
	}
	return r.Proof.IsValid(commitmentBases(pk), []byte(username))
}

// CredentialBuilder holds the receiver's state during the issuance protocol.
// It must be kept private and must not be reused for another request.
type CredentialBuilder struct {
	pk             *pskeys.PublicKey
	blindingFactor *pairing.Scalar
	privateKey     *pairing.Scalar
	attributes     AttributeMap
	username       string
}

// builderState is the encoding of a CredentialBuilder, without its public key.
type builderState struct {
	BlindingFactor *pairing.Scalar `json:"t"`
	PrivateKey     *pairing.Scalar `json:"sk"`
	Attributes     AttributeMap    `json:"attributes"`
	Username       string          `json:"username"`
}

// CreateCredentialRequest samples a fresh private key and blinding factor, and
// returns a request for a credential over the private key, the given subscriptions
// and username, along with the builder that completes the credential once the
// issuer responds.
func CreateCredentialRequest(pk *pskeys.PublicKey, subscriptions []string, username string) (*IssueRequest, *CredentialBuilder, error) {
	sk, err := pairing.RandomScalar()
	if err != nil {
		return nil, nil, err
	}
	return CreateCredentialRequestWithKey(pk, sk, subscriptions, username)
}

// CreateCredentialRequestWithKey is like CreateCredentialRequest, but requests
// a credential over an existing private key. Credentials sharing a private key
// can be shown together in a bound ProofList.
func CreateCredentialRequestWithKey(pk *pskeys.PublicKey, sk *pairing.Scalar, subscriptions []string, username string) (*IssueRequest, *CredentialBuilder, error) {
	if sk == nil || sk.IsZero() {
		return nil, nil, errors.New("invalid private key")
	}
	attrs, err := NewAttributeMap(pk.Catalog, subscriptions)
	if err != nil {
		return nil, nil, err
	}

	t, err := pairing.RandomScalar()
	if err != nil {
		return nil, nil, err
	}

	// C = g^t * Y_sk^sk
	secrets := []*pairing.Scalar{t, sk}
	bases := commitmentBases(pk)
	C, err := zkproof.Commit(secrets, bases)
	if err != nil {
		return nil, nil, err
	}
	proof, err := zkproof.Prove(secrets, bases, C, []byte(username))
	if err != nil {
		return nil, nil, err
	}

	Logger.Trace("created issuance request")
	return &IssueRequest{Proof: proof}, &CredentialBuilder{
		pk:             pk,
		blindingFactor: t,
		privateKey:     new(pairing.Scalar).Set(sk),
		attributes:     attrs,
		username:       username,
	}, nil
}

// NewCredentialBuilderFromBytes restores a builder encoded with CredentialBuilder.Bytes.
func NewCredentialBuilderFromBytes(pk *pskeys.PublicKey, bts []byte) (*CredentialBuilder, error) {
	var state builderState
	if err := cbor.Unmarshal(bts, &state); err != nil {
		return nil, errors.WrapPrefix(err, "could not decode issuance state", 0)
	}
	if state.BlindingFactor == nil || state.PrivateKey == nil || !state.Attributes.Matches(pk.Catalog) {
		return nil, ErrCatalogMismatch
	}
	return &CredentialBuilder{
		pk:             pk,
		blindingFactor: state.BlindingFactor,
		privateKey:     state.PrivateKey,
		attributes:     state.Attributes,
		username:       state.Username,
	}, nil
}

// Bytes encodes the private state of the builder. The result contains the
// private key of the credential to be, and must be stored accordingly.
func (b *CredentialBuilder) Bytes() ([]byte, error) {
	return cbor.Marshal(builderState{
		BlindingFactor: b.blindingFactor,
		PrivateKey:     b.privateKey,
		Attributes:     b.attributes,
		Username:       b.username,
	})
}

// UnblindCredential removes the blinding factor from the issuer's signature:
// sigma2' = sigma2 / sigma1^t. It fails if the issuer rejected the request.
func (b *CredentialBuilder) UnblindCredential(sig *Signature) (*Signature, error) {
	if sig.IsNeutral() {
		return nil, ErrRegistrationFailed
	}
	sigma2 := new(pairing.G1).Exp(sig.Sigma1, b.blindingFactor)
	sigma2.Div(sig.Sigma2, sigma2)
	return &Signature{
		Sigma1: new(pairing.G1).Set(sig.Sigma1),
		Sigma2: sigma2,
	}, nil
}

// ConstructCredential unblinds the issuer's signature and verifies it over the
// private key and attributes of the builder.
func (b *CredentialBuilder) ConstructCredential(sig *Signature) (*Credential, error) {
	signature, err := b.UnblindCredential(sig)
	if err != nil {
		return nil, err
	}

	cred := &Credential{
		Signature:  signature,
		PrivateKey: b.privateKey,
		Attributes: b.attributes,
		Username:   b.username,
	}
	if !cred.Verify(b.pk) {
		return nil, ErrIncorrectSignature
	}
	return cred, nil
}
