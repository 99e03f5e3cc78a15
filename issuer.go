package atopet

import (
	"github.com/intx4/Atopet/pairing"
	"github.com/intx4/Atopet/pskeys"
)

// Issuer holds the key pair of a credential issuer. An Issuer is the only
// owner of its secret key, which it never hands out.
type Issuer struct {
	sk *pskeys.SecretKey
	pk *pskeys.PublicKey
}

// NewIssuer creates a new credential issuer, checking that the key pair belongs together.
func NewIssuer(sk *pskeys.SecretKey, pk *pskeys.PublicKey) (*Issuer, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	if err := sk.Validate(pk); err != nil {
		return nil, err
	}
	return &Issuer{sk: sk, pk: pk}, nil
}

// PublicKey returns the public key of the issuer.
func (i *Issuer) PublicKey() *pskeys.PublicKey {
	return i.pk
}

// SignCredentialRequest blindly signs the commitment of the request together
// with the issuer's encoding of subscriptions and username.
//
// If the proof of knowledge of the request does not verify, the neutral
// signature is returned and the error is nil: the request is rejected, which
// the client detects when unblinding. Requesting a subscription outside the
// catalog is an error.
func (i *Issuer) SignCredentialRequest(request *IssueRequest, subscriptions []string, username string) (*Signature, error) {
	if !request.verify(i.pk, username) {
		Logger.Debug("rejecting issuance request: incorrect proof of knowledge")
		return NeutralSignature(), nil
	}

	attrs, err := NewAttributeMap(i.pk.Catalog, subscriptions)
	if err != nil {
		return nil, err
	}

	// All slots but the private key slot, which is contained in the commitment
	ms := attrs.messages(i.pk.Catalog, username, new(pairing.Scalar))
	ms = ms[:len(ms)-1]

	Logger.Tracef("signing commitment for %d attributes", len(attrs))
	return signMessageBlockAndCommitment(i.sk, i.pk, request.Proof.Commitment, ms)
}
