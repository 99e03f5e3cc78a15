// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package atopet

import (
	"os"
	"testing"

	"github.com/go-errors/errors"
	"github.com/intx4/Atopet/pairing"
	"github.com/intx4/Atopet/pskeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCatalog = pskeys.Catalog{"gym", "mall", "restaurant", pskeys.UsernameAttribute}
	testMessage = []byte("loc:cell-42")

	testSecK   *pskeys.SecretKey
	testPubK   *pskeys.PublicKey
	testIssuer *Issuer
)

func setupParameters() error {
	var err error
	testSecK, testPubK, err = pskeys.GenerateKeyPair(testCatalog)
	if err != nil {
		return err
	}
	testIssuer, err = NewIssuer(testSecK, testPubK)
	return err
}

func issue(t *testing.T, issuer *Issuer, subscriptions []string, username string) *Credential {
	request, builder, err := CreateCredentialRequest(issuer.PublicKey(), subscriptions, username)
	require.NoError(t, err)
	sig, err := issuer.SignCredentialRequest(request, subscriptions, username)
	require.NoError(t, err)
	cred, err := builder.ConstructCredential(sig)
	require.NoError(t, err)
	return cred
}

func TestPSSignature(t *testing.T) {
	m := []*pairing.Scalar{pairing.NewScalar(1), pairing.NewScalar(2), pairing.NewScalar(3), pairing.NewScalar(4), pairing.NewScalar(5)}
	sig, err := SignMessageBlock(testSecK, testPubK, m)
	require.NoError(t, err)

	assert.True(t, sig.Verify(testPubK, m), "Signature did not verify, whereas it should.")
	m[0] = pairing.NewScalar(1337)
	assert.False(t, sig.Verify(testPubK, m), "Signature verifies, whereas it should not.")
	assert.False(t, sig.Verify(testPubK, m[1:]), "Signature verifies with too few messages.")

	_, err = SignMessageBlock(testSecK, testPubK, m[1:])
	assert.True(t, errors.Is(err, pskeys.ErrSlotMismatch))
}

func TestSignatureRandomize(t *testing.T) {
	m := []*pairing.Scalar{pairing.NewScalar(3), pairing.NewScalar(5), pairing.NewScalar(3), pairing.NewScalar(42), pairing.NewScalar(7)}
	sig, err := SignMessageBlock(testSecK, testPubK, m)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		r, err := pairing.RandomScalar()
		require.NoError(t, err)
		randomized := sig.Randomize(r, new(pairing.Scalar))
		assert.True(t, randomized.Verify(testPubK, m), "Randomized signature did not verify, whereas it should.")
		assert.False(t, randomized.Sigma1.Equal(sig.Sigma1))
	}
}

func TestNeutralSignature(t *testing.T) {
	assert.True(t, NeutralSignature().IsNeutral())
	assert.False(t, NeutralSignature().Verify(testPubK, make([]*pairing.Scalar, testCatalog.NumSlots())))
	var nilSig *Signature
	assert.True(t, nilSig.IsNeutral())
}

func TestFullIssuance(t *testing.T) {
	cred := issue(t, testIssuer, []string{"mall", "restaurant"}, "alice")
	assert.True(t, cred.Verify(testPubK), "Credential did not verify, whereas it should.")
	assert.Equal(t, []string{"mall", "restaurant"}, cred.Attributes.Subscriptions())
	assert.False(t, cred.Attributes.Subscribed("gym"))
	assert.Equal(t, "alice", cred.Username)
}

func TestFullIssuanceAndShowing(t *testing.T) {
	cred := issue(t, testIssuer, []string{"mall", "restaurant"}, "alice")

	proof, err := cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	require.NoError(t, err)
	assert.True(t, proof.Verify(testPubK, []string{"mall"}, testMessage), "Disclosure proof does not verify, whereas it should.")

	proof, err = cred.CreateDisclosureProof(testPubK, []string{"gym"}, testMessage)
	require.NoError(t, err)
	assert.False(t, proof.Verify(testPubK, []string{"gym"}, testMessage), "Disclosure of a non-subscribed attribute verifies.")
}

func TestShowingAllSubsets(t *testing.T) {
	subs := testCatalog.Subscriptions()
	subsets := func(names []string) [][]string {
		res := [][]string{{}}
		for _, n := range names {
			for _, s := range res {
				res = append(res, append(append([]string{}, s...), n))
			}
		}
		return res
	}

	for _, chosen := range subsets(subs) {
		cred := issue(t, testIssuer, chosen, "bob")
		for _, disclosed := range subsets(chosen) {
			proof, err := cred.CreateDisclosureProof(testPubK, disclosed, testMessage)
			require.NoError(t, err)
			assert.True(t, proof.Verify(testPubK, disclosed, testMessage),
				"Disclosure of %v from %v does not verify, whereas it should.", disclosed, chosen)
		}
	}
}

func TestOverclaiming(t *testing.T) {
	cred := issue(t, testIssuer, []string{"restaurant"}, "alice")
	proof, err := cred.CreateDisclosureProof(testPubK, []string{"mall", "restaurant"}, testMessage)
	require.NoError(t, err)
	assert.False(t, proof.Verify(testPubK, []string{"mall", "restaurant"}, testMessage))

	// Tampering with the attribute map does not help: the signature is over the original encoding
	cred.Attributes[1].Value = SubscribedYes
	proof, err = cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	require.NoError(t, err)
	assert.False(t, proof.Verify(testPubK, []string{"mall"}, testMessage))
}

func TestMessageBinding(t *testing.T) {
	cred := issue(t, testIssuer, []string{"mall"}, "alice")
	proof, err := cred.CreateDisclosureProof(testPubK, []string{"mall"}, []byte("loc:cell-42"))
	require.NoError(t, err)
	assert.True(t, proof.Verify(testPubK, []string{"mall"}, []byte("loc:cell-42")))
	assert.False(t, proof.Verify(testPubK, []string{"mall"}, []byte("loc:cell-43")), "Disclosure proof verifies for another message.")
}

func TestVerifyIdempotent(t *testing.T) {
	cred := issue(t, testIssuer, []string{"mall"}, "alice")
	proof, err := cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	require.NoError(t, err)
	before, err := proof.Bytes()
	require.NoError(t, err)

	first := proof.Verify(testPubK, []string{"mall"}, testMessage)
	second := proof.Verify(testPubK, []string{"mall"}, testMessage)
	assert.True(t, first)
	assert.Equal(t, first, second)

	after, err := proof.Bytes()
	require.NoError(t, err)
	assert.Equal(t, before, after, "verification modified the proof")
}

func TestEmptyAndFullDisclosure(t *testing.T) {
	all := testCatalog.Subscriptions()
	cred := issue(t, testIssuer, all, "alice")

	proof, err := cred.CreateDisclosureProof(testPubK, nil, testMessage)
	require.NoError(t, err)
	assert.True(t, proof.Verify(testPubK, nil, testMessage), "Possession proof does not verify.")
	assert.True(t, proof.Verify(testPubK, []string{}, testMessage))

	proof, err = cred.CreateDisclosureProof(testPubK, all, testMessage)
	require.NoError(t, err)
	assert.True(t, proof.Verify(testPubK, all, testMessage), "Full disclosure does not verify.")
	assert.True(t, proof.Verify(testPubK, []string{"restaurant", "gym", "mall"}, testMessage), "Order of disclosed names matters.")
}

func TestDisclosureInputValidation(t *testing.T) {
	cred := issue(t, testIssuer, []string{"mall"}, "alice")

	_, err := cred.CreateDisclosureProof(testPubK, []string{"cinema"}, testMessage)
	assert.True(t, errors.Is(err, ErrUnknownAttribute))
	_, err = cred.CreateDisclosureProof(testPubK, []string{pskeys.UsernameAttribute}, testMessage)
	assert.True(t, errors.Is(err, ErrUnknownAttribute))
	_, err = cred.CreateDisclosureProof(testPubK, []string{"mall", "mall"}, testMessage)
	assert.True(t, errors.Is(err, ErrDuplicateAttribute))

	proof, err := cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	require.NoError(t, err)
	assert.False(t, proof.Verify(testPubK, []string{"cinema"}, testMessage))
	assert.False(t, proof.Verify(testPubK, []string{"mall", "mall"}, testMessage))
	assert.False(t, proof.Verify(testPubK, nil, testMessage), "Proof verifies for fewer disclosed attributes than it was made for.")

	var nilProof *DisclosureProof
	assert.False(t, nilProof.Verify(testPubK, nil, testMessage))
	assert.False(t, (&DisclosureProof{}).Verify(testPubK, nil, testMessage))
}

func TestForgedNeutralSignature(t *testing.T) {
	cred := issue(t, testIssuer, []string{"mall"}, "alice")
	proof, err := cred.CreateDisclosureProof(testPubK, nil, testMessage)
	require.NoError(t, err)
	proof.Signature = NeutralSignature()
	assert.False(t, proof.Verify(testPubK, nil, testMessage))
}

func TestUnlinkableShowings(t *testing.T) {
	cred := issue(t, testIssuer, []string{"mall"}, "alice")
	p1, err := cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	require.NoError(t, err)
	p2, err := cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	require.NoError(t, err)
	assert.False(t, p1.Signature.Sigma1.Equal(p2.Signature.Sigma1))
	assert.False(t, p1.Signature.Sigma2.Equal(p2.Signature.Sigma2))
	assert.False(t, p1.Proof.Commitment.Equal(p2.Proof.Commitment))
	assert.False(t, p1.Signature.Sigma1.Equal(cred.Signature.Sigma1))
}

func TestWrongIssuer(t *testing.T) {
	_, otherPk, err := pskeys.GenerateKeyPair(testCatalog)
	require.NoError(t, err)

	cred := issue(t, testIssuer, []string{"mall"}, "alice")
	assert.False(t, cred.Verify(otherPk))
	proof, err := cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	require.NoError(t, err)
	assert.False(t, proof.Verify(otherPk, []string{"mall"}, testMessage))
}

func TestTamperedCommitment(t *testing.T) {
	request, builder, err := CreateCredentialRequest(testPubK, []string{"mall"}, "alice")
	require.NoError(t, err)
	request.Proof.Commitment = new(pairing.G1).Mul(request.Proof.Commitment, testPubK.G)

	sig, err := testIssuer.SignCredentialRequest(request, []string{"mall"}, "alice")
	require.NoError(t, err)
	assert.True(t, sig.IsNeutral(), "Issuer signed a request with an incorrect proof.")

	_, err = builder.ConstructCredential(sig)
	assert.True(t, errors.Is(err, ErrRegistrationFailed))
	_, err = builder.UnblindCredential(sig)
	assert.True(t, errors.Is(err, ErrRegistrationFailed))
}

func TestMissingRequestProof(t *testing.T) {
	sig, err := testIssuer.SignCredentialRequest(&IssueRequest{}, []string{"mall"}, "alice")
	require.NoError(t, err)
	assert.True(t, sig.IsNeutral())
	sig, err = testIssuer.SignCredentialRequest(nil, []string{"mall"}, "alice")
	require.NoError(t, err)
	assert.True(t, sig.IsNeutral())
}

func TestUsernameBinding(t *testing.T) {
	request, builder, err := CreateCredentialRequest(testPubK, []string{"mall"}, "alice")
	require.NoError(t, err)
	sig, err := testIssuer.SignCredentialRequest(request, []string{"mall"}, "mallory")
	require.NoError(t, err)
	assert.True(t, sig.IsNeutral(), "Issuer signed a request made for another username.")
	_, err = builder.ConstructCredential(sig)
	assert.True(t, errors.Is(err, ErrRegistrationFailed))
}

func TestInvalidAttribute(t *testing.T) {
	_, _, err := CreateCredentialRequest(testPubK, []string{"mall", "cinema"}, "alice")
	assert.True(t, errors.Is(err, ErrUnknownAttribute))

	request, _, err := CreateCredentialRequest(testPubK, []string{"mall"}, "alice")
	require.NoError(t, err)
	_, err = testIssuer.SignCredentialRequest(request, []string{"mall", "cinema"}, "alice")
	assert.True(t, errors.Is(err, ErrUnknownAttribute))
	_, err = testIssuer.SignCredentialRequest(request, []string{pskeys.UsernameAttribute}, "alice")
	assert.True(t, errors.Is(err, ErrUnknownAttribute))
}

func TestIssuerSubscriptionMismatch(t *testing.T) {
	request, builder, err := CreateCredentialRequest(testPubK, []string{"mall", "gym"}, "alice")
	require.NoError(t, err)
	sig, err := testIssuer.SignCredentialRequest(request, []string{"mall"}, "alice")
	require.NoError(t, err)
	_, err = builder.ConstructCredential(sig)
	assert.True(t, errors.Is(err, ErrIncorrectSignature))
}

func TestCatalogWithoutUsername(t *testing.T) {
	sk, pk, err := pskeys.GenerateKeyPair(pskeys.Catalog{"gym", "mall"})
	require.NoError(t, err)
	issuer, err := NewIssuer(sk, pk)
	require.NoError(t, err)

	cred := issue(t, issuer, []string{"gym"}, "")
	proof, err := cred.CreateDisclosureProof(pk, []string{"gym"}, testMessage)
	require.NoError(t, err)
	assert.True(t, proof.Verify(pk, []string{"gym"}, testMessage))
	assert.False(t, proof.Verify(pk, []string{"mall"}, testMessage))
}

func TestNewIssuerKeyMismatch(t *testing.T) {
	otherSk, _, err := pskeys.GenerateKeyPair(testCatalog)
	require.NoError(t, err)
	_, err = NewIssuer(otherSk, testPubK)
	assert.Error(t, err)
}

func TestSerialization(t *testing.T) {
	request, builder, err := CreateCredentialRequest(testPubK, []string{"mall", "restaurant"}, "alice")
	require.NoError(t, err)

	bts, err := request.Bytes()
	require.NoError(t, err)
	request, err = NewIssueRequestFromBytes(bts)
	require.NoError(t, err)

	bts, err = builder.Bytes()
	require.NoError(t, err)
	builder, err = NewCredentialBuilderFromBytes(testPubK, bts)
	require.NoError(t, err)

	sig, err := testIssuer.SignCredentialRequest(request, []string{"mall", "restaurant"}, "alice")
	require.NoError(t, err)
	bts, err = sig.Bytes()
	require.NoError(t, err)
	sig2, err := NewSignatureFromBytes(bts)
	require.NoError(t, err)
	assert.True(t, sig.Sigma1.Equal(sig2.Sigma1))
	assert.True(t, sig.Sigma2.Equal(sig2.Sigma2))

	cred, err := builder.ConstructCredential(sig2)
	require.NoError(t, err)
	bts, err = cred.Bytes()
	require.NoError(t, err)
	cred2, err := NewCredentialFromBytes(bts)
	require.NoError(t, err)
	assert.True(t, cred2.Verify(testPubK))
	assert.Equal(t, cred.Attributes, cred2.Attributes)
	assert.True(t, cred.PrivateKey.Equal(cred2.PrivateKey))

	proof, err := cred2.CreateDisclosureProof(testPubK, []string{"restaurant"}, testMessage)
	require.NoError(t, err)
	bts, err = proof.Bytes()
	require.NoError(t, err)
	proof2, err := NewDisclosureProofFromBytes(bts)
	require.NoError(t, err)
	assert.Equal(t, proof.Disclosed, proof2.Disclosed)
	assert.True(t, proof.Proof.Commitment.Equal(proof2.Proof.Commitment))
	assert.True(t, proof.Proof.Challenge.Equal(proof2.Proof.Challenge))
	assert.True(t, proof2.Verify(testPubK, []string{"restaurant"}, testMessage))

	_, err = NewDisclosureProofFromBytes(bts[:len(bts)-1])
	assert.Error(t, err)
	_, err = NewSignatureFromBytes([]byte{0xa0})
	assert.Error(t, err)
	_, err = NewCredentialBuilderFromBytes(testPubK, []byte{0xa0})
	assert.True(t, errors.Is(err, ErrCatalogMismatch))
}

func TestAttributeMap(t *testing.T) {
	m, err := NewAttributeMap(testCatalog, []string{"restaurant", "gym", "gym"})
	require.NoError(t, err)
	assert.Equal(t, AttributeMap{
		{Name: "gym", Value: SubscribedYes},
		{Name: "mall", Value: SubscribedNo},
		{Name: "restaurant", Value: SubscribedYes},
	}, m)
	assert.True(t, m.Matches(testCatalog))
	assert.False(t, m[:2].Matches(testCatalog))
	assert.False(t, m.Matches(pskeys.Catalog{"gym", "restaurant", "mall"}))
}

func BenchmarkIssuance(b *testing.B) {
	subs := []string{"mall", "restaurant"}
	for i := 0; i < b.N; i++ {
		request, builder, _ := CreateCredentialRequest(testPubK, subs, "alice")
		sig, _ := testIssuer.SignCredentialRequest(request, subs, "alice")
		_, _ = builder.ConstructCredential(sig)
	}
}

func BenchmarkShowing(b *testing.B) {
	subs := []string{"mall", "restaurant"}
	request, builder, _ := CreateCredentialRequest(testPubK, subs, "alice")
	sig, _ := testIssuer.SignCredentialRequest(request, subs, "alice")
	cred, _ := builder.ConstructCredential(sig)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	}
}

func BenchmarkVerification(b *testing.B) {
	subs := []string{"mall", "restaurant"}
	request, builder, _ := CreateCredentialRequest(testPubK, subs, "alice")
	sig, _ := testIssuer.SignCredentialRequest(request, subs, "alice")
	cred, _ := builder.ConstructCredential(sig)
	proof, _ := cred.CreateDisclosureProof(testPubK, []string{"mall"}, testMessage)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		proof.Verify(testPubK, []string{"mall"}, testMessage)
	}
}

func TestMain(m *testing.M) {
	err := setupParameters()
	if err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}
