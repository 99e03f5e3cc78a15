package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atopet "github.com/intx4/Atopet"
	"github.com/intx4/Atopet/pskeys"
)

func setup(t *testing.T) (*atopet.Issuer, *Store) {
	sk, pk, err := pskeys.GenerateKeyPair(pskeys.Catalog{"gym", "mall", pskeys.UsernameAttribute})
	require.NoError(t, err)
	issuer, err := atopet.NewIssuer(sk, pk)
	require.NoError(t, err)

	s, err := Open(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return issuer, s
}

func issue(t *testing.T, issuer *atopet.Issuer, username string) *atopet.Credential {
	request, builder, err := atopet.CreateCredentialRequest(issuer.PublicKey(), []string{"mall"}, username)
	require.NoError(t, err)
	sig, err := issuer.SignCredentialRequest(request, []string{"mall"}, username)
	require.NoError(t, err)
	cred, err := builder.ConstructCredential(sig)
	require.NoError(t, err)
	return cred
}

func TestPutGet(t *testing.T) {
	issuer, s := setup(t)
	pk := issuer.PublicKey()
	cred := issue(t, issuer, "alice")

	require.NoError(t, s.Put(pk, cred))
	stored, err := s.Get(pk, "alice")
	require.NoError(t, err)
	assert.True(t, stored.Verify(pk))
	assert.Equal(t, cred.Attributes, stored.Attributes)

	proof, err := stored.CreateDisclosureProof(pk, []string{"mall"}, []byte("msg"))
	require.NoError(t, err)
	assert.True(t, proof.Verify(pk, []string{"mall"}, []byte("msg")))

	_, err = s.Get(pk, "bob")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReplaceAndDelete(t *testing.T) {
	issuer, s := setup(t)
	pk := issuer.PublicKey()

	first := issue(t, issuer, "alice")
	second := issue(t, issuer, "alice")
	require.NoError(t, s.Put(pk, first))
	require.NoError(t, s.Put(pk, second))

	stored, err := s.Get(pk, "alice")
	require.NoError(t, err)
	assert.True(t, second.PrivateKey.Equal(stored.PrivateKey), "re-registration should replace the credential")

	require.NoError(t, s.Delete(pk, "alice"))
	_, err = s.Get(pk, "alice")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, s.Delete(pk, "alice"))
}

func TestRejectInvalidCredential(t *testing.T) {
	issuer, s := setup(t)
	cred := issue(t, issuer, "alice")
	cred.Username = "mallory"
	assert.True(t, errors.Is(s.Put(issuer.PublicKey(), cred), atopet.ErrIncorrectSignature))
}

func TestUsernamesPerIssuer(t *testing.T) {
	issuer, s := setup(t)
	sk, pk, err := pskeys.GenerateKeyPair(pskeys.Catalog{"gym", "mall", pskeys.UsernameAttribute})
	require.NoError(t, err)
	other, err := atopet.NewIssuer(sk, pk)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, name := range []string{"alice", "bob", "carol"} {
		cred := issue(t, issuer, name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Put(issuer.PublicKey(), cred))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Put(other.PublicKey(), issue(t, other, "dave")))

	names, err := s.Usernames(issuer.PublicKey())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, names)

	names, err = s.Usernames(other.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, names)
}
