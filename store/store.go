// Package store persists credentials of a holder in a bolthold database,
// indexed by the fingerprint of the issuer public key and the username.
package store

import (
	"time"

	"github.com/go-errors/errors"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	atopet "github.com/intx4/Atopet"
	"github.com/intx4/Atopet/cbor"
	"github.com/intx4/Atopet/pskeys"
)

var ErrNotFound = errors.New("no credential stored for this issuer and username")

type (
	// Store is a bolthold database storing credentials. It is safe for concurrent use.
	Store struct {
		bolt *bolthold.Store
	}

	// CredentialRecord is a stored credential.
	CredentialRecord struct {
		Issuer     string // base58 multihash of the issuer public key
		Username   string
		Stored     int64
		Credential *atopet.Credential
	}
)

// Open opens or creates the credential database at path.
func Open(path string) (*Store, error) {
	b, err := bolthold.Open(path, 0600, &bolthold.Options{
		Encoder: cbor.Marshal,
		Decoder: cbor.Unmarshal,
		Options: &bolt.Options{Timeout: 1 * time.Second},
	})
	if err != nil {
		return nil, errors.WrapPrefix(err, "could not open credential store", 0)
	}
	return &Store{bolt: b}, nil
}

func issuerID(pk *pskeys.PublicKey) (string, error) {
	fp, err := pk.Fingerprint()
	if err != nil {
		return "", err
	}
	return fp.B58String(), nil
}

func recordKey(issuer, username string) string {
	return issuer + "/" + username
}

// Put stores cred, replacing an earlier credential of the same issuer and username.
func (s *Store) Put(pk *pskeys.PublicKey, cred *atopet.Credential) error {
	if !cred.Verify(pk) {
		return atopet.ErrIncorrectSignature
	}
	issuer, err := issuerID(pk)
	if err != nil {
		return err
	}
	Logger.WithField("issuer", issuer).Debug("storing credential")
	return s.bolt.Upsert(recordKey(issuer, cred.Username), &CredentialRecord{
		Issuer:     issuer,
		Username:   cred.Username,
		Stored:     time.Now().Unix(),
		Credential: cred,
	})
}

// Get returns the credential of username issued under pk.
func (s *Store) Get(pk *pskeys.PublicKey, username string) (*atopet.Credential, error) {
	issuer, err := issuerID(pk)
	if err != nil {
		return nil, err
	}
	r := &CredentialRecord{}
	switch err = s.bolt.Get(recordKey(issuer, username), r); err {
	case nil:
		return r.Credential, nil
	case bolthold.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

// Delete removes the credential of username issued under pk, if any.
func (s *Store) Delete(pk *pskeys.PublicKey, username string) error {
	issuer, err := issuerID(pk)
	if err != nil {
		return err
	}
	err = s.bolt.Delete(recordKey(issuer, username), &CredentialRecord{})
	if err == bolthold.ErrNotFound {
		return nil
	}
	return err
}

// Usernames returns the usernames for which a credential of pk is stored.
func (s *Store) Usernames(pk *pskeys.PublicKey) ([]string, error) {
	issuer, err := issuerID(pk)
	if err != nil {
		return nil, err
	}
	var records []CredentialRecord
	if err = s.bolt.Find(&records, bolthold.Where("Issuer").Eq(issuer)); err != nil {
		return nil, err
	}
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Username
	}
	return names, nil
}

func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}
