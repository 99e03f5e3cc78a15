// Package stroll implements the server and client roles of a location service
// in which clients authenticate their requests with anonymous credentials.
// All values passed between the roles are CBOR encoded byte strings.
package stroll

import (
	"github.com/go-errors/errors"
	"github.com/prometheus/client_golang/prometheus"

	atopet "github.com/intx4/Atopet"
	"github.com/intx4/Atopet/pskeys"
)

// GenerateCA creates a fresh issuer key pair for the given subscription
// catalog and returns the encoded secret and public key. Include
// pskeys.UsernameAttribute as the last catalog entry to bind credentials to a
// username.
func GenerateCA(catalog []string) (sk []byte, pk []byte, err error) {
	c, err := pskeys.NewCatalog(catalog)
	if err != nil {
		return nil, nil, err
	}
	secret, public, err := pskeys.GenerateKeyPair(c)
	if err != nil {
		return nil, nil, err
	}
	if sk, err = secret.Bytes(); err != nil {
		return nil, nil, err
	}
	if pk, err = public.Bytes(); err != nil {
		return nil, nil, err
	}
	Logger.WithField("attributes", len(catalog)).Info("generated issuer key pair")
	return sk, pk, nil
}

// Server issues credentials and checks signed requests. It is safe for concurrent use.
type Server struct {
	issuer  *atopet.Issuer
	metrics *metrics
}

// NewServer creates a server from an encoded key pair as returned by
// GenerateCA. Its counters are registered with reg unless reg is nil.
func NewServer(sk, pk []byte, reg prometheus.Registerer) (*Server, error) {
	secret, err := pskeys.NewSecretKeyFromBytes(sk)
	if err != nil {
		return nil, err
	}
	public, err := pskeys.NewPublicKeyFromBytes(pk)
	if err != nil {
		return nil, err
	}
	issuer, err := atopet.NewIssuer(secret, public)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Server{issuer: issuer, metrics: m}, nil
}

// PublicKey returns the encoded public key of the server.
func (s *Server) PublicKey() ([]byte, error) {
	return s.issuer.PublicKey().Bytes()
}

// ProcessRegistration answers an issuance request of username for the given
// subscriptions with a blind signature. A request with an invalid proof is
// answered with the neutral signature, which the client rejects.
func (s *Server) ProcessRegistration(request []byte, username string, subscriptions []string) ([]byte, error) {
	req, err := atopet.NewIssueRequestFromBytes(request)
	if err != nil {
		s.metrics.registrations.WithLabelValues(outcomeError).Inc()
		return nil, err
	}
	sig, err := s.issuer.SignCredentialRequest(req, subscriptions, username)
	if err != nil {
		s.metrics.registrations.WithLabelValues(outcomeError).Inc()
		return nil, err
	}
	if sig.IsNeutral() {
		Logger.WithField("username", username).Info("registration rejected")
		s.metrics.registrations.WithLabelValues(outcomeRejected).Inc()
	} else {
		s.metrics.registrations.WithLabelValues(outcomeIssued).Inc()
	}
	return sig.Bytes()
}

// CheckRequestSignature reports whether signature is a valid disclosure proof
// for message under the encoded public key pk, showing that the signer is
// subscribed to all revealed attributes. Malformed input yields false.
func (s *Server) CheckRequestSignature(pk []byte, message []byte, revealed []string, signature []byte) bool {
	ok := checkRequestSignature(pk, message, revealed, signature)
	if ok {
		s.metrics.verifications.WithLabelValues(outcomeAccepted).Inc()
	} else {
		s.metrics.verifications.WithLabelValues(outcomeRejected).Inc()
	}
	return ok
}

func checkRequestSignature(pk []byte, message []byte, revealed []string, signature []byte) bool {
	public, err := pskeys.NewPublicKeyFromBytes(pk)
	if err != nil {
		Logger.Debug("request signature rejected: ", err)
		return false
	}
	proof, err := atopet.NewDisclosureProofFromBytes(signature)
	if err != nil {
		Logger.Debug("request signature rejected: ", err)
		return false
	}
	return proof.Verify(public, revealed, message)
}

// State is the private state of a client between preparing a registration
// and processing the response of the server.
type State struct {
	builder *atopet.CredentialBuilder
}

// NewStateFromBytes decodes a registration state for the encoded public key pk.
func NewStateFromBytes(pk []byte, bts []byte) (*State, error) {
	public, err := pskeys.NewPublicKeyFromBytes(pk)
	if err != nil {
		return nil, err
	}
	b, err := atopet.NewCredentialBuilderFromBytes(public, bts)
	if err != nil {
		return nil, err
	}
	return &State{builder: b}, nil
}

// Bytes encodes the state. The encoding contains the private key of the client.
func (s *State) Bytes() ([]byte, error) {
	return s.builder.Bytes()
}

// Client obtains credentials and signs requests with them.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

// PrepareRegistration creates an issuance request for username and the given
// subscriptions, together with the state needed to process the response.
func (c *Client) PrepareRegistration(pk []byte, username string, subscriptions []string) ([]byte, *State, error) {
	public, err := pskeys.NewPublicKeyFromBytes(pk)
	if err != nil {
		return nil, nil, err
	}
	req, builder, err := atopet.CreateCredentialRequest(public, subscriptions, username)
	if err != nil {
		return nil, nil, err
	}
	bts, err := req.Bytes()
	if err != nil {
		return nil, nil, err
	}
	return bts, &State{builder: builder}, nil
}

// ProcessRegistrationResponse unblinds the response of the server and returns
// the encoded credential. It returns atopet.ErrRegistrationFailed if the
// server rejected the request.
func (c *Client) ProcessRegistrationResponse(pk []byte, response []byte, state *State) ([]byte, error) {
	if state == nil || state.builder == nil {
		return nil, errors.New("no registration state")
	}
	public, err := pskeys.NewPublicKeyFromBytes(pk)
	if err != nil {
		return nil, err
	}
	sig, err := atopet.NewSignatureFromBytes(response)
	if err != nil {
		return nil, err
	}
	cred, err := state.builder.ConstructCredential(sig)
	if err != nil {
		return nil, err
	}
	if !cred.Verify(public) {
		return nil, errors.WrapPrefix(atopet.ErrIncorrectSignature, "credential not issued under this public key", 0)
	}
	return cred.Bytes()
}

// SignRequest signs message with the encoded credential, revealing that the
// client is subscribed to the attributes in types and nothing else.
func (c *Client) SignRequest(pk []byte, credential []byte, message []byte, types []string) ([]byte, error) {
	public, err := pskeys.NewPublicKeyFromBytes(pk)
	if err != nil {
		return nil, err
	}
	cred, err := atopet.NewCredentialFromBytes(credential)
	if err != nil {
		return nil, err
	}
	proof, err := cred.CreateDisclosureProof(public, types, message)
	if err != nil {
		return nil, err
	}
	return proof.Bytes()
}
