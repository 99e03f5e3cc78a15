package atopet

import (
	"github.com/go-errors/errors"
	"github.com/intx4/Atopet/pairing"
	"github.com/intx4/Atopet/pskeys"
)

// Encoded values of subscription attributes.
const (
	SubscribedYes int64 = 3
	SubscribedNo  int64 = 5
)

var (
	ErrUnknownAttribute   = pskeys.ErrUnknownAttribute
	ErrDuplicateAttribute = errors.New("attribute listed more than once")
	ErrCatalogMismatch    = errors.New("attributes do not match the catalog of the public key")
)

// Attribute is a subscription attribute and its encoded value.
type Attribute struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// AttributeMap holds the encoded value of every subscription attribute of a
// catalog, in catalog order.
type AttributeMap []Attribute

// NewAttributeMap encodes subscriptions against the catalog: subscribed
// attributes map to SubscribedYes, all others to SubscribedNo. Every
// subscription must be part of the catalog.
func NewAttributeMap(catalog pskeys.Catalog, subscriptions []string) (AttributeMap, error) {
	chosen := make(map[string]struct{}, len(subscriptions))
	for _, name := range subscriptions {
		if !catalog.Contains(name) {
			return nil, errors.WrapPrefix(ErrUnknownAttribute, name, 0)
		}
		chosen[name] = struct{}{}
	}

	subs := catalog.Subscriptions()
	m := make(AttributeMap, len(subs))
	for i, name := range subs {
		m[i] = Attribute{Name: name, Value: SubscribedNo}
		if _, ok := chosen[name]; ok {
			m[i].Value = SubscribedYes
		}
	}
	return m, nil
}

// Subscribed reports whether name is encoded as SubscribedYes.
func (m AttributeMap) Subscribed(name string) bool {
	for _, a := range m {
		if a.Name == name {
			return a.Value == SubscribedYes
		}
	}
	return false
}

// Subscriptions returns the names of the subscribed attributes.
func (m AttributeMap) Subscriptions() []string {
	var names []string
	for _, a := range m {
		if a.Value == SubscribedYes {
			names = append(names, a.Name)
		}
	}
	return names
}

// Matches reports whether m has exactly one well-formed entry per subscription of the catalog, in order.
func (m AttributeMap) Matches(catalog pskeys.Catalog) bool {
	subs := catalog.Subscriptions()
	if len(m) != len(subs) {
		return false
	}
	for i, a := range m {
		if a.Name != subs[i] || (a.Value != SubscribedYes && a.Value != SubscribedNo) {
			return false
		}
	}
	return true
}

// messages returns the signed message vector in slot order: the attribute
// encodings, the username if the catalog has a slot for it, and the private key.
func (m AttributeMap) messages(catalog pskeys.Catalog, username string, sk *pairing.Scalar) []*pairing.Scalar {
	ms := make([]*pairing.Scalar, 0, catalog.NumSlots())
	for _, a := range m {
		ms = append(ms, pairing.NewScalar(a.Value))
	}
	if catalog.HasUsername() {
		ms = append(ms, usernameScalar(username))
	}
	return append(ms, sk)
}

// usernameScalar encodes a username as its bytes read as a big-endian integer, reduced mod r.
func usernameScalar(username string) *pairing.Scalar {
	return pairing.ScalarFromBytes([]byte(username))
}

// checkDisclosed checks that every disclosed name is a catalog subscription listed once.
func checkDisclosed(catalog pskeys.Catalog, disclosed []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(disclosed))
	for _, name := range disclosed {
		if !catalog.Contains(name) {
			return nil, errors.WrapPrefix(ErrUnknownAttribute, name, 0)
		}
		if _, ok := set[name]; ok {
			return nil, errors.WrapPrefix(ErrDuplicateAttribute, name, 0)
		}
		set[name] = struct{}{}
	}
	return set, nil
}
