package pskeys

import (
	"github.com/go-errors/errors"
)

// UsernameAttribute is the reserved catalog name that, as the final catalog
// entry, reserves a slot for the username of the credential holder.
const UsernameAttribute = "username"

var (
	ErrEmptyCatalog     = errors.New("attribute catalog is empty")
	ErrInvalidCatalog   = errors.New("attribute catalog contains an empty, duplicate or misplaced name")
	ErrUnknownAttribute = errors.New("attribute is not part of the catalog")
)

// Catalog is the ordered list of attribute names an issuer signs. Each
// subscription attribute occupies one key slot in catalog order. A final
// UsernameAttribute entry reserves the slot after them, and one more slot,
// always present and always last, holds the holder's private key.
//
// A Catalog is agreed upon out of band; it must not be modified after key generation.
type Catalog []string

// NewCatalog validates names and returns them as a Catalog.
func NewCatalog(names []string) (Catalog, error) {
	c := make(Catalog, len(names))
	copy(c, names)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the catalog is non-empty, that its names are non-empty
// and unique, and that the username attribute, if present, comes last.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(c))
	for i, name := range c {
		if name == "" {
			return errors.WrapPrefix(ErrInvalidCatalog, "empty attribute name", 0)
		}
		if name == UsernameAttribute && i != len(c)-1 {
			return errors.WrapPrefix(ErrInvalidCatalog, "username must be the last catalog entry", 0)
		}
		if _, ok := seen[name]; ok {
			return errors.WrapPrefix(ErrInvalidCatalog, "duplicate attribute "+name, 0)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// HasUsername reports whether the catalog reserves a username slot.
func (c Catalog) HasUsername() bool {
	return len(c) > 0 && c[len(c)-1] == UsernameAttribute
}

// Subscriptions returns a copy of the subscription attribute names, in slot order.
func (c Catalog) Subscriptions() []string {
	n := len(c)
	if c.HasUsername() {
		n--
	}
	subs := make([]string, n)
	copy(subs, c[:n])
	return subs
}

// NumSlots returns the number of key slots the catalog requires.
func (c Catalog) NumSlots() int {
	return len(c) + 1
}

// Index returns the slot of the subscription attribute name.
func (c Catalog) Index(name string) (int, error) {
	if name != UsernameAttribute {
		for i, n := range c {
			if n == name {
				return i, nil
			}
		}
	}
	return 0, errors.WrapPrefix(ErrUnknownAttribute, name, 0)
}

// Contains reports whether name is a subscription attribute of the catalog.
func (c Catalog) Contains(name string) bool {
	_, err := c.Index(name)
	return err == nil
}

// UsernameSlot returns the slot of the username, or -1 if the catalog has none.
func (c Catalog) UsernameSlot() int {
	if !c.HasUsername() {
		return -1
	}
	return len(c) - 1
}

// PrivateKeySlot returns the slot of the holder's private key.
func (c Catalog) PrivateKeySlot() int {
	return len(c)
}

// Equal reports whether both catalogs list the same names in the same order.
func (c Catalog) Equal(o Catalog) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}
