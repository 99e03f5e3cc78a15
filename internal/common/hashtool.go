package common

import (
	"crypto/sha256"
	"encoding/asn1"

	"github.com/intx4/Atopet/pairing"

	gobig "math/big"
)

// HashCommit computes the sha256 hash over the asn1 representation of a slice
// of byte strings and returns it as a scalar, reading the hash big-endian and
// reducing it modulo the group order.
func HashCommit(values [][]byte) *pairing.Scalar {
	// The first element is the number of elements
	tmp := make([]interface{}, len(values)+1)
	tmp[0] = gobig.NewInt(int64(len(values)))
	for i, v := range values {
		if v == nil {
			v = []byte{}
		}
		tmp[i+1] = v
	}
	r, err := asn1.Marshal(tmp)
	if err != nil {
		panic(err) // Marshal should never error, so panic if it does
	}

	sha := sha256.Sum256(r)
	return pairing.ScalarFromBytes(sha[:])
}

// RandomScalars returns n independent uniformly random scalars.
func RandomScalars(n int) ([]*pairing.Scalar, error) {
	res := make([]*pairing.Scalar, n)
	for i := range res {
		s, err := pairing.RandomScalar()
		if err != nil {
			return nil, err
		}
		res[i] = s
	}
	return res, nil
}
