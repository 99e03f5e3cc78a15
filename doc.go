// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package atopet is an implementation of attribute-based credentials on
// Pointcheval-Sanders signatures. An issuer blindly signs a commitment to the
// holder's private key together with the holder's subscriptions and username;
// the holder later shows the credential, disclosing a chosen subset of its
// subscriptions in a zero-knowledge proof bound to a message. Showings of
// the same credential are unlinkable. See atopet_test.go on how to use the
// library, and package stroll for the client and server roles.
package atopet
