// Package suite resolves operation descriptor strings into concrete
// signature algorithm parameters. A Suite is an immutable value; every
// downstream builder, key, and state carries a copy of it as its algorithm
// tag.
package suite

import (
	"crypto"
	"crypto/elliptic"
	"sort"

	"github.com/srediag/plugin-crypto/api"
)

// Family is the algorithm family a suite belongs to.
type Family uint8

const (
	FamilyEd25519 Family = iota + 1
	FamilyECDSA
	FamilyRSAPKCS1
	FamilyRSAPSS
)

func (f Family) String() string {
	switch f {
	case FamilyEd25519:
		return "eddsa"
	case FamilyECDSA:
		return "ecdsa"
	case FamilyRSAPKCS1:
		return "rsa-pkcs1"
	case FamilyRSAPSS:
		return "rsa-pss"
	}
	return "unknown"
}

// Suite is a resolved operation descriptor.
type Suite struct {
	Name   string
	Family Family

	// Curve is set for ECDSA suites, Bits for RSA suites, Hash for both.
	// Ed25519 hashes internally and leaves Hash zero.
	Curve elliptic.Curve
	Bits  int
	Hash  crypto.Hash
}

var registry = map[string]Suite{
	"Ed25519": {Family: FamilyEd25519},

	"ECDSA_P256_SHA256": {Family: FamilyECDSA, Curve: elliptic.P256(), Hash: crypto.SHA256},
	"ECDSA_P384_SHA384": {Family: FamilyECDSA, Curve: elliptic.P384(), Hash: crypto.SHA384},

	"RSA_PKCS1_2048_SHA256": {Family: FamilyRSAPKCS1, Bits: 2048, Hash: crypto.SHA256},
	"RSA_PKCS1_3072_SHA384": {Family: FamilyRSAPKCS1, Bits: 3072, Hash: crypto.SHA384},
	"RSA_PKCS1_4096_SHA512": {Family: FamilyRSAPKCS1, Bits: 4096, Hash: crypto.SHA512},

	"RSA_PSS_2048_SHA256": {Family: FamilyRSAPSS, Bits: 2048, Hash: crypto.SHA256},
	"RSA_PSS_3072_SHA384": {Family: FamilyRSAPSS, Bits: 3072, Hash: crypto.SHA384},
	"RSA_PSS_4096_SHA512": {Family: FamilyRSAPSS, Bits: 4096, Hash: crypto.SHA512},
}

// Parse resolves a descriptor string. Unknown or malformed descriptors fail
// with the not-available error; descriptors are case sensitive.
func Parse(name string) (Suite, error) {
	s, ok := registry[name]
	if !ok {
		return Suite{}, api.ErrNotAvailable
	}
	s.Name = name
	return s, nil
}

// Names lists the descriptors this build supports, sorted lexically.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s Suite) String() string { return s.Name }

// CoordinateSize is the byte width of one ECDSA scalar/coordinate.
func (s Suite) CoordinateSize() int {
	if s.Curve == nil {
		return 0
	}
	return (s.Curve.Params().BitSize + 7) / 8
}

// SignatureSize is the raw signature length in bytes.
func (s Suite) SignatureSize() int {
	switch s.Family {
	case FamilyEd25519:
		return 64
	case FamilyECDSA:
		return 2 * s.CoordinateSize()
	case FamilyRSAPKCS1, FamilyRSAPSS:
		return s.Bits / 8
	}
	return 0
}
