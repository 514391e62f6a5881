// Package keys owns key material: keypair and public-key containers for the
// supported algorithm families, their serialized encodings, the transient
// builder, and the opaque-id indirection to external key stores. Private
// material is page-locked while live and wiped on Destroy.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	stded25519 "crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

// Keypair is private+public key material bound to one suite. Destroy wipes
// the private half; a PublicKey derived earlier stays valid afterwards.
type Keypair interface {
	Suite() suite.Suite

	// Sign produces a raw-encoded signature over msg.
	Sign(msg []byte) ([]byte, error)

	// Public derives an independent public-only view.
	Public() PublicKey

	// Export serializes private+public material in the requested encoding.
	Export(enc api.KeypairEncoding) ([]byte, error)

	// Destroy renders the private material irrecoverable.
	Destroy()
}

// Generate produces a fresh keypair for the suite, reading entropy from rng.
func Generate(s suite.Suite, rng io.Reader) (Keypair, error) {
	switch s.Family {
	case suite.FamilyEd25519:
		return generateEd25519(s, rng)
	case suite.FamilyECDSA:
		return generateECDSA(s, rng)
	case suite.FamilyRSAPKCS1, suite.FamilyRSAPSS:
		return generateRSA(s, rng)
	}
	return nil, api.ErrNotAvailable
}

// Import decodes serialized keypair material. rng is retained by families
// whose signing consumes randomness (ECDSA, RSA-PSS).
func Import(s suite.Suite, data []byte, enc api.KeypairEncoding, rng io.Reader) (Keypair, error) {
	switch enc {
	case api.KeypairEncodingRaw:
		if s.Family != suite.FamilyEd25519 {
			return nil, api.ErrNotAvailable
		}
		return importEd25519Raw(s, data)
	case api.KeypairEncodingPKCS8, api.KeypairEncodingDER:
		return importPKCS8(s, data, rng)
	case api.KeypairEncodingPEM:
		der, err := pemDecode(data)
		if err != nil {
			return nil, err
		}
		return importPKCS8(s, der, rng)
	}
	return nil, api.ErrNotAvailable
}

func importPKCS8(s suite.Suite, der []byte, rng io.Reader) (Keypair, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: pkcs8: %v", api.ErrInvalidKey, err)
	}
	switch k := key.(type) {
	case stded25519.PrivateKey:
		if s.Family != suite.FamilyEd25519 {
			return nil, fmt.Errorf("%w: key family does not match %s", api.ErrInvalidKey, s)
		}
		return importEd25519Raw(s, k)
	case *ecdsa.PrivateKey:
		if s.Family != suite.FamilyECDSA || k.Curve != s.Curve {
			return nil, fmt.Errorf("%w: key curve does not match %s", api.ErrInvalidKey, s)
		}
		return newECDSAKeypair(s, k, rng), nil
	case *rsa.PrivateKey:
		if s.Family != suite.FamilyRSAPKCS1 && s.Family != suite.FamilyRSAPSS {
			return nil, fmt.Errorf("%w: key family does not match %s", api.ErrInvalidKey, s)
		}
		if k.N.BitLen() != s.Bits {
			return nil, fmt.Errorf("%w: modulus is %d bits, suite wants %d", api.ErrInvalidKey, k.N.BitLen(), s.Bits)
		}
		return newRSAKeypair(s, k, rng), nil
	}
	return nil, fmt.Errorf("%w: unsupported pkcs8 key type", api.ErrInvalidKey)
}

func exportPKCS8(enc api.KeypairEncoding, key any) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: pkcs8: %v", api.ErrNotAvailable, err)
	}
	if enc == api.KeypairEncodingPEM {
		return pemEncode(der), nil
	}
	return der, nil
}

const pemKeypairType = "PRIVATE KEY"

func pemEncode(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemKeypairType, Bytes: der})
}

func pemDecode(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemKeypairType {
		return nil, fmt.Errorf("%w: not a %s pem block", api.ErrInvalidKey, pemKeypairType)
	}
	return block.Bytes, nil
}

func digest(h crypto.Hash, msg []byte) []byte {
	hh := h.New()
	_, _ = hh.Write(msg)
	return hh.Sum(nil)
}
