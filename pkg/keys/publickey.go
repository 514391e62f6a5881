package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/bytecodec"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

// PublicKey is public-only key material. Once derived or imported it has a
// lifetime independent of any keypair.
type PublicKey interface {
	Suite() suite.Suite

	// Verify checks a raw-encoded signature over msg. Length mismatches
	// fail with the invalid-signature error, honest mismatches with the
	// verification-failed error.
	Verify(msg, sig []byte) error

	// Export serializes the key's raw form in the requested encoding.
	Export(enc api.PublicKeyEncoding) ([]byte, error)
}

func publicKeyVariant(enc api.PublicKeyEncoding) (bytecodec.Variant, error) {
	switch enc {
	case api.PublicKeyEncodingRaw:
		return bytecodec.Raw, nil
	case api.PublicKeyEncodingHex:
		return bytecodec.Hex, nil
	case api.PublicKeyEncodingBase64:
		return bytecodec.Base64, nil
	case api.PublicKeyEncodingBase64URL:
		return bytecodec.Base64URL, nil
	case api.PublicKeyEncodingBase64NoPad:
		return bytecodec.Base64NoPad, nil
	case api.PublicKeyEncodingBase64URLNoPad:
		return bytecodec.Base64URLNoPad, nil
	}
	return 0, api.ErrNotAvailable
}

// ImportPublicKey decodes public key material bound to an operation context.
// The raw forms are: 32 bytes for ed25519, an uncompressed curve point for
// ECDSA, and PKCS#1 DER for RSA.
func ImportPublicKey(s suite.Suite, data []byte, enc api.PublicKeyEncoding) (PublicKey, error) {
	v, err := publicKeyVariant(enc)
	if err != nil {
		return nil, err
	}
	raw, err := bytecodec.Decode(v, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrInvalidKey, err)
	}
	switch s.Family {
	case suite.FamilyEd25519:
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes, got %d",
				api.ErrInvalidKey, ed25519.PublicKeySize, len(raw))
		}
		return &ed25519PublicKey{s: s, pub: ed25519.PublicKey(raw)}, nil
	case suite.FamilyECDSA:
		x, y := elliptic.Unmarshal(s.Curve, raw)
		if x == nil {
			return nil, fmt.Errorf("%w: malformed curve point", api.ErrInvalidKey)
		}
		return &ecdsaPublicKey{s: s, pub: &ecdsa.PublicKey{Curve: s.Curve, X: x, Y: y}}, nil
	case suite.FamilyRSAPKCS1, suite.FamilyRSAPSS:
		pub, err := x509.ParsePKCS1PublicKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: pkcs1: %v", api.ErrInvalidKey, err)
		}
		if pub.N.BitLen() != s.Bits {
			return nil, fmt.Errorf("%w: modulus is %d bits, suite wants %d", api.ErrInvalidKey, pub.N.BitLen(), s.Bits)
		}
		return &rsaPublicKey{s: s, pub: pub}, nil
	}
	return nil, api.ErrNotAvailable
}

type ed25519PublicKey struct {
	s   suite.Suite
	pub ed25519.PublicKey
}

func (k *ed25519PublicKey) Suite() suite.Suite { return k.s }

func (k *ed25519PublicKey) Verify(msg, sig []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: ed25519 signature must be %d bytes, got %d",
			api.ErrInvalidSignature, ed25519.SignatureSize, len(sig))
	}
	if !ed25519.Verify(k.pub, msg, sig) {
		return api.ErrVerificationFailed
	}
	return nil
}

func (k *ed25519PublicKey) Export(enc api.PublicKeyEncoding) ([]byte, error) {
	v, err := publicKeyVariant(enc)
	if err != nil {
		return nil, err
	}
	return bytecodec.Encode(v, k.pub)
}

type ecdsaPublicKey struct {
	s   suite.Suite
	pub *ecdsa.PublicKey
}

func (k *ecdsaPublicKey) Suite() suite.Suite { return k.s }

func (k *ecdsaPublicKey) Verify(msg, sig []byte) error {
	size := k.s.CoordinateSize()
	if len(sig) != 2*size {
		return fmt.Errorf("%w: ecdsa signature must be %d bytes, got %d",
			api.ErrInvalidSignature, 2*size, len(sig))
	}
	r := new(big.Int).SetBytes(sig[:size])
	s := new(big.Int).SetBytes(sig[size:])
	if !ecdsa.Verify(k.pub, digest(k.s.Hash, msg), r, s) {
		return api.ErrVerificationFailed
	}
	return nil
}

func (k *ecdsaPublicKey) Export(enc api.PublicKeyEncoding) ([]byte, error) {
	v, err := publicKeyVariant(enc)
	if err != nil {
		return nil, err
	}
	return bytecodec.Encode(v, elliptic.Marshal(k.pub.Curve, k.pub.X, k.pub.Y))
}

type rsaPublicKey struct {
	s   suite.Suite
	pub *rsa.PublicKey
}

func (k *rsaPublicKey) Suite() suite.Suite { return k.s }

func (k *rsaPublicKey) Verify(msg, sig []byte) error {
	if len(sig) != k.s.SignatureSize() {
		return fmt.Errorf("%w: rsa signature must be %d bytes, got %d",
			api.ErrInvalidSignature, k.s.SignatureSize(), len(sig))
	}
	d := digest(k.s.Hash, msg)
	var err error
	switch k.s.Family {
	case suite.FamilyRSAPKCS1:
		err = rsa.VerifyPKCS1v15(k.pub, k.s.Hash, d, sig)
	case suite.FamilyRSAPSS:
		err = rsa.VerifyPSS(k.pub, k.s.Hash, d, sig, nil)
	default:
		return api.ErrNotAvailable
	}
	if err != nil {
		return api.ErrVerificationFailed
	}
	return nil
}

func (k *rsaPublicKey) Export(enc api.PublicKeyEncoding) ([]byte, error) {
	v, err := publicKeyVariant(enc)
	if err != nil {
		return nil, err
	}
	return bytecodec.Encode(v, x509.MarshalPKCS1PublicKey(k.pub))
}
