// Package sig implements the signature object: finalized or imported
// signature bytes tagged with the suite they belong to and the encoding they
// arrived in. Signatures are not secret material; no zeroization applies.
package sig

import (
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/bytecodec"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

// Signature holds a signature in its canonical raw form. The raw form is
// 64 bytes for ed25519, fixed-width r||s for ECDSA, and the modulus-sized
// block for RSA.
type Signature struct {
	s   suite.Suite
	raw []byte
	src api.SignatureEncoding
}

// New wraps a freshly produced raw signature.
func New(s suite.Suite, raw []byte) *Signature {
	return &Signature{s: s, raw: raw, src: api.SignatureEncodingRaw}
}

func (g *Signature) Suite() suite.Suite              { return g.s }
func (g *Signature) Encoding() api.SignatureEncoding { return g.src }

// Raw returns the canonical signature bytes. Callers must not mutate them.
func (g *Signature) Raw() []byte { return g.raw }

func signatureVariant(enc api.SignatureEncoding) (bytecodec.Variant, bool) {
	switch enc {
	case api.SignatureEncodingRaw:
		return bytecodec.Raw, true
	case api.SignatureEncodingHex:
		return bytecodec.Hex, true
	case api.SignatureEncodingBase64:
		return bytecodec.Base64, true
	case api.SignatureEncodingBase64URL:
		return bytecodec.Base64URL, true
	case api.SignatureEncodingBase64NoPad:
		return bytecodec.Base64NoPad, true
	case api.SignatureEncodingBase64URLNoPad:
		return bytecodec.Base64URLNoPad, true
	}
	return 0, false
}

// ecdsaDER is the ASN.1 SEQUENCE { r INTEGER, s INTEGER } form.
type ecdsaDER struct {
	R, S *big.Int
}

// Import decodes signature bytes in the stated encoding and validates them
// structurally against the suite.
func Import(s suite.Suite, data []byte, enc api.SignatureEncoding) (*Signature, error) {
	var raw []byte
	switch {
	case enc == api.SignatureEncodingDER:
		if s.Family != suite.FamilyECDSA {
			return nil, api.ErrNotAvailable
		}
		var der ecdsaDER
		rest, err := asn1.Unmarshal(data, &der)
		if err != nil || len(rest) != 0 || der.R.Sign() <= 0 || der.S.Sign() <= 0 {
			return nil, fmt.Errorf("%w: malformed ecdsa der", api.ErrInvalidSignature)
		}
		size := s.CoordinateSize()
		if der.R.BitLen() > 8*size || der.S.BitLen() > 8*size {
			return nil, fmt.Errorf("%w: ecdsa scalar out of range", api.ErrInvalidSignature)
		}
		raw = make([]byte, 2*size)
		der.R.FillBytes(raw[:size])
		der.S.FillBytes(raw[size:])
	default:
		v, ok := signatureVariant(enc)
		if !ok {
			return nil, api.ErrNotAvailable
		}
		decoded, err := bytecodec.Decode(v, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", api.ErrInvalidSignature, err)
		}
		raw = decoded
	}
	if len(raw) != s.SignatureSize() {
		return nil, fmt.Errorf("%w: %s signature must be %d bytes, got %d",
			api.ErrInvalidSignature, s, s.SignatureSize(), len(raw))
	}
	return &Signature{s: s, raw: raw, src: enc}, nil
}

// Export re-encodes the signature in the requested format.
func (g *Signature) Export(enc api.SignatureEncoding) ([]byte, error) {
	if enc == api.SignatureEncodingDER {
		if g.s.Family != suite.FamilyECDSA {
			return nil, api.ErrNotAvailable
		}
		size := g.s.CoordinateSize()
		der := ecdsaDER{
			R: new(big.Int).SetBytes(g.raw[:size]),
			S: new(big.Int).SetBytes(g.raw[size:]),
		}
		out, err := asn1.Marshal(der)
		if err != nil {
			return nil, fmt.Errorf("%w: ecdsa der: %v", api.ErrAlgorithmFailure, err)
		}
		return out, nil
	}
	v, ok := signatureVariant(enc)
	if !ok {
		return nil, api.ErrNotAvailable
	}
	return bytecodec.Encode(v, g.raw)
}
