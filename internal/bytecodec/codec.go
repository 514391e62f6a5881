// Package bytecodec implements the textual byte encodings shared by the
// public-key and signature surfaces: hex plus the four base64 variants.
package bytecodec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/srediag/plugin-crypto/api"
)

// Variant selects one textual encoding of a raw byte string.
type Variant uint8

const (
	Raw Variant = iota
	Hex
	Base64
	Base64URL
	Base64NoPad
	Base64URLNoPad
)

func base64Encoding(v Variant) *base64.Encoding {
	switch v {
	case Base64:
		return base64.StdEncoding
	case Base64URL:
		return base64.URLEncoding
	case Base64NoPad:
		return base64.RawStdEncoding
	case Base64URLNoPad:
		return base64.RawURLEncoding
	}
	return nil
}

// Encode serializes raw into the requested variant. Raw returns a copy.
func Encode(v Variant, raw []byte) ([]byte, error) {
	switch v {
	case Raw:
		return append([]byte(nil), raw...), nil
	case Hex:
		out := make([]byte, hex.EncodedLen(len(raw)))
		hex.Encode(out, raw)
		return out, nil
	default:
		enc := base64Encoding(v)
		if enc == nil {
			return nil, api.ErrNotAvailable
		}
		out := make([]byte, enc.EncodedLen(len(raw)))
		enc.Encode(out, raw)
		return out, nil
	}
}

// Decode parses data in the given variant back to raw bytes.
func Decode(v Variant, data []byte) ([]byte, error) {
	switch v {
	case Raw:
		return append([]byte(nil), data...), nil
	case Hex:
		out := make([]byte, hex.DecodedLen(len(data)))
		n, err := hex.Decode(out, data)
		if err != nil {
			return nil, fmt.Errorf("bytecodec: %w", err)
		}
		return out[:n], nil
	default:
		enc := base64Encoding(v)
		if enc == nil {
			return nil, api.ErrNotAvailable
		}
		out := make([]byte, enc.DecodedLen(len(data)))
		n, err := enc.Decode(out, data)
		if err != nil {
			return nil, fmt.Errorf("bytecodec: %w", err)
		}
		return out[:n], nil
	}
}
