package api

// KeypairEncoding identifies the serialized form of private+public key
// material crossing the boundary.
type KeypairEncoding uint16

const (
	KeypairEncodingRaw KeypairEncoding = iota
	KeypairEncodingPKCS8
	KeypairEncodingDER
	KeypairEncodingPEM
)

func (e KeypairEncoding) String() string {
	switch e {
	case KeypairEncodingRaw:
		return "raw"
	case KeypairEncodingPKCS8:
		return "pkcs8"
	case KeypairEncodingDER:
		return "der"
	case KeypairEncodingPEM:
		return "pem"
	}
	return "unknown"
}

// PublicKeyEncoding identifies the serialized form of public-only key
// material. The textual encodings wrap the family's raw byte form.
type PublicKeyEncoding uint16

const (
	PublicKeyEncodingRaw PublicKeyEncoding = iota
	PublicKeyEncodingHex
	PublicKeyEncodingBase64
	PublicKeyEncodingBase64URL
	PublicKeyEncodingBase64NoPad
	PublicKeyEncodingBase64URLNoPad
)

func (e PublicKeyEncoding) String() string {
	switch e {
	case PublicKeyEncodingRaw:
		return "raw"
	case PublicKeyEncodingHex:
		return "hex"
	case PublicKeyEncodingBase64:
		return "base64"
	case PublicKeyEncodingBase64URL:
		return "base64url"
	case PublicKeyEncodingBase64NoPad:
		return "base64-nopad"
	case PublicKeyEncodingBase64URLNoPad:
		return "base64url-nopad"
	}
	return "unknown"
}

// SignatureEncoding identifies the serialized form of a signature.
type SignatureEncoding uint16

const (
	SignatureEncodingRaw SignatureEncoding = iota
	SignatureEncodingHex
	SignatureEncodingBase64
	SignatureEncodingBase64URL
	SignatureEncodingBase64NoPad
	SignatureEncodingBase64URLNoPad
	SignatureEncodingDER
)

func (e SignatureEncoding) String() string {
	switch e {
	case SignatureEncodingRaw:
		return "raw"
	case SignatureEncodingHex:
		return "hex"
	case SignatureEncodingBase64:
		return "base64"
	case SignatureEncodingBase64URL:
		return "base64url"
	case SignatureEncodingBase64NoPad:
		return "base64-nopad"
	case SignatureEncodingBase64URLNoPad:
		return "base64url-nopad"
	case SignatureEncodingDER:
		return "der"
	}
	return "unknown"
}
