package sig

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/pkg/keys"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

func rawSignature(t *testing.T, suiteName string, msg []byte) (suite.Suite, keys.PublicKey, []byte) {
	t.Helper()
	s, err := suite.Parse(suiteName)
	require.NoError(t, err)
	kp, err := keys.Generate(s, rand.Reader)
	require.NoError(t, err)
	t.Cleanup(kp.Destroy)
	raw, err := kp.Sign(msg)
	require.NoError(t, err)
	return s, kp.Public(), raw
}

func TestTextEncodingsRoundTrip(t *testing.T) {
	s, _, raw := rawSignature(t, "Ed25519", []byte("m"))
	sg := New(s, raw)

	for _, enc := range []api.SignatureEncoding{
		api.SignatureEncodingRaw,
		api.SignatureEncodingHex,
		api.SignatureEncodingBase64,
		api.SignatureEncodingBase64URL,
		api.SignatureEncodingBase64NoPad,
		api.SignatureEncodingBase64URLNoPad,
	} {
		blob, err := sg.Export(enc)
		require.NoError(t, err, enc.String())
		back, err := Import(s, blob, enc)
		require.NoError(t, err, enc.String())
		assert.Equal(t, raw, back.Raw(), enc.String())
		assert.Equal(t, enc, back.Encoding())
	}
}

func TestECDSADERRoundTrip(t *testing.T) {
	msg := []byte("der encoded")
	s, pk, raw := rawSignature(t, "ECDSA_P256_SHA256", msg)
	sg := New(s, raw)

	der, err := sg.Export(api.SignatureEncodingDER)
	require.NoError(t, err)
	// SEQUENCE header, then two INTEGERs.
	require.Greater(t, len(der), 8)
	assert.Equal(t, byte(0x30), der[0])

	back, err := Import(s, der, api.SignatureEncodingDER)
	require.NoError(t, err)
	assert.Equal(t, raw, back.Raw())
	assert.NoError(t, pk.Verify(msg, back.Raw()))
}

func TestDERRefusedOutsideECDSA(t *testing.T) {
	s, _, raw := rawSignature(t, "Ed25519", []byte("m"))
	sg := New(s, raw)

	_, err := sg.Export(api.SignatureEncodingDER)
	assert.ErrorIs(t, err, api.ErrNotAvailable)
	_, err = Import(s, raw, api.SignatureEncodingDER)
	assert.ErrorIs(t, err, api.ErrNotAvailable)
}

func TestImportRejectsMalformed(t *testing.T) {
	s, err := suite.Parse("ECDSA_P256_SHA256")
	require.NoError(t, err)

	_, err = Import(s, []byte{0x30, 0x02, 0x01, 0x01}, api.SignatureEncodingDER)
	assert.ErrorIs(t, err, api.ErrInvalidSignature)

	_, err = Import(s, []byte("not der"), api.SignatureEncodingDER)
	assert.ErrorIs(t, err, api.ErrInvalidSignature)

	// Right encoding, wrong length.
	_, err = Import(s, make([]byte, 63), api.SignatureEncodingRaw)
	assert.ErrorIs(t, err, api.ErrInvalidSignature)

	_, err = Import(s, []byte("zz"), api.SignatureEncodingHex)
	assert.ErrorIs(t, err, api.ErrInvalidSignature)
}

func TestHexExportIsLowercaseHex(t *testing.T) {
	s, _, raw := rawSignature(t, "Ed25519", []byte("m"))
	blob, err := New(s, raw).Export(api.SignatureEncodingHex)
	require.NoError(t, err)
	decoded, err := hex.DecodeString(string(blob))
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}
