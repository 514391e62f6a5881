package host

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/pkg/keys"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

func testKeyAndSig(t *testing.T, msg []byte) (keys.PublicKey, []byte) {
	t.Helper()
	s, err := suite.Parse("Ed25519")
	require.NoError(t, err)
	kp, err := keys.Generate(s, rand.Reader)
	require.NoError(t, err)
	t.Cleanup(kp.Destroy)
	raw, err := kp.Sign(msg)
	require.NoError(t, err)
	return kp.Public(), raw
}

func TestBatchVerifierAllValid(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	v := r.NewBatchVerifier()

	for i := 0; i < 16; i++ {
		msg := []byte{byte(i)}
		pk, raw := testKeyAndSig(t, msg)
		v.Add(pk, msg, raw)
	}

	ok, errs := v.Verify()
	assert.True(t, ok)
	require.Len(t, errs, 16)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestBatchVerifierReportsPerEntry(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	v := r.NewBatchVerifier()

	msg := []byte("good")
	pk, raw := testKeyAndSig(t, msg)
	v.Add(pk, msg, raw)

	bad := append([]byte(nil), raw...)
	bad[0] ^= 0xff
	v.Add(pk, msg, bad)

	decodeErr := errors.New("undecodable input")
	v.AddError(decodeErr)

	ok, errs := v.Verify()
	assert.False(t, ok)
	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], api.ErrVerificationFailed)
	assert.ErrorIs(t, errs[2], decodeErr)
}

func TestBatchVerifierCallerBuffersReusable(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	v := r.NewBatchVerifier()

	msg := []byte("reused")
	pk, raw := testKeyAndSig(t, msg)
	v.Add(pk, msg, raw)

	// Clobbering the caller's buffers after Add must not affect the batch.
	for i := range msg {
		msg[i] = 0
	}
	for i := range raw {
		raw[i] = 0
	}

	ok, errs := v.Verify()
	assert.True(t, ok)
	require.Len(t, errs, 1)
	assert.NoError(t, errs[0])
}
