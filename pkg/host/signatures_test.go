package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/handle"
	"github.com/srediag/plugin-crypto/pkg/keys"
)

func newTestRuntime(t *testing.T, conf Config) *Runtime {
	t.Helper()
	r, err := New(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// pullAll drains one array output through the len/pull protocol.
func pullAll(t *testing.T, r *Runtime, ao api.Handle) []byte {
	t.Helper()
	n, errno := r.ArrayOutputLen(ao)
	require.Equal(t, api.ErrnoSuccess, errno)
	dst := make([]byte, n)
	m, errno := r.ArrayOutputPull(ao, dst)
	require.Equal(t, api.ErrnoSuccess, errno)
	require.Equal(t, n, m)
	return dst
}

func openKeypair(t *testing.T, r *Runtime, suiteName string) (op, kp api.Handle) {
	t.Helper()
	op, errno := r.OpOpen(suiteName)
	require.Equal(t, api.ErrnoSuccess, errno)
	b, errno := r.KeypairBuilderOpen(op)
	require.Equal(t, api.ErrnoSuccess, errno)
	kp, errno = r.KeypairGenerate(b)
	require.Equal(t, api.ErrnoSuccess, errno)
	require.Equal(t, api.ErrnoSuccess, r.KeypairBuilderClose(b))
	return op, kp
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, suiteName := range []string{"Ed25519", "ECDSA_P256_SHA256", "RSA_PKCS1_2048_SHA256"} {
		suiteName := suiteName
		t.Run(suiteName, func(t *testing.T) {
			r := newTestRuntime(t, DefaultConfig())
			op, kp := openKeypair(t, r, suiteName)

			st, errno := r.SignStateOpen(kp)
			require.Equal(t, api.ErrnoSuccess, errno)
			require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("hel")))
			require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("lo")))
			sg, errno := r.SignStateSign(st)
			require.Equal(t, api.ErrnoSuccess, errno)
			require.Equal(t, api.ErrnoSuccess, r.SignStateClose(st))

			pk, errno := r.KeypairPublicKey(kp)
			require.Equal(t, api.ErrnoSuccess, errno)

			vs, errno := r.VerifyStateOpen(pk)
			require.Equal(t, api.ErrnoSuccess, errno)
			require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs, []byte("hello")))
			assert.Equal(t, api.ErrnoSuccess, r.VerifyStateVerify(vs, sg))
			require.Equal(t, api.ErrnoSuccess, r.VerifyStateClose(vs))

			// A different message must not verify.
			vs2, errno := r.VerifyStateOpen(pk)
			require.Equal(t, api.ErrnoSuccess, errno)
			require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs2, []byte("hellO")))
			assert.Equal(t, api.ErrnoVerificationFailed, r.VerifyStateVerify(vs2, sg))
			require.Equal(t, api.ErrnoSuccess, r.VerifyStateClose(vs2))

			require.Equal(t, api.ErrnoSuccess, r.SignatureClose(sg))
			require.Equal(t, api.ErrnoSuccess, r.PublicKeyClose(pk))
			require.Equal(t, api.ErrnoSuccess, r.KeypairClose(kp))
			require.Equal(t, api.ErrnoSuccess, r.OpClose(op))
			assert.Equal(t, 0, r.LiveHandles())
		})
	}
}

func TestTamperedSignatureRejected(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	op, kp := openKeypair(t, r, "Ed25519")

	st, _ := r.SignStateOpen(kp)
	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("payload")))
	sg, errno := r.SignStateSign(st)
	require.Equal(t, api.ErrnoSuccess, errno)

	ao, errno := r.SignatureExport(sg, api.SignatureEncodingRaw)
	require.Equal(t, api.ErrnoSuccess, errno)
	raw := pullAll(t, r, ao)
	raw[0] ^= 0xff

	tampered, errno := r.SignatureImport(op, raw, api.SignatureEncodingRaw)
	require.Equal(t, api.ErrnoSuccess, errno)

	pk, _ := r.KeypairPublicKey(kp)
	vs, _ := r.VerifyStateOpen(pk)
	require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs, []byte("payload")))
	assert.Equal(t, api.ErrnoVerificationFailed, r.VerifyStateVerify(vs, tampered))
}

func TestVerifyIsRepeatable(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	_, kp := openKeypair(t, r, "Ed25519")

	st, _ := r.SignStateOpen(kp)
	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("abc")))
	sg, _ := r.SignStateSign(st)

	pk, _ := r.KeypairPublicKey(kp)
	vs, _ := r.VerifyStateOpen(pk)
	require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs, []byte("abc")))
	assert.Equal(t, api.ErrnoSuccess, r.VerifyStateVerify(vs, sg))
	assert.Equal(t, api.ErrnoSuccess, r.VerifyStateVerify(vs, sg))

	// The state keeps accepting updates after a verification.
	require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs, []byte("def")))
	assert.Equal(t, api.ErrnoVerificationFailed, r.VerifyStateVerify(vs, sg))
}

func TestCheckpointSigning(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	_, kp := openKeypair(t, r, "Ed25519")

	st, _ := r.SignStateOpen(kp)
	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("part1")))
	sg1, errno := r.SignStateSign(st)
	require.Equal(t, api.ErrnoSuccess, errno)

	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("part2")))
	sg2, errno := r.SignStateSign(st)
	require.Equal(t, api.ErrnoSuccess, errno)

	pk, _ := r.KeypairPublicKey(kp)

	vs1, _ := r.VerifyStateOpen(pk)
	require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs1, []byte("part1")))
	assert.Equal(t, api.ErrnoSuccess, r.VerifyStateVerify(vs1, sg1))
	assert.Equal(t, api.ErrnoVerificationFailed, r.VerifyStateVerify(vs1, sg2))

	vs2, _ := r.VerifyStateOpen(pk)
	require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs2, []byte("part1part2")))
	assert.Equal(t, api.ErrnoSuccess, r.VerifyStateVerify(vs2, sg2))
}

func TestArrayOutputSingleConsumption(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	_, kp := openKeypair(t, r, "Ed25519")

	ao, errno := r.KeypairExport(kp, api.KeypairEncodingPKCS8)
	require.Equal(t, api.ErrnoSuccess, errno)

	n, errno := r.ArrayOutputLen(ao)
	require.Equal(t, api.ErrnoSuccess, errno)
	require.Greater(t, n, 0)

	// A short destination does not consume the output.
	short := make([]byte, n-1)
	_, errno = r.ArrayOutputPull(ao, short)
	assert.Equal(t, api.ErrnoOverflow, errno)

	dst := make([]byte, n)
	m, errno := r.ArrayOutputPull(ao, dst)
	require.Equal(t, api.ErrnoSuccess, errno)
	require.Equal(t, n, m)

	// The handle is gone after a successful pull.
	_, errno = r.ArrayOutputLen(ao)
	assert.Equal(t, api.ErrnoInvalidHandle, errno)
	_, errno = r.ArrayOutputPull(ao, dst)
	assert.Equal(t, api.ErrnoInvalidHandle, errno)
}

func TestKeypairExportImportRoundTrip(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	op, kp := openKeypair(t, r, "Ed25519")

	ao, errno := r.KeypairExport(kp, api.KeypairEncodingPEM)
	require.Equal(t, api.ErrnoSuccess, errno)
	pemBytes := pullAll(t, r, ao)

	b, errno := r.KeypairBuilderOpen(op)
	require.Equal(t, api.ErrnoSuccess, errno)
	kp2, errno := r.KeypairImport(b, pemBytes, api.KeypairEncodingPEM)
	require.Equal(t, api.ErrnoSuccess, errno)

	// The reimported key must produce signatures the original key's public
	// half accepts.
	st, _ := r.SignStateOpen(kp2)
	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("same key")))
	sg, errno := r.SignStateSign(st)
	require.Equal(t, api.ErrnoSuccess, errno)

	pk, _ := r.KeypairPublicKey(kp)
	vs, _ := r.VerifyStateOpen(pk)
	require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs, []byte("same key")))
	assert.Equal(t, api.ErrnoSuccess, r.VerifyStateVerify(vs, sg))
}

func TestPublicKeyImportRoundTrip(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	op, kp := openKeypair(t, r, "Ed25519")

	pk, _ := r.KeypairPublicKey(kp)
	res, err := r.table.Get(pk, handle.KindPublicKey)
	require.NoError(t, err)
	raw, err := res.(*publicKeyResource).pk.Export(api.PublicKeyEncodingRaw)
	require.NoError(t, err)

	pk2, errno := r.PublicKeyImport(op, raw, api.PublicKeyEncodingRaw)
	require.Equal(t, api.ErrnoSuccess, errno)

	st, _ := r.SignStateOpen(kp)
	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("x")))
	sg, _ := r.SignStateSign(st)

	vs, _ := r.VerifyStateOpen(pk2)
	require.Equal(t, api.ErrnoSuccess, r.VerifyStateUpdate(vs, []byte("x")))
	assert.Equal(t, api.ErrnoSuccess, r.VerifyStateVerify(vs, sg))
}

func TestHandleHygiene(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	op, kp := openKeypair(t, r, "Ed25519")

	// Wrong-kind close does not free the resource.
	assert.Equal(t, api.ErrnoInvalidHandle, r.PublicKeyClose(kp))
	assert.Equal(t, api.ErrnoInvalidHandle, r.KeypairClose(op))

	// Stale handles fail uniformly after close.
	require.Equal(t, api.ErrnoSuccess, r.KeypairClose(kp))
	assert.Equal(t, api.ErrnoInvalidHandle, r.KeypairClose(kp))
	_, errno := r.SignStateOpen(kp)
	assert.Equal(t, api.ErrnoInvalidHandle, errno)
	_, errno = r.KeypairExport(kp, api.KeypairEncodingPKCS8)
	assert.Equal(t, api.ErrnoInvalidHandle, errno)

	// Never-issued handle.
	_, errno = r.ArrayOutputLen(api.Handle(0xdeadbeef))
	assert.Equal(t, api.ErrnoInvalidHandle, errno)
}

func TestOpCloseDeferredUntilChildrenReleased(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	op, errno := r.OpOpen("Ed25519")
	require.Equal(t, api.ErrnoSuccess, errno)
	b, errno := r.KeypairBuilderOpen(op)
	require.Equal(t, api.ErrnoSuccess, errno)

	// Close succeeds immediately but retirement waits for the builder.
	require.Equal(t, api.ErrnoSuccess, r.OpClose(op))
	assert.Equal(t, api.ErrnoInvalidHandle, r.OpClose(op))

	// The context refuses new children once close has been requested.
	_, errno = r.KeypairBuilderOpen(op)
	assert.Equal(t, api.ErrnoInvalidHandle, errno)

	// The builder still works against the pending context.
	kp, errno := r.KeypairGenerate(b)
	require.Equal(t, api.ErrnoSuccess, errno)
	require.Equal(t, api.ErrnoSuccess, r.KeypairClose(kp))

	require.Equal(t, api.ErrnoSuccess, r.KeypairBuilderClose(b))
	_, errno = r.KeypairBuilderOpen(op)
	assert.Equal(t, api.ErrnoInvalidHandle, errno)
	assert.Equal(t, 0, r.LiveHandles())
}

func TestUnknownAlgorithm(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	_, errno := r.OpOpen("ROT13")
	assert.Equal(t, api.ErrnoNotAvailable, errno)
}

func TestUpdateOverflow(t *testing.T) {
	conf := DefaultConfig()
	conf.MaxMessageBytes = 8
	r := newTestRuntime(t, conf)
	_, kp := openKeypair(t, r, "Ed25519")

	st, _ := r.SignStateOpen(kp)
	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("12345678")))
	assert.Equal(t, api.ErrnoOverflow, r.SignStateUpdate(st, []byte("9")))

	// The state is still usable at its current length.
	_, errno := r.SignStateSign(st)
	assert.Equal(t, api.ErrnoSuccess, errno)
}

func TestKeypairFromID(t *testing.T) {
	seedKey := func() ([]byte, []byte) {
		conf := DefaultConfig()
		r := newTestRuntime(t, conf)
		_, kp := openKeypair(t, r, "Ed25519")
		ao, errno := r.KeypairExport(kp, api.KeypairEncodingPKCS8)
		require.Equal(t, api.ErrnoSuccess, errno)
		return pullAll(t, r, ao), []byte("signing-key-1")
	}
	der, id := seedKey()

	conf := DefaultConfig()
	conf.Resolver = keys.NewStaticResolver(api.KeypairEncodingPKCS8, map[string][]byte{
		string(id): der,
	})
	r := newTestRuntime(t, conf)

	op, errno := r.OpOpen("Ed25519")
	require.Equal(t, api.ErrnoSuccess, errno)
	b, errno := r.KeypairBuilderOpen(op)
	require.Equal(t, api.ErrnoSuccess, errno)

	kp, errno := r.KeypairFromID(b, id)
	require.Equal(t, api.ErrnoSuccess, errno)
	st, _ := r.SignStateOpen(kp)
	require.Equal(t, api.ErrnoSuccess, r.SignStateUpdate(st, []byte("resolved")))
	_, errno = r.SignStateSign(st)
	assert.Equal(t, api.ErrnoSuccess, errno)

	_, errno = r.KeypairFromID(b, []byte("no-such-key"))
	assert.Equal(t, api.ErrnoInvalidKey, errno)
}

func TestFromIDWithoutResolver(t *testing.T) {
	r := newTestRuntime(t, DefaultConfig())
	op, _ := r.OpOpen("Ed25519")
	b, _ := r.KeypairBuilderOpen(op)
	_, errno := r.KeypairFromID(b, []byte("any"))
	assert.Equal(t, api.ErrnoNotAvailable, errno)
}

func TestMaxHandles(t *testing.T) {
	conf := DefaultConfig()
	conf.MaxHandles = 2
	r := newTestRuntime(t, conf)

	op, errno := r.OpOpen("Ed25519")
	require.Equal(t, api.ErrnoSuccess, errno)
	_, errno = r.KeypairBuilderOpen(op)
	require.Equal(t, api.ErrnoSuccess, errno)
	_, errno = r.KeypairBuilderOpen(op)
	assert.Equal(t, api.ErrnoOverflow, errno)
}

func TestClosedRuntime(t *testing.T) {
	r, err := New(DefaultConfig())
	require.NoError(t, err)
	op, errno := r.OpOpen("Ed25519")
	require.Equal(t, api.ErrnoSuccess, errno)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), api.ErrClosed)

	_, errno = r.OpOpen("Ed25519")
	assert.Equal(t, api.ErrnoClosed, errno)
	assert.Equal(t, api.ErrnoClosed, r.OpClose(op))
	assert.Equal(t, 0, r.LiveHandles())
}
