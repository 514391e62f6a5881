package host

import (
	"sync"

	"github.com/valyala/bytebufferpool"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/memwipe"
	"github.com/srediag/plugin-crypto/pkg/keys"
	"github.com/srediag/plugin-crypto/pkg/sig"
)

// signState is the incremental signing session. The accumulator is
// append-only; sign finalizes over everything seen so far without resetting,
// so a caller can checkpoint-sign a growing message.
type signState struct {
	mu    sync.Mutex
	kp    keys.Keypair
	acc   *bytebufferpool.ByteBuffer
	limit int
}

func newSignState(kp keys.Keypair, limit int) *signState {
	return &signState{kp: kp, acc: bytebufferpool.Get(), limit: limit}
}

func (st *signState) update(p []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.acc == nil {
		return api.ErrInvalidHandle
	}
	if st.acc.Len()+len(p) > st.limit {
		return api.ErrOverflow
	}
	_, _ = st.acc.Write(p)
	return nil
}

func (st *signState) sign() (*sig.Signature, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.acc == nil {
		return nil, api.ErrInvalidHandle
	}
	raw, err := st.kp.Sign(st.acc.B)
	if err != nil {
		return nil, err
	}
	return sig.New(st.kp.Suite(), raw), nil
}

// Destroy clears the accumulator. The bound keypair is owned by its own
// handle and is not touched here.
func (st *signState) Destroy() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.acc == nil {
		return
	}
	memwipe.Wipe(st.acc.B)
	bytebufferpool.Put(st.acc)
	st.acc = nil
}

// verifyState is the incremental verification session. Verify is a query,
// not a consumption: it neither resets the accumulator nor blocks further
// updates.
type verifyState struct {
	mu    sync.Mutex
	pk    keys.PublicKey
	acc   *bytebufferpool.ByteBuffer
	limit int
}

func newVerifyState(pk keys.PublicKey, limit int) *verifyState {
	return &verifyState{pk: pk, acc: bytebufferpool.Get(), limit: limit}
}

func (st *verifyState) update(p []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.acc == nil {
		return api.ErrInvalidHandle
	}
	if st.acc.Len()+len(p) > st.limit {
		return api.ErrOverflow
	}
	_, _ = st.acc.Write(p)
	return nil
}

func (st *verifyState) verify(sg *sig.Signature) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.acc == nil {
		return api.ErrInvalidHandle
	}
	if sg.Suite().Name != st.pk.Suite().Name {
		return api.ErrInvalidSignature
	}
	return st.pk.Verify(st.acc.B, sg.Raw())
}

func (st *verifyState) Destroy() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.acc == nil {
		return
	}
	bytebufferpool.Put(st.acc)
	st.acc = nil
}
