package host

import (
	"sync"

	"github.com/valyala/bytebufferpool"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/memwipe"
)

// arrayOutput stages a variable-length byte result until the guest pulls it.
// Consumed at most once: a successful pull marks it spent and the boundary
// layer retires the handle immediately after. A pull into a short buffer
// fails with overflow and leaves the output intact for a retry.
type arrayOutput struct {
	mu       sync.Mutex
	buf      *bytebufferpool.ByteBuffer
	consumed bool
}

func newArrayOutput(p []byte) *arrayOutput {
	buf := bytebufferpool.Get()
	_, _ = buf.Write(p)
	return &arrayOutput{buf: buf}
}

func (a *arrayOutput) length() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed || a.buf == nil {
		return 0, api.ErrInvalidHandle
	}
	return a.buf.Len(), nil
}

func (a *arrayOutput) pull(dst []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed || a.buf == nil {
		return 0, api.ErrInvalidHandle
	}
	if len(dst) < a.buf.Len() {
		return 0, api.ErrOverflow
	}
	n := copy(dst, a.buf.B)
	a.consumed = true
	return n, nil
}

// Destroy wipes the staged bytes before the pooled buffer is recycled;
// exports may have staged private key material.
func (a *arrayOutput) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.buf == nil {
		return
	}
	memwipe.Wipe(a.buf.B)
	bytebufferpool.Put(a.buf)
	a.buf = nil
}
