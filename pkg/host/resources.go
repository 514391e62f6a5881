package host

import (
	"sync"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/handle"
	"github.com/srediag/plugin-crypto/pkg/keys"
	"github.com/srediag/plugin-crypto/pkg/sig"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

// opContext is a resolved operation descriptor shared by the objects opened
// against it. Children (keypair builders) hold references; a close requested
// while references exist is deferred until the last one is released, so
// children never observe a dangling context.
type opContext struct {
	mu             sync.Mutex
	s              suite.Suite
	refs           int
	closeRequested bool
	retired        bool

	table *handle.Table
	self  api.Handle
}

func (o *opContext) Destroy() {}

func (o *opContext) acquire() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closeRequested {
		return api.ErrInvalidHandle
	}
	o.refs++
	return nil
}

func (o *opContext) release() {
	o.mu.Lock()
	retire := false
	o.refs--
	if o.refs == 0 && o.closeRequested && !o.retired {
		o.retired = true
		retire = true
	}
	o.mu.Unlock()
	if retire {
		_ = o.table.Close(o.self)
	}
}

// requestClose retires the context now if it has no children, otherwise
// marks it for retirement on the last release. Either way the close call
// reports success and further child opens are refused.
func (o *opContext) requestClose() error {
	o.mu.Lock()
	if o.closeRequested {
		o.mu.Unlock()
		return api.ErrInvalidHandle
	}
	o.closeRequested = true
	retire := o.refs == 0 && !o.retired
	if retire {
		o.retired = true
	}
	o.mu.Unlock()
	if retire {
		return o.table.Close(o.self)
	}
	return nil
}

// Thin handle.Resource wrappers around the key and signature containers.

type builderResource struct {
	b  *keys.Builder
	op *opContext
}

func (x *builderResource) Destroy() { x.op.release() }

type keypairResource struct {
	kp keys.Keypair
}

func (x *keypairResource) Destroy() { x.kp.Destroy() }

type publicKeyResource struct {
	pk keys.PublicKey
}

func (x *publicKeyResource) Destroy() {}

type signatureResource struct {
	sg *sig.Signature
}

func (x *signatureResource) Destroy() {}
