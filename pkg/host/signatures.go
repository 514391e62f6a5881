package host

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/handle"
	"github.com/srediag/plugin-crypto/internal/memwipe"
	"github.com/srediag/plugin-crypto/pkg/keys"
	"github.com/srediag/plugin-crypto/pkg/sig"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

// Boundary methods. Each returns an api.Errno as its primary result; byte
// results are staged into array outputs and never copied inline.

func (r *Runtime) getOp(h api.Handle) (*opContext, error) {
	res, err := r.table.Get(h, handle.KindOp)
	if err != nil {
		return nil, err
	}
	return res.(*opContext), nil
}

func (r *Runtime) getBuilder(h api.Handle) (*builderResource, error) {
	res, err := r.table.Get(h, handle.KindKeypairBuilder)
	if err != nil {
		return nil, err
	}
	return res.(*builderResource), nil
}

func (r *Runtime) getKeypair(h api.Handle) (keys.Keypair, error) {
	res, err := r.table.Get(h, handle.KindKeypair)
	if err != nil {
		return nil, err
	}
	return res.(*keypairResource).kp, nil
}

func (r *Runtime) getPublicKey(h api.Handle) (keys.PublicKey, error) {
	res, err := r.table.Get(h, handle.KindPublicKey)
	if err != nil {
		return nil, err
	}
	return res.(*publicKeyResource).pk, nil
}

func (r *Runtime) getSignature(h api.Handle) (*sig.Signature, error) {
	res, err := r.table.Get(h, handle.KindSignature)
	if err != nil {
		return nil, err
	}
	return res.(*signatureResource).sg, nil
}

// closeKind retires h after checking it is live and of the expected kind,
// so cross-kind close calls fail instead of freeing a stranger's resource.
func (r *Runtime) closeKind(h api.Handle, k handle.Kind) api.Errno {
	if err := r.guard(); err != nil {
		return api.ErrnoOf(err)
	}
	if _, err := r.table.Get(h, k); err != nil {
		return api.ErrnoOf(err)
	}
	return api.ErrnoOf(r.table.Close(h))
}

// stage copies out into a fresh array output and wipes the original, which
// may hold exported private material.
func (r *Runtime) stage(out []byte) (api.Handle, api.Errno) {
	ao := newArrayOutput(out)
	memwipe.Wipe(out)
	h, err := r.table.Allocate(handle.KindArrayOutput, ao)
	if err != nil {
		ao.Destroy()
		return 0, api.ErrnoOf(err)
	}
	r.metrics.recordStaged(len(out))
	return h, api.ErrnoSuccess
}

// span starts a tracing span when a tracer is configured.
func (r *Runtime) span(name string) (context.Context, func()) {
	ctx := context.Background()
	if r.conf.Tracer == nil {
		return ctx, func() {}
	}
	var sp trace.Span
	ctx, sp = r.conf.Tracer.Start(ctx, name)
	return ctx, func() { sp.End() }
}

// Array output staging.

func (r *Runtime) ArrayOutputLen(h api.Handle) (int, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	res, err := r.table.Get(h, handle.KindArrayOutput)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	n, err := res.(*arrayOutput).length()
	return n, api.ErrnoOf(err)
}

// ArrayOutputPull copies the staged bytes into dst and consumes the handle.
// A short dst fails with overflow and leaves the handle valid for a retry.
func (r *Runtime) ArrayOutputPull(h api.Handle, dst []byte) (int, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	res, err := r.table.Get(h, handle.KindArrayOutput)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	n, err := res.(*arrayOutput).pull(dst)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	_ = r.table.Close(h)
	return n, api.ErrnoSuccess
}

// Operation contexts.

func (r *Runtime) OpOpen(name string) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	s, err := suite.Parse(name)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	o := &opContext{s: s, table: r.table}
	h, err := r.table.Allocate(handle.KindOp, o)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	o.self = h
	return h, api.ErrnoSuccess
}

func (r *Runtime) OpClose(h api.Handle) api.Errno {
	if err := r.guard(); err != nil {
		return api.ErrnoOf(err)
	}
	o, err := r.getOp(h)
	if err != nil {
		return api.ErrnoOf(err)
	}
	return api.ErrnoOf(o.requestClose())
}

// Keypair builders.

func (r *Runtime) KeypairBuilderOpen(op api.Handle) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	o, err := r.getOp(op)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	if err := o.acquire(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	b := keys.NewBuilder(o.s, keys.WithRNG(r.conf.RNG), keys.WithResolver(r.conf.Resolver))
	h, err := r.table.Allocate(handle.KindKeypairBuilder, &builderResource{b: b, op: o})
	if err != nil {
		o.release()
		return 0, api.ErrnoOf(err)
	}
	return h, api.ErrnoSuccess
}

func (r *Runtime) KeypairBuilderClose(h api.Handle) api.Errno {
	return r.closeKind(h, handle.KindKeypairBuilder)
}

// Keypairs.

func (r *Runtime) allocKeypair(kp keys.Keypair, err error) (api.Handle, api.Errno) {
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	h, err := r.table.Allocate(handle.KindKeypair, &keypairResource{kp: kp})
	if err != nil {
		kp.Destroy()
		return 0, api.ErrnoOf(err)
	}
	return h, api.ErrnoSuccess
}

func (r *Runtime) KeypairGenerate(builder api.Handle) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	b, err := r.getBuilder(builder)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return r.allocKeypair(b.b.Generate())
}

func (r *Runtime) KeypairImport(builder api.Handle, data []byte, enc api.KeypairEncoding) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	b, err := r.getBuilder(builder)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return r.allocKeypair(b.b.Import(data, enc))
}

func (r *Runtime) KeypairFromID(builder api.Handle, id []byte) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	b, err := r.getBuilder(builder)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return r.allocKeypair(b.b.FromID(context.Background(), id))
}

func (r *Runtime) KeypairExport(kp api.Handle, enc api.KeypairEncoding) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	k, err := r.getKeypair(kp)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	out, err := k.Export(enc)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return r.stage(out)
}

func (r *Runtime) KeypairPublicKey(kp api.Handle) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	k, err := r.getKeypair(kp)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	h, err := r.table.Allocate(handle.KindPublicKey, &publicKeyResource{pk: k.Public()})
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return h, api.ErrnoSuccess
}

func (r *Runtime) KeypairClose(h api.Handle) api.Errno {
	return r.closeKind(h, handle.KindKeypair)
}

// Public-only keys.

func (r *Runtime) PublicKeyImport(op api.Handle, data []byte, enc api.PublicKeyEncoding) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	o, err := r.getOp(op)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	if err := o.acquire(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	defer o.release()
	pk, err := keys.ImportPublicKey(o.s, data, enc)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	h, err := r.table.Allocate(handle.KindPublicKey, &publicKeyResource{pk: pk})
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return h, api.ErrnoSuccess
}

func (r *Runtime) PublicKeyClose(h api.Handle) api.Errno {
	return r.closeKind(h, handle.KindPublicKey)
}

// Signature objects.

func (r *Runtime) SignatureImport(op api.Handle, data []byte, enc api.SignatureEncoding) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	o, err := r.getOp(op)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	if err := o.acquire(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	defer o.release()
	sg, err := sig.Import(o.s, data, enc)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	h, err := r.table.Allocate(handle.KindSignature, &signatureResource{sg: sg})
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return h, api.ErrnoSuccess
}

func (r *Runtime) SignatureExport(sgh api.Handle, enc api.SignatureEncoding) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	sg, err := r.getSignature(sgh)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	out, err := sg.Export(enc)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return r.stage(out)
}

func (r *Runtime) SignatureClose(h api.Handle) api.Errno {
	return r.closeKind(h, handle.KindSignature)
}

// Incremental signing.

func (r *Runtime) SignStateOpen(kp api.Handle) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	k, err := r.getKeypair(kp)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	h, err := r.table.Allocate(handle.KindSignState, newSignState(k, r.conf.MaxMessageBytes))
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return h, api.ErrnoSuccess
}

func (r *Runtime) SignStateUpdate(h api.Handle, data []byte) api.Errno {
	if err := r.guard(); err != nil {
		return api.ErrnoOf(err)
	}
	res, err := r.table.Get(h, handle.KindSignState)
	if err != nil {
		return api.ErrnoOf(err)
	}
	return api.ErrnoOf(res.(*signState).update(data))
}

// SignStateSign finalizes the accumulator into a new signature object
// without consuming the state; further updates and signs remain legal.
func (r *Runtime) SignStateSign(h api.Handle) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	ctx, end := r.span("host.sign")
	defer end()
	res, err := r.table.Get(h, handle.KindSignState)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	sg, err := res.(*signState).sign()
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	hh, err := r.table.Allocate(handle.KindSignature, &signatureResource{sg: sg})
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	r.metrics.recordSign(ctx)
	return hh, api.ErrnoSuccess
}

func (r *Runtime) SignStateClose(h api.Handle) api.Errno {
	return r.closeKind(h, handle.KindSignState)
}

// Incremental verification.

func (r *Runtime) VerifyStateOpen(pk api.Handle) (api.Handle, api.Errno) {
	if err := r.guard(); err != nil {
		return 0, api.ErrnoOf(err)
	}
	p, err := r.getPublicKey(pk)
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	h, err := r.table.Allocate(handle.KindVerifyState, newVerifyState(p, r.conf.MaxMessageBytes))
	if err != nil {
		return 0, api.ErrnoOf(err)
	}
	return h, api.ErrnoSuccess
}

func (r *Runtime) VerifyStateUpdate(h api.Handle, data []byte) api.Errno {
	if err := r.guard(); err != nil {
		return api.ErrnoOf(err)
	}
	res, err := r.table.Get(h, handle.KindVerifyState)
	if err != nil {
		return api.ErrnoOf(err)
	}
	return api.ErrnoOf(res.(*verifyState).update(data))
}

// VerifyStateVerify checks the accumulated data against sgh. A mismatch is
// a legitimate outcome, not a host defect, and does not consume the state.
func (r *Runtime) VerifyStateVerify(h, sgh api.Handle) api.Errno {
	if err := r.guard(); err != nil {
		return api.ErrnoOf(err)
	}
	ctx, end := r.span("host.verify")
	defer end()
	res, err := r.table.Get(h, handle.KindVerifyState)
	if err != nil {
		return api.ErrnoOf(err)
	}
	sg, err := r.getSignature(sgh)
	if err != nil {
		return api.ErrnoOf(err)
	}
	err = res.(*verifyState).verify(sg)
	r.metrics.recordVerify(ctx, err == nil)
	return api.ErrnoOf(err)
}

func (r *Runtime) VerifyStateClose(h api.Handle) api.Errno {
	return r.closeKind(h, handle.KindVerifyState)
}
