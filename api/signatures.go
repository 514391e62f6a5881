package api

// Handle is an opaque capability reference to a host-owned resource. Guests
// see only the integer; the kind tag and generation live host-side.
type Handle uint64

// Signatures is the boundary surface a conforming host exposes to guests.
// Every call returns an explicit Errno; variable-length byte results are
// staged into array outputs and pulled exactly once.
type Signatures interface {
	// Array output staging.
	ArrayOutputLen(h Handle) (int, Errno)
	ArrayOutputPull(h Handle, dst []byte) (int, Errno)

	// Operation contexts.
	OpOpen(name string) (Handle, Errno)
	OpClose(h Handle) Errno

	// Keypair builders, scoped to one operation context.
	KeypairBuilderOpen(op Handle) (Handle, Errno)
	KeypairBuilderClose(h Handle) Errno

	// Keypairs.
	KeypairGenerate(builder Handle) (Handle, Errno)
	KeypairImport(builder Handle, data []byte, enc KeypairEncoding) (Handle, Errno)
	KeypairFromID(builder Handle, id []byte) (Handle, Errno)
	KeypairExport(kp Handle, enc KeypairEncoding) (Handle, Errno)
	KeypairPublicKey(kp Handle) (Handle, Errno)
	KeypairClose(h Handle) Errno

	// Public-only keys.
	PublicKeyImport(op Handle, data []byte, enc PublicKeyEncoding) (Handle, Errno)
	PublicKeyClose(h Handle) Errno

	// Signature objects.
	SignatureImport(op Handle, data []byte, enc SignatureEncoding) (Handle, Errno)
	SignatureExport(sg Handle, enc SignatureEncoding) (Handle, Errno)
	SignatureClose(h Handle) Errno

	// Incremental signing.
	SignStateOpen(kp Handle) (Handle, Errno)
	SignStateUpdate(h Handle, data []byte) Errno
	SignStateSign(h Handle) (Handle, Errno)
	SignStateClose(h Handle) Errno

	// Incremental verification.
	VerifyStateOpen(pk Handle) (Handle, Errno)
	VerifyStateUpdate(h Handle, data []byte) Errno
	VerifyStateVerify(h, sg Handle) Errno
	VerifyStateClose(h Handle) Errno
}
