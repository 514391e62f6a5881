package keys

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

// Builder collects keypair construction parameters for one operation
// context. It is transient: once a keypair has been produced the builder can
// be closed without affecting it.
type Builder struct {
	s        suite.Suite
	rng      io.Reader
	resolver Resolver
	retries  uint64
}

// Option tunes a Builder.
type Option func(*Builder)

// WithRNG overrides the entropy source, primarily for deterministic tests.
func WithRNG(r io.Reader) Option {
	return func(b *Builder) { b.rng = r }
}

// WithResolver installs the external key store indirection used by FromID.
func WithResolver(r Resolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// WithResolveRetries bounds the retry budget for flaky resolvers.
func WithResolveRetries(n uint64) Option {
	return func(b *Builder) { b.retries = n }
}

func NewBuilder(s suite.Suite, opts ...Option) *Builder {
	b := &Builder{s: s, rng: rand.Reader, retries: defaultResolveRetries}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Suite() suite.Suite { return b.s }

// Generate produces a fresh keypair for the builder's suite.
func (b *Builder) Generate() (Keypair, error) {
	return Generate(b.s, b.rng)
}

// Import decodes keypair material supplied by the caller.
func (b *Builder) Import(data []byte, enc api.KeypairEncoding) (Keypair, error) {
	return Import(b.s, data, enc, b.rng)
}

// FromID resolves an opaque identifier through the configured resolver.
func (b *Builder) FromID(ctx context.Context, id []byte) (Keypair, error) {
	return resolveKeypair(ctx, b, id)
}
