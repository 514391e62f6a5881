package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/memwipe"
)

const defaultResolveRetries = 3

// Resolver turns an opaque key identifier into encoded key material. The
// identifier scheme is the host's business: a KMS ARN, an HSM slot label, a
// row id. Resolve must be synchronous; transient failures are retried by the
// caller with exponential backoff.
type Resolver interface {
	Resolve(ctx context.Context, id []byte) ([]byte, api.KeypairEncoding, error)
}

func resolveKeypair(ctx context.Context, b *Builder, id []byte) (Keypair, error) {
	if b.resolver == nil {
		return nil, api.ErrNotAvailable
	}
	var data []byte
	var enc api.KeypairEncoding
	op := func() error {
		d, e, err := b.resolver.Resolve(ctx, id)
		if err != nil {
			// definitive outcomes are not worth retrying
			if errors.Is(err, api.ErrInvalidKey) || errors.Is(err, api.ErrNotAvailable) {
				return backoff.Permanent(err)
			}
			return err
		}
		data, enc = d, e
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), b.retries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if errors.Is(err, api.ErrInvalidKey) || errors.Is(err, api.ErrNotAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: resolve: %v", api.ErrInvalidKey, err)
	}
	defer memwipe.Wipe(data)
	return Import(b.s, data, enc, b.rng)
}

// StaticResolver serves key material from memory, keyed by the string form
// of the identifier. Used in tests and as a reference implementation.
type StaticResolver struct {
	enc     api.KeypairEncoding
	entries map[string][]byte
}

func NewStaticResolver(enc api.KeypairEncoding, entries map[string][]byte) *StaticResolver {
	return &StaticResolver{enc: enc, entries: entries}
}

func (r *StaticResolver) Resolve(_ context.Context, id []byte) ([]byte, api.KeypairEncoding, error) {
	data, ok := r.entries[string(id)]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown key id", api.ErrInvalidKey)
	}
	return append([]byte(nil), data...), r.enc, nil
}
