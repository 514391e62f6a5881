package keys

import (
	stded25519 "crypto/ed25519"
	"fmt"
	"io"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/memwipe"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

type ed25519Keypair struct {
	s    suite.Suite
	priv ed25519.PrivateKey
}

func newEd25519Keypair(s suite.Suite, priv ed25519.PrivateKey) *ed25519Keypair {
	// mlock is best effort
	_ = memwipe.Lock(priv)
	return &ed25519Keypair{s: s, priv: priv}
}

func generateEd25519(s suite.Suite, rng io.Reader) (Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: ed25519 generate: %v", api.ErrRNG, err)
	}
	return newEd25519Keypair(s, priv), nil
}

// importEd25519Raw accepts either a 32-byte seed or a 64-byte private key,
// the two forms key stores hand out in the wild.
func importEd25519Raw(s suite.Suite, data []byte) (Keypair, error) {
	switch len(data) {
	case ed25519.SeedSize:
		return newEd25519Keypair(s, ed25519.NewKeyFromSeed(data)), nil
	case ed25519.PrivateKeySize:
		return newEd25519Keypair(s, ed25519.PrivateKey(append([]byte(nil), data...))), nil
	}
	return nil, fmt.Errorf("%w: ed25519 private key must be %d or %d bytes, got %d",
		api.ErrInvalidKey, ed25519.SeedSize, ed25519.PrivateKeySize, len(data))
}

func (k *ed25519Keypair) Suite() suite.Suite { return k.s }

func (k *ed25519Keypair) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, msg), nil
}

func (k *ed25519Keypair) Public() PublicKey {
	pub := append(ed25519.PublicKey(nil), k.priv[ed25519.SeedSize:]...)
	return &ed25519PublicKey{s: k.s, pub: pub}
}

func (k *ed25519Keypair) Export(enc api.KeypairEncoding) ([]byte, error) {
	switch enc {
	case api.KeypairEncodingRaw:
		return append([]byte(nil), k.priv...), nil
	case api.KeypairEncodingPKCS8, api.KeypairEncodingDER, api.KeypairEncodingPEM:
		std := stded25519.PrivateKey(append([]byte(nil), k.priv...))
		defer memwipe.Wipe(std)
		return exportPKCS8(enc, std)
	}
	return nil, api.ErrNotAvailable
}

func (k *ed25519Keypair) Destroy() {
	memwipe.Wipe(k.priv)
	_ = memwipe.Unlock(k.priv)
}
