package keys

import (
	"crypto/ecdsa"
	"fmt"
	"io"
	"math/big"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/memwipe"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

type ecdsaKeypair struct {
	s    suite.Suite
	priv *ecdsa.PrivateKey
	rng  io.Reader
}

func newECDSAKeypair(s suite.Suite, priv *ecdsa.PrivateKey, rng io.Reader) *ecdsaKeypair {
	return &ecdsaKeypair{s: s, priv: priv, rng: rng}
}

func generateECDSA(s suite.Suite, rng io.Reader) (Keypair, error) {
	priv, err := ecdsa.GenerateKey(s.Curve, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: ecdsa generate: %v", api.ErrRNG, err)
	}
	return newECDSAKeypair(s, priv, rng), nil
}

func (k *ecdsaKeypair) Suite() suite.Suite { return k.s }

// Sign hashes the message with the suite hash and emits the fixed-width
// r||s raw form; DER conversion happens at the signature object layer.
func (k *ecdsaKeypair) Sign(msg []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(k.rng, k.priv, digest(k.s.Hash, msg))
	if err != nil {
		return nil, fmt.Errorf("%w: ecdsa sign: %v", api.ErrAlgorithmFailure, err)
	}
	return rawECDSASignature(r, s, k.s.CoordinateSize()), nil
}

func rawECDSASignature(r, s *big.Int, size int) []byte {
	sig := make([]byte, 2*size)
	r.FillBytes(sig[:size])
	s.FillBytes(sig[size:])
	return sig
}

func (k *ecdsaKeypair) Public() PublicKey {
	pub := k.priv.PublicKey
	return &ecdsaPublicKey{s: k.s, pub: &pub}
}

func (k *ecdsaKeypair) Export(enc api.KeypairEncoding) ([]byte, error) {
	switch enc {
	case api.KeypairEncodingPKCS8, api.KeypairEncodingDER, api.KeypairEncodingPEM:
		return exportPKCS8(enc, k.priv)
	}
	// the scalar alone is not a transportable keypair form
	return nil, api.ErrNotAvailable
}

func (k *ecdsaKeypair) Destroy() {
	memwipe.WipeWords(k.priv.D.Bits())
}
