package keys

import (
	"crypto/rsa"
	"fmt"
	"io"
	"math/big"

	"github.com/srediag/plugin-crypto/api"
	"github.com/srediag/plugin-crypto/internal/memwipe"
	"github.com/srediag/plugin-crypto/pkg/suite"
)

type rsaKeypair struct {
	s    suite.Suite
	priv *rsa.PrivateKey
	rng  io.Reader
}

func newRSAKeypair(s suite.Suite, priv *rsa.PrivateKey, rng io.Reader) *rsaKeypair {
	return &rsaKeypair{s: s, priv: priv, rng: rng}
}

func generateRSA(s suite.Suite, rng io.Reader) (Keypair, error) {
	priv, err := rsa.GenerateKey(rng, s.Bits)
	if err != nil {
		return nil, fmt.Errorf("%w: rsa generate: %v", api.ErrRNG, err)
	}
	return newRSAKeypair(s, priv, rng), nil
}

func (k *rsaKeypair) Suite() suite.Suite { return k.s }

func (k *rsaKeypair) Sign(msg []byte) ([]byte, error) {
	d := digest(k.s.Hash, msg)
	var sig []byte
	var err error
	switch k.s.Family {
	case suite.FamilyRSAPKCS1:
		sig, err = rsa.SignPKCS1v15(k.rng, k.priv, k.s.Hash, d)
	case suite.FamilyRSAPSS:
		sig, err = rsa.SignPSS(k.rng, k.priv, k.s.Hash, d, nil)
	default:
		return nil, api.ErrNotAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: rsa sign: %v", api.ErrAlgorithmFailure, err)
	}
	return sig, nil
}

func (k *rsaKeypair) Public() PublicKey {
	pub := *k.priv.Public().(*rsa.PublicKey)
	return &rsaPublicKey{s: k.s, pub: &pub}
}

func (k *rsaKeypair) Export(enc api.KeypairEncoding) ([]byte, error) {
	switch enc {
	case api.KeypairEncodingPKCS8, api.KeypairEncodingDER, api.KeypairEncodingPEM:
		return exportPKCS8(enc, k.priv)
	}
	return nil, api.ErrNotAvailable
}

func (k *rsaKeypair) Destroy() {
	memwipe.WipeWords(k.priv.D.Bits())
	for _, p := range k.priv.Primes {
		memwipe.WipeWords(p.Bits())
	}
	for _, n := range []*big.Int{k.priv.Precomputed.Dp, k.priv.Precomputed.Dq, k.priv.Precomputed.Qinv} {
		if n != nil {
			memwipe.WipeWords(n.Bits())
		}
	}
}
