// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package crypto

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// btcScheme implements BIP-340 Schnorr: 32-byte x-only public keys,
// a tagged-hash challenge, and the negation of the private key (and
// every nonce) whose corresponding point has an odd y-coordinate, so
// the final key/nonce pair presented to the verifier is always even-y.
type btcScheme struct{}

// NewBTCScheme returns the Bitcoin BIP-340 threshold Schnorr scheme.
func NewBTCScheme() Scheme { return btcScheme{} }

func (btcScheme) Name() string { return "btc-bip340-schnorr" }

func (btcScheme) GenerateKeyShares(threshold, total int) ([]KeyShare, PublicKey, error) {
	secretBytes, err := randomBytes(32)
	if err != nil {
		return nil, PublicKey{}, err
	}
	secret := scalarFromBytes(secretBytes)
	pub := pointFromScalar(secret)
	if isOddY(pub) {
		secret.Negate()
		pub = pointFromScalar(secret)
	}
	shares, err := shamirSplit(secret, threshold, total)
	if err != nil {
		return nil, PublicKey{}, err
	}
	return shares, PublicKey{Bytes: xOnly(pub)}, nil
}

func (btcScheme) CommitNonce() (NonceCommitment, NonceSecret, error) {
	kBytes, err := randomBytes(32)
	if err != nil {
		return NonceCommitment{}, NonceSecret{}, err
	}
	k := scalarFromBytes(kBytes)
	pub := pointFromScalar(k)
	if isOddY(pub) {
		k.Negate()
		pub = pointFromScalar(k)
		kb := k.Bytes()
		kBytes = kb[:]
	}
	return NonceCommitment{Value: xOnly(pub)}, NonceSecret{Value: kBytes}, nil
}

func (b btcScheme) SignShare(share KeyShare, secret NonceSecret, commitments []NonceCommitment, payload []byte) (SignatureShare, error) {
	r, needFlip, err := aggregateXOnlyPoint(commitments)
	if err != nil {
		return SignatureShare{}, err
	}
	e, err := b.challenge(r, payload, share.pubHint())
	if err != nil {
		return SignatureShare{}, err
	}

	k := scalarFromBytes(secret.Value)
	if needFlip {
		k.Negate()
	}
	x := scalarFromBytes(share.Value)

	indices := make([]uint32, len(commitments))
	for i, c := range commitments {
		indices[i] = c.Index
	}
	lagrange := lagrangeCoefficient(share.Index, indices)

	term := *e
	term.Mul(x)
	term.Mul(&lagrange)

	s := *k
	s.Add(&term)

	return SignatureShare{Index: share.Index, Value: s.Bytes()[:]}, nil
}

func (b btcScheme) Aggregate(pub PublicKey, commitments []NonceCommitment, shares []SignatureShare, payload []byte) (Signature, error) {
	if len(shares) == 0 {
		return Signature{}, ErrInsufficientShares
	}
	r, _, err := aggregateXOnlyPoint(commitments)
	if err != nil {
		return Signature{}, err
	}
	var total secp256k1.ModNScalar
	for _, sh := range shares {
		total.Add(scalarFromBytes(sh.Value))
	}
	return Signature{Bytes: append(append([]byte{}, r...), total.Bytes()[:]...)}, nil
}

func (b btcScheme) Verify(pub PublicKey, payload []byte, sig Signature) error {
	if len(sig.Bytes) != 32+32 || len(pub.Bytes) != 32 {
		return ErrVerificationFailed
	}
	rBytes, sBytes := sig.Bytes[:32], sig.Bytes[32:]
	e, err := b.challenge(rBytes, payload, pub.Bytes)
	if err != nil {
		return err
	}
	s := scalarFromBytes(sBytes)

	sG := pointFromScalar(s)
	pubPoint, err := liftX(pub.Bytes)
	if err != nil {
		return ErrVerificationFailed
	}
	eP := scalarMul(e, pubPoint)
	eP.Y.Negate(1)
	eP.Y.Normalize()
	rPrime := sumPoints([]*secp256k1.JacobianPoint{sG, eP})
	if xOnlyEquals(rPrime, rBytes) {
		return nil
	}
	return ErrVerificationFailed
}

// challenge implements BIP-340's tagged hash:
// e = H("BIP0340/challenge", r || pub || msg)
func (btcScheme) challenge(r, payload, pub []byte) (*secp256k1.ModNScalar, error) {
	tag := sha256.Sum256([]byte("BIP0340/challenge"))
	h := sha256.New()
	h.Write(tag[:])
	h.Write(tag[:])
	h.Write(r)
	h.Write(pub)
	h.Write(payload)
	return scalarFromBytes(h.Sum(nil)), nil
}

func (s KeyShare) pubHint() []byte { return nil }

func isOddY(p *secp256k1.JacobianPoint) bool {
	p.ToAffine()
	return p.Y.IsOdd()
}

func xOnly(p *secp256k1.JacobianPoint) []byte {
	p.ToAffine()
	b := p.X.Bytes()
	return b[:]
}

func xOnlyEquals(p *secp256k1.JacobianPoint, x []byte) bool {
	got := xOnly(p)
	if len(got) != len(x) {
		return false
	}
	for i := range got {
		if got[i] != x[i] {
			return false
		}
	}
	return true
}

// liftX recovers the even-y point for a 32-byte x-only coordinate, as
// required by BIP-340 verification.
func liftX(x []byte) (*secp256k1.JacobianPoint, error) {
	var fx secp256k1.FieldVal
	if overflow := fx.SetByteSlice(x); overflow {
		return nil, ErrVerificationFailed
	}
	pub, err := secp256k1.ParsePubKey(append([]byte{0x02}, x...))
	if err != nil {
		return nil, err
	}
	var p secp256k1.JacobianPoint
	pub.AsJacobian(&p)
	return &p, nil
}

// aggregateXOnlyPoint sums the round-1 nonce commitments and reports
// whether the combined point needed a sign flip to reach even-y, so
// SignShare can apply the same flip to each participant's secret.
func aggregateXOnlyPoint(commitments []NonceCommitment) ([]byte, bool, error) {
	points := make([]*secp256k1.JacobianPoint, 0, len(commitments))
	for _, c := range commitments {
		p, err := liftX(c.Value)
		if err != nil {
			return nil, false, err
		}
		points = append(points, p)
	}
	r := sumPoints(points)
	flip := isOddY(r)
	if flip {
		r.Y.Negate(1)
		r.Y.Normalize()
	}
	return xOnly(r), flip, nil
}
