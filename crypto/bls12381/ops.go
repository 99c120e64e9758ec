package bls12381

import (
	"math/big"
	"sync/atomic"

	"github.com/bnb-chain/bsc-evm/common/gopool"
	"github.com/consensys/gnark-crypto/ecc"
	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// G1Add adds two G1 points. Input is 256 bytes, output 128 bytes.
func G1Add(input []byte) ([]byte, error) {
	if len(input) != 2*G1PointSize {
		return nil, ErrInvalidInputLength
	}
	p0, err := DecodeG1(input[:G1PointSize])
	if err != nil {
		return nil, err
	}
	p1, err := DecodeG1(input[G1PointSize:])
	if err != nil {
		return nil, err
	}
	switch {
	case p0.IsInfinity():
		return EncodeG1(p1), nil
	case p1.IsInfinity():
		return EncodeG1(p0), nil
	}
	return EncodeG1(p0.Add(p0, p1)), nil
}

// G2Add adds two G2 points. Input is 512 bytes, output 256 bytes.
func G2Add(input []byte) ([]byte, error) {
	if len(input) != 2*G2PointSize {
		return nil, ErrInvalidInputLength
	}
	p0, err := DecodeG2(input[:G2PointSize])
	if err != nil {
		return nil, err
	}
	p1, err := DecodeG2(input[G2PointSize:])
	if err != nil {
		return nil, err
	}
	switch {
	case p0.IsInfinity():
		return EncodeG2(p1), nil
	case p1.IsInfinity():
		return EncodeG2(p0), nil
	}
	return EncodeG2(p0.Add(p0, p1)), nil
}

// G1Mul multiplies a G1 point by a scalar. Input is 160 bytes.
func G1Mul(input []byte) ([]byte, error) {
	if len(input) != G1MulPairSize {
		return nil, ErrInvalidInputLength
	}
	p, err := DecodeG1(input[:G1PointSize])
	if err != nil {
		return nil, err
	}
	if !p.IsInSubGroup() {
		return nil, ErrG1PointSubgroup
	}
	scalar := input[G1PointSize:]
	if p.IsInfinity() || isZero(scalar) {
		return make([]byte, G1PointSize), nil
	}
	r := new(bls.G1Affine).ScalarMultiplication(p, new(big.Int).SetBytes(scalar))
	return EncodeG1(r), nil
}

// G2Mul multiplies a G2 point by a scalar. Input is 288 bytes.
func G2Mul(input []byte) ([]byte, error) {
	if len(input) != G2MulPairSize {
		return nil, ErrInvalidInputLength
	}
	p, err := DecodeG2(input[:G2PointSize])
	if err != nil {
		return nil, err
	}
	if !p.IsInSubGroup() {
		return nil, ErrG2PointSubgroup
	}
	scalar := input[G2PointSize:]
	if p.IsInfinity() || isZero(scalar) {
		return make([]byte, G2PointSize), nil
	}
	r := new(bls.G2Affine).ScalarMultiplication(p, new(big.Int).SetBytes(scalar))
	return EncodeG2(r), nil
}

// Slots of pairs that contribute nothing to a multi exponentiation.
const (
	skipPair  = -1 // identity point, nothing to decode
	checkPair = -2 // zero scalar, the point is validated but not multiplied
)

// msmBatch is the decoded form of a multi exponentiation input. Pairs with
// an identity point or a zero scalar contribute nothing and get no slot:
// dest maps every input pair to its slot, skipPair or checkPair.
type msmBatch struct {
	dest    []int
	scalars []fr.Element
	errs    []error
	failed  atomic.Bool
}

func newMSMBatch(input []byte, pairSize, pointSize int) *msmBatch {
	k := len(input) / pairSize
	b := &msmBatch{dest: make([]int, k), errs: make([]error, k)}
	n := 0
	for i := 0; i < k; i++ {
		off := i * pairSize
		if isZero(input[off : off+pointSize]) {
			b.dest[i] = skipPair
			continue
		}
		if isZero(input[off+pointSize : off+pairSize]) {
			b.dest[i] = checkPair
			continue
		}
		b.dest[i] = n
		n++
	}
	b.scalars = make([]fr.Element, n)
	return b
}

// decode runs fn for every pair except the skipped ones; fn must only
// validate pairs whose slot is negative. Large batches are decoded on the
// goroutine pool; every task writes only its own slot and a failing task
// raises the shared flag.
func (b *msmBatch) decode(parallelThreshold int, fn func(i, slot int) error) error {
	run := func(i int) {
		slot := b.dest[i]
		if slot == skipPair || b.failed.Load() {
			return
		}
		if err := fn(i, slot); err != nil {
			b.errs[i] = err
			b.failed.Store(true)
		}
	}
	if parallelThreshold > 0 && len(b.dest) >= parallelThreshold {
		gopool.ParallelFor(len(b.dest), run)
	} else {
		for i := range b.dest {
			run(i)
		}
	}
	if !b.failed.Load() {
		return nil
	}
	for _, err := range b.errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// G1MultiExp computes the sum of k scalar multiplications on G1. Input is a
// non-empty sequence of 160 byte (point, scalar) pairs. Point decoding is
// spread over the goroutine pool when the batch has at least
// parallelThreshold pairs; zero disables the fan out.
func G1MultiExp(input []byte, parallelThreshold int) ([]byte, error) {
	if len(input) == 0 || len(input)%G1MulPairSize != 0 {
		return nil, ErrInvalidInputLength
	}
	batch := newMSMBatch(input, G1MulPairSize, G1PointSize)
	points := make([]bls.G1Affine, len(batch.scalars))

	err := batch.decode(parallelThreshold, func(i, slot int) error {
		off := i * G1MulPairSize
		p, err := DecodeG1(input[off : off+G1PointSize])
		if err != nil {
			return err
		}
		if !p.IsInSubGroup() {
			return ErrG1PointSubgroup
		}
		if slot < 0 {
			return nil
		}
		points[slot] = *p
		batch.scalars[slot].SetBytes(input[off+G1PointSize : off+G1MulPairSize])
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return make([]byte, G1PointSize), nil
	}
	r := new(bls.G1Affine)
	if _, err := r.MultiExp(points, batch.scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return EncodeG1(r), nil
}

// G2MultiExp computes the sum of k scalar multiplications on G2. Input is a
// non-empty sequence of 288 byte (point, scalar) pairs.
func G2MultiExp(input []byte, parallelThreshold int) ([]byte, error) {
	if len(input) == 0 || len(input)%G2MulPairSize != 0 {
		return nil, ErrInvalidInputLength
	}
	batch := newMSMBatch(input, G2MulPairSize, G2PointSize)
	points := make([]bls.G2Affine, len(batch.scalars))

	err := batch.decode(parallelThreshold, func(i, slot int) error {
		off := i * G2MulPairSize
		p, err := DecodeG2(input[off : off+G2PointSize])
		if err != nil {
			return err
		}
		if !p.IsInSubGroup() {
			return ErrG2PointSubgroup
		}
		if slot < 0 {
			return nil
		}
		points[slot] = *p
		batch.scalars[slot].SetBytes(input[off+G2PointSize : off+G2MulPairSize])
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return make([]byte, G2PointSize), nil
	}
	r := new(bls.G2Affine)
	if _, err := r.MultiExp(points, batch.scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return EncodeG2(r), nil
}

// PairingCheck checks that the product of the pairings of k (G1, G2) pairs
// is the identity of GT. Output is a 32 byte big-endian boolean.
func PairingCheck(input []byte) ([]byte, error) {
	if len(input) == 0 || len(input)%PairingPairSize != 0 {
		return nil, ErrInvalidInputLength
	}
	k := len(input) / PairingPairSize
	var (
		p = make([]bls.G1Affine, 0, k)
		q = make([]bls.G2Affine, 0, k)
	)
	for i := 0; i < k; i++ {
		off := i * PairingPairSize
		g1, err := DecodeG1(input[off : off+G1PointSize])
		if err != nil {
			return nil, err
		}
		if !g1.IsInSubGroup() {
			return nil, ErrG1PointSubgroup
		}
		g2, err := DecodeG2(input[off+G1PointSize : off+PairingPairSize])
		if err != nil {
			return nil, err
		}
		if !g2.IsInSubGroup() {
			return nil, ErrG2PointSubgroup
		}
		// A pair with an identity element pairs to one.
		if g1.IsInfinity() || g2.IsInfinity() {
			continue
		}
		p = append(p, *g1)
		q = append(q, *g2)
	}
	out := make([]byte, 32)
	if len(p) == 0 {
		out[31] = 1
		return out, nil
	}
	ok, err := bls.PairingCheck(p, q)
	if err != nil {
		return nil, err
	}
	if ok {
		out[31] = 1
	}
	return out, nil
}

// MapFpToG1 maps a field element to a G1 point. Input is 64 bytes.
func MapFpToG1(input []byte) ([]byte, error) {
	if len(input) != FieldElementSize {
		return nil, ErrInvalidInputLength
	}
	fe, err := DecodeFieldElement(input)
	if err != nil {
		return nil, err
	}
	r := bls.MapToG1(fe)
	return EncodeG1(&r), nil
}

// MapFp2ToG2 maps an Fp2 element, encoded as c0 || c1, to a G2 point.
// Input is 128 bytes.
func MapFp2ToG2(input []byte) ([]byte, error) {
	if len(input) != 2*FieldElementSize {
		return nil, ErrInvalidInputLength
	}
	var u bls.G2Affine
	var err error
	if u.X.A0, err = DecodeFieldElement(input[:FieldElementSize]); err != nil {
		return nil, err
	}
	if u.X.A1, err = DecodeFieldElement(input[FieldElementSize:]); err != nil {
		return nil, err
	}
	r := bls.MapToG2(u.X)
	return EncodeG2(&r), nil
}
