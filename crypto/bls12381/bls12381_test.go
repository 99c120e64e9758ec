package bls12381

import (
	"math/big"
	"testing"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/stretchr/testify/require"
)

func generators() (bls.G1Affine, bls.G2Affine) {
	_, _, g1, g2 := bls.Generators()
	return g1, g2
}

func g1Mul(p bls.G1Affine, k int64) *bls.G1Affine {
	return new(bls.G1Affine).ScalarMultiplication(&p, big.NewInt(k))
}

func g2Mul(p bls.G2Affine, k int64) *bls.G2Affine {
	return new(bls.G2Affine).ScalarMultiplication(&p, big.NewInt(k))
}

func scalar(k int64) []byte {
	return big.NewInt(k).FillBytes(make([]byte, ScalarSize))
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// nonSubgroupG1 returns an encoded point on the curve outside the prime
// order subgroup.
func nonSubgroupG1(t *testing.T) []byte {
	var four fp.Element
	four.SetUint64(4)
	for i := uint64(1); i < 1000; i++ {
		var x, rhs, y fp.Element
		x.SetUint64(i)
		rhs.Square(&x).Mul(&rhs, &x).Add(&rhs, &four)
		if y.Sqrt(&rhs) == nil {
			continue
		}
		p := bls.G1Affine{X: x, Y: y}
		if p.IsOnCurve() && !p.IsInSubGroup() {
			return EncodeG1(&p)
		}
	}
	t.Fatal("no point outside the subgroup found")
	return nil
}

func TestG1RoundTrip(t *testing.T) {
	g1, _ := generators()
	for _, k := range []int64{1, 2, 7, 1 << 40} {
		p := g1Mul(g1, k)
		dec, err := DecodeG1(EncodeG1(p))
		require.NoError(t, err)
		require.True(t, dec.Equal(p))
	}
	inf, err := DecodeG1(make([]byte, G1PointSize))
	require.NoError(t, err)
	require.True(t, inf.IsInfinity())
	require.Equal(t, make([]byte, G1PointSize), EncodeG1(inf))
}

func TestG2RoundTrip(t *testing.T) {
	_, g2 := generators()
	for _, k := range []int64{1, 3, 1 << 33} {
		p := g2Mul(g2, k)
		dec, err := DecodeG2(EncodeG2(p))
		require.NoError(t, err)
		require.True(t, dec.Equal(p))
	}
	inf, err := DecodeG2(make([]byte, G2PointSize))
	require.NoError(t, err)
	require.True(t, inf.IsInfinity())
}

func TestDecodeMalformed(t *testing.T) {
	g1, g2 := generators()
	enc1 := EncodeG1(&g1)

	_, err := DecodeG1(enc1[:G1PointSize-1])
	require.ErrorIs(t, err, ErrInvalidInputLength)

	bad := append([]byte{}, enc1...)
	bad[0] = 1
	_, err = DecodeG1(bad)
	require.ErrorIs(t, err, ErrInvalidFieldElementTopBytes)

	bad = append([]byte{}, enc1...)
	bad[G1PointSize-1] ^= 1
	_, err = DecodeG1(bad)
	require.ErrorIs(t, err, ErrPointNotOnCurve)

	modulus := make([]byte, FieldElementSize)
	fp.Modulus().FillBytes(modulus[fieldPaddingSize:])
	_, err = DecodeFieldElement(modulus)
	require.ErrorIs(t, err, ErrNonCanonicalFieldElement)

	enc2 := EncodeG2(&g2)
	bad = append([]byte{}, enc2...)
	bad[2*FieldElementSize+5] = 1
	_, err = DecodeG2(bad)
	require.ErrorIs(t, err, ErrInvalidFieldElementTopBytes)

	bad = append([]byte{}, enc2...)
	bad[G2PointSize-1] ^= 1
	_, err = DecodeG2(bad)
	require.ErrorIs(t, err, ErrPointNotOnCurve)
}

func TestG1AddIdentity(t *testing.T) {
	g1, _ := generators()
	p := EncodeG1(g1Mul(g1, 5))
	zero := make([]byte, G1PointSize)

	out, err := G1Add(concat(zero, p))
	require.NoError(t, err)
	require.Equal(t, p, out)

	out, err = G1Add(concat(p, zero))
	require.NoError(t, err)
	require.Equal(t, p, out)

	out, err = G1Add(concat(zero, zero))
	require.NoError(t, err)
	require.Equal(t, zero, out)
}

func TestG1Add(t *testing.T) {
	g1, _ := generators()
	out, err := G1Add(concat(EncodeG1(g1Mul(g1, 2)), EncodeG1(g1Mul(g1, 3))))
	require.NoError(t, err)
	require.Equal(t, EncodeG1(g1Mul(g1, 5)), out)

	// Doubling goes through the same entry point.
	out, err = G1Add(concat(EncodeG1(&g1), EncodeG1(&g1)))
	require.NoError(t, err)
	require.Equal(t, EncodeG1(g1Mul(g1, 2)), out)

	_, err = G1Add(EncodeG1(&g1))
	require.ErrorIs(t, err, ErrInvalidInputLength)
}

func TestG2Add(t *testing.T) {
	_, g2 := generators()
	zero := make([]byte, G2PointSize)
	p := EncodeG2(g2Mul(g2, 4))

	out, err := G2Add(concat(p, EncodeG2(&g2)))
	require.NoError(t, err)
	require.Equal(t, EncodeG2(g2Mul(g2, 5)), out)

	out, err = G2Add(concat(zero, p))
	require.NoError(t, err)
	require.Equal(t, p, out)

	out, err = G2Add(concat(p, zero))
	require.NoError(t, err)
	require.Equal(t, p, out)
}

func TestG1Mul(t *testing.T) {
	g1, _ := generators()
	out, err := G1Mul(concat(EncodeG1(&g1), scalar(9)))
	require.NoError(t, err)
	require.Equal(t, EncodeG1(g1Mul(g1, 9)), out)

	out, err = G1Mul(concat(EncodeG1(&g1), scalar(0)))
	require.NoError(t, err)
	require.Equal(t, make([]byte, G1PointSize), out)

	out, err = G1Mul(concat(make([]byte, G1PointSize), scalar(9)))
	require.NoError(t, err)
	require.Equal(t, make([]byte, G1PointSize), out)

	_, err = G1Mul(concat(nonSubgroupG1(t), scalar(9)))
	require.ErrorIs(t, err, ErrG1PointSubgroup)

	// The subgroup check also applies to a zero scalar.
	_, err = G1Mul(concat(nonSubgroupG1(t), scalar(0)))
	require.ErrorIs(t, err, ErrG1PointSubgroup)
}

func TestG2Mul(t *testing.T) {
	_, g2 := generators()
	out, err := G2Mul(concat(EncodeG2(&g2), scalar(6)))
	require.NoError(t, err)
	require.Equal(t, EncodeG2(g2Mul(g2, 6)), out)

	out, err = G2Mul(concat(EncodeG2(&g2), scalar(0)))
	require.NoError(t, err)
	require.Equal(t, make([]byte, G2PointSize), out)

	_, err = G2Mul(EncodeG2(&g2))
	require.ErrorIs(t, err, ErrInvalidInputLength)
}

func TestG1MultiExp(t *testing.T) {
	g1, _ := generators()
	var (
		input []byte
		sum   = new(bls.G1Affine)
	)
	for i := int64(1); i <= 20; i++ {
		point := g1Mul(g1, i)
		if i%5 == 0 {
			// identity points are skipped
			input = append(input, concat(make([]byte, G1PointSize), scalar(i))...)
			continue
		}
		input = append(input, concat(EncodeG1(point), scalar(i+100))...)
		sum.Add(sum, g1Mul(*point, i+100))
	}
	want := EncodeG1(sum)
	for _, threshold := range []int{0, 1, 8, 100} {
		out, err := G1MultiExp(input, threshold)
		require.NoError(t, err)
		require.Equal(t, want, out, "threshold %d", threshold)
	}
}

func TestG1MultiExpSingleMatchesMul(t *testing.T) {
	g1, _ := generators()
	pair := concat(EncodeG1(g1Mul(g1, 3)), scalar(77))
	mul, err := G1Mul(pair)
	require.NoError(t, err)
	msm, err := G1MultiExp(pair, 1)
	require.NoError(t, err)
	require.Equal(t, mul, msm)
}

func TestG1MultiExpFailures(t *testing.T) {
	g1, _ := generators()
	good := concat(EncodeG1(&g1), scalar(1))

	_, err := G1MultiExp(nil, 1)
	require.ErrorIs(t, err, ErrInvalidInputLength)
	_, err = G1MultiExp(good[:G1MulPairSize-1], 1)
	require.ErrorIs(t, err, ErrInvalidInputLength)

	// A single bad point anywhere fails the whole batch, in parallel or not.
	var input []byte
	for i := 0; i < 16; i++ {
		input = append(input, good...)
	}
	bad := concat(nonSubgroupG1(t), scalar(0))
	input = append(input, bad...)
	for _, threshold := range []int{0, 1} {
		_, err = G1MultiExp(input, threshold)
		require.ErrorIs(t, err, ErrG1PointSubgroup)
	}

	offCurve := EncodeG1(&g1)
	offCurve[G1PointSize-1] ^= 1
	input = append(concat(offCurve, scalar(1)), input[:8*G1MulPairSize]...)
	_, err = G1MultiExp(input, 1)
	require.ErrorIs(t, err, ErrPointNotOnCurve)

	out, err := G1MultiExp(concat(make([]byte, G1PointSize), scalar(3)), 1)
	require.NoError(t, err)
	require.Equal(t, make([]byte, G1PointSize), out)
}

func TestG1MultiExpZeroScalars(t *testing.T) {
	g1, _ := generators()
	var input []byte
	for i := int64(1); i <= 4; i++ {
		input = append(input, concat(EncodeG1(g1Mul(g1, i)), scalar(0))...)
	}
	for _, threshold := range []int{0, 1} {
		out, err := G1MultiExp(input, threshold)
		require.NoError(t, err)
		require.Equal(t, make([]byte, G1PointSize), out)
	}

	// Zero scalars drop out of a mixed batch.
	mixed := append(concat(EncodeG1(g1Mul(g1, 2)), scalar(9)), input...)
	out, err := G1MultiExp(mixed, 1)
	require.NoError(t, err)
	require.Equal(t, EncodeG1(g1Mul(g1, 18)), out)

	// The point of a zero scalar pair is still validated.
	offCurve := EncodeG1(&g1)
	offCurve[G1PointSize-1] ^= 1
	_, err = G1MultiExp(concat(offCurve, scalar(0)), 0)
	require.ErrorIs(t, err, ErrPointNotOnCurve)
	_, err = G1MultiExp(concat(nonSubgroupG1(t), scalar(0)), 0)
	require.ErrorIs(t, err, ErrG1PointSubgroup)
}

func TestG2MultiExpZeroScalars(t *testing.T) {
	_, g2 := generators()
	input := concat(
		EncodeG2(g2Mul(g2, 3)), scalar(0),
		EncodeG2(g2Mul(g2, 5)), scalar(0),
	)
	for _, threshold := range []int{0, 1} {
		out, err := G2MultiExp(input, threshold)
		require.NoError(t, err)
		require.Equal(t, make([]byte, G2PointSize), out)
	}

	offCurve := EncodeG2(&g2)
	offCurve[G2PointSize-1] ^= 1
	_, err := G2MultiExp(append(input, concat(offCurve, scalar(0))...), 1)
	require.ErrorIs(t, err, ErrPointNotOnCurve)
}

func TestG2MultiExp(t *testing.T) {
	_, g2 := generators()
	var (
		input []byte
		sum   = new(bls.G2Affine)
	)
	for i := int64(1); i <= 10; i++ {
		point := g2Mul(g2, i)
		input = append(input, concat(EncodeG2(point), scalar(i*3))...)
		sum.Add(sum, g2Mul(*point, i*3))
	}
	input = append(input, concat(make([]byte, G2PointSize), scalar(5))...)
	for _, threshold := range []int{0, 2} {
		out, err := G2MultiExp(input, threshold)
		require.NoError(t, err)
		require.Equal(t, EncodeG2(sum), out)
	}
	_, err := G2MultiExp(input[:G2MulPairSize+1], 0)
	require.ErrorIs(t, err, ErrInvalidInputLength)
}

func TestPairingCheck(t *testing.T) {
	g1, g2 := generators()
	var negG1 bls.G1Affine
	negG1.Neg(&g1)

	one := make([]byte, 32)
	one[31] = 1
	zero := make([]byte, 32)

	out, err := PairingCheck(concat(EncodeG1(&g1), EncodeG2(&g2), EncodeG1(&negG1), EncodeG2(&g2)))
	require.NoError(t, err)
	require.Equal(t, one, out)

	out, err = PairingCheck(concat(EncodeG1(&g1), EncodeG2(&g2)))
	require.NoError(t, err)
	require.Equal(t, zero, out)

	// e(2a, b) == e(a, 2b)
	out, err = PairingCheck(concat(EncodeG1(g1Mul(g1, 2)), EncodeG2(&g2), EncodeG1(&negG1), EncodeG2(g2Mul(g2, 2))))
	require.NoError(t, err)
	require.Equal(t, one, out)

	out, err = PairingCheck(concat(make([]byte, G1PointSize), EncodeG2(&g2)))
	require.NoError(t, err)
	require.Equal(t, one, out)

	_, err = PairingCheck(concat(nonSubgroupG1(t), EncodeG2(&g2)))
	require.ErrorIs(t, err, ErrG1PointSubgroup)

	_, err = PairingCheck(nil)
	require.ErrorIs(t, err, ErrInvalidInputLength)
}

func TestMapToCurve(t *testing.T) {
	var fe fp.Element
	fe.SetUint64(42)
	in := make([]byte, FieldElementSize)
	encodeFieldElement(in, &fe)

	out, err := MapFpToG1(in)
	require.NoError(t, err)
	p, err := DecodeG1(out)
	require.NoError(t, err)
	require.True(t, p.IsInSubGroup())
	want := bls.MapToG1(fe)
	require.Equal(t, EncodeG1(&want), out)

	in2 := concat(in, in)
	out, err = MapFp2ToG2(in2)
	require.NoError(t, err)
	q, err := DecodeG2(out)
	require.NoError(t, err)
	require.True(t, q.IsInSubGroup())

	_, err = MapFpToG1(in[1:])
	require.ErrorIs(t, err, ErrInvalidInputLength)
	in[0] = 1
	_, err = MapFpToG1(in)
	require.ErrorIs(t, err, ErrInvalidFieldElementTopBytes)
}
