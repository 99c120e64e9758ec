// Package bls12381 implements the BLS12-381 group operations behind the
// EIP-2537 precompiles on top of gnark-crypto. Inputs and outputs use the
// EIP-2537 byte encodings.
package bls12381

import (
	"errors"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
)

// Encoding sizes. A field element is padded to 64 bytes, Fp2 elements are
// encoded as c0 || c1.
const (
	FieldElementSize = 64
	G1PointSize      = 2 * FieldElementSize
	G2PointSize      = 4 * FieldElementSize
	ScalarSize       = 32
	G1MulPairSize    = G1PointSize + ScalarSize
	G2MulPairSize    = G2PointSize + ScalarSize
	PairingPairSize  = G1PointSize + G2PointSize

	fieldPaddingSize = FieldElementSize - fp.Bytes
)

var (
	ErrInvalidInputLength          = errors.New("invalid input length")
	ErrInvalidFieldElementTopBytes = errors.New("invalid field element top bytes")
	ErrNonCanonicalFieldElement    = errors.New("field element is not canonical")
	ErrPointNotOnCurve             = errors.New("point is not on curve")
	ErrG1PointSubgroup             = errors.New("g1 point is not on correct subgroup")
	ErrG2PointSubgroup             = errors.New("g2 point is not on correct subgroup")
)

// DecodeFieldElement decodes a 64 byte padded field element. The 16 byte
// prefix must be zero and the value must be smaller than the modulus.
func DecodeFieldElement(in []byte) (fp.Element, error) {
	var fe fp.Element
	if len(in) != FieldElementSize {
		return fe, ErrInvalidInputLength
	}
	if !isZero(in[:fieldPaddingSize]) {
		return fe, ErrInvalidFieldElementTopBytes
	}
	if err := fe.SetBytesCanonical(in[fieldPaddingSize:]); err != nil {
		return fe, ErrNonCanonicalFieldElement
	}
	return fe, nil
}

func encodeFieldElement(out []byte, fe *fp.Element) {
	b := fe.Bytes()
	copy(out[fieldPaddingSize:FieldElementSize], b[:])
}

// DecodeG1 decodes a G1 point. The all-zero encoding is the point at
// infinity. Subgroup membership is not checked here, callers that multiply
// must check it themselves.
func DecodeG1(in []byte) (*bls.G1Affine, error) {
	if len(in) != G1PointSize {
		return nil, ErrInvalidInputLength
	}
	p := new(bls.G1Affine)
	if isZero(in) {
		return p, nil
	}
	var err error
	if p.X, err = DecodeFieldElement(in[:FieldElementSize]); err != nil {
		return nil, err
	}
	if p.Y, err = DecodeFieldElement(in[FieldElementSize:]); err != nil {
		return nil, err
	}
	if !p.IsOnCurve() {
		return nil, ErrPointNotOnCurve
	}
	return p, nil
}

// EncodeG1 encodes a G1 point, the point at infinity as all zeroes.
func EncodeG1(p *bls.G1Affine) []byte {
	out := make([]byte, G1PointSize)
	if p.IsInfinity() {
		return out
	}
	encodeFieldElement(out[:FieldElementSize], &p.X)
	encodeFieldElement(out[FieldElementSize:], &p.Y)
	return out
}

// DecodeG2 decodes a G2 point. Each Fp2 coordinate is encoded as c0 || c1.
func DecodeG2(in []byte) (*bls.G2Affine, error) {
	if len(in) != G2PointSize {
		return nil, ErrInvalidInputLength
	}
	p := new(bls.G2Affine)
	if isZero(in) {
		return p, nil
	}
	coords := []*fp.Element{&p.X.A0, &p.X.A1, &p.Y.A0, &p.Y.A1}
	for i, c := range coords {
		fe, err := DecodeFieldElement(in[i*FieldElementSize : (i+1)*FieldElementSize])
		if err != nil {
			return nil, err
		}
		*c = fe
	}
	if !p.IsOnCurve() {
		return nil, ErrPointNotOnCurve
	}
	return p, nil
}

// EncodeG2 encodes a G2 point, the point at infinity as all zeroes.
func EncodeG2(p *bls.G2Affine) []byte {
	out := make([]byte, G2PointSize)
	if p.IsInfinity() {
		return out
	}
	coords := []*fp.Element{&p.X.A0, &p.X.A1, &p.Y.A0, &p.Y.A1}
	for i, c := range coords {
		encodeFieldElement(out[i*FieldElementSize:(i+1)*FieldElementSize], c)
	}
	return out
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
