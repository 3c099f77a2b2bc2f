// Package f16 decodes the 16-bit float layouts found in scalar-quantized
// index codes: IEEE-754 binary16 and bfloat16.
package f16

import (
	"encoding/binary"
	"math"
)

// Bits is a raw IEEE-754 binary16 bit-pattern.
//
// Layout:
//
//	sign: 1 bit
//	exp:  5 bits (bias 15)
//	frac: 10 bits
type Bits uint16

const (
	signMask Bits = 0x8000
	expMask  Bits = 0x7C00
	fracMask Bits = 0x03FF

	f32ExpMask uint32 = 0x7F800000
)

// ToFloat32 converts a binary16 bit-pattern to float32. The conversion is exact.
func ToFloat32(h Bits) float32 {
	sign := uint32(h&signMask) << 16
	exp := uint32(h&expMask) >> 10
	frac := uint32(h & fracMask)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: shift the fraction until the implicit bit appears.
		e := int32(-14)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x03FF
		return math.Float32frombits(sign | uint32(127+e)<<23 | frac<<13)
	case 0x1F:
		return math.Float32frombits(sign | f32ExpMask | frac<<13)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | frac<<13)
	}
}

// FromFloat32 converts a float32 into binary16, rounding to nearest even.
func FromFloat32(f float32) Bits {
	bits := math.Float32bits(f)
	sign := Bits(bits>>16) & signMask
	exp := int32(bits>>23) & 0xFF
	frac := bits & 0x007FFFFF

	if exp == 0xFF {
		if frac == 0 {
			return sign | expMask
		}
		return sign | expMask | 0x0200 | Bits(frac>>13)&fracMask
	}
	if exp == 0 {
		return sign
	}

	e16 := exp - 127 + 15
	if e16 >= 0x1F {
		return sign | expMask
	}

	if e16 <= 0 {
		if e16 < -10 {
			return sign
		}
		mant := frac | 0x00800000
		shift := uint32(14 - e16)
		m := mant >> shift
		rem := mant & (1<<shift - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && m&1 == 1) {
			m++
		}
		return sign | Bits(m)
	}

	m := frac >> 13
	rem := frac & 0x1FFF
	if rem > 0x1000 || (rem == 0x1000 && m&1 == 1) {
		m++
		if m == 0x0400 {
			m = 0
			e16++
			if e16 >= 0x1F {
				return sign | expMask
			}
		}
	}
	return sign | Bits(uint32(e16)<<10) | Bits(m)
}

// BFloat16ToFloat32 widens a bfloat16 bit-pattern, which is the upper half of
// a float32.
func BFloat16ToFloat32(b uint16) float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// DecodeLE decodes little-endian binary16 values from src into dst.
// len(src) must be at least 2*len(dst).
func DecodeLE(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = ToFloat32(Bits(binary.LittleEndian.Uint16(src[2*i:])))
	}
}

// DecodeBFloat16LE decodes little-endian bfloat16 values from src into dst.
// len(src) must be at least 2*len(dst).
func DecodeBFloat16LE(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = BFloat16ToFloat32(binary.LittleEndian.Uint16(src[2*i:]))
	}
}
