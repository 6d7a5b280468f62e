/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bytefield

import "math"

// signedInt constrains the fixed-point helpers to the three integer widths
// VITA-49 records and CIF fields actually use.
type signedInt interface {
	~int16 | ~int32 | ~int64
}

// ToDouble converts a signed fixed-point value with radix point r (bits of
// fraction) to a float64: bits / 2^r.
func ToDouble[T signedInt](r int, bits T) float64 {
	return float64(bits) / math.Pow(2, float64(r))
}

// FromDouble converts x to a signed fixed-point value with radix point r,
// rounding half-to-even and clamping to the representable range of T.
func FromDouble[T signedInt](r int, x float64) T {
	scaled := x * math.Pow(2, float64(r))
	rounded := math.RoundToEven(scaled)

	var maxV, minV float64
	switch any(T(0)).(type) {
	case int16:
		maxV, minV = math.MaxInt16, math.MinInt16
	case int32:
		maxV, minV = math.MaxInt32, math.MinInt32
	default:
		// math.MaxInt64 (2^63-1) has no exact float64 representation and
		// rounds up to 2^63, which wraps to MinInt64 when converted back to
		// T below; step down to the nearest value float64 can hold exactly.
		maxV, minV = math.Nextafter(math.MaxInt64, 0), math.MinInt64
	}
	if rounded > maxV {
		rounded = maxV
	}
	if rounded < minV {
		rounded = minV
	}
	return T(rounded)
}

// ShiftToInt converts a signed fixed-point value with radix point r to the
// nearest integer, rounding toward zero (a two's-complement-aware
// arithmetic right shift that corrects the "double negative" bias negative
// values otherwise pick up from a plain arithmetic shift).
func ShiftToInt[T signedInt](r int, bits T) int64 {
	if r <= 0 {
		return int64(bits)
	}
	v := int64(bits)
	shifted := v >> uint(r)
	// arithmetic right shift truncates toward -infinity for negative values;
	// VITA-49 integer truncation is toward zero, so correct by one when any
	// fractional bits were discarded from a negative value.
	if v < 0 && (v&((int64(1)<<uint(r))-1)) != 0 {
		shifted++
	}
	return shifted
}

// ShiftFromInt converts an integer to a signed fixed-point value with radix
// point r, clamped to the representable range of T.
func ShiftFromInt[T signedInt](r int, v int64) T {
	return FromDouble[T](r, float64(v))
}
