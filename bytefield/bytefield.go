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

// Package bytefield implements endian-aware pack/unpack of the scalar and
// domain-specific wire encodings VITA-49 packets are built from: plain
// integers, 24-bit integers, bool-or-null octets, NUL-padded ASCII, the
// modified UTF-8 used in metadata blocks, arbitrary bit-aligned fields,
// fixed-point numbers, VRT floating point, and IEEE 754-2008 half precision.
package bytefield

import (
	"encoding/binary"

	"github.com/RedhawkSDR/VITA49-sub001/hostendian"
)

// Order identifies the byte order a pack/unpack call should use. Native
// resolves to the host's own byte order at call time, taking the direct
// load/store path instead of a byte swap.
type Order uint8

// Supported byte orders.
const (
	BigEndian Order = iota
	LittleEndian
	Native
)

func (o Order) resolve() binary.ByteOrder {
	switch o {
	case LittleEndian:
		return binary.LittleEndian
	case Native:
		return hostendian.Order
	default:
		return binary.BigEndian
	}
}

// PackU8 stores v at buf[off].
func PackU8(buf []byte, off int, v uint8) { buf[off] = v }

// UnpackU8 reads buf[off].
func UnpackU8(buf []byte, off int) uint8 { return buf[off] }

// PackU16 stores v at buf[off:] using the given byte order.
func PackU16(buf []byte, off int, v uint16, o Order) {
	o.resolve().PutUint16(buf[off:], v)
}

// UnpackU16 reads a uint16 from buf[off:] using the given byte order.
func UnpackU16(buf []byte, off int, o Order) uint16 {
	return o.resolve().Uint16(buf[off:])
}

// PackI16 stores v at buf[off:] using the given byte order.
func PackI16(buf []byte, off int, v int16, o Order) {
	PackU16(buf, off, uint16(v), o)
}

// UnpackI16 reads an int16 from buf[off:] using the given byte order.
func UnpackI16(buf []byte, off int, o Order) int16 {
	return int16(UnpackU16(buf, off, o))
}

// PackU32 stores v at buf[off:] using the given byte order.
func PackU32(buf []byte, off int, v uint32, o Order) {
	o.resolve().PutUint32(buf[off:], v)
}

// UnpackU32 reads a uint32 from buf[off:] using the given byte order.
func UnpackU32(buf []byte, off int, o Order) uint32 {
	return o.resolve().Uint32(buf[off:])
}

// PackI32 stores v at buf[off:] using the given byte order.
func PackI32(buf []byte, off int, v int32, o Order) {
	PackU32(buf, off, uint32(v), o)
}

// UnpackI32 reads an int32 from buf[off:] using the given byte order.
func UnpackI32(buf []byte, off int, o Order) int32 {
	return int32(UnpackU32(buf, off, o))
}

// PackU64 stores v at buf[off:] using the given byte order.
func PackU64(buf []byte, off int, v uint64, o Order) {
	o.resolve().PutUint64(buf[off:], v)
}

// UnpackU64 reads a uint64 from buf[off:] using the given byte order.
func UnpackU64(buf []byte, off int, o Order) uint64 {
	return o.resolve().Uint64(buf[off:])
}

// PackI64 stores v at buf[off:] using the given byte order.
func PackI64(buf []byte, off int, v int64, o Order) {
	PackU64(buf, off, uint64(v), o)
}

// UnpackI64 reads an int64 from buf[off:] using the given byte order.
func UnpackI64(buf []byte, off int, o Order) int64 {
	return int64(UnpackU64(buf, off, o))
}

// PackU24 stores the low 24 bits of v at buf[off:off+3] in the given byte order.
func PackU24(buf []byte, off int, v uint32, o Order) {
	if o.resolve() == binary.LittleEndian {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		return
	}
	buf[off] = byte(v >> 16)
	buf[off+1] = byte(v >> 8)
	buf[off+2] = byte(v)
}

// UnpackU24 reads a 24-bit integer from buf[off:off+3], sign-extended to 32 bits.
func UnpackU24(buf []byte, off int, o Order) int32 {
	var v uint32
	if o.resolve() == binary.LittleEndian {
		v = uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16
	} else {
		v = uint32(buf[off])<<16 | uint32(buf[off+1])<<8 | uint32(buf[off+2])
	}
	if v&0x800000 != 0 {
		v |= 0xFF000000
	}
	return int32(v)
}

// BoolNull is a tri-state value: False, Null (absent/unknown), or True, as
// encoded by the PackBoolNull/UnpackBoolNull octet convention.
type BoolNull int8

// Tri-state values.
const (
	False BoolNull = -1
	Null  BoolNull = 0
	True  BoolNull = 1
)

// PackBoolNull encodes b as a single signed octet: False -> -1, Null -> 0, True -> +1.
func PackBoolNull(buf []byte, off int, b BoolNull) {
	switch {
	case b < 0:
		buf[off] = 0xFF
	case b > 0:
		buf[off] = 0x01
	default:
		buf[off] = 0x00
	}
}

// UnpackBoolNull decodes a single octet into a BoolNull. In strict mode, any
// value other than -1/0/1 returns an error; otherwise negative maps to
// False, zero to Null, and positive to True.
func UnpackBoolNull(buf []byte, off int, strict bool) (BoolNull, error) {
	v := int8(buf[off])
	if strict {
		switch v {
		case -1:
			return False, nil
		case 0:
			return Null, nil
		case 1:
			return True, nil
		default:
			return Null, errInvalidBoolNull
		}
	}
	switch {
	case v < 0:
		return False, nil
	case v > 0:
		return True, nil
	default:
		return Null, nil
	}
}
