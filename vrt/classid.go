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

package vrt

import (
	"fmt"

	"github.com/RedhawkSDR/VITA49-sub001/bytefield"
)

// ClassID is a VRT class identifier: 8 reserved bits, a 24-bit OUI, a
// 16-bit information-class code and a 16-bit packet-class code.
type ClassID struct {
	OUI uint32 // low 24 bits significant
	ICC uint16
	PCC uint16
}

// standardDataOUI is the reserved OUI (FF-FF-FA) that marks a data
// packet's class ID as a standard-data payload-format descriptor rather
// than a vendor-defined class.
const standardDataOUI = 0xFFFFFA

// IsStandardData reports whether c's OUI matches the reserved standard-data
// mask (spec.md §4.3.1: OUI = FF-FF-FA).
func (c ClassID) IsStandardData() bool {
	return c.OUI == standardDataOUI
}

func unmarshalClassID(buf []byte) (ClassID, error) {
	if len(buf) < 8 {
		return ClassID{}, ErrBufferTooShort
	}
	word0 := bytefield.UnpackU32(buf, 0, bytefield.BigEndian)
	word1 := bytefield.UnpackU32(buf, 4, bytefield.BigEndian)
	return ClassID{
		OUI: word0 & 0x00FFFFFF,
		ICC: uint16(word1 >> 16),
		PCC: uint16(word1),
	}, nil
}

func classIDMarshalBinaryTo(c ClassID, buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrBufferTooShort
	}
	bytefield.PackU32(buf, 0, c.OUI&0x00FFFFFF, bytefield.BigEndian)
	bytefield.PackU32(buf, 4, uint32(c.ICC)<<16|uint32(c.PCC), bytefield.BigEndian)
	return 8, nil
}

// RealComplex distinguishes real from complex-cartesian sample layout in a
// standard-data class ID.
type RealComplex uint8

// Real/complex encodings (spec.md §4.3.1).
const (
	Real RealComplex = iota
	ComplexCartesian
	_ // reserved
	_ // reserved
)

// DataItemFormat is the 4-bit data-type code of a standard-data class ID.
type DataItemFormat uint8

// Data item formats.
const (
	SignedFixed4 DataItemFormat = iota
	SignedFixed8
	SignedFixed16
	SignedFixed32
	SignedFixed64
	_
	_
	_
	UnsignedFixed4
	UnsignedFixed8
	UnsignedFixed16
	UnsignedFixed32
	UnsignedFixed64
	IEEESingle
	IEEEDouble
	UnsignedBit1
)

// PayloadFormat fully describes a standard-data packet's sample layout,
// round-tripping bidirectionally against a synthesized ClassID.
type PayloadFormat struct {
	RealComplex RealComplex
	ItemFormat  DataItemFormat
	VectorSize  uint32 // number of items per vector (1-based; wire field is VectorSize-1)
}

var errUnsupportedPayloadFormat = fmt.Errorf("vrt: payload format cannot be represented in a standard-data class ID")

// PayloadFormatToClassID synthesizes the low 32 bits of a standard-data
// class ID from a PayloadFormat. The OUI/ICC are always the fixed
// standard-data values; PCC carries the encoded format.
func PayloadFormatToClassID(pf PayloadFormat) (ClassID, error) {
	if pf.VectorSize < 1 || pf.VectorSize > 1<<16 {
		return ClassID{}, errUnsupportedPayloadFormat
	}
	pcc := uint16(pf.VectorSize - 1)
	// top byte of ICC: 2 reserved bits, 2 real/complex bits, 4 data-type
	// bits; the low byte is reserved (event-tag/channel-tag/packing-field
	// validation happens on decode, it is not itself bit-addressable here).
	icc := uint16(pf.RealComplex&0x3)<<12 | uint16(pf.ItemFormat&0xF)<<8
	return ClassID{OUI: standardDataOUI, ICC: icc, PCC: pcc}, nil
}

// ClassIDToPayloadFormat is the inverse of PayloadFormatToClassID. Returns
// an error if c is not a standard-data class ID.
func ClassIDToPayloadFormat(c ClassID) (PayloadFormat, error) {
	if !c.IsStandardData() {
		return PayloadFormat{}, fmt.Errorf("vrt: class ID OUI %06X is not the standard-data OUI", c.OUI)
	}
	return PayloadFormat{
		RealComplex: RealComplex((c.ICC >> 12) & 0x3),
		ItemFormat:  DataItemFormat((c.ICC >> 8) & 0xF),
		VectorSize:  uint32(c.PCC) + 1,
	}, nil
}

// ItemBits returns the number of bits one sample item occupies on the
// wire for the given format.
func (f DataItemFormat) ItemBits() int {
	switch f {
	case SignedFixed4, UnsignedFixed4:
		return 4
	case SignedFixed8, UnsignedFixed8:
		return 8
	case SignedFixed16, UnsignedFixed16:
		return 16
	case SignedFixed32, UnsignedFixed32, IEEESingle:
		return 32
	case SignedFixed64, UnsignedFixed64, IEEEDouble:
		return 64
	case UnsignedBit1:
		return 1
	default:
		return 0
	}
}
