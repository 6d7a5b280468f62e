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

// Package vrt implements the VITA Radio Transport packet model: the fixed
// 32-bit header, the optional prologue (stream ID, class ID, timestamp),
// the CIF engine that computes field offsets within context/command
// payloads, the standard record types those fields point at, and the
// packet factory that picks a concrete packet kind for a raw buffer.
package vrt

import (
	"errors"
	"fmt"

	"github.com/RedhawkSDR/VITA49-sub001/bytefield"
)

// PacketType is the 4-bit packet-type field of the VRT header.
type PacketType uint8

// Packet types, per the VITA-49 header's bits 31..28.
const (
	DataNoStreamID PacketType = iota
	DataStreamID
	ExtDataNoStreamID
	ExtDataStreamID
	Context
	ExtContext
	Command
	ExtCommand
)

func (pt PacketType) String() string {
	switch pt {
	case DataNoStreamID:
		return "Data(no-stream-id)"
	case DataStreamID:
		return "Data(stream-id)"
	case ExtDataNoStreamID:
		return "ExtensionData(no-stream-id)"
	case ExtDataStreamID:
		return "ExtensionData(stream-id)"
	case Context:
		return "Context"
	case ExtContext:
		return "ExtensionContext"
	case Command:
		return "Command"
	case ExtCommand:
		return "ExtensionCommand"
	default:
		return fmt.Sprintf("PacketType(%d)", uint8(pt))
	}
}

// HasStreamID reports whether this packet type's prologue carries a stream
// identifier word.
func (pt PacketType) HasStreamID() bool {
	switch pt {
	case DataNoStreamID, ExtDataNoStreamID:
		return false
	default:
		return true
	}
}

// IsData reports whether pt is one of the four data packet types.
func (pt PacketType) IsData() bool {
	return pt <= ExtDataStreamID
}

// IsCIFBearing reports whether pt carries a CIF0-led payload: only the two
// non-extension types, context and command, do; their extension variants
// do not.
func (pt PacketType) IsCIFBearing() bool {
	return pt == Context || pt == Command
}

// TSIMode is the 2-bit integer-timestamp mode.
type TSIMode uint8

// Integer timestamp modes.
const (
	TSINone TSIMode = iota
	TSIUTC
	TSIGPS
	TSIOther
)

// TSFMode is the 2-bit fractional-timestamp mode.
type TSFMode uint8

// Fractional timestamp modes.
const (
	TSFNone TSFMode = iota
	TSFSampleCount
	TSFRealTime
	TSFFreeRunning
)

// Header is the mandatory first 32-bit word of every VRT packet.
type Header struct {
	Type            PacketType
	ClassIDPresent  bool
	TrailerPresent  bool // bit 26: data packets only; reserved on other types
	TSMOrCancel     bool // TSM for data/context; cancel-flag for command
	ackOrNotV49     bool // bit 25: "not a V49.0 packet" (data) / acknowledgment-flag (command)
	TSI             TSIMode
	TSF             TSFMode
	PacketCount     uint8 // 4 bits, modulo 16
	PacketWordCount uint16
}

// ErrBufferTooShort is returned when a buffer is shorter than the length a
// header/prologue/field requires.
var ErrBufferTooShort = errors.New("vrt: buffer too short")

// ErrNoClassID is returned when an operation that requires a class ID is
// attempted on a packet whose header has ClassIDPresent unset.
var ErrNoClassID = errors.New("vrt: packet has no class ID")

// unmarshalHeader decodes the first 4 bytes of buf into a Header. Kept as a
// free function (rather than a method living behind an
// encoding.BinaryUnmarshaler on Header) so concrete packet types compose it
// without each inheriting an incomplete BinaryUnmarshaler through struct
// embedding.
func unmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < 4 {
		return Header{}, ErrBufferTooShort
	}
	word := bytefield.UnpackU32(buf, 0, bytefield.BigEndian)
	h := Header{
		Type:            PacketType((word >> 28) & 0xF),
		ClassIDPresent:  word&(1<<27) != 0,
		TrailerPresent:  word&(1<<26) != 0,
		TSMOrCancel:     word&(1<<24) != 0,
		TSI:             TSIMode((word >> 22) & 0x3),
		TSF:             TSFMode((word >> 20) & 0x3),
		PacketCount:     uint8((word >> 16) & 0xF),
		PacketWordCount: uint16(word & 0xFFFF),
	}
	// bit 25 doubles as "not a V49.0 packet" for data packets and
	// "acknowledgment flag" for command packets; both decode identically as
	// a single bool at this layer, callers interpret per packet type.
	h.ackOrNotV49 = word&(1<<25) != 0
	return h, nil
}

// headerMarshalBinaryTo encodes h into buf[0:4], returning the number of
// bytes written. buf must be at least 4 bytes.
func headerMarshalBinaryTo(h Header, buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, ErrBufferTooShort
	}
	word := uint32(h.Type&0xF) << 28
	if h.ClassIDPresent {
		word |= 1 << 27
	}
	if h.TrailerPresent {
		word |= 1 << 26
	}
	if h.ackOrNotV49 {
		word |= 1 << 25
	}
	if h.TSMOrCancel {
		word |= 1 << 24
	}
	word |= uint32(h.TSI&0x3) << 22
	word |= uint32(h.TSF&0x3) << 20
	word |= uint32(h.PacketCount&0xF) << 16
	word |= uint32(h.PacketWordCount)
	bytefield.PackU32(buf, 0, word, bytefield.BigEndian)
	return 4, nil
}
