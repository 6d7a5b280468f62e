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
	"github.com/RedhawkSDR/VITA49-sub001/leapseconds"
	"github.com/RedhawkSDR/VITA49-sub001/vrttime"
)

// Packet is a byte-buffer view over one VRT packet. NewPacketOwned and
// NewPacketView both return the same type: Go has no type-level
// const-correctness, so the owned/borrowed distinction is a documentation
// contract rather than an enforced one. A Packet returned by NewPacketView
// should not be mutated or retained past the lifetime of the buffer it
// wraps; ValidateStrict and the accessors below do not copy.
type Packet struct {
	buf []byte
}

// NewPacketOwned wraps buf as a mutable, owned packet view. The caller
// transfers ownership of buf; the Packet may resize or rewrite it freely.
func NewPacketOwned(buf []byte) *Packet { return &Packet{buf: buf} }

// NewPacketView wraps buf as a read-mostly, borrowed packet view. The
// caller retains ownership and must keep buf alive and unmodified for the
// view's lifetime.
func NewPacketView(buf []byte) *Packet { return &Packet{buf: buf} }

// Bytes returns the full wire buffer for the packet, header through
// trailer.
func (p *Packet) Bytes() []byte { return p.buf }

// Header decodes the packet's fixed 32-bit header.
func (p *Packet) Header() (Header, error) { return unmarshalHeader(p.buf) }

// PacketType returns the header's packet-type field.
func (p *Packet) PacketType() (PacketType, error) {
	h, err := p.Header()
	if err != nil {
		return 0, err
	}
	return h.Type, nil
}

// PacketCount returns the header's 4-bit, modulo-16 packet count.
func (p *Packet) PacketCount() (uint8, error) {
	h, err := p.Header()
	if err != nil {
		return 0, err
	}
	return h.PacketCount, nil
}

// prologueLayout describes the byte offsets of each optional prologue
// field, computed once from the header flags.
type prologueLayout struct {
	streamIDOffset  int // -1 if absent
	classIDOffset   int // -1 if absent
	tsiOffset       int // -1 if absent
	tsfOffset       int // -1 if absent
	payloadOffset   int
	trailerOffset   int // -1 if absent
}

func (p *Packet) layout() (prologueLayout, Header, error) {
	h, err := p.Header()
	if err != nil {
		return prologueLayout{}, h, err
	}
	l := prologueLayout{streamIDOffset: -1, classIDOffset: -1, tsiOffset: -1, tsfOffset: -1, trailerOffset: -1}
	off := 4
	if h.Type.HasStreamID() {
		l.streamIDOffset = off
		off += 4
	}
	if h.ClassIDPresent {
		l.classIDOffset = off
		off += 8
	}
	if h.TSI != TSINone {
		l.tsiOffset = off
		off += 4
	}
	if h.TSF != TSFNone {
		l.tsfOffset = off
		off += 8
	}
	l.payloadOffset = off
	totalBytes := int(h.PacketWordCount) * 4
	if h.Type.IsData() && h.TrailerPresent {
		l.trailerOffset = totalBytes - 4
	}
	return l, h, nil
}

// StreamID returns the packet's stream identifier, if its packet type
// carries one.
func (p *Packet) StreamID() (uint32, bool, error) {
	l, _, err := p.layout()
	if err != nil {
		return 0, false, err
	}
	if l.streamIDOffset < 0 {
		return 0, false, nil
	}
	if len(p.buf) < l.streamIDOffset+4 {
		return 0, false, ErrBufferTooShort
	}
	return bytefield.UnpackU32(p.buf, l.streamIDOffset, bytefield.BigEndian), true, nil
}

// ClassID returns the packet's class identifier, if present.
func (p *Packet) ClassID() (ClassID, bool, error) {
	l, _, err := p.layout()
	if err != nil {
		return ClassID{}, false, err
	}
	if l.classIDOffset < 0 {
		return ClassID{}, false, nil
	}
	c, err := unmarshalClassID(p.buf[l.classIDOffset:])
	if err != nil {
		return ClassID{}, false, err
	}
	return c, true, nil
}

// Timestamp decodes the packet's integer+fractional timestamp prologue, if
// either mode is non-None, resolving epoch and fractional-second semantics
// against the supplied leap table.
func (p *Packet) Timestamp(leap *leapseconds.Table) (vrttime.Timestamp, bool, error) {
	l, h, err := p.layout()
	if err != nil {
		return vrttime.Timestamp{}, false, err
	}
	if h.TSI == TSINone && h.TSF == TSFNone {
		return vrttime.Timestamp{}, false, nil
	}
	var seconds uint32
	if l.tsiOffset >= 0 {
		if len(p.buf) < l.tsiOffset+4 {
			return vrttime.Timestamp{}, false, ErrBufferTooShort
		}
		seconds = bytefield.UnpackU32(p.buf, l.tsiOffset, bytefield.BigEndian)
	}
	var frac uint64
	if l.tsfOffset >= 0 {
		if len(p.buf) < l.tsfOffset+8 {
			return vrttime.Timestamp{}, false, ErrBufferTooShort
		}
		frac = bytefield.UnpackU64(p.buf, l.tsfOffset, bytefield.BigEndian)
	}
	epoch := vrttime.POSIX
	switch h.TSI {
	case TSIUTC:
		epoch = vrttime.UTC
	case TSIGPS:
		epoch = vrttime.GPS
	case TSIOther:
		epoch = vrttime.POSIX
	}
	picos := frac
	if h.TSF != TSFRealTime {
		// SampleCount/FreeRunning fractional parts are not seconds at all;
		// callers needing those must read the raw value via TimestampRaw.
		picos = 0
	}
	return vrttime.Timestamp{Epoch: epoch, Seconds: seconds, Picos: picos, Leap: leap}, true, nil
}

// TimestampRaw returns the undecoded integer and fractional timestamp
// words, for TSF modes (SampleCount, FreeRunning) that are not
// picosecond-real-time values.
func (p *Packet) TimestampRaw() (integer uint32, fractional uint64, err error) {
	l, _, err := p.layout()
	if err != nil {
		return 0, 0, err
	}
	if l.tsiOffset >= 0 {
		integer = bytefield.UnpackU32(p.buf, l.tsiOffset, bytefield.BigEndian)
	}
	if l.tsfOffset >= 0 {
		fractional = bytefield.UnpackU64(p.buf, l.tsfOffset, bytefield.BigEndian)
	}
	return integer, fractional, nil
}

// PayloadBytes returns the slice of the buffer holding the packet's
// payload, excluding prologue and trailer.
func (p *Packet) PayloadBytes() ([]byte, error) {
	l, h, err := p.layout()
	if err != nil {
		return nil, err
	}
	end := int(h.PacketWordCount) * 4
	if l.trailerOffset >= 0 {
		end = l.trailerOffset
	}
	if end < l.payloadOffset || end > len(p.buf) {
		return nil, ErrBufferTooShort
	}
	return p.buf[l.payloadOffset:end], nil
}

// SetPayloadLength resizes the packet's payload to newLen bytes, preserving
// the prologue and trailer content and updating the header's
// packet-length-in-words field. It returns an error, leaving the packet
// unchanged, when the resized packet is not a whole number of 32-bit words
// or would exceed the 16-bit word count.
func (p *Packet) SetPayloadLength(newLen int) error {
	l, h, err := p.layout()
	if err != nil {
		return err
	}
	var trailer []byte
	if l.trailerOffset >= 0 {
		trailer = append([]byte(nil), p.buf[l.trailerOffset:l.trailerOffset+4]...)
	}
	payload, err := p.PayloadBytes()
	if err != nil {
		return err
	}
	newPayload := make([]byte, newLen)
	copy(newPayload, payload)

	newBuf := make([]byte, l.payloadOffset+newLen+len(trailer))
	copy(newBuf, p.buf[:l.payloadOffset])
	copy(newBuf[l.payloadOffset:], newPayload)
	copy(newBuf[l.payloadOffset+newLen:], trailer)

	totalWords := len(newBuf) / 4
	if len(newBuf)%4 != 0 {
		return fmt.Errorf("vrt: resized packet length %d is not a whole number of words", len(newBuf))
	}
	if totalWords > 0xFFFF {
		return fmt.Errorf("vrt: resized packet exceeds the 16-bit packet-length-in-words field")
	}
	h.PacketWordCount = uint16(totalWords)
	if _, err := headerMarshalBinaryTo(h, newBuf); err != nil {
		return err
	}
	p.buf = newBuf
	return nil
}

// ValidateStrict checks the header-declared length against the buffer
// length, the header flags against the packet type, and, for
// standard-data packets, the class ID against the standard-data mask.
func (p *Packet) ValidateStrict(expectedLen int) error {
	h, err := p.Header()
	if err != nil {
		return err
	}
	declaredLen := int(h.PacketWordCount) * 4
	if expectedLen >= 0 && declaredLen != expectedLen {
		return fmt.Errorf("vrt: header declares %d bytes, expected %d", declaredLen, expectedLen)
	}
	if declaredLen > len(p.buf) {
		return fmt.Errorf("%w: header declares %d bytes, buffer has %d", ErrBufferTooShort, declaredLen, len(p.buf))
	}
	if h.TrailerPresent && !h.Type.IsData() {
		return fmt.Errorf("vrt: trailer-present bit set on non-data packet type %s", h.Type)
	}
	classID, present, err := p.ClassID()
	if err != nil {
		return err
	}
	if present && h.Type.IsData() && classID.IsStandardData() {
		if _, err := ClassIDToPayloadFormat(classID); err != nil {
			return fmt.Errorf("vrt: standard-data class ID failed validation: %w", err)
		}
	}
	return nil
}

// insertBytes splices n zeroed bytes into the buffer at offset at and
// updates the header's packet-length-in-words field. n must be a multiple
// of 4; at must fall on a word boundary.
func (p *Packet) insertBytes(at, n int) error {
	if n == 0 {
		return nil
	}
	if n%4 != 0 || at%4 != 0 {
		return fmt.Errorf("vrt: insertBytes requires word-aligned offset and length")
	}
	if at < 4 || at > len(p.buf) {
		return fmt.Errorf("vrt: insertBytes offset %d out of range", at)
	}
	newBuf := make([]byte, len(p.buf)+n)
	copy(newBuf, p.buf[:at])
	copy(newBuf[at+n:], p.buf[at:])
	return p.replaceAndResize(newBuf)
}

// removeBytes deletes n bytes from the buffer at offset at and updates the
// header's packet-length-in-words field. n must be a multiple of 4; at
// must fall on a word boundary.
func (p *Packet) removeBytes(at, n int) error {
	if n == 0 {
		return nil
	}
	if n%4 != 0 || at%4 != 0 {
		return fmt.Errorf("vrt: removeBytes requires word-aligned offset and length")
	}
	if at < 4 || at+n > len(p.buf) {
		return fmt.Errorf("vrt: removeBytes range [%d,%d) out of range", at, at+n)
	}
	newBuf := make([]byte, len(p.buf)-n)
	copy(newBuf, p.buf[:at])
	copy(newBuf[at:], p.buf[at+n:])
	return p.replaceAndResize(newBuf)
}

func (p *Packet) replaceAndResize(newBuf []byte) error {
	h, err := p.Header()
	if err != nil {
		return err
	}
	if len(newBuf)%4 != 0 {
		return fmt.Errorf("vrt: resized packet length %d is not a whole number of words", len(newBuf))
	}
	words := len(newBuf) / 4
	if words > 0xFFFF {
		return fmt.Errorf("vrt: resized packet exceeds the 16-bit packet-length-in-words field")
	}
	h.PacketWordCount = uint16(words)
	if _, err := headerMarshalBinaryTo(h, newBuf); err != nil {
		return err
	}
	p.buf = newBuf
	return nil
}
