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

import "fmt"

// VRTPacket is the common interface every concrete packet kind
// (DataPacket, StandardDataPacket, ContextPacket, CommandPacket,
// ExtensionPacket) satisfies by embedding Packet. Named distinctly from
// the concrete Packet type (which is the shared buffer-view struct all of
// them embed) to avoid shadowing it.
type VRTPacket interface {
	Bytes() []byte
	Header() (Header, error)
	PacketType() (PacketType, error)
	StreamID() (uint32, bool, error)
	ClassID() (ClassID, bool, error)
}

// BinaryMarshalerTo is implemented by any packet kind that can marshal
// itself into a caller-provided buffer, mirroring
// ptp/protocol.BinaryMarshalerTo.
type BinaryMarshalerTo interface {
	MarshalBinaryTo([]byte) (int, error)
}

// BytesTo marshals p into buf and returns the number of bytes written.
func BytesTo(p BinaryMarshalerTo, buf []byte) (int, error) {
	return p.MarshalBinaryTo(buf)
}

// Bytes returns p's underlying wire bytes.
func Bytes(p VRTPacket) ([]byte, error) {
	return p.Bytes(), nil
}

// FromBytes is the inverse of Bytes: it is a no-op beyond validation, since
// every concrete packet kind here is a thin view over the buffer it was
// constructed with rather than a value decoded field-by-field.
func FromBytes(rawBytes []byte, p VRTPacket) error {
	if _, err := p.Header(); err != nil {
		return err
	}
	return nil
}

// PacketFactory builds a concrete VRTPacket view over buf, or returns
// (nil, nil) to decline and let the next factory in a FactoryChain (or the
// DefaultFactory) try.
type PacketFactory interface {
	NewPacket(buf []byte) (VRTPacket, error)
}

// DefaultFactory implements spec.md §4.7's three-step packet-kind
// selection: packet type first (command/context vs. data vs. extension),
// then — for data packets — class-ID presence and whether that class ID
// uses the reserved standard-data OUI.
type DefaultFactory struct{}

// NewPacket implements PacketFactory.
func (DefaultFactory) NewPacket(buf []byte) (VRTPacket, error) {
	h, err := unmarshalHeader(buf)
	if err != nil {
		return nil, err
	}
	switch h.Type {
	case Context, ExtContext:
		if h.Type == ExtContext {
			return NewExtensionPacket(buf), nil
		}
		return NewContextPacket(buf), nil
	case Command, ExtCommand:
		if h.Type == ExtCommand {
			return NewExtensionPacket(buf), nil
		}
		return NewCommandPacket(buf), nil
	default:
		if !h.ClassIDPresent {
			return NewDataPacket(buf), nil
		}
		cid, err := unmarshalClassID(buf[classIDOffsetForHeader(h):])
		if err != nil {
			return nil, err
		}
		if cid.IsStandardData() {
			return NewStandardDataPacket(buf), nil
		}
		return NewDataPacket(buf), nil
	}
}

// classIDOffsetForHeader returns the byte offset of the class ID field
// given a decoded header, without requiring a full Packet.layout() call
// (used by DefaultFactory before any concrete packet type exists yet).
func classIDOffsetForHeader(h Header) int {
	off := 4
	if h.Type.HasStreamID() {
		off += 4
	}
	return off
}

// FactoryChain tries each factory in order before falling back to
// DefaultFactory, per spec.md §9's "vector of boxed trait objects
// configured at startup" guidance translated to a plain slice owned by the
// caller (never a package-level singleton).
type FactoryChain []PacketFactory

// NewPacket implements PacketFactory.
func (fc FactoryChain) NewPacket(buf []byte) (VRTPacket, error) {
	for _, f := range fc {
		p, err := f.NewPacket(buf)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return DefaultFactory{}.NewPacket(buf)
}

// DecodePacket is the single entry point to decode raw bytes into a
// VRTPacket using the DefaultFactory, mirroring
// ptp/protocol.DecodePacket's role as the simplest on-ramp for callers
// that don't need a custom FactoryChain.
func DecodePacket(b []byte) (VRTPacket, error) {
	p, err := DefaultFactory{}.NewPacket(b)
	if err != nil {
		return nil, fmt.Errorf("vrt: decode packet: %w", err)
	}
	return p, nil
}
