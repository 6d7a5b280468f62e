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

// DataPacket is a plain (vendor-defined or no class ID) data-type VRT
// packet: header+prologue plus an opaque payload, no CIF and no standard
// sample-format interpretation.
type DataPacket struct {
	Packet
}

// NewDataPacket wraps buf as a DataPacket.
func NewDataPacket(buf []byte) *DataPacket { return &DataPacket{Packet{buf: buf}} }

// StandardDataPacket is a data-type VRT packet whose class ID uses the
// reserved standard-data OUI (spec.md §4.3.1): its payload is a plain
// sample stream whose item format/vector size/real-or-complex layout is
// recoverable from the class ID alone via PayloadFormat.
type StandardDataPacket struct {
	Packet
}

// NewStandardDataPacket wraps buf as a StandardDataPacket.
func NewStandardDataPacket(buf []byte) *StandardDataPacket {
	return &StandardDataPacket{Packet{buf: buf}}
}

// Format returns the decoded sample layout from this packet's class ID.
func (p *StandardDataPacket) Format() (PayloadFormat, error) {
	cid, ok, err := p.ClassID()
	if err != nil {
		return PayloadFormat{}, err
	}
	if !ok {
		return PayloadFormat{}, ErrNoClassID
	}
	return ClassIDToPayloadFormat(cid)
}

// ExtensionPacket is an extension-context or extension-command packet
// (PacketType ExtContext/ExtCommand): same wire shape as Context/Command
// but the CIF/payload interpretation beyond CIF0's standard bits is
// vendor-defined, so this type exposes only the common CIF0 accessors
// rather than the record-typed ones ContextPacket/CommandPacket add.
type ExtensionPacket struct {
	Packet
}

// NewExtensionPacket wraps buf as an ExtensionPacket.
func NewExtensionPacket(buf []byte) *ExtensionPacket { return &ExtensionPacket{Packet{buf: buf}} }

func (e *ExtensionPacket) cif() (*cifPayload, error) { return newCifPayload(&e.Packet, false) }

// HasField reports whether the named CIF0-3 field is present.
func (e *ExtensionPacket) HasField(cifNumber, bit int) (bool, error) {
	eng, err := e.cif()
	if err != nil {
		return false, err
	}
	return eng.hasField(cifNumber, bit)
}

// OffsetOf returns the byte offset of a CIF field's encoded value, or -1 if
// absent.
func (e *ExtensionPacket) OffsetOf(cifNumber, bit int) (int, error) {
	eng, err := e.cif()
	if err != nil {
		return -1, err
	}
	return eng.offsetOf(cifNumber, bit)
}
