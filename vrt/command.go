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

// CommandPacket is a command-type VRT packet (PacketType Command or
// ExtCommand): a header+prologue, a primary CIF0-7 block naming the fields
// being commanded, and — when the header's acknowledgment bit is set — a
// second CIF8-15 block reporting per-field acknowledgment/warning/error
// status for that same command (spec.md §3.3/§4.2).
type CommandPacket struct {
	Packet
}

// NewCommandPacket wraps buf as a CommandPacket.
func NewCommandPacket(buf []byte) *CommandPacket { return &CommandPacket{Packet{buf: buf}} }

func (c *CommandPacket) cif() (*cifPayload, error) { return newCifPayload(&c.Packet, false) }

// HasAcknowledgment reports whether the header's acknowledgment bit is
// set, i.e. whether a second CIF8-15 block follows the primary one.
func (c *CommandPacket) HasAcknowledgment() (bool, error) {
	h, err := c.Header()
	if err != nil {
		return false, err
	}
	return h.ackOrNotV49, nil
}

func (c *CommandPacket) ackCif() (*cifPayload, error) {
	ok, err := c.HasAcknowledgment()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vrt: command packet has no acknowledgment block")
	}
	return newCifPayload(&c.Packet, true)
}

// HasField reports whether the named CIF field is present in the primary
// (commanded) block.
func (c *CommandPacket) HasField(cifNumber, bit int) (bool, error) {
	eng, err := c.cif()
	if err != nil {
		return false, err
	}
	return eng.hasField(cifNumber, bit)
}

// SetField sets or clears a field's presence in the primary block,
// inserting/removing its octets as needed (§4.2).
func (c *CommandPacket) SetField(cifNumber, bit int, present bool) error {
	eng, err := c.cif()
	if err != nil {
		return err
	}
	return eng.setFieldBit(cifNumber, bit, present)
}

// OffsetOf returns the byte offset of a primary-block CIF field's encoded
// value, or -1 if absent.
func (c *CommandPacket) OffsetOf(cifNumber, bit int) (int, error) {
	eng, err := c.cif()
	if err != nil {
		return -1, err
	}
	return eng.offsetOf(cifNumber, bit)
}

// PayloadLength returns the total byte length of the primary CIF block.
func (c *CommandPacket) PayloadLength() (int, error) {
	eng, err := c.cif()
	if err != nil {
		return 0, err
	}
	return eng.totalLength()
}

// HasAckField reports whether the named field carries an
// acknowledgment/warning/error status in the second CIF8-15 block.
// cifNumber/bit address this block the same way they address the primary
// block (0-3); the CIF8-15 numbering in spec.md §4.2 describes where the
// block sits relative to the primary one, not a different bit table — the
// second occurrence reuses the same per-CIF field layout at a different
// buffer offset, via cifPayload.second.
func (c *CommandPacket) HasAckField(cifNumber, bit int) (bool, error) {
	eng, err := c.ackCif()
	if err != nil {
		return false, err
	}
	return eng.hasField(cifNumber, bit)
}

// SetAckField sets or clears a field's acknowledgment-status presence in
// the second CIF8-15 block.
func (c *CommandPacket) SetAckField(cifNumber, bit int, present bool) error {
	eng, err := c.ackCif()
	if err != nil {
		return err
	}
	return eng.setFieldBit(cifNumber, bit, present)
}

// AckOffsetOf returns the byte offset of a second-block (CIF8-15) field's
// encoded value, or -1 if absent.
func (c *CommandPacket) AckOffsetOf(cifNumber, bit int) (int, error) {
	eng, err := c.ackCif()
	if err != nil {
		return -1, err
	}
	return eng.offsetOf(cifNumber, bit)
}

// AckPayloadLength returns the total byte length of the second (CIF8-15)
// acknowledgment block.
func (c *CommandPacket) AckPayloadLength() (int, error) {
	eng, err := c.ackCif()
	if err != nil {
		return 0, err
	}
	return eng.totalLength()
}

// IsCancel reports whether this command packet is a cancellation of a
// previously sent, not-yet-acknowledged command (header bit 24 on command
// packets, spec.md §3.2).
func (c *CommandPacket) IsCancel() (bool, error) {
	h, err := c.Header()
	if err != nil {
		return false, err
	}
	return h.TSMOrCancel, nil
}
