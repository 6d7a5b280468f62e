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

// ContextPacket is a context-type VRT packet (PacketType Context or
// ExtContext): a header+prologue plus a CIF0-led payload.
type ContextPacket struct {
	Packet
}

// NewContextPacket wraps buf as a ContextPacket.
func NewContextPacket(buf []byte) *ContextPacket { return &ContextPacket{Packet{buf: buf}} }

func (c *ContextPacket) cif() (*cifPayload, error) { return newCifPayload(&c.Packet, false) }

// HasField reports whether the named CIF field is present.
func (c *ContextPacket) HasField(cifNumber, bit int) (bool, error) {
	eng, err := c.cif()
	if err != nil {
		return false, err
	}
	return eng.hasField(cifNumber, bit)
}

// SetField sets or clears a field's presence, inserting/removing its
// octets as needed (§4.2).
func (c *ContextPacket) SetField(cifNumber, bit int, present bool) error {
	eng, err := c.cif()
	if err != nil {
		return err
	}
	return eng.setFieldBit(cifNumber, bit, present)
}

// OffsetOf returns the byte offset of a CIF field's encoded value, or -1 if
// absent.
func (c *ContextPacket) OffsetOf(cifNumber, bit int) (int, error) {
	eng, err := c.cif()
	if err != nil {
		return -1, err
	}
	return eng.offsetOf(cifNumber, bit)
}

// OffsetOfAttribute returns the byte offset of a CIF7 sub-attribute of a
// field, or -1 if either is absent.
func (c *ContextPacket) OffsetOfAttribute(cifNumber, bit, cif7Bit int) (int, error) {
	eng, err := c.cif()
	if err != nil {
		return -1, err
	}
	return eng.offsetOfAttribute(cifNumber, bit, cif7Bit)
}

// PayloadLength returns the total byte length of the CIF block (CIF words
// plus every present field and attribute); used by the
// CIF-offset-consistency check (spec.md §8.1).
func (c *ContextPacket) PayloadLength() (int, error) {
	eng, err := c.cif()
	if err != nil {
		return 0, err
	}
	return eng.totalLength()
}

func (c *ContextPacket) fixed64(cifNumber, bit, radix int) (float64, bool, error) {
	off, err := c.OffsetOf(cifNumber, bit)
	if err != nil || off < 0 {
		return 0, false, err
	}
	if len(c.buf) < off+8 {
		return 0, false, ErrBufferTooShort
	}
	raw := int64(bytefield.UnpackU64(c.buf, off, bytefield.BigEndian))
	return bytefield.ToDouble[int64](radix, raw), true, nil
}

func (c *ContextPacket) setFixed64(cifNumber, bit, radix int, value float64) error {
	present, err := c.HasField(cifNumber, bit)
	if err != nil {
		return err
	}
	if !present {
		if err := c.SetField(cifNumber, bit, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(cifNumber, bit)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate field CIF%d bit %d after enabling it", cifNumber, bit)
	}
	raw := bytefield.FromDouble[int64](radix, value)
	bytefield.PackU64(c.buf, off, uint64(raw), bytefield.BigEndian)
	return nil
}

func (c *ContextPacket) fixed32LowHalf(cifNumber, bit, radix int) (float64, bool, error) {
	off, err := c.OffsetOf(cifNumber, bit)
	if err != nil || off < 0 {
		return 0, false, err
	}
	if len(c.buf) < off+4 {
		return 0, false, ErrBufferTooShort
	}
	raw := int16(bytefield.UnpackU32(c.buf, off, bytefield.BigEndian) & 0xFFFF)
	return bytefield.ToDouble[int16](radix, raw), true, nil
}

func (c *ContextPacket) setFixed32LowHalf(cifNumber, bit, radix int, value float64) error {
	present, err := c.HasField(cifNumber, bit)
	if err != nil {
		return err
	}
	if !present {
		if err := c.SetField(cifNumber, bit, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(cifNumber, bit)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate field CIF%d bit %d after enabling it", cifNumber, bit)
	}
	raw := bytefield.FromDouble[int16](radix, value)
	word := bytefield.UnpackU32(c.buf, off, bytefield.BigEndian) &^ 0xFFFF
	word |= uint32(uint16(raw))
	bytefield.PackU32(c.buf, off, word, bytefield.BigEndian)
	return nil
}

// frequencyRadix and the other per-field radixes are spec.md §4.1's
// numeric-semantics table.
const (
	frequencyRadix    = 20
	refLevelRadix     = 7
	gainRadix         = 7
	temperatureRadix  = 6
)

// Bandwidth is the signal bandwidth in Hz (CIF0 bit 29, radix-20
// fixed-point).
func (c *ContextPacket) Bandwidth() (float64, bool, error) {
	return c.fixed64(0, 29, frequencyRadix)
}

// SetBandwidth sets the signal bandwidth in Hz, enabling the field if
// necessary.
func (c *ContextPacket) SetBandwidth(hz float64) error {
	return c.setFixed64(0, 29, frequencyRadix, hz)
}

// IFReferenceFrequency is CIF0 bit 28.
func (c *ContextPacket) IFReferenceFrequency() (float64, bool, error) {
	return c.fixed64(0, 28, frequencyRadix)
}

// SetIFReferenceFrequency sets CIF0 bit 28.
func (c *ContextPacket) SetIFReferenceFrequency(hz float64) error {
	return c.setFixed64(0, 28, frequencyRadix, hz)
}

// RFReferenceFrequency is CIF0 bit 27.
func (c *ContextPacket) RFReferenceFrequency() (float64, bool, error) {
	return c.fixed64(0, 27, frequencyRadix)
}

// SetRFReferenceFrequency sets CIF0 bit 27.
func (c *ContextPacket) SetRFReferenceFrequency(hz float64) error {
	return c.setFixed64(0, 27, frequencyRadix, hz)
}

// RFReferenceFrequencyOffset is CIF0 bit 26.
func (c *ContextPacket) RFReferenceFrequencyOffset() (float64, bool, error) {
	return c.fixed64(0, 26, frequencyRadix)
}

// SetRFReferenceFrequencyOffset sets CIF0 bit 26.
func (c *ContextPacket) SetRFReferenceFrequencyOffset(hz float64) error {
	return c.setFixed64(0, 26, frequencyRadix, hz)
}

// IFBandOffset is CIF0 bit 25.
func (c *ContextPacket) IFBandOffset() (float64, bool, error) {
	return c.fixed64(0, 25, frequencyRadix)
}

// SetIFBandOffset sets CIF0 bit 25.
func (c *ContextPacket) SetIFBandOffset(hz float64) error {
	return c.setFixed64(0, 25, frequencyRadix, hz)
}

// SampleRate is CIF0 bit 21, in samples/second.
func (c *ContextPacket) SampleRate() (float64, bool, error) {
	return c.fixed64(0, 21, frequencyRadix)
}

// SetSampleRate sets CIF0 bit 21.
func (c *ContextPacket) SetSampleRate(hz float64) error {
	return c.setFixed64(0, 21, frequencyRadix, hz)
}

// ReferenceLevel is CIF0 bit 24: a 16-bit signed fixed-point value, radix
// 7, stored in the low 16 bits of its 32-bit field.
func (c *ContextPacket) ReferenceLevel() (float64, bool, error) {
	return c.fixed32LowHalf(0, 24, refLevelRadix)
}

// SetReferenceLevel sets CIF0 bit 24.
func (c *ContextPacket) SetReferenceLevel(dBm float64) error {
	return c.setFixed32LowHalf(0, 24, refLevelRadix, dBm)
}

// Gain1 and Gain2 share CIF0 bit 23's 32-bit word: Gain1 (stage 1) in the
// low 16 bits, Gain2 (stage 2) in the high 16 bits, both radix-7 signed
// fixed-point (spec.md §4.1).
func (c *ContextPacket) Gain1() (float64, bool, error) { return c.fixed32LowHalf(0, 23, gainRadix) }

// SetGain1 sets the stage-1 gain, preserving any existing stage-2 value.
func (c *ContextPacket) SetGain1(db float64) error {
	return c.setFixed32LowHalf(0, 23, gainRadix, db)
}

// Gain2 is the stage-2 gain packed in the high 16 bits of CIF0 bit 23's word.
func (c *ContextPacket) Gain2() (float64, bool, error) {
	off, err := c.OffsetOf(0, 23)
	if err != nil || off < 0 {
		return 0, false, err
	}
	raw := int16(bytefield.UnpackU32(c.buf, off, bytefield.BigEndian) >> 16)
	return bytefield.ToDouble[int16](gainRadix, raw), true, nil
}

// SetGain2 sets the stage-2 gain, preserving any existing stage-1 value.
func (c *ContextPacket) SetGain2(db float64) error {
	present, err := c.HasField(0, 23)
	if err != nil {
		return err
	}
	if !present {
		if err := c.SetField(0, 23, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(0, 23)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate gain field after enabling it")
	}
	raw := bytefield.FromDouble[int16](gainRadix, db)
	word := bytefield.UnpackU32(c.buf, off, bytefield.BigEndian) &^ 0xFFFF0000
	word |= uint32(uint16(raw)) << 16
	bytefield.PackU32(c.buf, off, word, bytefield.BigEndian)
	return nil
}

// Temperature is CIF0 bit 18, in degrees Celsius, 16-bit radix-6 signed
// fixed-point.
func (c *ContextPacket) Temperature() (float64, bool, error) {
	return c.fixed32LowHalf(0, 18, temperatureRadix)
}

// SetTemperature sets CIF0 bit 18.
func (c *ContextPacket) SetTemperature(celsius float64) error {
	return c.setFixed32LowHalf(0, 18, temperatureRadix, celsius)
}

// ReferencePointID is CIF0 bit 30, an opaque 32-bit stream identifier.
func (c *ContextPacket) ReferencePointID() (uint32, bool, error) {
	off, err := c.OffsetOf(0, 30)
	if err != nil || off < 0 {
		return 0, false, err
	}
	return bytefield.UnpackU32(c.buf, off, bytefield.BigEndian), true, nil
}

// SetReferencePointID sets CIF0 bit 30.
func (c *ContextPacket) SetReferencePointID(id uint32) error {
	if present, err := c.HasField(0, 30); err != nil {
		return err
	} else if !present {
		if err := c.SetField(0, 30, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(0, 30)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate reference point field after enabling it")
	}
	bytefield.PackU32(c.buf, off, id, bytefield.BigEndian)
	return nil
}

// ChangeIndicator is CIF0 bit 31: a presence-only indicator with no
// associated value octets.
func (c *ContextPacket) ChangeIndicator() (bool, error) { return c.HasField(0, 31) }

// SetChangeIndicator sets or clears CIF0 bit 31.
func (c *ContextPacket) SetChangeIndicator(v bool) error { return c.SetField(0, 31, v) }

// DeviceID is CIF0 bit 17: a 24-bit OUI in bits 55..32 and a 16-bit device
// code in bits 15..0 of a 64-bit field.
func (c *ContextPacket) DeviceID() (oui uint32, device uint16, present bool, err error) {
	off, err := c.OffsetOf(0, 17)
	if err != nil || off < 0 {
		return 0, 0, false, err
	}
	raw := bytefield.UnpackU64(c.buf, off, bytefield.BigEndian)
	return uint32(raw>>32) & 0x00FFFFFF, uint16(raw), true, nil
}

// SetDeviceID sets CIF0 bit 17.
func (c *ContextPacket) SetDeviceID(oui uint32, device uint16) error {
	if present, err := c.HasField(0, 17); err != nil {
		return err
	} else if !present {
		if err := c.SetField(0, 17, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(0, 17)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate device-id field after enabling it")
	}
	raw := uint64(oui&0x00FFFFFF)<<32 | uint64(device)
	bytefield.PackU64(c.buf, off, raw, bytefield.BigEndian)
	return nil
}

// StateEventIndicators is CIF0 bit 16: a 32-bit bitfield of calibrated,
// valid-data, reference-lock, AGC/MGC, detected-signal, spectral-inversion,
// over-range and sample-loss indicators (spec.md §5's trailer has the same
// shape for data packets; context carries its own copy here).
func (c *ContextPacket) StateEventIndicators() (uint32, bool, error) {
	off, err := c.OffsetOf(0, 16)
	if err != nil || off < 0 {
		return 0, false, err
	}
	return bytefield.UnpackU32(c.buf, off, bytefield.BigEndian), true, nil
}

// SetStateEventIndicators sets CIF0 bit 16.
func (c *ContextPacket) SetStateEventIndicators(bits uint32) error {
	if present, err := c.HasField(0, 16); err != nil {
		return err
	} else if !present {
		if err := c.SetField(0, 16, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(0, 16)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate state/event field after enabling it")
	}
	bytefield.PackU32(c.buf, off, bits, bytefield.BigEndian)
	return nil
}

// EphemerisRefID is CIF0 bit 10: the stream ID of the packet carrying the
// ephemeris this context packet's records are relative to.
func (c *ContextPacket) EphemerisRefID() (uint32, bool, error) {
	off, err := c.OffsetOf(0, 10)
	if err != nil || off < 0 {
		return 0, false, err
	}
	return bytefield.UnpackU32(c.buf, off, bytefield.BigEndian), true, nil
}

// SetEphemerisRefID sets CIF0 bit 10.
func (c *ContextPacket) SetEphemerisRefID(streamID uint32) error {
	if present, err := c.HasField(0, 10); err != nil {
		return err
	} else if !present {
		if err := c.SetField(0, 10, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(0, 10)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate ephemeris-ref field after enabling it")
	}
	bytefield.PackU32(c.buf, off, streamID, bytefield.BigEndian)
	return nil
}

// ModeID is CIF2 bit 8: a one-word opaque mode identifier (spec.md §4.1's
// explicit mention of the CIF2 mode-id field).
func (c *ContextPacket) ModeID() (uint32, bool, error) {
	off, err := c.OffsetOf(2, 8)
	if err != nil || off < 0 {
		return 0, false, err
	}
	return bytefield.UnpackU32(c.buf, off, bytefield.BigEndian), true, nil
}

// SetModeID sets CIF2 bit 8. CIF2 itself must already be enabled (CIF0 bit
// 2); see SetField(0, 2, true).
func (c *ContextPacket) SetModeID(mode uint32) error {
	if present, err := c.HasField(2, 8); err != nil {
		return err
	} else if !present {
		if err := c.SetField(2, 8, true); err != nil {
			return err
		}
	}
	off, err := c.OffsetOf(2, 8)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate mode-id field after enabling it")
	}
	bytefield.PackU32(c.buf, off, mode, bytefield.BigEndian)
	return nil
}

// ECEFEphemeris returns the 52-byte ECEF ephemeris record (CIF0 bit 12), if
// present.
func (c *ContextPacket) ECEFEphemeris() (ECEFEphemeris, bool, error) {
	off, err := c.OffsetOf(0, 12)
	if err != nil || off < 0 {
		return ECEFEphemeris{}, false, err
	}
	rec, err := parseECEFEphemeris(c.buf[off:])
	return rec, err == nil, err
}

// RelativeEphemeris returns the 44-byte relative ephemeris record (CIF0 bit
// 11), if present.
func (c *ContextPacket) RelativeEphemeris() (RelativeEphemeris, bool, error) {
	off, err := c.OffsetOf(0, 11)
	if err != nil || off < 0 {
		return RelativeEphemeris{}, false, err
	}
	rec, err := parseRelativeEphemeris(c.buf[off:])
	return rec, err == nil, err
}

// GPSEphemeris returns the 44-byte formatted GPS ephemeris record (CIF0 bit
// 14), if present.
func (c *ContextPacket) GPSEphemeris() (GPSEphemeris, bool, error) {
	off, err := c.OffsetOf(0, 14)
	if err != nil || off < 0 {
		return GPSEphemeris{}, false, err
	}
	rec, err := parseGPSEphemeris(c.buf[off:])
	return rec, err == nil, err
}

// INSEphemeris returns the 44-byte formatted INS ephemeris record (CIF0 bit
// 13), if present.
func (c *ContextPacket) INSEphemeris() (INSEphemeris, bool, error) {
	off, err := c.OffsetOf(0, 13)
	if err != nil || off < 0 {
		return INSEphemeris{}, false, err
	}
	rec, err := parseINSEphemeris(c.buf[off:])
	return rec, err == nil, err
}

// GPSASCII returns the GPS ASCII sentences record (CIF0 bit 9), if present.
func (c *ContextPacket) GPSASCII() (GeoSentences, bool, error) {
	off, err := c.OffsetOf(0, 9)
	if err != nil || off < 0 {
		return GeoSentences{}, false, err
	}
	rec, err := parseGeoSentences(c.buf[off:])
	return rec, err == nil, err
}

// ContextAssociationLists returns the context-association-lists record
// (CIF0 bit 8), if present.
func (c *ContextPacket) ContextAssociationLists() (ContextAssociationLists, bool, error) {
	off, err := c.OffsetOf(0, 8)
	if err != nil || off < 0 {
		return ContextAssociationLists{}, false, err
	}
	rec, err := parseContextAssociationLists(c.buf[off:])
	return rec, err == nil, err
}

// Spectrum returns the 56-byte spectral-characteristics record (CIF1 bit
// 10), if present.
func (c *ContextPacket) Spectrum() (Spectrum, bool, error) {
	off, err := c.OffsetOf(1, 10)
	if err != nil || off < 0 {
		return Spectrum{}, false, err
	}
	rec, err := parseSpectrum(c.buf[off:])
	return rec, err == nil, err
}

// IndexList returns the index field list record (CIF1 bit 7), if present.
func (c *ContextPacket) IndexList() (IndexFieldList, bool, error) {
	off, err := c.OffsetOf(1, 7)
	if err != nil || off < 0 {
		return IndexFieldList{}, false, err
	}
	rec, err := parseIndexFieldList(c.buf[off:])
	return rec, err == nil, err
}

// SectorStepScanArray returns the array-of-records record (CIF1 bit 11,
// CIFS_ARRAY), if present.
func (c *ContextPacket) SectorStepScanArray() (ArrayOfRecords, bool, error) {
	off, err := c.OffsetOf(1, 11)
	if err != nil || off < 0 {
		return ArrayOfRecords{}, false, err
	}
	rec, err := parseArrayOfRecords(c.buf[off:])
	return rec, err == nil, err
}
