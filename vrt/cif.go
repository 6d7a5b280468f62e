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
	"math/bits"

	"github.com/RedhawkSDR/VITA49-sub001/bytefield"
)

// cifKind classifies how a field's on-wire length is determined.
type cifKind uint8

const (
	cifFixed     cifKind = iota // fixed number of 32-bit words
	cifTimestamp                // same width as the packet's own timestamp
	cifVariable                // length word(s) prefix the field
)

// cifField describes one bit of one CIF word: its name and how to compute
// the byte length of its encoded value. The table below is transcribed from
// the indicator-field enumeration's bitmask/field-size comments (CIF0-CIF3,
// CIF7); CIF4-CIF6 are reserved and carry no fields.
type cifField struct {
	Name  string
	Kind  cifKind
	Words int // for cifFixed, length in 32-bit words
}

// cif0Fields indexes CIF0 bits 8..31 (bits 0..7 are the CIF1/2/3/7 enable
// bits and reserved bits, handled separately since their "fields" are the
// CIF words themselves, not payload content).
var cif0Fields = map[int]cifField{
	31: {"ChangeIndicator", cifFixed, 0}, // indicator only, carries no value octets
	30: {"ReferencePointID", cifFixed, 1},
	29: {"Bandwidth", cifFixed, 2},
	28: {"IFReferenceFrequency", cifFixed, 2},
	27: {"RFReferenceFrequency", cifFixed, 2},
	26: {"RFReferenceFrequencyOffset", cifFixed, 2},
	25: {"IFBandOffset", cifFixed, 2},
	24: {"ReferenceLevel", cifFixed, 1},
	23: {"Gain", cifFixed, 1},
	22: {"OverRangeCount", cifFixed, 1},
	21: {"SampleRate", cifFixed, 2},
	20: {"TimestampAdjustment", cifFixed, 2},
	19: {"TimestampCalibration", cifFixed, 1},
	18: {"Temperature", cifFixed, 1},
	17: {"DeviceID", cifFixed, 2},
	16: {"StateEventIndicators", cifFixed, 1},
	15: {"DataPayloadFormat", cifFixed, 2},
	14: {"FormattedGPS", cifFixed, 11},
	13: {"FormattedINS", cifFixed, 11},
	12: {"ECEFEphemeris", cifFixed, 13},
	11: {"RelativeEphemeris", cifFixed, 11},
	10: {"EphemerisRefID", cifFixed, 1},
	9:  {"GPSASCII", cifVariable, 0},
	8:  {"ContextAssociationLists", cifVariable, 0},
}

// cif1Fields indexes CIF1 bits. Bits 0, 8, 12, 21, 22, 23, 26 and 27 have
// no entry and are reserved.
var cif1Fields = map[int]cifField{
	31: {"Phase", cifFixed, 1},
	30: {"Polarization", cifFixed, 1},
	29: {"PointingAngle2DSimple", cifFixed, 1},
	28: {"PointingAngle2DStructured", cifVariable, 0},
	25: {"Beamwidth", cifFixed, 1},
	24: {"Range", cifFixed, 1},
	20: {"EbNoBER", cifFixed, 1},
	19: {"Threshold", cifFixed, 1},
	18: {"CompressionPoint", cifFixed, 1},
	17: {"InterceptPoints2And3", cifFixed, 1},
	16: {"SNRNoiseFigure", cifFixed, 1},
	15: {"AuxFrequency", cifFixed, 2},
	14: {"AuxGain", cifFixed, 1},
	13: {"AuxBandwidth", cifFixed, 2},
	11: {"ArrayOfCIFS", cifVariable, 0},
	10: {"Spectrum", cifFixed, 14},
	9:  {"SectorScanStep", cifVariable, 0},
	7:  {"IndexList", cifVariable, 0},
	6:  {"DiscreteIO32", cifFixed, 1},
	5:  {"DiscreteIO64", cifFixed, 2},
	4:  {"HealthStatus", cifFixed, 1},
	3:  {"V49SpecCompliance", cifFixed, 1},
	2:  {"VersionBuildCode", cifFixed, 1},
	1:  {"BufferSize", cifFixed, 1},
}

// cif2Fields indexes CIF2 bits; all identifier fields are fixed-width, most
// one word, the two UUIDs four words.
var cif2Fields = map[int]cifField{
	31: {"Bind", cifFixed, 1},
	30: {"CitedSID", cifFixed, 1},
	29: {"SiblingsSID", cifFixed, 1},
	28: {"ParentsSID", cifFixed, 1},
	27: {"ChildrenSID", cifFixed, 1},
	26: {"CitedMessageID", cifFixed, 1},
	25: {"ControlleeID", cifFixed, 1},
	24: {"ControlleeUUID", cifFixed, 4},
	23: {"ControllerID", cifFixed, 1},
	22: {"ControllerUUID", cifFixed, 4},
	21: {"InformationSource", cifFixed, 1},
	20: {"TrackID", cifFixed, 1},
	19: {"CountryCode", cifFixed, 1},
	18: {"Operator", cifFixed, 1},
	17: {"PlatformClass", cifFixed, 1},
	16: {"PlatformInstance", cifFixed, 1},
	15: {"PlatformDisplay", cifFixed, 1},
	14: {"EMSDeviceClass", cifFixed, 1},
	13: {"EMSDeviceType", cifFixed, 1},
	12: {"EMSDeviceInstance", cifFixed, 1},
	11: {"ModulationClass", cifFixed, 1},
	10: {"ModulationType", cifFixed, 1},
	9:  {"FunctionID", cifFixed, 1},
	8:  {"ModeID", cifFixed, 1},
	7:  {"EventID", cifFixed, 1},
	6:  {"FunctionPriorityID", cifFixed, 1},
	5:  {"CommunicationPriorityID", cifFixed, 1},
	4:  {"RFFootprint", cifFixed, 1},
	3:  {"RFFootprintRange", cifFixed, 1},
	2:  {"SpatialScanType", cifFixed, 1},
	1:  {"SpatialReferenceType", cifFixed, 1},
}

// cif3Fields indexes CIF3 bits. Age and ShelfLife share the packet's own
// timestamp width (spec.md §9.7.2 / IndicatorFields.h CTX_TSTAMP_OCTETS).
var cif3Fields = map[int]cifField{
	31: {"TimestampDetails", cifFixed, 2},
	30: {"TimestampSkew", cifFixed, 2},
	27: {"RiseTime", cifFixed, 2},
	26: {"FallTime", cifFixed, 2},
	25: {"OffsetTime", cifFixed, 2},
	24: {"PulseWidth", cifFixed, 2},
	23: {"Period", cifFixed, 2},
	22: {"Duration", cifFixed, 2},
	21: {"Dwell", cifFixed, 2},
	20: {"Jitter", cifFixed, 2},
	17: {"Age", cifTimestamp, 0},
	16: {"ShelfLife", cifTimestamp, 0},
	7:  {"AirTemperature", cifFixed, 1},
	6:  {"SeaGroundTemperature", cifFixed, 1},
	5:  {"Humidity", cifFixed, 1},
	4:  {"BarometricPressure", cifFixed, 1},
	3:  {"SeaAndSwellState", cifFixed, 1},
	2:  {"TroposphericState", cifFixed, 1},
	1:  {"NetworkID", cifFixed, 1},
}

// cif7AttributeBits lists CIF7's sub-attribute bits in descending order,
// matching the field-value layout rule (§4.2: "CIF7 sub-attributes... in
// decreasing CIF7 bit order"). Probability and Belief are always 32 bits
// regardless of the attributed field's own width; every other attribute
// shares that field's width.
var cif7AttributeBits = []int{31, 30, 29, 25, 24, 23, 22, 21, 20, 19}

func cif7AttributeName(bit int) string {
	switch bit {
	case 31:
		return "Current"
	case 30:
		return "Average"
	case 29:
		return "Median"
	case 25:
		return "Precision"
	case 24:
		return "Accuracy"
	case 23:
		return "FirstDerivative"
	case 22:
		return "SecondDerivative"
	case 21:
		return "ThirdDerivative"
	case 20:
		return "Probability"
	case 19:
		return "Belief"
	default:
		return fmt.Sprintf("CIF7Bit%d", bit)
	}
}

// cif7FixedWidth32 reports whether a CIF7 attribute bit is always 32 bits
// regardless of the field it attributes (Probability, Belief).
func cif7FixedWidth32(bit int) bool { return bit == 20 || bit == 19 }

func cifTableFor(cifNumber int) map[int]cifField {
	switch cifNumber {
	case 0:
		return cif0Fields
	case 1:
		return cif1Fields
	case 2:
		return cif2Fields
	case 3:
		return cif3Fields
	default:
		return nil
	}
}

// cifOf and bitOf decode an 8-bit field identifier: top 3 bits the CIF
// number, low 5 bits the bit index within that CIF (spec.md §3.3).
func cifOf(f uint8) int  { return int(f >> 5) }
func bitOf(f uint8) int  { return int(f & 0x1F) }
func maskOf(f uint8) uint32 { return 1 << uint(bitOf(f)) }

// cifPayload is the shared engine behind ContextPacket and CommandPacket: it
// computes field offsets and presence within a CIF-bearing payload. second
// selects the command/ack "second occurrence" block (CIF numbers 8..15,
// spec.md §3.3/§4.2).
type cifPayload struct {
	p            *Packet
	payloadStart int // offset of CIF0 within p.buf
	second       bool
	timestampLen int // byte width of AGE/SHELF_LIFE fields, from the packet's own timestamp
}

func newCifPayload(p *Packet, second bool) (*cifPayload, error) {
	l, h, err := p.layout()
	if err != nil {
		return nil, err
	}
	tsLen := 0
	if l.tsiOffset >= 0 {
		tsLen += 4
	}
	if l.tsfOffset >= 0 {
		tsLen += 8
	}
	start := l.payloadOffset
	if second {
		first, ferr := newCifPayload(p, false)
		if ferr != nil {
			return nil, ferr
		}
		firstLen, lerr := first.totalLength()
		if lerr != nil {
			return nil, lerr
		}
		start = l.payloadOffset + firstLen
	}
	_ = h
	return &cifPayload{p: p, payloadStart: start, second: second, timestampLen: tsLen}, nil
}

func (c *cifPayload) cif0() (uint32, error) {
	if len(c.p.buf) < c.payloadStart+4 {
		return 0, ErrBufferTooShort
	}
	return bytefield.UnpackU32(c.p.buf, c.payloadStart, bytefield.BigEndian), nil
}

func (c *cifPayload) enableOffsets() (cif1, cif2, cif3, cif7 int, cif0 uint32, err error) {
	cif0, err = c.cif0()
	if err != nil {
		return
	}
	off := c.payloadStart + 4
	cif1, cif2, cif3, cif7 = -1, -1, -1, -1
	if cif0&(1<<1) != 0 {
		cif1 = off
		off += 4
	}
	if cif0&(1<<2) != 0 {
		cif2 = off
		off += 4
	}
	if cif0&(1<<3) != 0 {
		cif3 = off
		off += 4
	}
	if cif0&(1<<7) != 0 {
		cif7 = off
		off += 4
	}
	return
}

func (c *cifPayload) cifWord(n int) (uint32, int, error) {
	cif1, cif2, cif3, cif7, cif0, err := c.enableOffsets()
	if err != nil {
		return 0, 0, err
	}
	var off int
	switch n {
	case 0:
		return cif0, c.payloadStart, nil
	case 1:
		off = cif1
	case 2:
		off = cif2
	case 3:
		off = cif3
	case 7:
		off = cif7
	default:
		return 0, 0, fmt.Errorf("vrt: CIF%d has no fields", n)
	}
	if off < 0 {
		return 0, 0, nil
	}
	return bytefield.UnpackU32(c.p.buf, off, bytefield.BigEndian), off, nil
}

// hasField reports whether the bit is set in the indicated CIF word.
func (c *cifPayload) hasField(cifNumber, bit int) (bool, error) {
	word, _, err := c.cifWord(cifNumber)
	if err != nil {
		return false, err
	}
	return word&(1<<uint(bit)) != 0, nil
}

func (c *cifPayload) fieldLength(cifNumber, bit int) (int, cifField, error) {
	table := cifTableFor(cifNumber)
	if table == nil {
		return 0, cifField{}, fmt.Errorf("vrt: CIF%d has no addressable fields", cifNumber)
	}
	f, ok := table[bit]
	if !ok {
		return 0, cifField{}, fmt.Errorf("vrt: CIF%d bit %d is reserved", cifNumber, bit)
	}
	switch f.Kind {
	case cifFixed:
		return f.Words * 4, f, nil
	case cifTimestamp:
		return c.timestampLen, f, nil
	case cifVariable:
		return 0, f, nil // caller must read the length word itself
	default:
		return 0, f, nil
	}
}

// offsetOf returns the byte offset of the named field within the packet,
// or -1 if the field is absent. It walks CIF0's field region (bits 31..8),
// then CIF1/2/3 in ascending CIF-number order, each in decreasing bit
// order, accumulating lengths (and any enabled CIF7 attribute block) until
// it reaches the requested (cifNumber, bit).
func (c *cifPayload) offsetOf(cifNumber, bit int) (int, error) {
	cif1, cif2, cif3, cif7, cif0, err := c.enableOffsets()
	if err != nil {
		return -1, err
	}
	off := c.payloadStart + 4
	if cif1 >= 0 {
		off += 4
	}
	if cif2 >= 0 {
		off += 4
	}
	if cif3 >= 0 {
		off += 4
	}
	if cif7 >= 0 {
		off += 4
	}

	cif7Word := uint32(0)
	if cif7 >= 0 {
		cif7Word = bytefield.UnpackU32(c.p.buf, cif7, bytefield.BigEndian)
	}

	// visit walks one CIF word's field bits in decreasing order (the
	// payload's on-wire ordering rule), accumulating off as it goes, and
	// reports whether (cifNumber, bit) was found along the way.
	visit := func(n int, word uint32, lowBit int) (found bool, err error) {
		for b := 31; b >= lowBit; b-- {
			if word&(1<<uint(b)) == 0 {
				continue
			}
			if n == cifNumber && b == bit {
				return true, nil
			}
			flen, f, ferr := c.fieldLength(n, b)
			if ferr != nil {
				return false, ferr
			}
			if f.Kind == cifVariable {
				if vlen, verr := c.variableFieldLength(n, b); verr == nil {
					flen = vlen
				}
			}
			off += flen
			if cif7Word != 0 {
				off += attributeBytesFor(flen, cif7Word)
			}
		}
		return false, nil
	}

	if found, verr := visit(0, cif0, 8); verr != nil {
		return -1, verr
	} else if found {
		return off, nil
	}
	for _, nw := range []struct{ n, off int }{{1, cif1}, {2, cif2}, {3, cif3}} {
		if nw.off < 0 {
			continue
		}
		word := bytefield.UnpackU32(c.p.buf, nw.off, bytefield.BigEndian)
		if found, verr := visit(nw.n, word, 1); verr != nil {
			return -1, verr
		} else if found {
			return off, nil
		}
	}
	return -1, nil
}

// attributeBytesFor computes the additional byte length CIF7 attributes
// contribute after one field of width fieldLen, given the CIF7 enable word.
func attributeBytesFor(fieldLen int, cif7Word uint32) int {
	total := 0
	for _, b := range cif7AttributeBits {
		if cif7Word&(1<<uint(b)) == 0 {
			continue
		}
		if cif7FixedWidth32(b) {
			total += 4
		} else {
			total += fieldLen
		}
	}
	return total
}

// offsetOfAttribute returns the offset of a CIF7 sub-attribute of the field
// (cifNumber, bit), or -1 if either the field or the attribute is absent.
func (c *cifPayload) offsetOfAttribute(cifNumber, bit, cif7Bit int) (int, error) {
	present, err := c.hasField(cifNumber, bit)
	if err != nil || !present {
		return -1, err
	}
	cif7Word, cif7Off, err := c.cifWord(7)
	if err != nil || cif7Off == 0 {
		return -1, err
	}
	if cif7Word&(1<<uint(cif7Bit)) == 0 {
		return -1, nil
	}
	base, err := c.offsetOf(cifNumber, bit)
	if err != nil || base < 0 {
		return -1, err
	}
	flen, f, err := c.fieldLength(cifNumber, bit)
	if err != nil {
		return -1, err
	}
	if f.Kind == cifVariable {
		if vlen, verr := c.variableFieldLength(cifNumber, bit); verr == nil {
			flen = vlen
		}
	}
	base += flen
	for _, b := range cif7AttributeBits {
		if b <= cif7Bit {
			break
		}
		if cif7Word&(1<<uint(b)) == 0 {
			continue
		}
		if cif7FixedWidth32(b) {
			base += 4
		} else {
			base += flen
		}
	}
	return base, nil
}

// totalLength computes the full byte length of this CIF block (CIF words
// plus every present field and CIF7 attribute), used both for
// CIF-offset-consistency validation (spec.md §8.1) and to locate the
// second-occurrence block in command/ack packets.
func (c *cifPayload) totalLength() (int, error) {
	cif1, cif2, cif3, cif7, cif0, err := c.enableOffsets()
	if err != nil {
		return 0, err
	}
	total := 4
	if cif1 >= 0 {
		total += 4
	}
	if cif2 >= 0 {
		total += 4
	}
	if cif3 >= 0 {
		total += 4
	}
	if cif7 >= 0 {
		total += 4
	}

	cif7Word := uint32(0)
	if cif7 >= 0 {
		cif7Word = bytefield.UnpackU32(c.p.buf, cif7, bytefield.BigEndian)
	}

	add := func(n int, word uint32) error {
		for b := 31; b >= 1; b-- {
			if n == 0 && b <= 7 {
				continue
			}
			if word&(1<<uint(b)) == 0 {
				continue
			}
			flen, f, ferr := c.fieldLength(n, b)
			if ferr != nil {
				return ferr
			}
			if f.Kind == cifVariable {
				vlen, verr := c.variableFieldLength(n, b)
				if verr != nil {
					return verr
				}
				flen = vlen
			}
			total += flen
			if cif7Word != 0 {
				total += attributeBytesFor(flen, cif7Word)
			}
		}
		return nil
	}
	if err := add(0, cif0); err != nil {
		return 0, err
	}
	if cif1 >= 0 {
		w := bytefield.UnpackU32(c.p.buf, cif1, bytefield.BigEndian)
		if err := add(1, w); err != nil {
			return 0, err
		}
	}
	if cif2 >= 0 {
		w := bytefield.UnpackU32(c.p.buf, cif2, bytefield.BigEndian)
		if err := add(2, w); err != nil {
			return 0, err
		}
	}
	if cif3 >= 0 {
		w := bytefield.UnpackU32(c.p.buf, cif3, bytefield.BigEndian)
		if err := add(3, w); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// variableFieldLength reads a variable-length field's own size prefix. All
// of this engine's variable fields (GPS_ASCII, CONTEXT_ASOC, INDEX_LIST,
// SECTOR_SCN_STP, ARRAY_OF_CIFS, PNT_ANGL_2D_ST) share the convention that
// their first 32-bit word's low bits carry a word or byte count; see
// vrt/records.go for the per-record interpretation of that count.
func (c *cifPayload) variableFieldLength(cifNumber, bit int) (int, error) {
	off, err := c.offsetOf(cifNumber, bit)
	if err != nil || off < 0 {
		return 0, err
	}
	if len(c.p.buf) < off+4 {
		return 0, ErrBufferTooShort
	}
	header := bytefield.UnpackU32(c.p.buf, off, bytefield.BigEndian)
	// low 16 bits: size in 32-bit words, including this header word itself.
	words := int(header & 0xFFFF)
	if words < 1 {
		words = 1
	}
	return words * 4, nil
}

func popcount32(x uint32) int { return bits.OnesCount32(x) }

// setFieldBit sets or clears a field's presence bit, inserting or removing
// its (zeroed) octets at the computed offset. Enabling a field within
// CIF1/2/3 requires that CIF's enable bit (cifNumber 0, bit 1/2/3) to
// already be set; enabling/disabling CIF1/2/3/7 itself is done by calling
// setFieldBit(0, 1|2|3|7, value), which additionally inserts/removes the
// CIF word itself. Variable-length fields are enabled with a minimal
// one-word (4-byte) body; the caller grows them further via the record
// type's own accessors (see vrt/records.go).
func (c *cifPayload) setFieldBit(cifNumber, bit int, value bool) error {
	present, err := c.hasField(cifNumber, bit)
	if err != nil {
		return err
	}
	if present == value {
		return nil
	}

	if cifNumber == 0 && (bit == 1 || bit == 2 || bit == 3 || bit == 7) {
		return c.setCIFEnableBit(bit, value)
	}

	if !value {
		off, err := c.offsetOf(cifNumber, bit)
		if err != nil {
			return err
		}
		if off < 0 {
			return fmt.Errorf("vrt: field CIF%d bit %d already absent", cifNumber, bit)
		}
		flen, f, err := c.fieldLength(cifNumber, bit)
		if err != nil {
			return err
		}
		if f.Kind == cifVariable {
			if vlen, verr := c.variableFieldLength(cifNumber, bit); verr == nil {
				flen = vlen
			}
		}
		if _, cif7Off, werr := c.cifWord(7); werr == nil && cif7Off > 0 {
			cif7Word, _, _ := c.cifWord(7)
			flen += attributeBytesFor(flen, cif7Word)
		}
		if err := c.p.removeBytes(off, flen); err != nil {
			return err
		}
		return c.clearWordBit(cifNumber, bit)
	}

	if err := c.setWordBit(cifNumber, bit); err != nil {
		return err
	}
	off, err := c.offsetOf(cifNumber, bit)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: failed to locate newly-enabled field CIF%d bit %d", cifNumber, bit)
	}
	flen, f, err := c.fieldLength(cifNumber, bit)
	if err != nil {
		return err
	}
	if f.Kind == cifVariable {
		flen = 4 // minimal one-word variable-field body
	}
	if _, cif7Off, werr := c.cifWord(7); werr == nil && cif7Off > 0 {
		cif7Word, _, _ := c.cifWord(7)
		flen += attributeBytesFor(flen, cif7Word)
	}
	if flen == 0 {
		return nil
	}
	if err := c.p.insertBytes(off, flen); err != nil {
		return err
	}
	if f.Kind == cifVariable {
		// stamp the minimal length header with words=1.
		bytefield.PackU32(c.p.buf, off, 1, bytefield.BigEndian)
	}
	return nil
}

func (c *cifPayload) wordOffset(cifNumber int) (int, error) {
	cif1, cif2, cif3, cif7, _, err := c.enableOffsets()
	if err != nil {
		return -1, err
	}
	switch cifNumber {
	case 0:
		return c.payloadStart, nil
	case 1:
		return cif1, nil
	case 2:
		return cif2, nil
	case 3:
		return cif3, nil
	case 7:
		return cif7, nil
	default:
		return -1, fmt.Errorf("vrt: CIF%d is not addressable", cifNumber)
	}
}

func (c *cifPayload) setWordBit(cifNumber, bit int) error {
	off, err := c.wordOffset(cifNumber)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: CIF%d is not enabled, cannot set bit %d", cifNumber, bit)
	}
	word := bytefield.UnpackU32(c.p.buf, off, bytefield.BigEndian)
	word |= 1 << uint(bit)
	bytefield.PackU32(c.p.buf, off, word, bytefield.BigEndian)
	return nil
}

func (c *cifPayload) clearWordBit(cifNumber, bit int) error {
	off, err := c.wordOffset(cifNumber)
	if err != nil || off < 0 {
		return fmt.Errorf("vrt: CIF%d is not enabled, cannot clear bit %d", cifNumber, bit)
	}
	word := bytefield.UnpackU32(c.p.buf, off, bytefield.BigEndian)
	word &^= 1 << uint(bit)
	bytefield.PackU32(c.p.buf, off, word, bytefield.BigEndian)
	return nil
}

// setCIFEnableBit enables or disables CIF1/2/3/7 itself: inserting or
// removing its 4-byte word immediately after CIF0 (and after any
// lower-numbered enabled CIF word, per the word's position in CIF-number
// order), and flipping the corresponding bit in CIF0.
func (c *cifPayload) setCIFEnableBit(bit int, value bool) error {
	cif1, cif2, cif3, cif7, _, err := c.enableOffsets()
	if err != nil {
		return err
	}
	var insertAt int
	switch bit {
	case 1:
		insertAt = c.payloadStart + 4
	case 2:
		if cif1 >= 0 {
			insertAt = cif1 + 4
		} else {
			insertAt = c.payloadStart + 4
		}
	case 3:
		switch {
		case cif2 >= 0:
			insertAt = cif2 + 4
		case cif1 >= 0:
			insertAt = cif1 + 4
		default:
			insertAt = c.payloadStart + 4
		}
	case 7:
		switch {
		case cif3 >= 0:
			insertAt = cif3 + 4
		case cif2 >= 0:
			insertAt = cif2 + 4
		case cif1 >= 0:
			insertAt = cif1 + 4
		default:
			insertAt = c.payloadStart + 4
		}
	}
	if value {
		if err := c.p.insertBytes(insertAt, 4); err != nil {
			return err
		}
		bytefield.PackU32(c.p.buf, insertAt, 0, bytefield.BigEndian)
	} else {
		existing := map[int]int{1: cif1, 2: cif2, 3: cif3, 7: cif7}[bit]
		if existing < 0 {
			return fmt.Errorf("vrt: CIF%d already disabled", bit)
		}
		if err := c.p.removeBytes(existing, 4); err != nil {
			return err
		}
	}
	cif0Word := bytefield.UnpackU32(c.p.buf, c.payloadStart, bytefield.BigEndian)
	if value {
		cif0Word |= 1 << uint(bit)
	} else {
		cif0Word &^= 1 << uint(bit)
	}
	bytefield.PackU32(c.p.buf, c.payloadStart, cif0Word, bytefield.BigEndian)
	return nil
}
