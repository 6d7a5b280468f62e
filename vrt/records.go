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
	"math"

	"github.com/RedhawkSDR/VITA49-sub001/bytefield"
	"github.com/RedhawkSDR/VITA49-sub001/vrttime"
)

// nullFieldBits is the sentinel that marks an individual geolocation/
// ephemeris field as "not specified", rather than 0.
const nullFieldBits = 0x7FFFFFFF

// geoTimestampPrologue is the 16-byte header shared by Geolocation and
// Ephemeris-shaped records: a mode byte packing the field's own TSI/TSF
// (independent of the enclosing packet's), a 24-bit manufacturer OUI, a
// 32-bit integer timestamp, and a 64-bit fractional timestamp.
type geoTimestampPrologue struct {
	ManufacturerOUI uint32
	TSI             TSIMode
	TSF             TSFMode
	Integer         uint32
	Fractional      uint64
}

func parseGeoTimestampPrologue(buf []byte) (geoTimestampPrologue, error) {
	if len(buf) < 16 {
		return geoTimestampPrologue{}, ErrBufferTooShort
	}
	mode := buf[0]
	word0 := bytefield.UnpackU32(buf, 0, bytefield.BigEndian)
	return geoTimestampPrologue{
		ManufacturerOUI: word0 & 0x00FFFFFF,
		TSI:             TSIMode((mode >> 2) & 0x3),
		TSF:             TSFMode(mode & 0x3),
		Integer:         bytefield.UnpackU32(buf, 4, bytefield.BigEndian),
		Fractional:      bytefield.UnpackU64(buf, 8, bytefield.BigEndian),
	}, nil
}

func packGeoTimestampPrologue(buf []byte, p geoTimestampPrologue) error {
	if len(buf) < 16 {
		return ErrBufferTooShort
	}
	mode := byte(p.TSI&0x3)<<2 | byte(p.TSF&0x3)
	word0 := uint32(mode)<<24 | (p.ManufacturerOUI & 0x00FFFFFF)
	bytefield.PackU32(buf, 0, word0, bytefield.BigEndian)
	bytefield.PackU32(buf, 4, p.Integer, bytefield.BigEndian)
	bytefield.PackU64(buf, 8, p.Fractional, bytefield.BigEndian)
	return nil
}

// Timestamp resolves the record's own timestamp fields to a vrttime
// Timestamp, or reports IsNull if the record carries TSI=None/TSF=None
// (GeoSentences always does; Geolocation/Ephemeris records do when their
// producer chose not to stamp them).
func (p geoTimestampPrologue) Timestamp() (vrttime.Timestamp, bool) {
	if p.TSI == TSINone && p.TSF == TSFNone {
		return vrttime.Timestamp{}, false
	}
	epoch := vrttime.POSIX
	if p.TSI == TSIUTC {
		epoch = vrttime.UTC
	} else if p.TSI == TSIGPS {
		epoch = vrttime.GPS
	}
	picos := p.Fractional
	if p.TSF != TSFRealTime {
		picos = 0
	}
	return vrttime.Timestamp{Epoch: epoch, Seconds: p.Integer, Picos: picos}, true
}

func unpackField32(buf []byte, off int, radix int) float64 {
	bits := int32(bytefield.UnpackU32(buf, off, bytefield.BigEndian))
	if bits == nullFieldBits {
		return math.NaN()
	}
	return bytefield.ToDouble[int32](radix, bits)
}

func packField32(buf []byte, off int, radix int, v float64) {
	var bits int32
	if math.IsNaN(v) {
		bits = nullFieldBits
	} else {
		bits = bytefield.FromDouble[int32](radix, v)
	}
	bytefield.PackU32(buf, off, uint32(bits), bytefield.BigEndian)
}

// Geolocation is a 44-byte GPS/INS geodetic fix record (spec.md §3.4; field
// layout and radixes grounded on AbstractGeolocation/Geolocation in
// IndicatorFields.h/.cc): a 16-byte timestamp prologue followed by
// latitude, longitude, altitude, speed-over-ground, heading, track angle
// and magnetic variation, each a 32-bit signed fixed-point degree/meter
// value or the null sentinel 0x7FFFFFFF.
type Geolocation struct {
	geoTimestampPrologue
	Latitude          float64 // degrees, radix 22
	Longitude         float64 // degrees, radix 22
	Altitude          float64 // meters, radix 5
	SpeedOverGround   float64 // meters/second, radix 16
	HeadingAngle      float64 // degrees, radix 22
	TrackAngle        float64 // degrees, radix 22
	MagneticVariation float64 // degrees, radix 22
}

const geolocationLen = 44

func parseGeolocation(buf []byte) (Geolocation, error) {
	if len(buf) < geolocationLen {
		return Geolocation{}, ErrBufferTooShort
	}
	prologue, err := parseGeoTimestampPrologue(buf)
	if err != nil {
		return Geolocation{}, err
	}
	return Geolocation{
		geoTimestampPrologue: prologue,
		Latitude:             unpackField32(buf, 16, 22),
		Longitude:            unpackField32(buf, 20, 22),
		Altitude:             unpackField32(buf, 24, 5),
		SpeedOverGround:      unpackField32(buf, 28, 16),
		HeadingAngle:         unpackField32(buf, 32, 22),
		TrackAngle:           unpackField32(buf, 36, 22),
		MagneticVariation:    unpackField32(buf, 40, 22),
	}, nil
}

// MarshalBinaryTo encodes g into buf[0:44].
func (g Geolocation) MarshalBinaryTo(buf []byte) (int, error) {
	if len(buf) < geolocationLen {
		return 0, ErrBufferTooShort
	}
	if err := packGeoTimestampPrologue(buf, g.geoTimestampPrologue); err != nil {
		return 0, err
	}
	packField32(buf, 16, 22, g.Latitude)
	packField32(buf, 20, 22, g.Longitude)
	packField32(buf, 24, 5, g.Altitude)
	packField32(buf, 28, 16, g.SpeedOverGround)
	packField32(buf, 32, 22, g.HeadingAngle)
	packField32(buf, 36, 22, g.TrackAngle)
	packField32(buf, 40, 22, g.MagneticVariation)
	return geolocationLen, nil
}

// ECEFEphemeris is a 52-byte Earth-Centered-Earth-Fixed ephemeris record
// (CIF0 bit 12; CTX_52_OCTETS in IndicatorFields.h): the 16-byte timestamp
// prologue, Cartesian position (radix 5), attitude about all three axes
// (radix 22), and Cartesian velocity (radix 16).
type ECEFEphemeris struct {
	geoTimestampPrologue
	PositionX, PositionY, PositionZ          float64 // meters, radix 5
	AttitudeAlpha, AttitudeBeta, AttitudePhi float64 // degrees, radix 22
	VelocityX, VelocityY, VelocityZ          float64 // meters/second, radix 16
}

const ecefEphemerisLen = 52

func parseECEFEphemeris(buf []byte) (ECEFEphemeris, error) {
	if len(buf) < ecefEphemerisLen {
		return ECEFEphemeris{}, ErrBufferTooShort
	}
	prologue, err := parseGeoTimestampPrologue(buf)
	if err != nil {
		return ECEFEphemeris{}, err
	}
	return ECEFEphemeris{
		geoTimestampPrologue: prologue,
		PositionX:            unpackField32(buf, 16, 5),
		PositionY:            unpackField32(buf, 20, 5),
		PositionZ:            unpackField32(buf, 24, 5),
		AttitudeAlpha:        unpackField32(buf, 28, 22),
		AttitudeBeta:         unpackField32(buf, 32, 22),
		AttitudePhi:          unpackField32(buf, 36, 22),
		VelocityX:            unpackField32(buf, 40, 16),
		VelocityY:            unpackField32(buf, 44, 16),
		VelocityZ:            unpackField32(buf, 48, 16),
	}, nil
}

// MarshalBinaryTo encodes e into buf[0:52].
func (e ECEFEphemeris) MarshalBinaryTo(buf []byte) (int, error) {
	if len(buf) < ecefEphemerisLen {
		return 0, ErrBufferTooShort
	}
	if err := packGeoTimestampPrologue(buf, e.geoTimestampPrologue); err != nil {
		return 0, err
	}
	packField32(buf, 16, 5, e.PositionX)
	packField32(buf, 20, 5, e.PositionY)
	packField32(buf, 24, 5, e.PositionZ)
	packField32(buf, 28, 22, e.AttitudeAlpha)
	packField32(buf, 32, 22, e.AttitudeBeta)
	packField32(buf, 36, 22, e.AttitudePhi)
	packField32(buf, 40, 16, e.VelocityX)
	packField32(buf, 44, 16, e.VelocityY)
	packField32(buf, 48, 16, e.VelocityZ)
	return ecefEphemerisLen, nil
}

// RelativeEphemeris is the 44-byte (CTX_44_OCTETS) compact counterpart to
// ECEFEphemeris (CIF0 bit 11): the original_source retrieval pack's
// Ephemeris class only documents the 52-byte ECEF form explicitly; the
// 44-byte relative form is built here by dropping the roll attitude
// (AttitudePhi) and Z-axis velocity components the ECEF form carries,
// which is the only field subset that both matches the declared 11-word
// length and keeps every remaining field's radix consistent with the ECEF
// record (documented as an inferred layout in DESIGN.md).
type RelativeEphemeris struct {
	geoTimestampPrologue
	PositionX, PositionY, PositionZ float64 // meters, radix 5
	AttitudeAlpha, AttitudeBeta     float64 // degrees, radix 22
	VelocityX, VelocityY            float64 // meters/second, radix 16
}

const relativeEphemerisLen = 44

func parseRelativeEphemeris(buf []byte) (RelativeEphemeris, error) {
	if len(buf) < relativeEphemerisLen {
		return RelativeEphemeris{}, ErrBufferTooShort
	}
	prologue, err := parseGeoTimestampPrologue(buf)
	if err != nil {
		return RelativeEphemeris{}, err
	}
	return RelativeEphemeris{
		geoTimestampPrologue: prologue,
		PositionX:            unpackField32(buf, 16, 5),
		PositionY:            unpackField32(buf, 20, 5),
		PositionZ:            unpackField32(buf, 24, 5),
		AttitudeAlpha:        unpackField32(buf, 28, 22),
		AttitudeBeta:         unpackField32(buf, 32, 22),
		VelocityX:            unpackField32(buf, 36, 16),
		VelocityY:            unpackField32(buf, 40, 16),
	}, nil
}

// MarshalBinaryTo encodes e into buf[0:44].
func (e RelativeEphemeris) MarshalBinaryTo(buf []byte) (int, error) {
	if len(buf) < relativeEphemerisLen {
		return 0, ErrBufferTooShort
	}
	if err := packGeoTimestampPrologue(buf, e.geoTimestampPrologue); err != nil {
		return 0, err
	}
	packField32(buf, 16, 5, e.PositionX)
	packField32(buf, 20, 5, e.PositionY)
	packField32(buf, 24, 5, e.PositionZ)
	packField32(buf, 28, 22, e.AttitudeAlpha)
	packField32(buf, 32, 22, e.AttitudeBeta)
	packField32(buf, 36, 16, e.VelocityX)
	packField32(buf, 40, 16, e.VelocityY)
	return relativeEphemerisLen, nil
}

// GPSEphemeris is the 44-byte "Formatted GPS" ephemeris record (CIF0 bit
// 14): a geodetic fix in the same shape as Geolocation, reused here because
// both describe a GPS-sourced position fix.
type GPSEphemeris struct {
	Geolocation
}

func parseGPSEphemeris(buf []byte) (GPSEphemeris, error) {
	g, err := parseGeolocation(buf)
	return GPSEphemeris{Geolocation: g}, err
}

// MarshalBinaryTo encodes g into buf[0:44].
func (g GPSEphemeris) MarshalBinaryTo(buf []byte) (int, error) { return g.Geolocation.MarshalBinaryTo(buf) }

// INSEphemeris is the 44-byte "Formatted INS" ephemeris record (CIF0 bit
// 13): an inertial-navigation-sourced geodetic fix, same shape as
// Geolocation/GPSEphemeris.
type INSEphemeris struct {
	Geolocation
}

func parseINSEphemeris(buf []byte) (INSEphemeris, error) {
	g, err := parseGeolocation(buf)
	return INSEphemeris{Geolocation: g}, err
}

// MarshalBinaryTo encodes i into buf[0:44].
func (i INSEphemeris) MarshalBinaryTo(buf []byte) (int, error) { return i.Geolocation.MarshalBinaryTo(buf) }

// GeoSentences holds raw NMEA-style GPS sentences (CIF0 bit 9). Unlike
// Geolocation/Ephemeris it does NOT share the 16-byte timestamp prologue:
// GeoSentences::writeBytes in the retrieval pack's IndicatorFields.h lays
// out an 8-byte header (manufacturer OUI word, word-count word) directly
// followed by ASCII sentence bytes, and its getTimeStamp() always returns
// a null time.
type GeoSentences struct {
	ManufacturerOUI uint32
	Sentences       string
}

func parseGeoSentences(buf []byte) (GeoSentences, error) {
	if len(buf) < 8 {
		return GeoSentences{}, ErrBufferTooShort
	}
	oui := bytefield.UnpackU32(buf, 0, bytefield.BigEndian) & 0x00FFFFFF
	numberOfWords := bytefield.UnpackU32(buf, 4, bytefield.BigEndian)
	end := 8 + int(numberOfWords)*4
	if len(buf) < end {
		return GeoSentences{}, ErrBufferTooShort
	}
	s := bytefield.UnpackASCII(buf, 8, int(numberOfWords)*4)
	return GeoSentences{ManufacturerOUI: oui, Sentences: s}, nil
}

// MarshalBinaryTo encodes g into buf, which must be at least
// 8+roundUp4(len(g.Sentences)) bytes; it returns the number of bytes
// written.
func (g GeoSentences) MarshalBinaryTo(buf []byte) (int, error) {
	words := (len(g.Sentences) + 3) / 4
	total := 8 + words*4
	if len(buf) < total {
		return 0, ErrBufferTooShort
	}
	bytefield.PackU32(buf, 0, g.ManufacturerOUI&0x00FFFFFF, bytefield.BigEndian)
	bytefield.PackU32(buf, 4, uint32(words), bytefield.BigEndian)
	bytefield.PackASCII(buf, 8, g.Sentences, words*4)
	return total, nil
}

// ContextAssociationLists (CIF0 bit 8) names related context/data streams
// by stream ID, in four groups: source, system, vector-component and
// asynchronous-channel (with optional per-channel tag words).
type ContextAssociationLists struct {
	Source                 []uint32
	System                 []uint32
	VectorComponent        []uint32
	AsynchronousChannel    []uint32
	AsynchronousChannelTag []uint32 // parallel to AsynchronousChannel; empty if tags absent
}

func parseContextAssociationLists(buf []byte) (ContextAssociationLists, error) {
	if len(buf) < 8 {
		return ContextAssociationLists{}, ErrBufferTooShort
	}
	word0 := bytefield.UnpackU32(buf, 0, bytefield.BigEndian)
	nSource := int(word0 >> 16 & 0xFFFF)
	nSystem := int(word0 & 0xFFFF)
	word1 := bytefield.UnpackU32(buf, 4, bytefield.BigEndian)
	nVector := int(word1 >> 16 & 0xFFFF)
	nAsync := int(word1 & 0x7FFF)
	tagsPresent := word1&0x8000 != 0

	off := 8
	readList := func(n int) ([]uint32, error) {
		if len(buf) < off+n*4 {
			return nil, ErrBufferTooShort
		}
		out := make([]uint32, n)
		for i := 0; i < n; i++ {
			out[i] = bytefield.UnpackU32(buf, off, bytefield.BigEndian)
			off += 4
		}
		return out, nil
	}

	source, err := readList(nSource)
	if err != nil {
		return ContextAssociationLists{}, err
	}
	system, err := readList(nSystem)
	if err != nil {
		return ContextAssociationLists{}, err
	}
	vector, err := readList(nVector)
	if err != nil {
		return ContextAssociationLists{}, err
	}
	async, err := readList(nAsync)
	if err != nil {
		return ContextAssociationLists{}, err
	}
	var asyncTags []uint32
	if tagsPresent {
		asyncTags, err = readList(nAsync)
		if err != nil {
			return ContextAssociationLists{}, err
		}
	}
	return ContextAssociationLists{
		Source:                 source,
		System:                 system,
		VectorComponent:        vector,
		AsynchronousChannel:    async,
		AsynchronousChannelTag: asyncTags,
	}, nil
}

// Spectrum is the 56-byte (14-word) spectral-characteristics record (CIF1
// bit 10): a fixed block of descriptor words rather than raw spectral
// samples, which standard data payloads carry instead.
type Spectrum struct {
	SpectrumType                  uint32
	AveragingType                 uint32
	WindowType                    uint32
	NumTransformPoints            int32
	NumWindowPoints               int32
	Resolution                    float64 // Hz, radix 20
	Span                          float64 // Hz, radix 20
	NumAverages                   uint32
	WeightingFactor               int32
	F1Index                       int32
	F2Index                       int32
	WindowTimeDeltaInterpretation uint32
	WindowTimeDelta               uint32
}

const spectrumLen = 56

func parseSpectrum(buf []byte) (Spectrum, error) {
	if len(buf) < spectrumLen {
		return Spectrum{}, ErrBufferTooShort
	}
	u32 := func(off int) uint32 { return bytefield.UnpackU32(buf, off, bytefield.BigEndian) }
	i32 := func(off int) int32 { return int32(u32(off)) }
	return Spectrum{
		SpectrumType:       u32(0),
		AveragingType:      u32(4),
		WindowType:         u32(8),
		NumTransformPoints: i32(12),
		NumWindowPoints:    i32(16),
		Resolution:         bytefield.ToDouble[int64](20, int64(bytefield.UnpackU64(buf, 20, bytefield.BigEndian))),
		Span:               bytefield.ToDouble[int64](20, int64(bytefield.UnpackU64(buf, 28, bytefield.BigEndian))),
		NumAverages:                   u32(36),
		WeightingFactor:               i32(40),
		F1Index:                       i32(44),
		F2Index:                       i32(48),
		WindowTimeDeltaInterpretation: u32(52) >> 24,
		WindowTimeDelta:               u32(52) & 0x00FFFFFF,
	}, nil
}

// IndexFieldList (CIF1 bit 7, INDEX_LIST) names a variable-length array of
// indices into some other enumerated list (e.g. active channels). Its
// first word's low 16 bits are a word count including the header word
// itself (the same convention the CIF engine's variableFieldLength uses).
type IndexFieldList struct {
	EntrySizeBits int // 8, 16, 32 or 64, encoded in header bits 29..28
	Indices       []uint32
}

func parseIndexFieldList(buf []byte) (IndexFieldList, error) {
	if len(buf) < 4 {
		return IndexFieldList{}, ErrBufferTooShort
	}
	header := bytefield.UnpackU32(buf, 0, bytefield.BigEndian)
	words := int(header & 0xFFFF)
	entrySize := 8 << ((header >> 28) & 0x3)
	if len(buf) < words*4 {
		return IndexFieldList{}, ErrBufferTooShort
	}
	var indices []uint32
	off := 4
	for off < words*4 {
		switch entrySize {
		case 8:
			indices = append(indices, uint32(buf[off]))
			off++
		case 16:
			indices = append(indices, uint32(bytefield.UnpackU16(buf, off, bytefield.BigEndian)))
			off += 2
		case 32:
			indices = append(indices, bytefield.UnpackU32(buf, off, bytefield.BigEndian))
			off += 4
		default: // 64
			indices = append(indices, uint32(bytefield.UnpackU64(buf, off, bytefield.BigEndian)))
			off += 8
		}
	}
	return IndexFieldList{EntrySizeBits: entrySize, Indices: indices}, nil
}

// ArrayOfRecords (CIF1 bit 11, CIFS_ARRAY) carries a header describing a
// homogeneous array of identically-shaped sub-CIF payloads (e.g. one
// Spectrum record per antenna element), each of RecordLen bytes.
type ArrayOfRecords struct {
	RecordLen int
	Records   [][]byte
}

func parseArrayOfRecords(buf []byte) (ArrayOfRecords, error) {
	if len(buf) < 8 {
		return ArrayOfRecords{}, ErrBufferTooShort
	}
	header := bytefield.UnpackU32(buf, 0, bytefield.BigEndian)
	totalWords := int(header & 0xFFFF)
	recordLen := int(bytefield.UnpackU32(buf, 4, bytefield.BigEndian))
	if len(buf) < totalWords*4 || recordLen <= 0 {
		return ArrayOfRecords{}, ErrBufferTooShort
	}
	body := buf[8 : totalWords*4]
	var records [][]byte
	for off := 0; off+recordLen <= len(body); off += recordLen {
		records = append(records, body[off:off+recordLen])
	}
	return ArrayOfRecords{RecordLen: recordLen, Records: records}, nil
}
