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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeolocationRoundTrip(t *testing.T) {
	g := Geolocation{
		geoTimestampPrologue: geoTimestampPrologue{
			ManufacturerOUI: 0x001234,
			TSI:             TSIUTC,
			TSF:             TSFRealTime,
			Integer:         1700000000,
			Fractional:      123456789000,
		},
		Latitude:          37.5,
		Longitude:         -122.25,
		Altitude:          150.0,
		SpeedOverGround:   12.5,
		HeadingAngle:      90.0,
		TrackAngle:        88.5,
		MagneticVariation: -1.5,
	}

	buf := make([]byte, 44)
	n, err := g.MarshalBinaryTo(buf)
	require.NoError(t, err)
	assert.Equal(t, 44, n)

	got, err := parseGeolocation(buf)
	require.NoError(t, err)
	assert.Equal(t, g.ManufacturerOUI, got.ManufacturerOUI)
	assert.Equal(t, g.TSI, got.TSI)
	assert.Equal(t, g.TSF, got.TSF)
	assert.InDelta(t, g.Latitude, got.Latitude, 1e-5)
	assert.InDelta(t, g.Longitude, got.Longitude, 1e-5)
	assert.InDelta(t, g.Altitude, got.Altitude, 1e-4)
	assert.InDelta(t, g.SpeedOverGround, got.SpeedOverGround, 1e-5)
	assert.InDelta(t, g.HeadingAngle, got.HeadingAngle, 1e-5)
	assert.InDelta(t, g.TrackAngle, got.TrackAngle, 1e-5)
	assert.InDelta(t, g.MagneticVariation, got.MagneticVariation, 1e-5)
}

func TestGeolocationNullField(t *testing.T) {
	buf := make([]byte, 44)
	for i := range buf {
		buf[i] = 0xFF
	}
	// null sentinel is 0x7FFFFFFF, not all-ones; write it explicitly for Latitude.
	buf[16] = 0x7F
	buf[17] = 0xFF
	buf[18] = 0xFF
	buf[19] = 0xFF

	got, err := parseGeolocation(buf)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Latitude))
}

func TestECEFEphemerisRoundTrip(t *testing.T) {
	e := ECEFEphemeris{
		geoTimestampPrologue: geoTimestampPrologue{TSI: TSIGPS, TSF: TSFRealTime, Integer: 42, Fractional: 7},
		PositionX:            1000.5,
		PositionY:             -2000.25,
		PositionZ:            3000.125,
		AttitudeAlpha:        1.5,
		AttitudeBeta:         -1.5,
		AttitudePhi:          0.25,
		VelocityX:            10.5,
		VelocityY:            -10.5,
		VelocityZ:            0.0,
	}
	buf := make([]byte, 52)
	n, err := e.MarshalBinaryTo(buf)
	require.NoError(t, err)
	assert.Equal(t, 52, n)

	got, err := parseECEFEphemeris(buf)
	require.NoError(t, err)
	assert.InDelta(t, e.PositionX, got.PositionX, 1e-3)
	assert.InDelta(t, e.PositionY, got.PositionY, 1e-3)
	assert.InDelta(t, e.PositionZ, got.PositionZ, 1e-3)
	assert.InDelta(t, e.VelocityX, got.VelocityX, 1e-3)
}

func TestGeoSentencesRoundTrip(t *testing.T) {
	g := GeoSentences{ManufacturerOUI: 0x00ABCD, Sentences: "$GPGGA,hello*00"}
	buf := make([]byte, 8+((len(g.Sentences)+3)/4)*4)
	n, err := g.MarshalBinaryTo(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	got, err := parseGeoSentences(buf)
	require.NoError(t, err)
	assert.Equal(t, g.ManufacturerOUI, got.ManufacturerOUI)
	assert.Equal(t, g.Sentences, got.Sentences)
}

func TestContextAssociationListsRoundTripParsing(t *testing.T) {
	buf := make([]byte, 8+4*3)
	// word0: nSource=2 (bits 16-31), nSystem=1 (bits 0-15)
	buf[0], buf[1] = 0, 2
	buf[2], buf[3] = 0, 1
	// word1: nVector=0, nAsync=0, tagsPresent=0
	buf[4], buf[5], buf[6], buf[7] = 0, 0, 0, 0
	// source list: two uint32
	putU32(buf, 8, 0x10)
	putU32(buf, 12, 0x20)
	// system list: one uint32
	putU32(buf, 16, 0x30)

	got, err := parseContextAssociationLists(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x10, 0x20}, got.Source)
	assert.Equal(t, []uint32{0x30}, got.System)
}

func putU32(buf []byte, off int, v uint32) {
	buf[off] = byte(v >> 24)
	buf[off+1] = byte(v >> 16)
	buf[off+2] = byte(v >> 8)
	buf[off+3] = byte(v)
}

func TestIndexFieldListEntrySizes(t *testing.T) {
	cases := []struct {
		name       string
		sizeSel    uint32
		entrySize  int
		entryBytes int
		n          int // chosen so 4+n*entryBytes is a whole number of words
	}{
		{"8bit", 0, 8, 1, 4},
		{"16bit", 1, 16, 2, 2},
		{"32bit", 2, 32, 4, 2},
		{"64bit", 3, 64, 8, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totalBytes := 4 + tc.n*tc.entryBytes
			words := totalBytes / 4
			header := tc.sizeSel<<28 | uint32(words)
			buf := make([]byte, totalBytes)
			putU32(buf, 0, header)
			for i := 0; i < tc.n; i++ {
				off := 4 + i*tc.entryBytes
				switch tc.entryBytes {
				case 1:
					buf[off] = byte(i + 1)
				case 2:
					buf[off+1] = byte(i + 1)
				case 4:
					putU32(buf, off, uint32(i+1))
				case 8:
					putU32(buf, off+4, uint32(i+1))
				}
			}
			got, err := parseIndexFieldList(buf)
			require.NoError(t, err)
			assert.Equal(t, tc.entrySize, got.EntrySizeBits)
			require.Len(t, got.Indices, tc.n)
			assert.Equal(t, uint32(1), got.Indices[0])
			assert.Equal(t, uint32(2), got.Indices[1])
		})
	}
}

func TestArrayOfRecordsParsing(t *testing.T) {
	recLen := 4
	nRecords := 3
	totalWords := 2 + nRecords*recLen/4
	buf := make([]byte, totalWords*4)
	putU32(buf, 0, uint32(totalWords))
	putU32(buf, 4, uint32(recLen))
	for i := 0; i < nRecords; i++ {
		off := 8 + i*recLen
		putU32(buf, off, uint32(i))
	}

	got, err := parseArrayOfRecords(buf)
	require.NoError(t, err)
	assert.Equal(t, recLen, got.RecordLen)
	require.Len(t, got.Records, nRecords)
	for i, rec := range got.Records {
		require.Len(t, rec, recLen)
		assert.Equal(t, uint32(i), bytesToU32(rec))
	}
}

func bytesToU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
