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

package vrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePacket(words int) []byte {
	p := make([]byte, words*4)
	p[2] = byte(words >> 8)
	p[3] = byte(words)
	return p
}

func TestPackPacketsAndParseRoundTrip(t *testing.T) {
	packets := [][]byte{fakePacket(7), fakePacket(11)}
	buf := make([]byte, 4096)

	n, frameLen, err := PackPackets(buf, 42, packets, len(buf), true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := NewFrame(buf[:frameLen])
	require.NoError(t, err)
	assert.Equal(t, uint16(42), f.FrameCount())
	assert.True(t, f.HasCRC())
	assert.True(t, f.IsCRCValid())
	require.NoError(t, f.ValidateCRC())

	got, err := f.Packets()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, packets[0], got[0])
	assert.Equal(t, packets[1], got[1])
}

func TestIsCRCValidDetectsBitFlip(t *testing.T) {
	packets := [][]byte{fakePacket(5)}
	buf := make([]byte, 256)
	_, frameLen, err := PackPackets(buf, 1, packets, len(buf), true)
	require.NoError(t, err)

	buf[9] ^= 0x01 // flip a bit inside the frame body

	f, err := NewFrame(buf[:frameLen])
	require.NoError(t, err)
	assert.False(t, f.IsCRCValid())
	assert.ErrorIs(t, f.ValidateCRC(), ErrBadCRC)
}

func TestVendTrailerSkipsCRCCheck(t *testing.T) {
	packets := [][]byte{fakePacket(3)}
	buf := make([]byte, 128)
	_, frameLen, err := PackPackets(buf, 0, packets, len(buf), false)
	require.NoError(t, err)

	f, err := NewFrame(buf[:frameLen])
	require.NoError(t, err)
	assert.False(t, f.HasCRC())
	assert.True(t, f.IsCRCValid())
}

func TestNewFrameRejectsBadAlignment(t *testing.T) {
	buf := make([]byte, 16)
	_, err := NewFrame(buf)
	assert.ErrorIs(t, err, ErrBadAlignment)
}

func TestPackPacketsStopsAtMaxBytes(t *testing.T) {
	packets := [][]byte{fakePacket(10), fakePacket(10), fakePacket(10)}
	buf := make([]byte, 4096)

	n, frameLen, err := PackPackets(buf, 1, packets, 8+40+4, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 8+40+4, frameLen)
}
