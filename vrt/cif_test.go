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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildContextPacket builds a minimal context packet: header, stream ID and
// an empty CIF0 word (no fields enabled yet).
func buildContextPacket(t *testing.T) *ContextPacket {
	t.Helper()
	h := Header{Type: Context, PacketWordCount: 3}
	buf := make([]byte, 12)
	_, err := headerMarshalBinaryTo(h, buf)
	require.NoError(t, err)
	return NewContextPacket(buf)
}

func TestContextPacketSetFieldGrowsAndShrinks(t *testing.T) {
	c := buildContextPacket(t)

	has, err := c.HasField(0, 24) // ReferenceLevel, 1 word
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, c.SetField(0, 24, true))
	has, err = c.HasField(0, 24)
	require.NoError(t, err)
	assert.True(t, has)

	off, err := c.OffsetOf(0, 24)
	require.NoError(t, err)
	assert.Equal(t, 12, off) // right after the header, stream ID and CIF0 words

	pl, err := c.PayloadLength()
	require.NoError(t, err)
	assert.Equal(t, 8, pl) // CIF0 word + 1 field word

	require.NoError(t, c.SetField(0, 24, false))
	has, err = c.HasField(0, 24)
	require.NoError(t, err)
	assert.False(t, has)

	pl, err = c.PayloadLength()
	require.NoError(t, err)
	assert.Equal(t, 4, pl)
}

func TestContextPacketMultipleFieldsDecreasingBitOrder(t *testing.T) {
	c := buildContextPacket(t)

	// Bandwidth (bit 29, 2 words) and ReferenceLevel (bit 24, 1 word): on
	// the wire, bit 29's field precedes bit 24's (spec.md §4.2 decreasing
	// bit order), so enabling both should put ReferenceLevel after
	// Bandwidth's two words regardless of the order they're set in.
	require.NoError(t, c.SetField(0, 24, true))
	require.NoError(t, c.SetField(0, 29, true))

	bwOff, err := c.OffsetOf(0, 29)
	require.NoError(t, err)
	rlOff, err := c.OffsetOf(0, 24)
	require.NoError(t, err)

	assert.Equal(t, 12, bwOff)
	assert.Equal(t, 12+8, rlOff) // Bandwidth is 2 words (8 bytes)
}

func TestContextPacketEnablingCIF1AddsAWord(t *testing.T) {
	c := buildContextPacket(t)

	require.NoError(t, c.SetField(0, 24, true)) // ReferenceLevel in CIF0

	cif0Off, err := c.OffsetOf(0, 24)
	require.NoError(t, err)

	require.NoError(t, c.SetField(0, 1, true)) // CIF1 enable bit
	require.NoError(t, c.SetField(1, 4, true)) // HealthStatus in CIF1

	newCif0Off, err := c.OffsetOf(0, 24)
	require.NoError(t, err)
	assert.Equal(t, cif0Off+4, newCif0Off, "enabling CIF1 inserts its word before CIF0's fields")

	has, err := c.HasField(1, 4)
	require.NoError(t, err)
	assert.True(t, has)
}
