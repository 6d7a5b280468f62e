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

// buildCommandPacket builds a command packet with a stream ID, a primary
// CIF0 word (no fields set) and, if withAck, a second CIF0 word immediately
// after, matching cifPayload.second's "first block's totalLength() picks the
// second block's start" addressing.
func buildCommandPacket(t *testing.T, withAck bool) []byte {
	t.Helper()
	words := 3 // header + stream ID + primary CIF0
	if withAck {
		words++
	}
	h := Header{Type: Command, ackOrNotV49: withAck, PacketWordCount: uint16(words)}
	buf := make([]byte, words*4)
	_, err := headerMarshalBinaryTo(h, buf)
	require.NoError(t, err)
	return buf
}

func TestCommandPacketHasAcknowledgment(t *testing.T) {
	withAck := buildCommandPacket(t, true)
	c := NewCommandPacket(withAck)
	ok, err := c.HasAcknowledgment()
	require.NoError(t, err)
	assert.True(t, ok)

	noAck := buildCommandPacket(t, false)
	c = NewCommandPacket(noAck)
	ok, err = c.HasAcknowledgment()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommandPacketSetFieldAndAckFieldAreIndependent(t *testing.T) {
	buf := buildCommandPacket(t, true)
	c := NewCommandPacket(buf)

	require.NoError(t, c.SetField(0, 24, true)) // ReferenceLevel
	has, err := c.HasField(0, 24)
	require.NoError(t, err)
	assert.True(t, has)

	ackHas, err := c.HasAckField(0, 24)
	require.NoError(t, err)
	assert.False(t, ackHas, "setting the primary block's field must not set the ack block's")

	require.NoError(t, c.SetAckField(0, 24, true))
	ackHas, err = c.HasAckField(0, 24)
	require.NoError(t, err)
	assert.True(t, ackHas)

	has, err = c.HasField(0, 24)
	require.NoError(t, err)
	assert.True(t, has, "setting the ack block's field must not clear the primary block's")
}

func TestCommandPacketAckFieldWithoutAcknowledgmentErrors(t *testing.T) {
	buf := buildCommandPacket(t, false)
	c := NewCommandPacket(buf)
	_, err := c.HasAckField(0, 24)
	assert.Error(t, err)
}

func TestCommandPacketIsCancel(t *testing.T) {
	buf := buildCommandPacket(t, false)
	h, err := unmarshalHeader(buf)
	require.NoError(t, err)
	h.TSMOrCancel = true
	_, err = headerMarshalBinaryTo(h, buf)
	require.NoError(t, err)

	c := NewCommandPacket(buf)
	cancel, err := c.IsCancel()
	require.NoError(t, err)
	assert.True(t, cancel)
}
