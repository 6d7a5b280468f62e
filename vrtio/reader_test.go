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

package vrtio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedhawkSDR/VITA49-sub001/vrt"
)

// fakeListener records every callback it receives, for assertions.
type fakeListener struct {
	data     []vrt.VRTPacket
	context  []vrt.VRTPacket
	warnings []Event
	ic       []uint32
}

func (f *fakeListener) ReceivedDataPacket(pkt vrt.VRTPacket)    { f.data = append(f.data, pkt) }
func (f *fakeListener) ReceivedContextPacket(pkt vrt.VRTPacket) { f.context = append(f.context, pkt) }
func (f *fakeListener) ErrorWarning(ev Event, err error)        { f.warnings = append(f.warnings, ev) }
func (f *fakeListener) InitialContext(streamID uint32, context map[uint32]vrt.VRTPacket, err error) {
	f.ic = append(f.ic, streamID)
}

// buildDataPacketBytes hand-encodes a minimal data-type VRT packet's
// header+stream-ID word, with PacketCount in the header's 4-bit field,
// using the same bit layout vrt/header.go's unmarshalHeader decodes.
func buildDataPacketBytes(streamID uint32, packetCount uint8) []byte {
	const dataStreamID = 1 // vrt.DataStreamID
	word := uint32(dataStreamID&0xF)<<28 | uint32(packetCount&0xF)<<16 | uint32(2)
	buf := make([]byte, 8)
	buf[0] = byte(word >> 24)
	buf[1] = byte(word >> 16)
	buf[2] = byte(word >> 8)
	buf[3] = byte(word)
	buf[4] = byte(streamID >> 24)
	buf[5] = byte(streamID >> 16)
	buf[6] = byte(streamID >> 8)
	buf[7] = byte(streamID)
	return buf
}

func newTestReader(l Listener) *Reader {
	r := NewReader(Config{Address: "239.1.1.1:4991", QueueSize: 4, PurgeOnFull: true}, l)
	return r
}

func TestEnqueuePurgesOldestQuarterWhenFull(t *testing.T) {
	l := &fakeListener{}
	r := newTestReader(l)

	for i := 0; i < cap(r.queue); i++ {
		r.enqueue(inboundPacket{buf: buildDataPacketBytes(uint32(i), 0)})
	}
	assert.Equal(t, cap(r.queue), len(r.queue))

	r.enqueue(inboundPacket{buf: buildDataPacketBytes(99, 0)})
	assert.LessOrEqual(t, len(r.queue), cap(r.queue))
	assert.True(t, len(r.queue) > 0)
}

func TestDispatchOneDeliversDataPacket(t *testing.T) {
	l := &fakeListener{}
	r := newTestReader(l)

	r.dispatchOne(inboundPacket{buf: buildDataPacketBytes(0x42, 0)})
	require.Len(t, l.data, 1)
	assert.Empty(t, l.warnings)
}

func TestDispatchOneDetectsPacketCountGap(t *testing.T) {
	l := &fakeListener{}
	r := newTestReader(l)

	r.dispatchOne(inboundPacket{buf: buildDataPacketBytes(0x42, 0)})
	r.dispatchOne(inboundPacket{buf: buildDataPacketBytes(0x42, 5)}) // gap: expected 1

	require.Contains(t, l.warnings, EventMissedPackets)
}

func TestDispatchOneNoGapOnConsecutiveCounts(t *testing.T) {
	l := &fakeListener{}
	r := newTestReader(l)

	for i := uint8(0); i < 5; i++ {
		r.dispatchOne(inboundPacket{buf: buildDataPacketBytes(0x42, i)})
	}
	assert.NotContains(t, l.warnings, EventMissedPackets)
}

func TestDispatchOneDetectsFrameCountGap(t *testing.T) {
	l := &fakeListener{}
	r := newTestReader(l)

	r.dispatchOne(inboundPacket{buf: buildDataPacketBytes(0x1, 0), hasFrame: true, frameOK: true, frameCnt: 10})
	r.dispatchOne(inboundPacket{buf: buildDataPacketBytes(0x1, 1), hasFrame: true, frameOK: true, frameCnt: 12})

	assert.Contains(t, l.warnings, EventMissedFrames)
}

func TestDispatchOneNoStreamIDCompletesInitialContextImmediately(t *testing.T) {
	l := &fakeListener{}
	r := newTestReader(l)
	r.ic = newInitialContext(0) // Legacy by default in newTestReader's config; force Collecting
	r.ic.state = stateCollecting

	noStreamIDWord := uint32(0) << 28 // DataNoStreamID, PacketCount 0, wordcount 1
	buf := []byte{
		byte(noStreamIDWord >> 24), byte(noStreamIDWord >> 16),
		byte(noStreamIDWord >> 8), byte(noStreamIDWord | 1),
	}
	r.dispatchOne(inboundPacket{buf: buf})

	require.Len(t, l.ic, 1)
	assert.Equal(t, stateFound, r.ic.state)
}
