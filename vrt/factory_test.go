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

// buildHeaderOnlyPacket returns a minimal buffer holding just a header
// word (plus a stream ID word if the type carries one), with
// PacketWordCount set to the buffer's own word length.
func buildHeaderOnlyPacket(t *testing.T, h Header) []byte {
	t.Helper()
	words := 1
	if h.Type.HasStreamID() {
		words++
	}
	if h.ClassIDPresent {
		words += 2
	}
	h.PacketWordCount = uint16(words)
	buf := make([]byte, words*4)
	_, err := headerMarshalBinaryTo(h, buf)
	require.NoError(t, err)
	if h.ClassIDPresent {
		off := 4
		if h.Type.HasStreamID() {
			off += 4
		}
		cid := ClassID{OUI: standardDataOUI, ICC: 0, PCC: 0}
		_, err := classIDMarshalBinaryTo(cid, buf[off:])
		require.NoError(t, err)
	}
	return buf
}

func TestDefaultFactoryDispatchesByType(t *testing.T) {
	ctxBuf := buildHeaderOnlyPacket(t, Header{Type: Context})
	p, err := DefaultFactory{}.NewPacket(ctxBuf)
	require.NoError(t, err)
	_, ok := p.(*ContextPacket)
	assert.True(t, ok)

	cmdBuf := buildHeaderOnlyPacket(t, Header{Type: Command})
	p, err = DefaultFactory{}.NewPacket(cmdBuf)
	require.NoError(t, err)
	_, ok = p.(*CommandPacket)
	assert.True(t, ok)

	extCtxBuf := buildHeaderOnlyPacket(t, Header{Type: ExtContext})
	p, err = DefaultFactory{}.NewPacket(extCtxBuf)
	require.NoError(t, err)
	_, ok = p.(*ExtensionPacket)
	assert.True(t, ok)
}

func TestDefaultFactoryDataPacketClassID(t *testing.T) {
	noClassBuf := buildHeaderOnlyPacket(t, Header{Type: DataStreamID})
	p, err := DefaultFactory{}.NewPacket(noClassBuf)
	require.NoError(t, err)
	_, ok := p.(*DataPacket)
	assert.True(t, ok)

	stdDataBuf := buildHeaderOnlyPacket(t, Header{Type: DataStreamID, ClassIDPresent: true})
	p, err = DefaultFactory{}.NewPacket(stdDataBuf)
	require.NoError(t, err)
	_, ok = p.(*StandardDataPacket)
	assert.True(t, ok)
}

func TestDecodePacketRoundTrip(t *testing.T) {
	buf := buildHeaderOnlyPacket(t, Header{Type: Context})
	p, err := DecodePacket(buf)
	require.NoError(t, err)
	h, err := p.Header()
	require.NoError(t, err)
	assert.Equal(t, Context, h.Type)
}

// stubFactory is a PacketFactory that only handles one packet type, used
// to exercise FactoryChain's fall-through-to-next behavior.
type stubFactory struct {
	handles PacketType
	built   VRTPacket
}

func (s stubFactory) NewPacket(buf []byte) (VRTPacket, error) {
	h, err := unmarshalHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.Type != s.handles {
		return nil, nil
	}
	return s.built, nil
}

func TestFactoryChainFallsThroughToDefault(t *testing.T) {
	ctxBuf := buildHeaderOnlyPacket(t, Header{Type: Context})
	chain := FactoryChain{stubFactory{handles: Command}}
	p, err := chain.NewPacket(ctxBuf)
	require.NoError(t, err)
	_, ok := p.(*ContextPacket)
	assert.True(t, ok)
}

func TestFactoryChainPrefersEarlierFactory(t *testing.T) {
	ctxBuf := buildHeaderOnlyPacket(t, Header{Type: Context})
	sentinel := NewContextPacket(ctxBuf)
	chain := FactoryChain{stubFactory{handles: Context, built: sentinel}}
	p, err := chain.NewPacket(ctxBuf)
	require.NoError(t, err)
	assert.Same(t, sentinel, p)
}
