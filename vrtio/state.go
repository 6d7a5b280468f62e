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
	"fmt"
	"time"

	"github.com/RedhawkSDR/VITA49-sub001/vrt"
)

// Event identifies an error/warning condition surfaced through
// Listener.ErrorWarning.
type Event uint8

// Events the dispatch goroutine can raise.
const (
	EventMissedPackets Event = iota
	EventMissedFrames
	EventNoContextStream
	EventNoDataStream
	EventPartialContext
)

func (e Event) String() string {
	switch e {
	case EventMissedPackets:
		return "missed packets"
	case EventMissedFrames:
		return "missed frames"
	case EventNoContextStream:
		return "no context stream"
	case EventNoDataStream:
		return "no data stream"
	case EventPartialContext:
		return "partial context"
	default:
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
}

// Listener receives callbacks from a Reader's dispatch goroutine. All
// methods are called from the single dispatch goroutine and must not
// block it for long, mirroring how ptp/ptp4u/stats.Stats is injected into
// the send workers rather than called through a type switch at each call
// site.
type Listener interface {
	ReceivedDataPacket(pkt vrt.VRTPacket)
	ReceivedContextPacket(pkt vrt.VRTPacket)
	ErrorWarning(ev Event, err error)
	InitialContext(streamID uint32, context map[uint32]vrt.VRTPacket, err error)
}

// initialContextState is the spec.md §4.6.1 state machine's current
// phase.
type initialContextState uint8

const (
	stateLegacy initialContextState = iota
	stateCollecting
	stateFound
)

// initialContext tracks the data/context-stream discovery state machine
// for one Reader. Owned exclusively by the dispatch goroutine — no
// locking, matching spec.md §5's "counter maps are owned by the consumer
// thread only."
type initialContext struct {
	state           initialContextState
	timeout         time.Duration
	start           time.Time
	started         bool
	primaryStreamID uint32
	havePrimaryData bool
	collected       map[uint32]vrt.VRTPacket
	required        map[uint32]struct{}
	havePrimaryCtx  bool
}

func newInitialContext(timeout time.Duration) *initialContext {
	state := stateCollecting
	if timeout <= 0 {
		state = stateLegacy
	}
	return &initialContext{
		state:     state,
		timeout:   timeout,
		collected: make(map[uint32]vrt.VRTPacket),
		required:  make(map[uint32]struct{}),
	}
}

func (ic *initialContext) touch() {
	if !ic.started {
		ic.started = true
		ic.start = time.Now()
	}
}

// onData processes a data packet during Collecting; it returns true when
// this arrival completes the state machine, at once with an empty context
// set for a packet without a stream id (spec.md §4.6.1), or when the
// primary context and its required streams are already collected.
func (ic *initialContext) onData(streamID uint32, hasStreamID bool) (complete bool) {
	ic.touch()
	if !hasStreamID {
		ic.state = stateFound
		return true
	}
	if !ic.havePrimaryData {
		ic.havePrimaryData = true
		ic.primaryStreamID = streamID
	}
	return ic.checkComplete()
}

// onContext processes a context packet during Collecting. requiredIDs is
// the primary context's source+system association-list stream IDs, only
// meaningful when this packet is the primary.
func (ic *initialContext) onContext(streamID uint32, pkt vrt.VRTPacket, requiredIDs []uint32) (complete bool) {
	ic.touch()
	ic.collected[streamID] = pkt
	if ic.havePrimaryData && streamID == ic.primaryStreamID {
		ic.havePrimaryCtx = true
		for _, id := range requiredIDs {
			ic.required[id] = struct{}{}
		}
	}
	return ic.checkComplete()
}

func (ic *initialContext) checkComplete() bool {
	if !ic.havePrimaryCtx {
		return false
	}
	for id := range ic.required {
		if _, ok := ic.collected[id]; !ok {
			return false
		}
	}
	ic.state = stateFound
	return true
}

// checkTimeout reports whether the Collecting state has exceeded its
// configured timeout and, if so, what completion event/error to report.
func (ic *initialContext) checkTimeout() (fired bool, ev Event, err error) {
	if ic.state != stateCollecting || !ic.started {
		return false, 0, nil
	}
	if time.Since(ic.start) < ic.timeout {
		return false, 0, nil
	}
	ic.state = stateFound
	switch {
	case ic.havePrimaryData && !ic.havePrimaryCtx:
		return true, EventNoContextStream, fmt.Errorf("vrtio: initial context timeout: data stream present, no context stream observed")
	case !ic.havePrimaryData && ic.havePrimaryCtx:
		return true, EventNoDataStream, fmt.Errorf("vrtio: initial context timeout: context stream present, no data stream observed")
	case ic.havePrimaryData && ic.havePrimaryCtx:
		missing := 0
		for id := range ic.required {
			if _, ok := ic.collected[id]; !ok {
				missing++
			}
		}
		return true, EventPartialContext, fmt.Errorf("vrtio: initial context timeout: %d of %d required context streams missing", missing, len(ic.required))
	default:
		return true, EventNoDataStream, fmt.Errorf("vrtio: initial context timeout: neither data nor context stream observed")
	}
}
