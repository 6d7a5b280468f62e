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
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialContextLegacyModeNeverCollects(t *testing.T) {
	ic := newInitialContext(0)
	assert.Equal(t, stateLegacy, ic.state)
}

func TestInitialContextNoStreamIDCompletesImmediately(t *testing.T) {
	ic := newInitialContext(time.Second)
	complete := ic.onData(0, false)
	assert.True(t, complete)
	assert.Equal(t, stateFound, ic.state)
}

func TestInitialContextCompletesWhenPrimaryAndRequiredArePresent(t *testing.T) {
	ic := newInitialContext(time.Second)

	assert.False(t, ic.onData(100, true))
	assert.False(t, ic.onContext(100, nil, []uint32{200, 300}))
	assert.False(t, ic.onContext(200, nil, nil))
	assert.True(t, ic.onContext(300, nil, nil))
	assert.Equal(t, stateFound, ic.state)
}

func TestInitialContextIgnoresNonPrimaryContextRequirements(t *testing.T) {
	ic := newInitialContext(time.Second)

	assert.False(t, ic.onData(100, true))
	// a context packet on a different stream arrives first: its
	// association-list requirements must not be adopted, since only the
	// primary stream's context sets the required set.
	assert.False(t, ic.onContext(999, nil, []uint32{1, 2, 3}))
	assert.Empty(t, ic.required)

	// the real primary context then arrives with no requirements of its
	// own, completing the machine immediately.
	assert.True(t, ic.onContext(100, nil, nil))
	assert.Equal(t, stateFound, ic.state)
}

func TestInitialContextTimeoutReportsNoContextStream(t *testing.T) {
	ic := newInitialContext(time.Millisecond)
	ic.onData(1, true)
	time.Sleep(5 * time.Millisecond)

	fired, ev, err := ic.checkTimeout()
	assert.True(t, fired)
	assert.Equal(t, EventNoContextStream, ev)
	assert.Error(t, err)
	assert.Equal(t, stateFound, ic.state)
}

func TestInitialContextTimeoutReportsNoDataStream(t *testing.T) {
	ic := newInitialContext(time.Millisecond)
	ic.havePrimaryCtx = true
	ic.required[1] = struct{}{}
	ic.touch()
	time.Sleep(5 * time.Millisecond)

	fired, ev, err := ic.checkTimeout()
	assert.True(t, fired)
	assert.Equal(t, EventNoDataStream, ev)
	assert.Error(t, err)
}

func TestInitialContextTimeoutReportsPartialContext(t *testing.T) {
	ic := newInitialContext(time.Millisecond)
	ic.onData(1, true)
	ic.onContext(1, nil, []uint32{2, 3})
	time.Sleep(5 * time.Millisecond)

	fired, ev, err := ic.checkTimeout()
	assert.True(t, fired)
	assert.Equal(t, EventPartialContext, ev)
	assert.Error(t, err)
}

func TestInitialContextNoTimeoutBeforeDeadline(t *testing.T) {
	ic := newInitialContext(time.Hour)
	ic.onData(1, true)

	fired, _, err := ic.checkTimeout()
	assert.False(t, fired)
	assert.NoError(t, err)
	assert.Equal(t, stateCollecting, ic.state)
}
