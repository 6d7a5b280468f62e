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

package dscp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableDSCPIPv4AndIPv6(t *testing.T) {
	conn4, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer conn4.Close()
	fd4, err := ConnFd(conn4)
	require.NoError(t, err)
	assert.NoError(t, Enable(fd4, net.ParseIP("127.0.0.1"), 46)) // EF, the VRT multicast priority class

	conn6, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("::"), Port: 0})
	require.NoError(t, err)
	defer conn6.Close()
	fd6, err := ConnFd(conn6)
	require.NoError(t, err)
	assert.NoError(t, Enable(fd6, net.ParseIP("::"), 46))
}

func TestEnableDSCPRejectsOutOfRangeCodepoint(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer conn.Close()
	fd, err := ConnFd(conn)
	require.NoError(t, err)

	assert.Error(t, Enable(fd, net.ParseIP("127.0.0.1"), -1))
	assert.Error(t, Enable(fd, net.ParseIP("127.0.0.1"), 64))
}
