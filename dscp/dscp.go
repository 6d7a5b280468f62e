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

// Package dscp sets the DSCP traffic class on a socket, so a VRT receiver
// or transmitter can mark (or expect) the network-priority treatment its
// multicast traffic is supposed to get.
package dscp

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Enable sets fd's IP_TOS (IPv4) or IPV6_TCLASS (IPv6) option to dscp,
// selecting the IP version from localAddr. dscp is a 6-bit DSCP codepoint;
// it is shifted left 2 bits into the field's low-order ECN bits being
// zero, matching the wire encoding of the DS field.
func Enable(fd int, localAddr net.IP, dscp int) error {
	if dscp < 0 || dscp > 63 {
		return fmt.Errorf("dscp: codepoint %d out of range (0-63)", dscp)
	}
	if localAddr.To4() == nil {
		return unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, dscp<<2)
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, dscp<<2)
}

// ConnFd returns the raw file descriptor behind conn, for passing to
// Enable or other unix.SetsockoptInt-based socket option calls.
func ConnFd(conn *net.UDPConn) (int, error) {
	sc, err := conn.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	err = sc.Control(func(rawFd uintptr) {
		fd = int(rawFd)
	})
	if err != nil {
		return -1, err
	}
	return fd, nil
}
