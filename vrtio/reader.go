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
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/RedhawkSDR/VITA49-sub001/dscp"
	"github.com/RedhawkSDR/VITA49-sub001/vrl"
	"github.com/RedhawkSDR/VITA49-sub001/vrt"
)

// inboundPacket is one VRT packet pulled off the socket, queued for the
// dispatch goroutine.
type inboundPacket struct {
	buf      []byte
	hasFrame bool
	frameOK  bool
	frameCnt uint16
}

// Reader runs the two-goroutine multicast receive pipeline of spec.md
// §4.6: a socket goroutine that reads datagrams and unframes VRL if
// present, and a dispatch goroutine that decodes VRT packets, tracks
// discontinuities, drives the initial-context state machine, and invokes
// a Listener. Grounded on ptp/ptp4u/server.Server.Start's "one WaitGroup,
// one goroutine per duty, wg.Wait at the end" shape, with the queue
// itself modeled on sendWorker's bounded channel.
type Reader struct {
	Config   Config
	Listener Listener
	Metrics  *Metrics
	Factory  vrt.PacketFactory

	conn *net.UDPConn
	stop chan struct{}
	wg   sync.WaitGroup

	queue chan inboundPacket

	ic *initialContext

	streamCounters map[streamCounterKey]uint8
	frameCounters  map[uint16]uint16
	haveFrameCnt   bool
}

// streamCounterKey identifies one packet-count counter: spec.md §4.6
// keys the per-stream counter by "the 64-bit concatenation of stream-id
// and class-id" so that two streams sharing a stream-id but carrying
// different class-ids (e.g. one extension-class data stream reusing
// another's stream-id) don't share a counter. A struct key carries the
// full ClassID (OUI+ICC+PCC) rather than truncating it to fit 32 bits.
type streamCounterKey struct {
	streamID uint32
	classID  vrt.ClassID
}

// NewReader builds a Reader from cfg. Call Start to begin receiving.
func NewReader(cfg Config, l Listener) *Reader {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return &Reader{
		Config:         cfg,
		Listener:       l,
		Factory:        vrt.DefaultFactory{},
		stop:           make(chan struct{}),
		queue:          make(chan inboundPacket, cfg.QueueSize),
		ic:             newInitialContext(cfg.InitialContextTimeout),
		streamCounters: make(map[streamCounterKey]uint8),
		frameCounters:  make(map[uint16]uint16),
	}
}

// Start joins the configured multicast group and runs the socket and
// dispatch goroutines until Stop is called. It blocks until both
// goroutines exit, mirroring Server.Start's wg.Add(1)/wg.Wait idiom.
func (r *Reader) Start() error {
	addr, err := net.ResolveUDPAddr("udp", r.Config.Address)
	if err != nil {
		return fmt.Errorf("vrtio: resolve %q: %w", r.Config.Address, err)
	}

	var iface *net.Interface
	if r.Config.Interface != "" {
		iface, err = net.InterfaceByName(r.Config.Interface)
		if err != nil {
			return fmt.Errorf("vrtio: interface %q: %w", r.Config.Interface, err)
		}
	}

	conn, err := net.ListenMulticastUDP("udp", iface, addr)
	if err != nil {
		return fmt.Errorf("vrtio: listen multicast %s: %w", addr, err)
	}
	r.conn = conn
	setReusePort(conn)
	if r.Config.DSCP != 0 {
		if fd, err := dscp.ConnFd(conn); err != nil {
			log.Warnf("vrtio: ConnFd for DSCP: %v", err)
		} else if err := dscp.Enable(fd, addr.IP, r.Config.DSCP); err != nil {
			log.Warnf("vrtio: enable DSCP %d: %v", r.Config.DSCP, err)
		}
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.socketLoop()
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.dispatchLoop()
	}()

	r.wg.Wait()
	return nil
}

// setReusePort sets SO_REUSEPORT on conn so multiple Readers (e.g. one
// per worker process) can join the same multicast group on the same
// port, grounded on ptp/sptp/client.listenUDP's and
// ptp/ptp4u/server.newTXWorker's identical SO_REUSEPORT calls. Failure is
// logged, not fatal: a single Reader works fine without it.
func setReusePort(conn *net.UDPConn) {
	rc, err := conn.SyscallConn()
	if err != nil {
		log.Warnf("vrtio: SyscallConn: %v", err)
		return
	}
	var sockErr error
	if err := rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	}); err != nil {
		log.Warnf("vrtio: rc.Control: %v", err)
		return
	}
	if sockErr != nil {
		log.Warnf("vrtio: SO_REUSEPORT: %v", sockErr)
	}
}

// Stop halts both goroutines. If wait is true it blocks until they have
// exited.
func (r *Reader) Stop(wait bool) {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	if r.conn != nil {
		r.conn.Close()
	}
	if wait {
		r.wg.Wait()
	}
}

// socketLoop reads datagrams, unframes VRL if the datagram starts with
// the VRL alignment word, and pushes each enclosed VRT packet onto the
// bounded queue through enqueue, whose overflow handling follows
// Config.PurgeOnFull.
func (r *Reader) socketLoop() {
	buf := make([]byte, 65536)
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		r.conn.SetReadDeadline(time.Now().Add(r.Config.ReadTimeout))
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-r.stop:
				return
			default:
				log.Warnf("vrtio: read error: %v", err)
				continue
			}
		}
		if n == 0 {
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		frame, err := vrl.NewFrame(datagram)
		if err != nil {
			r.enqueue(inboundPacket{buf: datagram})
			continue
		}
		if r.Metrics != nil {
			r.Metrics.FramesReceived.Inc()
		}
		pkts, err := frame.Packets()
		if err != nil {
			log.Warnf("vrtio: bad VRL frame: %v", err)
			continue
		}
		for _, p := range pkts {
			r.enqueue(inboundPacket{
				buf:      p,
				hasFrame: true,
				frameCnt: frame.FrameCount(),
				frameOK:  frame.IsCRCValid(),
			})
		}
	}
}

// enqueue pushes pkt onto the bounded queue. When the queue is full and
// Config.PurgeOnFull is set, it first drops the oldest 25% of the queue's
// capacity (spec.md §4.6's purge-on-full policy); with PurgeOnFull unset it
// blocks the socket goroutine until there is room.
func (r *Reader) enqueue(pkt inboundPacket) {
	select {
	case r.queue <- pkt:
	default:
		if !r.Config.PurgeOnFull {
			r.queue <- pkt
			return
		}
		purge := cap(r.queue) / 4
		for i := 0; i < purge; i++ {
			select {
			case <-r.queue:
				if r.Metrics != nil {
					r.Metrics.QueueDropped.Inc()
				}
			default:
			}
		}
		r.queue <- pkt
	}
	if r.Metrics != nil {
		r.Metrics.QueueDepth.Set(float64(len(r.queue)))
	}
}

// dispatchLoop decodes queued packets, tracks per-stream and
// per-transmitter discontinuities, drives the initial-context state
// machine, and invokes the Listener. It is the sole owner of all counter
// state, so none of it needs locking.
func (r *Reader) dispatchLoop() {
	ticker := time.NewTicker(r.Config.ReadTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case pkt, ok := <-r.queue:
			if !ok {
				return
			}
			r.dispatchOne(pkt)
		case <-ticker.C:
			r.checkTimeout()
		}
	}
}

func (r *Reader) dispatchOne(in inboundPacket) {
	if in.hasFrame {
		if !in.frameOK {
			if r.Metrics != nil {
				r.Metrics.MissedFrames.Inc()
			}
		}
		r.checkFrameCounter(in.frameCnt)
	}

	p, err := r.Factory.NewPacket(in.buf)
	if err != nil {
		r.report(EventMissedPackets, fmt.Errorf("vrtio: decode packet: %w", err))
		return
	}
	if r.Metrics != nil {
		r.Metrics.PacketsReceived.Inc()
	}

	h, err := p.Header()
	if err != nil {
		r.report(EventMissedPackets, err)
		return
	}

	streamID, hasStreamID, _ := p.StreamID()
	if hasStreamID {
		classID, _, _ := p.ClassID()
		r.checkPacketCounter(streamID, classID, h.PacketCount)
	}

	switch h.Type {
	case vrt.Context, vrt.ExtContext:
		var reqIDs []uint32
		if cp, ok := p.(*vrt.ContextPacket); ok {
			if cal, present, err := cp.ContextAssociationLists(); err == nil && present {
				reqIDs = append(append([]uint32{}, cal.Source...), cal.System...)
			}
		}
		if r.ic.state == stateCollecting {
			complete := r.ic.onContext(streamID, p, reqIDs)
			if complete && r.Listener != nil {
				r.Listener.InitialContext(r.ic.primaryStreamID, r.ic.collected, nil)
			}
		}
		if r.Listener != nil {
			r.Listener.ReceivedContextPacket(p)
		}
	default:
		if r.ic.state == stateCollecting {
			complete := r.ic.onData(streamID, hasStreamID)
			if complete && r.Listener != nil {
				r.Listener.InitialContext(r.ic.primaryStreamID, r.ic.collected, nil)
			}
		}
		if r.Listener != nil {
			r.Listener.ReceivedDataPacket(p)
		}
	}
}

func (r *Reader) checkTimeout() {
	if fired, ev, err := r.ic.checkTimeout(); fired {
		if r.Listener != nil {
			r.Listener.InitialContext(r.ic.primaryStreamID, r.ic.collected, err)
		}
		r.report(ev, err)
	}
}

// checkPacketCounter detects a gap in a stream's 4-bit wrapping packet
// count, keyed by stream-id and class-id together per spec.md §4.6.
func (r *Reader) checkPacketCounter(streamID uint32, classID vrt.ClassID, count uint8) {
	key := streamCounterKey{streamID: streamID, classID: classID}
	prev, seen := r.streamCounters[key]
	r.streamCounters[key] = count
	if !seen {
		return
	}
	if (prev+1)&0xF != count&0xF {
		if r.Metrics != nil {
			r.Metrics.MissedPackets.Inc()
		}
		r.report(EventMissedPackets, fmt.Errorf("vrtio: stream %#x class %+v packet count gap: %d -> %d", streamID, classID, prev, count))
	}
}

// checkFrameCounter detects a gap in a VRL frame's 12-bit wrapping frame
// count, per spec.md §6.2's per-transmitter discontinuity rule. All
// frames on one Reader's multicast group are assumed to be from the same
// transmitter.
func (r *Reader) checkFrameCounter(count uint16) {
	const transmitter = 0
	prev, seen := r.frameCounters[transmitter]
	r.frameCounters[transmitter] = count
	if !seen {
		return
	}
	if (prev+1)&0xFFF != count&0xFFF {
		if r.Metrics != nil {
			r.Metrics.MissedFrames.Inc()
		}
		r.report(EventMissedFrames, fmt.Errorf("vrtio: frame count gap: %d -> %d", prev, count))
	}
}

func (r *Reader) report(ev Event, err error) {
	if r.Listener != nil {
		r.Listener.ErrorWarning(ev, err)
	}
}
