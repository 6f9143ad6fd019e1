/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"golang.org/x/net/icmp"
)

const (
	defaultTTL       = 64
	icmpReadSlice    = 200 * time.Millisecond
	icmpReadBufBytes = 1500
)

// ICMPOptions configures OpenICMPSocket.
type ICMPOptions struct {
	PayloadSize int
	// Privileged uses a raw socket. It needs CAP_NET_RAW or root but is the
	// only way to see time-exceeded replies on Linux.
	Privileged bool
}

type pendingProbe struct {
	target net.IP
	sent   time.Time
	ch     chan ICMPResponse
	res    Resolution
}

// ICMPSocket sends echo requests over one ICMP socket and matches replies to
// callers by sequence number. Any number of probes may be outstanding. A
// single reader goroutine, locked to its OS thread, owns all receives.
type ICMPSocket struct {
	conn        *icmp.PacketConn
	privileged  bool
	id          uint16
	payloadSize int
	logger      logger.Logger

	writeMu sync.Mutex // sequence assignment, TTL and send
	seq     uint16
	ttl     int

	pendingMu sync.Mutex
	pending   map[uint16]*pendingProbe

	closed     chan struct{}
	readerDone chan struct{}
	closeOnce  sync.Once
}

// OpenICMPSocket opens an unprivileged datagram ICMP socket unless
// opts.Privileged is set.
func OpenICMPSocket(opts ICMPOptions, log logger.Logger) (*ICMPSocket, error) {
	if opts.PayloadSize <= 0 {
		opts.PayloadSize = DefaultICMPPayloadSize
	}

	network := "udp4"
	if opts.Privileged {
		network = "ip4:icmp"
	}

	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("open %s socket: %w", network, err)
	}

	s := &ICMPSocket{
		conn:        conn,
		privileged:  opts.Privileged,
		id:          uint16(os.Getpid() & 0xffff), // #nosec G115 - masked
		payloadSize: opts.PayloadSize,
		logger:      log,
		pending:     make(map[uint16]*pendingProbe),
		closed:      make(chan struct{}),
		readerDone:  make(chan struct{}),
	}

	go s.readLoop()

	return s, nil
}

// Ping sends one echo request and waits up to timeout for the reply.
func (s *ICMPSocket) Ping(ctx context.Context, target string, timeout time.Duration) (ICMPResponse, error) {
	return s.Probe(ctx, target, 0, timeout)
}

// Probe sends one echo request with the given TTL (0 keeps the default) and
// waits up to timeout. A missing reply is reported as a Timeout response, not
// an error. Errors are only returned for invalid input, a closed socket or a
// cancelled context.
func (s *ICMPSocket) Probe(ctx context.Context, target string, ttl int, timeout time.Duration) (ICMPResponse, error) {
	ip, ok := ParseIPv4(target)
	if !ok {
		return ICMPResponse{}, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}

	if ttl < 0 || ttl > 255 {
		return ICMPResponse{}, ErrInvalidTTL
	}

	p, seq, err := s.send(ip, ttl)
	if errors.Is(err, ErrICMPSocketClosed) {
		return ICMPResponse{}, err
	}

	if err != nil {
		return ICMPResponse{Kind: ResponseError, SourceIP: target, Err: err}, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-p.ch:
		return resp, nil
	case <-timer.C:
		s.forget(seq)

		// a reply dispatched while the timer fired still counts
		if !p.res.TryResolve() {
			return <-p.ch, nil
		}

		return ICMPResponse{Kind: Timeout, Sequence: seq, RTT: time.Since(p.sent)}, nil
	case <-ctx.Done():
		s.forget(seq)

		return ICMPResponse{}, ctx.Err()
	case <-s.closed:
		s.forget(seq)

		return ICMPResponse{}, ErrICMPSocketClosed
	}
}

func (s *ICMPSocket) send(ip net.IP, ttl int) (*pendingProbe, uint16, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.closed:
		return nil, 0, ErrICMPSocketClosed
	default:
	}

	s.seq++
	seq := s.seq

	pkt, err := BuildEchoRequest(seq, s.payloadSize, s.id)
	if err != nil {
		return nil, seq, err
	}

	if want := ttlOrDefault(ttl); want != s.ttl {
		if err := s.conn.IPv4PacketConn().SetTTL(want); err != nil {
			return nil, seq, fmt.Errorf("set ttl %d: %w", want, err)
		}

		s.ttl = want
	}

	p := &pendingProbe{target: ip, ch: make(chan ICMPResponse, 1), sent: time.Now()}

	s.pendingMu.Lock()
	s.pending[seq] = p
	s.pendingMu.Unlock()

	var dst net.Addr = &net.UDPAddr{IP: ip}
	if s.privileged {
		dst = &net.IPAddr{IP: ip}
	}

	if _, err := s.conn.WriteTo(pkt, dst); err != nil {
		s.forget(seq)

		return nil, seq, fmt.Errorf("send echo to %s: %w", ip, err)
	}

	return p, seq, nil
}

func ttlOrDefault(ttl int) int {
	if ttl == 0 {
		return defaultTTL
	}

	return ttl
}

func (s *ICMPSocket) forget(seq uint16) {
	s.pendingMu.Lock()
	delete(s.pending, seq)
	s.pendingMu.Unlock()
}

func (s *ICMPSocket) readLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.readerDone)

	buf := make([]byte, icmpReadBufBytes)

	for {
		select {
		case <-s.closed:
			return
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(icmpReadSlice))

		n, src, err := s.conn.ReadFrom(buf)
		received := time.Now()

		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}

			select {
			case <-s.closed:
				return
			default:
			}

			s.logger.Debug().Err(err).Msg("ICMP read failed")

			continue
		}

		s.dispatch(ParseResponse(buf[:n], src, 0), received)
	}
}

func (s *ICMPSocket) dispatch(resp ICMPResponse, received time.Time) {
	if resp.Kind != EchoReply && resp.Kind != TimeExceeded {
		return
	}

	// a raw socket sees every ICMP message on the host, including replies to
	// other processes' probes
	if s.privileged && resp.ID != s.id {
		return
	}

	s.pendingMu.Lock()
	p, ok := s.pending[resp.Sequence]

	// an echo reply must come from the probed host; time-exceeded comes from a router
	if ok && resp.Kind == EchoReply && p.target.String() != resp.SourceIP {
		ok = false
	}

	if ok {
		delete(s.pending, resp.Sequence)
	}
	s.pendingMu.Unlock()

	if !ok || !p.res.TryResolve() {
		return
	}

	resp.RTT = received.Sub(p.sent)
	p.ch <- resp
}

// Close stops the reader and closes the socket. Outstanding probes return
// ErrICMPSocketClosed.
func (s *ICMPSocket) Close() error {
	var err error

	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
		<-s.readerDone
	})

	return err
}
