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
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
)

// PortOutcome is the result of a single connect attempt.
type PortOutcome int

const (
	PortOpen PortOutcome = iota
	PortRefused
	PortTimeout
	PortFailed
)

// Reachable reports whether the outcome proves the host is up. A refusal
// means something answered with RST.
func (o PortOutcome) Reachable() bool {
	return o == PortOpen || o == PortRefused
}

// PortResult is one connect attempt.
type PortResult struct {
	Port    int
	Outcome PortOutcome
	RTT     time.Duration
}

// HostResult summarizes probing of one host.
type HostResult struct {
	Host      string
	Reachable bool
	Port      int
	RTT       time.Duration
	TimedOut  bool
}

// ProbeStage is a group of ports tried together with a base timeout. Later
// stages run only when every earlier stage failed.
type ProbeStage struct {
	Ports       []int
	BaseTimeout time.Duration
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCPSweeper probes hosts with TCP connects. Every connect holds a slot of
// the shared connection budget.
type TCPSweeper struct {
	budget          *ConnectionBudget
	tracker         *RTTTracker
	portConcurrency int
	dial            dialFunc
	logger          logger.Logger
}

// NewTCPSweeper builds a sweeper. A nil tracker disables adaptive timeouts.
func NewTCPSweeper(budget *ConnectionBudget, tracker *RTTTracker, portConcurrency int, log logger.Logger) *TCPSweeper {
	if portConcurrency <= 0 {
		portConcurrency = 3
	}

	var d net.Dialer

	return &TCPSweeper{
		budget:          budget,
		tracker:         tracker,
		portConcurrency: portConcurrency,
		dial:            d.DialContext,
		logger:          log,
	}
}

// Sweep probes hosts with a pool of concurrency workers and streams one
// HostResult per host. The channel closes once all hosts are done or ctx ends.
func (s *TCPSweeper) Sweep(ctx context.Context, hosts []string, stages []ProbeStage, concurrency int) <-chan HostResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	resultCh := make(chan HostResult, len(hosts))
	workCh := make(chan string, concurrency*2)

	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for host := range workCh {
				result := s.ProbeHost(ctx, host, stages)

				select {
				case <-ctx.Done():
					return
				case resultCh <- result:
				}
			}
		}()
	}

	go func() {
		defer close(workCh)

		for _, h := range hosts {
			select {
			case <-ctx.Done():
				return
			case workCh <- h:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)

		ev := s.logger.Debug().Int("hosts", len(hosts))
		if s.budget != nil {
			ev = ev.Int("budget_limit", s.budget.Limit()).Int("budget_active", s.budget.Active())
		}

		if s.tracker != nil {
			ev = ev.Int("rtt_samples", s.tracker.Samples()).Dur("adaptive_timeout", s.tracker.Timeout(0))
		}

		ev.Msg("TCP sweep drained")
	}()

	return resultCh
}

// ProbeHost runs the stages in order and stops at the first reachable one.
func (s *TCPSweeper) ProbeHost(ctx context.Context, host string, stages []ProbeStage) HostResult {
	result := HostResult{Host: host}

	for _, stage := range stages {
		if ctx.Err() != nil {
			break
		}

		r := s.ProbeGroup(ctx, host, stage.Ports, s.timeout(stage.BaseTimeout))
		result.TimedOut = result.TimedOut || r.TimedOut

		if r.Reachable {
			r.TimedOut = result.TimedOut
			return r
		}
	}

	return result
}

// ProbeGroup connects to ports with at most portConcurrency attempts in
// flight. The first open or refused port wins and cancels the others.
func (s *TCPSweeper) ProbeGroup(ctx context.Context, host string, ports []int, timeout time.Duration) HostResult {
	result := HostResult{Host: host}
	if len(ports) == 0 {
		return result
	}

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan PortResult, len(ports))
	sem := make(chan struct{}, s.portConcurrency)

	go func() {
		for _, port := range ports {
			select {
			case <-groupCtx.Done():
				return
			case sem <- struct{}{}:
			}

			go func(port int) {
				defer func() { <-sem }()

				outcomes <- s.ProbePort(groupCtx, host, port, timeout)
			}(port)
		}
	}()

	for range ports {
		var r PortResult

		select {
		case <-groupCtx.Done():
			return result
		case r = <-outcomes:
		}

		switch r.Outcome {
		case PortOpen, PortRefused:
			if s.tracker != nil {
				s.tracker.Record(r.RTT)
			}

			result.Reachable = true
			result.Port = r.Port
			result.RTT = r.RTT

			return result
		case PortTimeout:
			result.TimedOut = true
		case PortFailed:
		}
	}

	return result
}

// ProbePort performs a single connect with its own timeout.
func (s *TCPSweeper) ProbePort(ctx context.Context, host string, port int, timeout time.Duration) PortResult {
	result := PortResult{Port: port, Outcome: PortFailed}

	if err := s.budget.Acquire(ctx); err != nil {
		return result
	}
	defer s.budget.Release()

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	conn, err := s.dial(probeCtx, "tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
	result.RTT = time.Since(start)

	switch {
	case err == nil:
		result.Outcome = PortOpen

		if cerr := conn.Close(); cerr != nil {
			s.logger.Debug().Err(cerr).Str("host", host).Int("port", port).Msg("failed to close connection")
		}
	case errors.Is(err, syscall.ECONNREFUSED):
		result.Outcome = PortRefused
	case errors.Is(probeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.Outcome = PortTimeout
	}

	return result
}

// Latency measures one connect to port, counting a refusal as a valid
// sample. ok is false when the host did not answer in time.
func (s *TCPSweeper) Latency(ctx context.Context, host string, port int, base time.Duration) (time.Duration, bool) {
	r := s.ProbePort(ctx, host, port, s.timeout(base))
	if !r.Outcome.Reachable() {
		return 0, false
	}

	if s.tracker != nil {
		s.tracker.Record(r.RTT)
	}

	return r.RTT, true
}

func (s *TCPSweeper) timeout(base time.Duration) time.Duration {
	if s.tracker == nil {
		return base
	}

	return s.tracker.Timeout(base)
}
