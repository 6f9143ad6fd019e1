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

package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/carverauto/lanscan/pkg/scan"
)

// TTLProber sends an echo request with a given TTL.
type TTLProber interface {
	Probe(ctx context.Context, target string, ttl int, timeout time.Duration) (scan.ICMPResponse, error)
}

// NameLookup resolves hop addresses. Optional.
type NameLookup interface {
	LookupPTR(ctx context.Context, ip string) (string, error)
}

// TraceOptions controls Traceroute. Zero values mean 30 hops and a 2s
// timeout per probe.
type TraceOptions struct {
	MaxHops int
	Timeout time.Duration
	Names   NameLookup
}

// Hop is one row of a traceroute.
type Hop struct {
	TTL      int           `json:"ttl"`
	Address  string        `json:"address,omitempty"`
	Hostname string        `json:"hostname,omitempty"`
	RTT      time.Duration `json:"rtt"`
	Timeout  bool          `json:"timeout"`
	Reached  bool          `json:"reached"`
}

// String renders the hop the way traceroute prints it.
func (h Hop) String() string {
	if h.Timeout {
		return fmt.Sprintf("%2d  *", h.TTL)
	}

	addr := h.Address
	if h.Hostname != "" {
		addr = fmt.Sprintf("%s (%s)", h.Hostname, h.Address)
	}

	return fmt.Sprintf("%2d  %s  %.3f ms", h.TTL, addr, float64(h.RTT)/float64(time.Millisecond))
}

// Traceroute probes target with increasing TTL until it answers or MaxHops
// is reached.
func Traceroute(ctx context.Context, prober TTLProber, target string, opts TraceOptions, onHop func(Hop)) ([]Hop, error) {
	if opts.MaxHops == 0 {
		opts.MaxHops = 30
	}

	if opts.MaxHops < 1 || opts.MaxHops > 255 {
		return nil, ErrInvalidHops
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}

	var hops []Hop

	for ttl := 1; ttl <= opts.MaxHops; ttl++ {
		resp, err := prober.Probe(ctx, target, ttl, opts.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				return hops, ctx.Err()
			}

			return hops, fmt.Errorf("probe ttl %d: %w", ttl, err)
		}

		hop := Hop{TTL: ttl, RTT: resp.RTT}

		switch resp.Kind {
		case scan.EchoReply:
			hop.Address = resp.SourceIP
			hop.Reached = true
		case scan.TimeExceeded:
			hop.Address = resp.SourceIP
		case scan.Timeout, scan.ResponseError:
			hop.Timeout = true
			hop.RTT = 0
		}

		if opts.Names != nil && hop.Address != "" {
			if name, err := opts.Names.LookupPTR(ctx, hop.Address); err == nil && name != hop.Address {
				hop.Hostname = name
			}
		}

		hops = append(hops, hop)

		if onHop != nil {
			onHop(hop)
		}

		if hop.Reached {
			break
		}
	}

	return hops, nil
}
