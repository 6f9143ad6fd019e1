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
	"math"
	"time"

	"github.com/carverauto/lanscan/pkg/scan"
)

// EchoSender sends one echo request.
type EchoSender interface {
	Ping(ctx context.Context, target string, timeout time.Duration) (scan.ICMPResponse, error)
}

// PingOptions controls Ping. Zero values take the defaults (4 probes, 1s
// apart, 2s timeout).
type PingOptions struct {
	Count    int
	Interval time.Duration
	Timeout  time.Duration
}

// PingReply is the outcome of one echo request.
type PingReply struct {
	Seq      int           `json:"seq"`
	Received bool          `json:"received"`
	RTT      time.Duration `json:"rtt"`
}

// PingStats summarizes a ping run.
type PingStats struct {
	Target      string        `json:"target"`
	Transmitted int           `json:"transmitted"`
	Received    int           `json:"received"`
	LossPercent float64       `json:"loss_percent"`
	Min         time.Duration `json:"min"`
	Avg         time.Duration `json:"avg"`
	Max         time.Duration `json:"max"`
	StdDev      time.Duration `json:"stddev"`
}

func (o *PingOptions) withDefaults() PingOptions {
	out := *o

	if out.Count == 0 {
		out.Count = 4
	}

	if out.Interval <= 0 {
		out.Interval = time.Second
	}

	if out.Timeout <= 0 {
		out.Timeout = 2 * time.Second
	}

	return out
}

// Ping sends Count echo requests to target and returns the statistics.
// onReply, when set, sees every reply as it arrives. Cancelling ctx stops
// early and returns statistics for what was sent.
func Ping(ctx context.Context, sender EchoSender, target string, opts PingOptions, onReply func(PingReply)) (*PingStats, error) {
	o := opts.withDefaults()
	if o.Count < 0 {
		return nil, ErrInvalidCount
	}

	var (
		rtts []time.Duration
		sent int
	)

	for seq := 1; seq <= o.Count; seq++ {
		if seq > 1 && !sleep(ctx, o.Interval) {
			break
		}

		resp, err := sender.Ping(ctx, target, o.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}

			return nil, err
		}

		sent++

		reply := PingReply{Seq: seq, Received: resp.Kind == scan.EchoReply}
		if reply.Received {
			reply.RTT = resp.RTT
			rtts = append(rtts, resp.RTT)
		}

		if onReply != nil {
			onReply(reply)
		}
	}

	stats := ComputeStats(target, sent, rtts)

	return &stats, nil
}

// ComputeStats derives loss and min/avg/max/stddev from the round trips of
// the received replies. StdDev is the population standard deviation.
func ComputeStats(target string, transmitted int, rtts []time.Duration) PingStats {
	s := PingStats{Target: target, Transmitted: transmitted, Received: len(rtts)}

	if transmitted > 0 {
		s.LossPercent = 100 * float64(transmitted-len(rtts)) / float64(transmitted)
	}

	if len(rtts) == 0 {
		return s
	}

	s.Min, s.Max = rtts[0], rtts[0]

	var sum float64

	for _, r := range rtts {
		s.Min = min(s.Min, r)
		s.Max = max(s.Max, r)
		sum += float64(r)
	}

	mean := sum / float64(len(rtts))

	var sq float64

	for _, r := range rtts {
		d := float64(r) - mean
		sq += d * d
	}

	s.Avg = time.Duration(mean)
	s.StdDev = time.Duration(math.Sqrt(sq / float64(len(rtts))))

	return s
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
