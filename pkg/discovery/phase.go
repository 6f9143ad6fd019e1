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

package discovery

import (
	"context"
	"sync/atomic"
)

// Phase is one discovery technique. Run merges what it finds into acc and
// reports its own progress in [0,1]. Run never fails: per-host problems are
// absorbed and logged.
type Phase interface {
	ID() string
	DisplayName() string
	Weight() float64
	Run(ctx context.Context, sc *ScanContext, acc *Accumulator, progress func(float64))
}

// Phase identifiers, also used as the logger component name.
const (
	PhaseARP     = "arp"
	PhaseBonjour = "bonjour"
	PhaseTCP     = "tcp"
	PhaseSSDP    = "ssdp"
	PhaseICMP    = "icmp"
	PhaseSNMP    = "snmp"
	PhaseRDNS    = "rdns"
)

// Default phase weights. They need not sum to one; the pipeline normalizes.
const (
	WeightARP     = 0.10
	WeightBonjour = 0.12
	WeightTCP     = 0.50
	WeightSSDP    = 0.06
	WeightICMP    = 0.12
	WeightRDNS    = 0.10
	WeightSNMP    = 0.05
)

type phaseInfo struct {
	id     string
	name   string
	weight float64
}

func (p phaseInfo) ID() string          { return p.id }
func (p phaseInfo) DisplayName() string { return p.name }
func (p phaseInfo) Weight() float64     { return p.weight }

// itemProgress maps completed items onto [base, base+span] of a phase.
type itemProgress struct {
	done   atomic.Int64
	total  int
	base   float64
	span   float64
	report func(float64)
}

func newItemProgress(total int, base, span float64, report func(float64)) *itemProgress {
	return &itemProgress{total: total, base: base, span: span, report: report}
}

func (p *itemProgress) step() {
	n := p.done.Add(1)
	if p.total <= 0 {
		return
	}

	p.report(p.base + p.span*float64(n)/float64(p.total))
}
