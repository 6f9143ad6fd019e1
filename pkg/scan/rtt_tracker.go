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
	"sync"
	"time"
)

const (
	rttAlpha = 0.125
	rttBeta  = 0.25

	defaultRTTMinSamples = 3
	defaultRTTMinTimeout = 100 * time.Millisecond
	defaultRTTMaxTimeout = time.Second
)

// RTTTracker derives probe timeouts from observed round trips using the
// RFC 6298 smoothed RTT and variance estimators.
type RTTTracker struct {
	mu         sync.Mutex
	samples    int
	srtt       float64
	rttvar     float64
	minSamples int
	minTimeout time.Duration
	maxTimeout time.Duration
}

// NewRTTTracker returns a tracker that adapts after three samples and clamps
// to [100ms, 1s].
func NewRTTTracker() *RTTTracker {
	return &RTTTracker{
		minSamples: defaultRTTMinSamples,
		minTimeout: defaultRTTMinTimeout,
		maxTimeout: defaultRTTMaxTimeout,
	}
}

// Record adds one sample. Non-positive samples are ignored.
func (t *RTTTracker) Record(rtt time.Duration) {
	if rtt <= 0 {
		return
	}

	ms := float64(rtt) / float64(time.Millisecond)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples++

	if t.samples == 1 {
		t.srtt = ms
		t.rttvar = ms / 2

		return
	}

	diff := t.srtt - ms
	if diff < 0 {
		diff = -diff
	}

	t.rttvar = (1-rttBeta)*t.rttvar + rttBeta*diff
	t.srtt = (1-rttAlpha)*t.srtt + rttAlpha*ms
}

// Timeout returns base until enough samples exist, then srtt + 4*rttvar
// clamped to the tracker bounds.
func (t *RTTTracker) Timeout(base time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.samples < t.minSamples {
		return base
	}

	computed := time.Duration((t.srtt + 4*t.rttvar) * float64(time.Millisecond))

	return min(max(computed, t.minTimeout), t.maxTimeout)
}

// Samples is the number of recorded samples.
func (t *RTTTracker) Samples() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.samples
}
