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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Duration
		wantErr  bool
	}{
		{name: "string duration", input: `"700ms"`, expected: Duration(700 * time.Millisecond)},
		{name: "numeric nanoseconds", input: `2000000000`, expected: Duration(2 * time.Second)},
		{name: "invalid string", input: `"soon"`, wantErr: true},
		{name: "invalid type", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.JSONEq(t, `"1.5s"`, string(b))
}

func TestDefaultScanConfigIsValid(t *testing.T) {
	cfg := DefaultScanConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.ConnectionLimit)
	assert.Equal(t, []int{80, 443, 22, 445}, cfg.TCP.PrimaryPorts)
	assert.Equal(t, 700*time.Millisecond, cfg.TCP.PrimaryTimeout.Std())
	assert.False(t, cfg.SNMP.Enabled)
}

func TestScanConfigOverlay(t *testing.T) {
	cfg := DefaultScanConfig()

	err := json.Unmarshal([]byte(`{"network":"10.1.0.0/22","tcp":{"primary_timeout":"500ms"}}`), cfg)
	require.NoError(t, err)

	assert.Equal(t, "10.1.0.0/22", cfg.Network)
	assert.Equal(t, 500*time.Millisecond, cfg.TCP.PrimaryTimeout.Std())
	assert.Equal(t, 1200*time.Millisecond, cfg.TCP.SecondaryTimeout.Std(), "unset fields keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestScanConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScanConfig)
		want   error
	}{
		{"ipv6 network", func(c *ScanConfig) { c.Network = "fd00::/64" }, errInvalidNetwork},
		{"garbage network", func(c *ScanConfig) { c.Network = "lan" }, errInvalidNetwork},
		{"zero limit", func(c *ScanConfig) { c.ConnectionLimit = 0 }, errNonPositiveValue},
		{"zero timeout", func(c *ScanConfig) { c.ICMP.Timeout = 0 }, errNonPositiveValue},
		{"no ports", func(c *ScanConfig) { c.TCP.PrimaryPorts = nil }, errNoPrimaryPorts},
		{"bad port", func(c *ScanConfig) { c.TCP.SecondaryPorts = []int{70000} }, errInvalidPort},
		{"thresholds", func(c *ScanConfig) { c.Throttle.CPUCritical = 10 }, errThresholdOrdering},
		{"sub-second ssdp window", func(c *ScanConfig) { c.SSDP.SearchWindow = Duration(500 * time.Millisecond) }, errSearchWindowShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScanConfig()
			tt.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}
