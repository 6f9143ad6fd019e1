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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func device(ip string, source models.DeviceSource) *models.DiscoveredDevice {
	d := models.NewDevice(ip, source)
	return &d
}

func TestAccumulatorMergeFillsAndNeverClears(t *testing.T) {
	acc := NewAccumulator()

	acc.Upsert(device("10.0.0.7", models.SourceProbe))

	withMAC := device("10.0.0.7", models.SourceLocalARP)
	withMAC.MAC = models.StringPtr("aa:bb:cc:dd:ee:ff")
	withMAC.LatencyMS = models.Float64Ptr(12)
	acc.Upsert(withMAC)

	acc.Upsert(device("10.0.0.7", models.SourceBonjour))

	snap := acc.Snapshot()
	require.Len(t, snap, 1)

	got := snap[0]
	require.NotNil(t, got.MAC)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", *got.MAC)
	require.NotNil(t, got.LatencyMS)
	assert.InDelta(t, 12.0, *got.LatencyMS, 0)
	assert.Equal(t, models.SourceProbe, got.Source)
}

func TestAccumulatorMergeIsOrderIndependent(t *testing.T) {
	first := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	observations := []*models.DiscoveredDevice{
		{IP: "192.168.1.9", MAC: models.StringPtr("02:00:00:00:00:09"), DiscoveredAt: first},
		{IP: "192.168.1.9", Hostname: models.StringPtr("camera"), DiscoveredAt: first},
		{IP: "192.168.1.9", LatencyMS: models.Float64Ptr(3), DiscoveredAt: first},
	}

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {1, 0, 2, 1, 0}}

	var results []models.DiscoveredDevice

	for _, order := range orders {
		acc := NewAccumulator()
		for _, i := range order {
			acc.Upsert(observations[i])
		}

		results = append(results, acc.Snapshot()[0])
	}

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}

func TestAccumulatorSortedSnapshotIsNumeric(t *testing.T) {
	acc := NewAccumulator()
	for _, ip := range []string{"10.0.0.100", "10.0.0.2", "10.0.0.10"} {
		acc.Upsert(device(ip, models.SourceProbe))
	}

	var got []string
	for _, d := range acc.SortedSnapshot() {
		got = append(got, d.IP)
	}

	assert.Equal(t, []string{"10.0.0.2", "10.0.0.10", "10.0.0.100"}, got)

	got = got[:0]
	for _, d := range acc.Snapshot() {
		got = append(got, d.IP)
	}

	assert.Equal(t, []string{"10.0.0.100", "10.0.0.2", "10.0.0.10"}, got, "insertion order")
}

func TestAccumulatorSnapshotsAreCopies(t *testing.T) {
	acc := NewAccumulator()

	d := device("10.0.0.1", models.SourceProbe)
	d.Hostname = models.StringPtr("router")
	acc.Upsert(d)

	*d.Hostname = "mutated by caller"

	snap := acc.Snapshot()
	*snap[0].Hostname = "mutated via snapshot"

	assert.Equal(t, "router", *acc.Snapshot()[0].Hostname)
}

func TestAccumulatorLatencyAndHostnameQueries(t *testing.T) {
	acc := NewAccumulator()
	acc.Upsert(device("10.0.0.1", models.SourceProbe))
	acc.Upsert(device("10.0.0.2", models.SourceProbe))

	assert.True(t, acc.UpdateLatency("10.0.0.1", 4))
	assert.False(t, acc.UpdateLatency("10.0.0.1", 9), "existing latency is kept")
	assert.False(t, acc.UpdateLatency("10.0.0.99", 1), "unknown device")

	assert.Equal(t, []string{"10.0.0.2"}, acc.IPsWithoutLatency())
	assert.InDelta(t, 4.0, *acc.Snapshot()[0].LatencyMS, 0)

	assert.True(t, acc.Enrich(&models.DiscoveredDevice{IP: "10.0.0.2", Hostname: models.StringPtr("nas")}))
	assert.False(t, acc.Enrich(&models.DiscoveredDevice{IP: "10.0.0.3", Hostname: models.StringPtr("ghost")}))

	assert.Equal(t, []string{"10.0.0.1"}, acc.IPsWithoutHostname())
	assert.False(t, acc.Contains("10.0.0.3"))
}

func TestAccumulatorKnownIPsAndReset(t *testing.T) {
	acc := NewAccumulator()
	acc.Upsert(device("10.0.0.1", models.SourceProbe))
	acc.Upsert(&models.DiscoveredDevice{})

	known := acc.KnownIPs()
	assert.Equal(t, map[string]struct{}{"10.0.0.1": {}}, known)

	known["10.0.0.2"] = struct{}{}
	assert.False(t, acc.Contains("10.0.0.2"))

	acc.Reset()
	assert.Equal(t, 0, acc.Len())
	assert.Empty(t, acc.Snapshot())
}

func TestAccumulatorConcurrentUpserts(t *testing.T) {
	acc := NewAccumulator()

	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < 50; i++ {
				d := device(fmt.Sprintf("10.0.%d.%d", i%5, i), models.SourceProbe)
				if w%2 == 0 {
					d.MAC = models.StringPtr("02:00:00:00:00:01")
				}

				acc.Upsert(d)
				acc.UpdateLatency(d.IP, float64(w))
			}
		}(w)
	}

	wg.Wait()

	assert.Equal(t, 50, acc.Len())

	for _, d := range acc.Snapshot() {
		assert.NotNil(t, d.MAC)
		assert.NotNil(t, d.LatencyMS)
	}
}
