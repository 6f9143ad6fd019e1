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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortScanAndWakeFlags(t *testing.T) {
	cfg, err := ParseFlags([]string{"portscan", "-p", "22,80", "-c", "8", "-W", "500ms", "-all", "10.0.0.5"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, subPortScan, cfg.SubCmd)
	assert.Equal(t, "22,80", cfg.Ports)
	assert.Equal(t, "common", cfg.Preset)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.ShowAll)
	assert.Equal(t, "10.0.0.5", cfg.Target)

	cfg, err = ParseFlags([]string{"wol", "-b", "192.168.1.255", "aa:bb:cc:dd:ee:ff"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.255", cfg.Broadcast)
	assert.Equal(t, 9, cfg.WakePort)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", cfg.Target)

	_, err = ParseFlags([]string{"wol"}, io.Discard)
	assert.ErrorIs(t, err, errTargetRequired)
}

func TestRunPortScan(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() { _ = ln.Close() }()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}

			_ = c.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port

	var out bytes.Buffer

	app := NewApp(&out, io.Discard, logger.NewTestLogger())
	cfg := &CmdConfig{
		SubCmd:      subPortScan,
		Target:      "127.0.0.1",
		Ports:       strconv.Itoa(port),
		Concurrency: 4,
		Timeout:     time.Second,
		JSON:        true,
	}

	require.NoError(t, app.Run(context.Background(), cfg))

	var report PortScanReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))

	require.Len(t, report.Ports, 1)
	assert.Equal(t, port, report.Ports[0].Port)
	assert.Equal(t, tools.PortStateOpen, report.Ports[0].State)
	assert.False(t, report.Partial)
}

func TestRunPortScanRejectsBadPorts(t *testing.T) {
	app := NewApp(io.Discard, io.Discard, logger.NewTestLogger())

	err := app.Run(context.Background(), &CmdConfig{SubCmd: subPortScan, Target: "127.0.0.1", Ports: "0"})
	require.ErrorIs(t, err, tools.ErrInvalidPort)

	err = app.Run(context.Background(), &CmdConfig{SubCmd: subPortScan, Target: "127.0.0.1", Preset: "all"})
	assert.ErrorIs(t, err, tools.ErrUnknownPreset)
}

func TestRenderPortScan(t *testing.T) {
	app := NewApp(io.Discard, io.Discard, logger.NewTestLogger())

	report := &PortScanReport{Target: "nas", IP: "10.0.0.5", Ports: []tools.PortScanEntry{
		{Port: 22, State: tools.PortStateOpen, Service: "SSH", RTT: 2 * time.Millisecond},
		{Port: 80, State: tools.PortStateClosed, Service: "HTTP"},
		{Port: 3389, State: tools.PortStateFiltered, Service: "RDP"},
	}}

	text := app.renderPortScan(report, false)

	assert.Contains(t, text, "22/tcp")
	assert.Contains(t, text, "2.000 ms")
	assert.Contains(t, text, "80/tcp")
	assert.NotContains(t, text, "3389/tcp")
	assert.Contains(t, text, "nas (10.0.0.5): 1 open, 1 closed, 1 filtered")

	assert.Contains(t, app.renderPortScan(report, true), "3389/tcp")

	report.Partial = true
	assert.Contains(t, app.renderPortScan(report, false), "scan cancelled")
}

func TestRunWake(t *testing.T) {
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	defer func() { _ = pc.Close() }()

	var out bytes.Buffer

	app := NewApp(&out, io.Discard, logger.NewTestLogger())
	cfg := &CmdConfig{
		SubCmd:    subWake,
		Target:    "00:11:22:33:44:55",
		Broadcast: "127.0.0.1",
		WakePort:  pc.LocalAddr().(*net.UDPAddr).Port,
	}

	require.NoError(t, app.Run(context.Background(), cfg))
	assert.Contains(t, out.String(), "Sent magic packet for 00:11:22:33:44:55")

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))

	buf := make([]byte, 256)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, 102, n)

	err = app.Run(context.Background(), &CmdConfig{SubCmd: subWake, Target: "nope"})
	assert.ErrorIs(t, err, tools.ErrInvalidMAC)
}
