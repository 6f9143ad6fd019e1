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
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/carverauto/lanscan/pkg/tools"
)

// PortScanReport is the JSON form of a port scan.
type PortScanReport struct {
	Target  string                `json:"target"`
	IP      string                `json:"ip"`
	Ports   []tools.PortScanEntry `json:"ports"`
	Partial bool                  `json:"partial,omitempty"`
}

func portsFor(cfg *CmdConfig) ([]int, error) {
	if cfg.Ports != "" {
		return tools.ParsePorts(cfg.Ports)
	}

	return tools.PresetPorts(cfg.Preset)
}

// RunPortScan connects to each selected port on cfg.Target. Every connect
// holds a slot of a budget sized by cfg.Concurrency.
func (a *App) RunPortScan(ctx context.Context, cfg *CmdConfig) error {
	ports, err := portsFor(cfg)
	if err != nil {
		return err
	}

	ip, err := a.resolveTarget(ctx, cfg.Target, cfg.Timeout)
	if err != nil {
		return err
	}

	log := a.logger.WithComponent(subPortScan)
	sweeper := scan.NewTCPSweeper(scan.NewConnectionBudget(cfg.Concurrency), nil, 1, log)

	log.Debug().Str("ip", ip).Int("ports", len(ports)).Int("concurrency", cfg.Concurrency).Msg("Port scan started")

	entries, err := tools.ScanPorts(ctx, sweeper, ip, ports, tools.PortScanOptions{
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.Timeout,
	}, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("portscan %s: %w", cfg.Target, err)
	}

	report := &PortScanReport{Target: cfg.Target, IP: ip, Ports: entries, Partial: err != nil}

	if cfg.JSON {
		return a.writeJSON(report)
	}

	_, err = fmt.Fprintln(a.out, a.renderPortScan(report, cfg.ShowAll))

	return err
}

func (a *App) renderPortScan(r *PortScanReport, showAll bool) string {
	counts := map[tools.PortState]int{}
	t := a.newTable("PORT", "STATE", "SERVICE", "TIME")
	rows := 0

	for _, e := range r.Ports {
		counts[e.State]++

		if e.State == tools.PortStateFiltered && !showAll {
			continue
		}

		rtt := ""
		if e.State == tools.PortStateOpen {
			rtt = millis(e.RTT) + " ms"
		}

		t.Row(strconv.Itoa(e.Port)+"/tcp", string(e.State), e.Service, rtt)
		rows++
	}

	var b strings.Builder

	if rows > 0 {
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	summary := fmt.Sprintf("%s (%s): %d open, %d closed, %d filtered",
		r.Target, r.IP, counts[tools.PortStateOpen], counts[tools.PortStateClosed], counts[tools.PortStateFiltered])
	b.WriteString(a.styles.success.Render(summary))

	if r.Partial {
		b.WriteString("\n")
		b.WriteString(a.styles.error.Render("scan cancelled"))
	}

	return b.String()
}

// RunWake broadcasts a magic packet for the MAC in cfg.Target.
func (a *App) RunWake(ctx context.Context, cfg *CmdConfig) error {
	res, err := tools.Wake(ctx, cfg.Target, tools.WakeOptions{
		Broadcast: cfg.Broadcast,
		Port:      cfg.WakePort,
	})
	if err != nil {
		return fmt.Errorf("wol %s: %w", cfg.Target, err)
	}

	a.logger.WithComponent(subWake).Debug().Str("mac", res.MAC).Str("target", res.Target).Msg("Magic packet sent")

	if cfg.JSON {
		return a.writeJSON(res)
	}

	_, err = fmt.Fprintf(a.out, "Sent magic packet for %s to %s (%d bytes)\n", res.MAC, res.Target, res.Bytes)

	return err
}
