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
	"fmt"
	"strings"

	"github.com/carverauto/lanscan/pkg/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var deviceHeaders = []string{"IP", "HOSTNAME", "VENDOR", "MAC", "LATENCY", "SOURCE"}

func deviceRow(d *models.DiscoveredDevice) []string {
	return []string{
		d.IP,
		deref(d.Hostname),
		deref(d.Vendor),
		deref(d.MAC),
		d.LatencyText(),
		string(d.Source),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func (a *App) newTable(headers ...string) *table.Table {
	st := a.styles

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}

			return st.cell
		})
}

func (a *App) renderDevices(devices []models.DiscoveredDevice) string {
	t := a.newTable(deviceHeaders...)

	for i := range devices {
		t.Row(deviceRow(&devices[i])...)
	}

	return t.String()
}

func (a *App) renderReport(r *ScanReport) string {
	var b strings.Builder

	if len(r.Devices) > 0 {
		b.WriteString(a.renderDevices(r.Devices))
		b.WriteString("\n")
	}

	summary := fmt.Sprintf("%d devices on %s (%d hosts probed in %s)", len(r.Devices), r.Network, r.Hosts, r.Duration)

	if r.Partial {
		b.WriteString(a.styles.error.Render(summary + ", scan cancelled"))
	} else {
		b.WriteString(a.styles.success.Render(summary))
	}

	return b.String()
}
