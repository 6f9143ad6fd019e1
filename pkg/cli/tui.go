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
	"fmt"
	"io"
	"strings"

	"github.com/carverauto/lanscan/pkg/discovery"
	"github.com/carverauto/lanscan/pkg/models"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth    = 48
	barPadding  = 8
	phaseCancel = "Cancelling"
)

type progressMsg struct {
	overall float64
	phase   string
	found   int
}

type scanDoneMsg struct {
	devices []models.DiscoveredDevice
	err     error
}

type scanModel struct {
	network   string
	bar       progress.Model
	percent   float64
	phase     string
	found     int
	devices   []models.DiscoveredDevice
	err       error
	done      bool
	cancelled bool
	cancel    context.CancelFunc
	styles    styles
}

func newScanModel(network string, cancel context.CancelFunc) *scanModel {
	return &scanModel{
		network: network,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		phase:   "Starting",
		cancel:  cancel,
		styles:  newStyles(),
	}
}

func (*scanModel) Init() tea.Cmd {
	return nil
}

func (m *scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(barWidth, msg.Width-barPadding))
	case progressMsg:
		if msg.overall > m.percent {
			m.percent = msg.overall
		}

		if !m.cancelled {
			m.phase = msg.phase
		}

		m.found = msg.found
	case scanDoneMsg:
		m.done = true
		m.devices = msg.devices
		m.err = msg.err
		m.found = len(msg.devices)

		return m, tea.Quit
	}

	return m, nil
}

func (m *scanModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // Default case handles all unlisted keys
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.stop()
	default:
		if msg.String() == "q" {
			return m.stop()
		}
	}

	return m, nil
}

// stop cancels the scan; the program exits once the partial result arrives.
func (m *scanModel) stop() (tea.Model, tea.Cmd) {
	if m.done {
		return m, tea.Quit
	}

	if !m.cancelled {
		m.cancelled = true
		m.phase = phaseCancel
		m.cancel()
	}

	return m, nil
}

func (m *scanModel) View() string {
	var content strings.Builder

	st := m.styles

	content.WriteString(st.title.Render("lanscan: "+m.network) + "\n\n")
	content.WriteString(m.bar.ViewAs(m.percent) + "\n\n")

	phase := st.phase.Render(m.phase)
	if m.cancelled {
		phase = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaOrange)).Render(m.phase)
	}

	content.WriteString(fmt.Sprintf("%s  %s\n", phase, st.success.Render(fmt.Sprintf("%d found", m.found))))
	content.WriteString("\n" + st.help.Render("q/Esc/Ctrl+C: stop scan"))

	return st.app.Render(content.String())
}

// runScanTUI runs the scan behind a progress view and returns its result.
func runScanTUI(ctx context.Context, engine *discovery.Engine, sc *discovery.ScanContext,
	network string, out io.Writer) ([]models.DiscoveredDevice, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newScanModel(network, cancel)
	p := tea.NewProgram(model, tea.WithOutput(out))

	finished := make(chan struct{})

	go func() {
		defer close(finished)

		devices, err := engine.Scan(ctx, sc, func(overall float64, phase string) {
			p.Send(progressMsg{overall: overall, phase: phase, found: engine.DeviceCount()})
		})

		p.Send(scanDoneMsg{devices: devices, err: err})
	}()

	final, err := p.Run()

	cancel()
	<-finished

	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}

	fm, ok := final.(*scanModel)
	if !ok {
		return engine.Devices(), ctx.Err()
	}

	return fm.devices, fm.err
}
