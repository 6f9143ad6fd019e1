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
	"time"

	"github.com/charmbracelet/lipgloss"
)

// CmdConfig holds parsed command-line configuration.
type CmdConfig struct {
	Help   bool
	SubCmd string
	Target string
	Args   []string

	// scan
	ConfigFile string
	Network    string
	MaxHosts   int
	JSON       bool
	TUI        bool
	SNMP       bool
	Community  string
	Debug      bool

	// ping and traceroute
	Count      int
	Interval   time.Duration
	Timeout    time.Duration
	MaxHops    int
	Privileged bool
	NoResolve  bool

	// dns
	RecordType string
	Server     string

	// portscan
	Ports       string
	Preset      string
	Concurrency int
	ShowAll     bool

	// wol
	Broadcast string
	WakePort  int
}

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaComment    = "#6272A4"
)

type styles struct {
	title, phase, help, success, error, header, cell, app lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		phase: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true).
			Padding(0, 1),
		cell: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)).
			Padding(0, 1),
		app: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaCyan)),
	}
}
