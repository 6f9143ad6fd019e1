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
	"time"

	"github.com/carverauto/lanscan/pkg/config"
	"github.com/carverauto/lanscan/pkg/discovery"
	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/models"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/carverauto/lanscan/pkg/version"
	"github.com/rs/zerolog"
)

// ScanReport is the JSON form of a finished scan.
type ScanReport struct {
	Session  string                    `json:"session"`
	Network  string                    `json:"network"`
	LocalIP  string                    `json:"local_ip,omitempty"`
	Hosts    int                       `json:"hosts"`
	Duration string                    `json:"duration"`
	Partial  bool                      `json:"partial"`
	Devices  []models.DiscoveredDevice `json:"devices"`
}

// RunScan loads the scan config, runs one discovery session and prints the
// devices. A cancelled scan still prints what was found.
func (a *App) RunScan(ctx context.Context, cfg *CmdConfig) error {
	scanCfg, err := loadScanConfig(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	log, err := a.scanLogger(cfg, scanCfg)
	if err != nil {
		return err
	}

	target, err := scan.PlanTarget(ctx, scanCfg.Network, scanCfg.MaxHosts)
	if err != nil {
		return fmt.Errorf("planning scan: %w", err)
	}

	deps := discovery.NewDependencies(ctx, scanCfg, log)
	defer deps.Close()

	engine := discovery.NewEngine(discovery.BuildPipeline(scanCfg, deps, log), log)
	sc := discovery.NewScanContext(target)

	log.Info().
		Str("version", version.GetFullVersion()).
		Str("network", target.Label).
		Int("hosts", len(target.Hosts)).
		Msg("Starting LAN scan")

	start := time.Now()

	var devices []models.DiscoveredDevice

	if cfg.TUI {
		devices, err = runScanTUI(ctx, engine, sc, target.Label, a.out)
	} else {
		devices, err = engine.Scan(ctx, sc, progressLogger(log))
	}

	partial := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !partial {
		return fmt.Errorf("scan failed: %w", err)
	}

	report := ScanReport{
		Session:  engine.SessionID(),
		Network:  target.Label,
		LocalIP:  target.LocalIP,
		Hosts:    len(target.Hosts),
		Duration: time.Since(start).Round(time.Millisecond).String(),
		Partial:  partial,
		Devices:  devices,
	}

	if cfg.JSON {
		return a.writeJSON(report)
	}

	_, err = fmt.Fprintln(a.out, a.renderReport(&report))

	return err
}

func loadScanConfig(ctx context.Context, cfg *CmdConfig, log logger.Logger) (*models.ScanConfig, error) {
	scanCfg := models.DefaultScanConfig()

	if err := config.NewConfig(log).LoadAndValidate(ctx, cfg.ConfigFile, scanCfg); err != nil {
		return nil, fmt.Errorf("loading scan config: %w", err)
	}

	applyScanFlags(cfg, scanCfg)

	if err := scanCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan config: %w", err)
	}

	return scanCfg, nil
}

// applyScanFlags lets command-line flags override the loaded config.
func applyScanFlags(cfg *CmdConfig, scanCfg *models.ScanConfig) {
	if cfg.Network != "" {
		scanCfg.Network = cfg.Network
	}

	if cfg.MaxHosts > 0 {
		scanCfg.MaxHosts = cfg.MaxHosts
	}

	if cfg.SNMP {
		scanCfg.SNMP.Enabled = true
	}

	if cfg.Community != "" {
		scanCfg.SNMP.Community = cfg.Community
	}
}

func (a *App) scanLogger(cfg *CmdConfig, scanCfg *models.ScanConfig) (logger.Logger, error) {
	log := a.logger

	if scanCfg.Logging != nil {
		l, err := logger.New(scanCfg.Logging.Merge(logger.DefaultConfig()))
		if err != nil {
			return nil, fmt.Errorf("configuring logger: %w", err)
		}

		log = l
	}

	if cfg.Debug {
		log.SetDebug(true)
	}

	// the progress view owns the terminal
	if cfg.TUI {
		log.SetLevel(zerolog.ErrorLevel)
	}

	return log, nil
}

// progressLogger logs phase changes at info and every update at debug. The
// pipeline calls it serially.
func progressLogger(log logger.Logger) discovery.ProgressFunc {
	var last string

	return func(overall float64, phase string) {
		if phase != last {
			last = phase
			log.Info().Str("phase", phase).Str("progress", percent(overall)).Msg("Scan progress")

			return
		}

		log.Debug().Str("phase", phase).Str("progress", percent(overall)).Msg("Scan progress")
	}
}

func percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}
