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
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/carverauto/lanscan/pkg/dnsclient"
	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/carverauto/lanscan/pkg/version"
)

// App runs one parsed command against the given streams.
type App struct {
	out    io.Writer
	errOut io.Writer
	logger logger.Logger
	styles styles
}

// NewApp returns an App writing results to out and diagnostics to errOut.
func NewApp(out, errOut io.Writer, log logger.Logger) *App {
	return &App{
		out:    out,
		errOut: errOut,
		logger: log,
		styles: newStyles(),
	}
}

// Run dispatches cfg to its subcommand.
func (a *App) Run(ctx context.Context, cfg *CmdConfig) error {
	if cfg.Help {
		ShowHelp(a.out)

		return nil
	}

	switch cfg.SubCmd {
	case subScan:
		return a.RunScan(ctx, cfg)
	case subPing:
		return a.RunPing(ctx, cfg)
	case subTraceroute:
		return a.RunTraceroute(ctx, cfg)
	case subDNS:
		return a.RunDNS(ctx, cfg)
	case subWhois:
		return a.RunWhois(ctx, cfg)
	case subPortScan:
		return a.RunPortScan(ctx, cfg)
	case subWake:
		return a.RunWake(ctx, cfg)
	case subVersion:
		return a.RunVersion(cfg)
	}

	return fmt.Errorf("%w: %q", errUnknownSubcommand, cfg.SubCmd)
}

// RunVersion prints the build identity.
func (a *App) RunVersion(cfg *CmdConfig) error {
	if cfg.JSON {
		return a.writeJSON(version.Get())
	}

	_, err := fmt.Fprintln(a.out, version.Get().String())

	return err
}

func (a *App) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// recordLookup is the part of dnsclient.Client used to resolve names.
type recordLookup interface {
	Lookup(ctx context.Context, name, recordType string) (*dnsclient.Result, error)
}

// resolveIPv4 returns host unchanged when it is an IPv4 literal, else its
// first A record.
func resolveIPv4(ctx context.Context, lookup recordLookup, host string) (string, error) {
	if scan.IsIPv4(host) {
		return host, nil
	}

	res, err := lookup.Lookup(ctx, host, "A")
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", host, err)
	}

	for _, rec := range res.Records {
		if rec.Type == "A" && scan.IsIPv4(rec.Value) {
			return rec.Value, nil
		}
	}

	return "", fmt.Errorf("%w: %s", errNoIPv4Address, host)
}

func (a *App) newDNSClient(server string, timeout time.Duration) (*dnsclient.Client, error) {
	return dnsclient.New(dnsclient.Options{Server: server, Timeout: timeout}, nil, a.logger.WithComponent("dns"))
}
