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

	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/carverauto/lanscan/pkg/tools"
)

const defaultPayloadSize = 56

// RunPing pings cfg.Target and prints each reply and the statistics.
func (a *App) RunPing(ctx context.Context, cfg *CmdConfig) error {
	ip, err := a.resolveTarget(ctx, cfg.Target, cfg.Timeout)
	if err != nil {
		return err
	}

	sock, err := scan.OpenICMPSocket(scan.ICMPOptions{
		PayloadSize: defaultPayloadSize,
		Privileged:  cfg.Privileged,
	}, a.logger.WithComponent(subPing))
	if err != nil {
		return fmt.Errorf("opening ICMP socket: %w", err)
	}
	defer func() { _ = sock.Close() }()

	if !cfg.JSON {
		_, _ = fmt.Fprintf(a.out, "PING %s (%s): %d data bytes\n", cfg.Target, ip, defaultPayloadSize)
	}

	stats, err := tools.Ping(ctx, sock, ip, tools.PingOptions{
		Count:    cfg.Count,
		Interval: cfg.Interval,
		Timeout:  cfg.Timeout,
	}, func(r tools.PingReply) {
		if !cfg.JSON {
			_, _ = fmt.Fprintln(a.out, formatReply(ip, r))
		}
	})
	if err != nil {
		return fmt.Errorf("ping %s: %w", cfg.Target, err)
	}

	stats.Target = cfg.Target

	if cfg.JSON {
		return a.writeJSON(stats)
	}

	_, err = fmt.Fprintln(a.out, formatPingStats(stats))

	return err
}

func formatReply(ip string, r tools.PingReply) string {
	if !r.Received {
		return fmt.Sprintf("Request timeout for icmp_seq %d", r.Seq)
	}

	return fmt.Sprintf("reply from %s: icmp_seq=%d time=%s ms", ip, r.Seq, millis(r.RTT))
}

func formatPingStats(s *tools.PingStats) string {
	out := fmt.Sprintf("\n--- %s ping statistics ---\n%d packets transmitted, %d packets received, %.1f%% packet loss",
		s.Target, s.Transmitted, s.Received, s.LossPercent)

	if s.Received > 0 {
		out += fmt.Sprintf("\nround-trip min/avg/max/stddev = %s/%s/%s/%s ms",
			millis(s.Min), millis(s.Avg), millis(s.Max), millis(s.StdDev))
	}

	return out
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
}

// RunTraceroute traces the path to cfg.Target. When a raw socket cannot be
// opened it falls back to an unprivileged one, which on Linux only sees the
// final hop.
func (a *App) RunTraceroute(ctx context.Context, cfg *CmdConfig) error {
	dns, dnsErr := a.newDNSClient("", cfg.Timeout)

	ip, err := a.resolveTarget(ctx, cfg.Target, cfg.Timeout)
	if err != nil {
		return err
	}

	log := a.logger.WithComponent(subTraceroute)

	sock, err := scan.OpenICMPSocket(scan.ICMPOptions{PayloadSize: defaultPayloadSize, Privileged: cfg.Privileged}, log)
	if err != nil && cfg.Privileged {
		log.Warn().Err(err).Msg("Raw ICMP socket unavailable, intermediate hops may not answer")

		sock, err = scan.OpenICMPSocket(scan.ICMPOptions{PayloadSize: defaultPayloadSize}, log)
	}

	if err != nil {
		return fmt.Errorf("opening ICMP socket: %w", err)
	}
	defer func() { _ = sock.Close() }()

	opts := tools.TraceOptions{MaxHops: cfg.MaxHops, Timeout: cfg.Timeout}
	if !cfg.NoResolve && dnsErr == nil {
		opts.Names = dns
	}

	if !cfg.JSON {
		_, _ = fmt.Fprintf(a.out, "traceroute to %s (%s), %d hops max\n", cfg.Target, ip, cfg.MaxHops)
	}

	hops, err := tools.Traceroute(ctx, sock, ip, opts, func(h tools.Hop) {
		if !cfg.JSON {
			_, _ = fmt.Fprintln(a.out, h.String())
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("traceroute %s: %w", cfg.Target, err)
	}

	if cfg.JSON {
		return a.writeJSON(hops)
	}

	return nil
}

// RunDNS queries one record type and prints the answers.
func (a *App) RunDNS(ctx context.Context, cfg *CmdConfig) error {
	client, err := a.newDNSClient(cfg.Server, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("creating DNS client: %w", err)
	}

	res, err := client.Lookup(ctx, cfg.Target, cfg.RecordType)
	if err != nil {
		return fmt.Errorf("dns %s %s: %w", cfg.RecordType, cfg.Target, err)
	}

	if cfg.JSON {
		return a.writeJSON(res)
	}

	t := a.newTable("NAME", "TTL", "TYPE", "VALUE")
	for _, r := range res.Records {
		t.Row(r.Name, r.TTL.String(), r.Type, r.Value)
	}

	_, err = fmt.Fprintf(a.out, "%s\n%s\n", t.String(),
		a.styles.help.Render(fmt.Sprintf(";; server %s, %s", res.Server, res.RTT.Round(time.Microsecond))))

	return err
}

// RunWhois prints the registry answer for cfg.Target.
func (a *App) RunWhois(ctx context.Context, cfg *CmdConfig) error {
	client := tools.NewWhoisClient(nil, cfg.Timeout, a.logger.WithComponent(subWhois))

	res, err := client.Lookup(ctx, cfg.Target)
	if err != nil {
		return fmt.Errorf("whois %s: %w", cfg.Target, err)
	}

	if cfg.JSON {
		return a.writeJSON(res)
	}

	_, err = fmt.Fprintf(a.out, "%% server: %s\n\n%s", res.Server, res.Response)

	return err
}

func (a *App) resolveTarget(ctx context.Context, host string, timeout time.Duration) (string, error) {
	if scan.IsIPv4(host) {
		return host, nil
	}

	client, err := a.newDNSClient("", timeout)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", host, err)
	}

	return resolveIPv4(ctx, client, host)
}
