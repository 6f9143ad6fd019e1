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

// Package dnsclient issues unicast DNS queries: cached PTR lookups for the
// scanner and typed record lookups for the dns tool.
package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/miekg/dns"
)

const (
	defaultResolvConf = "/etc/resolv.conf"
	defaultTimeout    = time.Second
	defaultCacheSize  = 4096
	defaultCacheTTL   = 10 * time.Minute
)

var (
	ErrNoServer        = errors.New("no DNS server configured")
	ErrNoRecords       = errors.New("no records found")
	ErrUnsupportedType = errors.New("unsupported record type")
	ErrRcode           = errors.New("DNS server returned an error")
)

// Options configures a Client. An empty Server means the first nameserver of
// /etc/resolv.conf.
type Options struct {
	Server    string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// Client sends queries over UDP, retrying over TCP on truncation. Every
// exchange holds one connection budget slot.
type Client struct {
	server string
	client *dns.Client
	budget *scan.ConnectionBudget
	cache  *expirable.LRU[string, string]
	logger logger.Logger
}

// New builds a client. budget may be nil.
func New(opts Options, budget *scan.ConnectionBudget, log logger.Logger) (*Client, error) {
	server, err := resolveServer(opts.Server, defaultResolvConf)
	if err != nil {
		return nil, err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	if budget == nil {
		budget = scan.NewConnectionBudget(scan.DefaultConnectionLimit)
	}

	return &Client{
		server: server,
		client: &dns.Client{Timeout: opts.Timeout},
		budget: budget,
		cache:  expirable.NewLRU[string, string](opts.CacheSize, nil, opts.CacheTTL),
		logger: log.WithComponent("dns"),
	}, nil
}

// resolveServer returns host:port for server, falling back to resolvConf.
func resolveServer(server, resolvConf string) (string, error) {
	if server != "" {
		if _, _, err := net.SplitHostPort(server); err == nil {
			return server, nil
		}

		return net.JoinHostPort(server, "53"), nil
	}

	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoServer, err)
	}

	if len(cfg.Servers) == 0 {
		return "", ErrNoServer
	}

	return net.JoinHostPort(cfg.Servers[0], cfg.Port), nil
}

// Server is the host:port queries go to.
func (c *Client) Server() string {
	return c.server
}

// LookupPTR returns the first PTR name for ip without the trailing dot.
// Answers, including empty ones, are cached.
func (c *Client) LookupPTR(ctx context.Context, ip string) (string, error) {
	if name, ok := c.cache.Get(ip); ok {
		if name == "" {
			return "", ErrNoRecords
		}

		return name, nil
	}

	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("reverse name for %q: %w", ip, err)
	}

	resp, err := c.exchange(ctx, arpa, dns.TypePTR)
	if err != nil {
		return "", err
	}

	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			name := strings.TrimSuffix(ptr.Ptr, ".")
			c.cache.Add(ip, name)

			return name, nil
		}
	}

	c.cache.Add(ip, "")

	return "", ErrNoRecords
}

func (c *Client) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	if err := c.budget.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.budget.Release()

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	resp, _, err := c.client.ExchangeContext(ctx, m, c.server)
	if err != nil {
		return nil, fmt.Errorf("query %s %s: %w", dns.TypeToString[qtype], name, err)
	}

	if resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: c.client.Timeout}

		if resp, _, err = tcp.ExchangeContext(ctx, m, c.server); err != nil {
			return nil, fmt.Errorf("query %s %s over tcp: %w", dns.TypeToString[qtype], name, err)
		}
	}

	switch resp.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrRcode, dns.RcodeToString[resp.Rcode])
	}
}
