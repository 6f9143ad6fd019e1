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

package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/likexian/whois"
)

const (
	ianaWhoisServer  = "whois.iana.org"
	whoisPort        = "43"
	maxWhoisResponse = 1 << 20
)

var tldWhoisServers = map[string]string{
	"com": "whois.verisign-grs.com",
	"net": "whois.verisign-grs.com",
	"org": "whois.pir.org",
	"io":  "whois.nic.io",
	"dev": "whois.nic.google",
	"app": "whois.nic.google",
	"co":  "whois.nic.co",
}

var errWhoisReadLimit = errors.New("read limit reached")

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// WhoisResult is the raw registry answer. Server is the last server that
// answered; Referral is set when more than one server was asked.
type WhoisResult struct {
	Domain   string `json:"domain"`
	Server   string `json:"server"`
	Referral bool   `json:"referral"`
	Response string `json:"response"`
}

// WhoisClient runs likexian/whois queries over a dialer that holds one
// connection budget slot per open connection.
type WhoisClient struct {
	budget  *scan.ConnectionBudget
	dial    dialFunc
	timeout time.Duration
	logger  logger.Logger
}

// NewWhoisClient returns a client holding a budget slot per connection.
func NewWhoisClient(budget *scan.ConnectionBudget, timeout time.Duration, log logger.Logger) *WhoisClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if budget == nil {
		budget = scan.NewConnectionBudget(scan.DefaultConnectionLimit)
	}

	d := &net.Dialer{}

	return &WhoisClient{
		budget:  budget,
		dial:    d.DialContext,
		timeout: timeout,
		logger:  log,
	}
}

// ServerFor returns the registry WHOIS server for a known TLD.
func ServerFor(domain string) (string, bool) {
	domain = normalizeDomain(domain)

	idx := strings.LastIndexByte(domain, '.')
	if idx < 0 || idx == len(domain)-1 {
		return "", false
	}

	server, ok := tldWhoisServers[domain[idx+1:]]

	return server, ok
}

func normalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// Lookup queries the registry for domain. Known TLDs go straight to their
// registry; others ask IANA for the registry first. A registrar referral in
// the registry answer is followed and appended.
func (c *WhoisClient) Lookup(ctx context.Context, domain string) (*WhoisResult, error) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sd := &sessionDialer{ctx: ctx, client: c}

	wc := whois.NewClient().
		SetDialer(sd).
		SetTimeout(c.timeout)

	var servers []string
	if server, ok := ServerFor(domain); ok {
		servers = append(servers, server)
	}

	resp, err := wc.Whois(domain, servers...)

	asked := sd.asked()
	c.logger.Debug().Str("domain", domain).Strs("servers", asked).Msg("WHOIS lookup finished")

	switch {
	case sd.overflowed():
		return nil, ErrResponseTooBig
	case err != nil && ctx.Err() != nil:
		return nil, fmt.Errorf("whois %s: %w", domain, ctx.Err())
	case errors.Is(err, whois.ErrWhoisServerNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNoWhoisServer, domain)
	case err != nil:
		return nil, err
	}

	registries := make([]string, 0, len(asked))

	for _, s := range asked {
		if !strings.EqualFold(s, ianaWhoisServer) {
			registries = append(registries, s)
		}
	}

	res := &WhoisResult{Domain: domain, Server: ianaWhoisServer, Response: resp}
	if len(registries) > 0 {
		res.Server = registries[len(registries)-1]
		res.Referral = len(asked) > 1
	}

	return res, nil
}

// sessionDialer serves the dials of one lookup. It takes a budget slot per
// connection, closes connections when ctx ends and caps what each may read.
type sessionDialer struct {
	ctx    context.Context
	client *WhoisClient

	mu       sync.Mutex
	servers  []string
	overflow bool
}

func (d *sessionDialer) Dial(network, address string) (net.Conn, error) {
	if err := d.client.budget.Acquire(d.ctx); err != nil {
		return nil, err
	}

	conn, err := d.client.dial(d.ctx, network, address)
	if err != nil {
		d.client.budget.Release()

		return nil, err
	}

	host, _, _ := net.SplitHostPort(address)

	d.mu.Lock()
	d.servers = append(d.servers, host)
	d.mu.Unlock()

	bc := &budgetConn{Conn: conn, session: d, remaining: maxWhoisResponse}
	bc.stop = context.AfterFunc(d.ctx, func() { _ = conn.Close() })

	return bc, nil
}

func (d *sessionDialer) asked() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.servers...)
}

func (d *sessionDialer) overflowed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.overflow
}

// budgetConn returns its budget slot on Close and fails reads past the
// response limit.
type budgetConn struct {
	net.Conn
	session   *sessionDialer
	remaining int
	stop      func() bool
	closeOnce sync.Once
}

func (c *budgetConn) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		// a response of exactly the limit is allowed
		var one [1]byte
		if n, err := c.Conn.Read(one[:]); n == 0 && err != nil {
			return 0, err
		}

		c.session.mu.Lock()
		c.session.overflow = true
		c.session.mu.Unlock()

		return 0, errWhoisReadLimit
	}

	if len(p) > c.remaining {
		p = p[:c.remaining]
	}

	n, err := c.Conn.Read(p)
	c.remaining -= n

	return n, err
}

func (c *budgetConn) Close() error {
	err := c.Conn.Close()

	c.closeOnce.Do(func() {
		c.stop()
		c.session.client.budget.Release()
	})

	return err
}
