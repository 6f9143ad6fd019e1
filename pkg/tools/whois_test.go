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
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWhois answers every connection from a per-server script. The client's
// dialer is redirected to the listener and records which server was asked.
type fakeWhois struct {
	ln      net.Listener
	answers map[string]string

	mu      sync.Mutex
	servers []string
	queries []string
}

func newFakeWhois(t *testing.T, answers map[string]string) *fakeWhois {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeWhois{ln: ln, answers: answers}

	t.Cleanup(func() { _ = ln.Close() })

	go f.serve()

	return f
}

func (f *fakeWhois) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}

		go f.handle(conn)
	}
}

func (f *fakeWhois) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}

	f.mu.Lock()
	server := f.servers[len(f.servers)-1]
	f.queries = append(f.queries, strings.TrimSpace(line))
	f.mu.Unlock()

	_, _ = conn.Write([]byte(f.answers[server]))
}

func (f *fakeWhois) asked() (servers, queries []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.servers...), append([]string(nil), f.queries...)
}

func (f *fakeWhois) client() *WhoisClient {
	c := NewWhoisClient(scan.NewConnectionBudget(2), time.Second, logger.NewTestLogger())

	c.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}

		if port != whoisPort {
			return nil, &net.AddrError{Err: "unexpected port", Addr: address}
		}

		f.mu.Lock()
		f.servers = append(f.servers, host)
		f.mu.Unlock()

		var d net.Dialer

		return d.DialContext(ctx, network, f.ln.Addr().String())
	}

	return c
}

func TestServerFor(t *testing.T) {
	tests := []struct {
		domain string
		want   string
		ok     bool
	}{
		{"example.com", "whois.verisign-grs.com", true},
		{"Example.NET.", "whois.verisign-grs.com", true},
		{"wikipedia.org", "whois.pir.org", true},
		{"go.dev", "whois.nic.google", true},
		{"x.app", "whois.nic.google", true},
		{"startup.io", "whois.nic.io", true},
		{"brand.co", "whois.nic.co", true},
		{"example.de", "", false},
		{"localhost", "", false},
		{"trailing.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			got, ok := ServerFor(tt.domain)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWhoisKnownTLD(t *testing.T) {
	f := newFakeWhois(t, map[string]string{
		"whois.verisign-grs.com": "Domain Name: EXAMPLE.COM\r\n",
	})

	c := f.client()

	res, err := c.Lookup(context.Background(), " Example.com ")
	require.NoError(t, err)

	assert.Equal(t, "example.com", res.Domain)
	assert.Equal(t, "whois.verisign-grs.com", res.Server)
	assert.False(t, res.Referral)
	assert.Contains(t, res.Response, "EXAMPLE.COM")

	servers, queries := f.asked()
	assert.Equal(t, []string{"whois.verisign-grs.com"}, servers)
	assert.Equal(t, []string{"example.com"}, queries)
	assert.Equal(t, 0, c.budget.Active())
}

func TestWhoisFollowsRegistrarReferral(t *testing.T) {
	f := newFakeWhois(t, map[string]string{
		"whois.verisign-grs.com": "Domain Name: EXAMPLE.COM\r\nRegistrar WHOIS Server: whois.markmonitor.com\r\n",
		"whois.markmonitor.com":  "Registrant Organization: Example Inc.\r\n",
	})

	res, err := f.client().Lookup(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "whois.markmonitor.com", res.Server)
	assert.True(t, res.Referral)
	assert.Contains(t, res.Response, "EXAMPLE.COM")
	assert.Contains(t, res.Response, "Example Inc.")

	servers, _ := f.asked()
	assert.Equal(t, []string{"whois.verisign-grs.com", "whois.markmonitor.com"}, servers)
}

func TestWhoisAsksIANAForUnknownTLD(t *testing.T) {
	f := newFakeWhois(t, map[string]string{
		ianaWhoisServer:  "% IANA WHOIS server\n\nrefer:        whois.denic.de\n\ndomain:       DE\nwhois:        whois.denic.de\n",
		"whois.denic.de": "Domain: example.de\nStatus: connect\n",
	})

	res, err := f.client().Lookup(context.Background(), "example.de")
	require.NoError(t, err)

	assert.Equal(t, "whois.denic.de", res.Server)
	assert.True(t, res.Referral)
	assert.Contains(t, res.Response, "Status: connect")

	servers, queries := f.asked()
	assert.Equal(t, []string{ianaWhoisServer, "whois.denic.de"}, servers)
	assert.Equal(t, []string{"de", "example.de"}, queries)
}

func TestWhoisWithoutRegistry(t *testing.T) {
	f := newFakeWhois(t, map[string]string{ianaWhoisServer: "% no match\n"})

	_, err := f.client().Lookup(context.Background(), "example.zz")
	assert.ErrorIs(t, err, ErrNoWhoisServer)
}

func TestWhoisResponseTooBig(t *testing.T) {
	f := newFakeWhois(t, map[string]string{
		"whois.pir.org": strings.Repeat("x", maxWhoisResponse+512),
	})

	c := f.client()

	_, err := c.Lookup(context.Background(), "wikipedia.org")
	require.ErrorIs(t, err, ErrResponseTooBig)
	assert.Equal(t, 0, c.budget.Active())
}

func TestWhoisErrors(t *testing.T) {
	c := NewWhoisClient(nil, time.Second, logger.NewTestLogger())

	_, err := c.Lookup(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyDomain)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Lookup(ctx, "example.com")
	assert.ErrorIs(t, err, context.Canceled)
}
