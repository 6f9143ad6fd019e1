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

// Package mdns browses and resolves DNS-SD services over multicast DNS.
package mdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/grandcat/zeroconf"
)

// DefaultDomain is the multicast DNS domain.
const DefaultDomain = "local."

const entryBuffer = 64

var (
	ErrBrowserRunning = errors.New("browser already running")
	ErrNoAddress      = errors.New("service resolved without an IPv4 address")
)

// Service is one advertised service instance.
type Service struct {
	Name   string
	Type   string
	Domain string
}

// Key identifies the instance for deduplication.
func (s Service) Key() string {
	return s.Name + "|" + s.Type + "|" + s.Domain
}

// resolverFactory is swapped in tests.
type resolverFactory func() (entryResolver, error)

type entryResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
	Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

func newZeroconfResolver() (entryResolver, error) {
	return zeroconf.NewResolver(zeroconf.SelectIPTraffic(zeroconf.IPv4))
}

// Browser browses a set of service types in the background. Addresses that
// arrive with the browse answers are remembered so a later Resolve can skip
// the network.
type Browser struct {
	logger     logger.Logger
	newResolve resolverFactory

	mu       sync.Mutex
	services []Service
	addrs    map[string][]string
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewBrowser(log logger.Logger) *Browser {
	return &Browser{
		logger:     log.WithComponent("mdns"),
		newResolve: newZeroconfResolver,
		addrs:      make(map[string][]string),
	}
}

// Start browses every service type until Stop or ctx ends. Types that fail
// to start are logged and skipped; Start fails only when none started.
func (b *Browser) Start(ctx context.Context, serviceTypes []string, domain string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return ErrBrowserRunning
	}

	if domain == "" {
		domain = DefaultDomain
	}

	b.services = nil
	b.addrs = make(map[string][]string)

	browseCtx, cancel := context.WithCancel(ctx)

	var lastErr error

	started := 0

	for _, st := range serviceTypes {
		r, err := b.newResolve()
		if err != nil {
			lastErr = err
			break
		}

		entries := make(chan *zeroconf.ServiceEntry, entryBuffer)

		if err := r.Browse(browseCtx, st, domain, entries); err != nil {
			b.logger.Debug().Err(err).Str("type", st).Msg("Browse failed")
			lastErr = err

			continue
		}

		started++

		b.wg.Add(1)

		go b.collect(browseCtx, entries)
	}

	if started == 0 && len(serviceTypes) > 0 {
		cancel()
		b.wg.Wait()

		return fmt.Errorf("mdns browse: %w", lastErr)
	}

	b.cancel = cancel

	return nil
}

// collect drains one browse. zeroconf owns and closes the channel.
func (b *Browser) collect(ctx context.Context, entries <-chan *zeroconf.ServiceEntry) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-entries:
			if !ok {
				return
			}

			b.record(e)
		}
	}
}

func (b *Browser) record(e *zeroconf.ServiceEntry) {
	if e == nil || e.Instance == "" {
		return
	}

	svc := Service{Name: e.Instance, Type: e.Service, Domain: normalizeDomain(e.Domain)}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := svc.Key()
	if _, seen := b.addrs[key]; !seen {
		b.services = append(b.services, svc)
	}

	b.addrs[key] = mergeAddrs(b.addrs[key], ipv4Strings(e.AddrIPv4))
}

// Services returns the instances seen so far, in arrival order.
func (b *Browser) Services() []Service {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Service(nil), b.services...)
}

// Addresses returns IPv4 addresses learned while browsing svc.
func (b *Browser) Addresses(svc Service) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.addrs[svc.Key()]...)
}

// Stop ends browsing and waits for the collectors. Collected services stay
// readable.
func (b *Browser) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	b.wg.Wait()
}

// Resolver resolves instances, answering from the browser's cache first.
type Resolver struct {
	browser    *Browser
	logger     logger.Logger
	newResolve resolverFactory
}

// NewResolver returns a resolver. browser may be nil.
func NewResolver(browser *Browser, log logger.Logger) *Resolver {
	return &Resolver{browser: browser, logger: log.WithComponent("mdns"), newResolve: newZeroconfResolver}
}

// Resolve returns the IPv4 addresses of svc. It waits for the first answer
// carrying an address or for ctx to end.
func (r *Resolver) Resolve(ctx context.Context, svc Service) ([]string, error) {
	if r.browser != nil {
		if addrs := r.browser.Addresses(svc); len(addrs) > 0 {
			return addrs, nil
		}
	}

	res, err := r.newResolve()
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	lookupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, entryBuffer)

	if err := res.Lookup(lookupCtx, svc.Name, svc.Type, svc.Domain, entries); err != nil {
		return nil, fmt.Errorf("mdns lookup %s: %w", svc.Key(), err)
	}

	for {
		select {
		case <-lookupCtx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNoAddress, svc.Key(), lookupCtx.Err())
		case e, ok := <-entries:
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrNoAddress, svc.Key())
			}

			if e == nil {
				continue
			}

			if addrs := ipv4Strings(e.AddrIPv4); len(addrs) > 0 {
				return addrs, nil
			}
		}
	}
}

func ipv4Strings(ips []net.IP) []string {
	out := make([]string, 0, len(ips))

	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			out = append(out, v4.String())
		}
	}

	return out
}

func mergeAddrs(have, add []string) []string {
	for _, a := range add {
		dup := false

		for _, h := range have {
			if h == a {
				dup = true
				break
			}
		}

		if !dup {
			have = append(have, a)
		}
	}

	return have
}

func normalizeDomain(d string) string {
	if d == "" {
		return DefaultDomain
	}

	return strings.TrimSuffix(d, ".") + "."
}
