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

package discovery

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/carverauto/lanscan/pkg/scan"
	"github.com/huin/goupnp"
	"github.com/huin/goupnp/httpu"
	"github.com/huin/goupnp/ssdp"
)

// ssdpSends is the number of M-SEARCH datagrams per search.
const ssdpSends = 1

// httpuClient is the part of goupnp's HTTPU client a search needs.
type httpuClient interface {
	ssdp.HTTPUClient
	Close() error
}

// UPnPSearcher implements SSDPSearcher with goupnp. Each search and each
// description fetch holds one connection budget slot.
type UPnPSearcher struct {
	budget    *scan.ConnectionBudget
	newClient func() (httpuClient, error)
	logger    logger.Logger
}

func NewUPnPSearcher(budget *scan.ConnectionBudget, log logger.Logger) *UPnPSearcher {
	if budget == nil {
		budget = scan.NewConnectionBudget(scan.DefaultConnectionLimit)
	}

	return &UPnPSearcher{
		budget: budget,
		newClient: func() (httpuClient, error) {
			return httpu.NewHTTPUClient()
		},
		logger: log,
	}
}

// SSDPMaxWait converts a search window to the M-SEARCH MX header value:
// whole seconds, at least one.
func SSDPMaxWait(window time.Duration) int {
	return max(1, int(window.Round(time.Second)/time.Second))
}

// Search multicasts "ssdp:all" to 239.255.255.250:1900 with MX set to the
// window in whole seconds and collects replies for MX plus 100ms.
func (s *UPnPSearcher) Search(ctx context.Context, window time.Duration) ([]SSDPResponse, error) {
	if err := s.budget.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.budget.Release()

	client, err := s.newClient()
	if err != nil {
		return nil, fmt.Errorf("open SSDP socket: %w", err)
	}

	defer func() {
		if err := client.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to close SSDP socket")
		}
	}()

	responses, err := ssdp.SSDPRawSearchCtx(ctx, client, ssdp.SSDPAll, SSDPMaxWait(window), ssdpSends)
	if err != nil {
		return nil, fmt.Errorf("SSDP search: %w", err)
	}

	out := make([]SSDPResponse, 0, len(responses))

	for _, r := range responses {
		loc := r.Header.Get("Location")
		if loc == "" {
			continue
		}

		out = append(out, SSDPResponse{
			Location: loc,
			Server:   r.Header.Get("Server"),
			USN:      r.Header.Get("Usn"),
		})
	}

	return out, nil
}

// Describe fetches the root device description at location.
func (s *UPnPSearcher) Describe(ctx context.Context, location string) (*SSDPDescription, error) {
	if location == "" {
		return nil, ErrNoLocation
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse location %q: %w", location, err)
	}

	if err := s.budget.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.budget.Release()

	root, err := goupnp.DeviceByURLCtx(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch description: %w", err)
	}

	return &SSDPDescription{
		FriendlyName: root.Device.FriendlyName,
		Manufacturer: root.Device.Manufacturer,
		ModelName:    root.Device.ModelName,
	}, nil
}
