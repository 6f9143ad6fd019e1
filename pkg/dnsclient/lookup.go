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

package dnsclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// SupportedTypes lists the record types Lookup accepts.
var SupportedTypes = []string{"A", "AAAA", "MX", "TXT", "CNAME", "NS", "SOA", "PTR"}

// Record is one answer in display form.
type Record struct {
	Name  string        `json:"name"`
	Type  string        `json:"type"`
	TTL   time.Duration `json:"ttl"`
	Value string        `json:"value"`
}

// Result is the outcome of one Lookup.
type Result struct {
	Query   string        `json:"query"`
	Type    string        `json:"type"`
	Server  string        `json:"server"`
	Records []Record      `json:"records"`
	RTT     time.Duration `json:"rtt"`
}

// ParseType maps a record type name to its wire value.
func ParseType(name string) (uint16, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))

	for _, t := range SupportedTypes {
		if t == upper {
			return dns.StringToType[upper], nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// Lookup queries name for the given record type. For PTR, name may be an
// IPv4 address.
func (c *Client) Lookup(ctx context.Context, name, recordType string) (*Result, error) {
	qtype, err := ParseType(recordType)
	if err != nil {
		return nil, err
	}

	query := name
	if qtype == dns.TypePTR {
		if arpa, err := dns.ReverseAddr(name); err == nil {
			query = arpa
		}
	}

	start := time.Now()

	resp, err := c.exchange(ctx, query, qtype)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Query:  name,
		Type:   dns.TypeToString[qtype],
		Server: c.server,
		RTT:    time.Since(start),
	}

	for _, rr := range resp.Answer {
		if rec, ok := recordFromRR(rr); ok {
			res.Records = append(res.Records, rec)
		}
	}

	if len(res.Records) == 0 {
		return res, fmt.Errorf("%w: %s %s", ErrNoRecords, res.Type, name)
	}

	return res, nil
}

func recordFromRR(rr dns.RR) (Record, bool) {
	h := rr.Header()
	rec := Record{
		Name: strings.TrimSuffix(h.Name, "."),
		Type: dns.TypeToString[h.Rrtype],
		TTL:  time.Duration(h.Ttl) * time.Second,
	}

	switch v := rr.(type) {
	case *dns.A:
		rec.Value = v.A.String()
	case *dns.AAAA:
		rec.Value = v.AAAA.String()
	case *dns.MX:
		rec.Value = fmt.Sprintf("%d %s", v.Preference, strings.TrimSuffix(v.Mx, "."))
	case *dns.TXT:
		rec.Value = strings.Join(v.Txt, "")
	case *dns.CNAME:
		rec.Value = strings.TrimSuffix(v.Target, ".")
	case *dns.NS:
		rec.Value = strings.TrimSuffix(v.Ns, ".")
	case *dns.SOA:
		rec.Value = fmt.Sprintf("%s %s %d %d %d %d %d",
			strings.TrimSuffix(v.Ns, "."), strings.TrimSuffix(v.Mbox, "."),
			v.Serial, v.Refresh, v.Retry, v.Expire, v.Minttl)
	case *dns.PTR:
		rec.Value = strings.TrimSuffix(v.Ptr, ".")
	default:
		return rec, false
	}

	return rec, true
}
