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
	"strings"
	"time"

	"github.com/carverauto/lanscan/pkg/logger"
	"github.com/gosnmp/gosnmp"
)

const (
	oidSysDescr = ".1.3.6.1.2.1.1.1.0"
	oidSysName  = ".1.3.6.1.2.1.1.5.0"

	defaultSNMPPort = 161
)

// GoSNMPQuerier reads sysName and sysDescr with SNMP v2c GETs.
type GoSNMPQuerier struct {
	community string
	port      uint16
	timeout   time.Duration
	logger    logger.Logger
}

func NewGoSNMPQuerier(community string, port int, timeout time.Duration, log logger.Logger) *GoSNMPQuerier {
	if port <= 0 || port > 65535 {
		port = defaultSNMPPort
	}

	if timeout <= 0 {
		timeout = time.Second
	}

	return &GoSNMPQuerier{
		community: community,
		port:      uint16(port), // #nosec G115 - range checked above
		timeout:   timeout,
		logger:    log,
	}
}

// QuerySystem performs one GET for the system name and description.
func (q *GoSNMPQuerier) QuerySystem(ctx context.Context, ip string) (*SNMPSystemInfo, error) {
	timeout := q.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	client := &gosnmp.GoSNMP{
		Target:    ip,
		Port:      q.port,
		Community: q.community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   0,
		Context:   ctx,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", ip, err)
	}

	defer func() {
		if err := client.Conn.Close(); err != nil {
			q.logger.Debug().Err(err).Str("ip", ip).Msg("Failed to close SNMP connection")
		}
	}()

	result, err := client.Get([]string{oidSysName, oidSysDescr})
	if err != nil {
		return nil, fmt.Errorf("%w %w", ErrSNMPGetFailed, err)
	}

	if result.Error != gosnmp.NoError {
		return nil, fmt.Errorf("%w %s", ErrSNMPError, result.Error)
	}

	return systemInfoFromPDUs(result.Variables)
}

func systemInfoFromPDUs(vars []gosnmp.SnmpPDU) (*SNMPSystemInfo, error) {
	info := &SNMPSystemInfo{}

	for _, v := range vars {
		if v.Type == gosnmp.NoSuchObject || v.Type == gosnmp.NoSuchInstance {
			continue
		}

		s, ok := pduString(v)
		if !ok {
			continue
		}

		switch normalizeOID(v.Name) {
		case oidSysName:
			info.Name = s
		case oidSysDescr:
			info.Description = s
		}
	}

	if info.Name == "" && info.Description == "" {
		return nil, ErrNoSNMPDataReturned
	}

	return info, nil
}

func pduString(v gosnmp.SnmpPDU) (string, bool) {
	if v.Type != gosnmp.OctetString {
		return "", false
	}

	switch b := v.Value.(type) {
	case []byte:
		return strings.TrimSpace(string(b)), true
	case string:
		return strings.TrimSpace(b), true
	}

	return "", false
}

func normalizeOID(oid string) string {
	if strings.HasPrefix(oid, ".") {
		return oid
	}

	return "." + oid
}
