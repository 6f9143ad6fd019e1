//go:build linux

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

package scan

import (
	"context"
	"fmt"
	"os"
)

const procNetARP = "/proc/net/arp"

func readARPTable(_ context.Context) ([]ARPEntry, error) {
	data, err := os.ReadFile(procNetARP)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", procNetARP, err)
	}

	return ParseProcNetARP(string(data)), nil
}
