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

import "errors"

var (
	ErrSNMPGetFailed      = errors.New("SNMP GET failed")
	ErrSNMPError          = errors.New("SNMP error status")
	ErrNoSNMPDataReturned = errors.New("no SNMP data returned")
	ErrNoLocation         = errors.New("SSDP response has no LOCATION")
	ErrNoPipeline         = errors.New("engine has no pipeline")
)
