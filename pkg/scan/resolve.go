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

import "sync/atomic"

// Resolution lets exactly one of several racing completions (a reply, a
// timer, a cancellation) deliver a result.
type Resolution struct {
	done atomic.Bool
}

// TryResolve reports whether the caller is the first to resolve.
func (r *Resolution) TryResolve() bool {
	return r.done.CompareAndSwap(false, true)
}
