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
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultConnectionLimit caps simultaneously open sockets across all phases.
const DefaultConnectionLimit = 30

// ConnectionBudget is a process-wide admission gate for socket-creating work.
// Waiters are admitted in FIFO order.
type ConnectionBudget struct {
	sem    *semaphore.Weighted
	limit  int64
	active atomic.Int64
}

// NewConnectionBudget returns a budget with the given limit. Values below one
// fall back to DefaultConnectionLimit.
func NewConnectionBudget(limit int) *ConnectionBudget {
	if limit < 1 {
		limit = DefaultConnectionLimit
	}

	return &ConnectionBudget{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}
}

// Acquire blocks until a slot is free. It only fails when ctx is done.
func (b *ConnectionBudget) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	b.active.Add(1)

	return nil
}

// Release returns a slot and admits the oldest waiter.
func (b *ConnectionBudget) Release() {
	b.active.Add(-1)
	b.sem.Release(1)
}

// Active is the number of slots currently held.
func (b *ConnectionBudget) Active() int {
	return int(b.active.Load())
}

// Limit is the configured ceiling.
func (b *ConnectionBudget) Limit() int {
	return int(b.limit)
}
