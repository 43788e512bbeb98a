// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gaitrec

import (
	"sync"
	"time"
)

// origin is the time origin of a stream in seconds since the Unix epoch. The
// two streams of a session hold the same origin, so moving it through either
// stream moves both.
type origin struct {
	mu  sync.RWMutex
	t0  float64
	set bool
}

func newOrigin(t0 float64) *origin {
	return &origin{t0: t0, set: true}
}

func (o *origin) load() (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.t0, o.set
}

func (o *origin) store(t0 float64) {
	o.mu.Lock()
	o.t0 = t0
	o.set = true
	o.mu.Unlock()
}

// establish sets the origin from now unless one already exists.
func (o *origin) establish(now func() time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.set {
		o.t0 = Timestamp(now())
		o.set = true
	}
}

func (o *origin) clone() *origin {
	t0, set := o.load()
	return &origin{t0: t0, set: set}
}

// lazyOrigin hands out the origin of a stream, allocating an unset one for
// zero-value streams.
type lazyOrigin struct {
	once sync.Once
	o    *origin
}

func (l *lazyOrigin) get() *origin {
	l.once.Do(func() {
		if l.o == nil {
			l.o = &origin{}
		}
	})
	return l.o
}
