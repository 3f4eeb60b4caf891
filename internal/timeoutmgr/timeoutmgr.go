/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package timeoutmgr implements the per-connection deadline bookkeeping
// described in spec §4.4: one record per socket handle, indexed by phase,
// with a Sweep pass the event loop runs before every wait and a NextWake
// computation used as the wait timeout.
package timeoutmgr

import (
	"sync"
	"time"
)

// Phase is the connection activity the current deadline is measured
// against, per spec §3 "Timeout record".
type Phase int

const (
	ReadingHeaders Phase = iota
	ReadingBody
	Writing
	KeepAliveIdle
)

// Policy is the five immutable durations spec §3 "Timeout policy" names.
type Policy struct {
	HeaderRead    time.Duration
	BodyRead      time.Duration
	Write         time.Duration
	KeepAliveIdle time.Duration
	Request       time.Duration // overall hard upper bound
}

// DefaultPolicy mirrors the kind of values badu-http's timeout_handler.go
// wires by default for a small origin server.
var DefaultPolicy = Policy{
	HeaderRead:    10 * time.Second,
	BodyRead:      30 * time.Second,
	Write:         30 * time.Second,
	KeepAliveIdle: 75 * time.Second,
	Request:       5 * time.Minute,
}

// minWake floors NextWake so the loop never busy-spins (spec §4.4).
const minWake = 100 * time.Millisecond

type record struct {
	phase        Phase
	lastActivity time.Time
	requestStart time.Time
}

// Manager owns one record per live connection fd. It is exclusively used
// by the single-threaded event loop, so no locking is needed for the
// steady-state case; the mutex keeps it safe if it is called from any
// other goroutine as well.
type Manager struct {
	mu      sync.Mutex
	policy  Policy
	records map[int]*record
	clock   func() time.Time
}

// New returns a Manager enforcing policy. A zero Policy falls back to
// DefaultPolicy field-by-field.
func New(policy Policy) *Manager {
	if policy.HeaderRead <= 0 {
		policy.HeaderRead = DefaultPolicy.HeaderRead
	}
	if policy.BodyRead <= 0 {
		policy.BodyRead = DefaultPolicy.BodyRead
	}
	if policy.Write <= 0 {
		policy.Write = DefaultPolicy.Write
	}
	if policy.KeepAliveIdle <= 0 {
		policy.KeepAliveIdle = DefaultPolicy.KeepAliveIdle
	}
	if policy.Request <= 0 {
		policy.Request = DefaultPolicy.Request
	}
	return &Manager{
		policy:  policy,
		records: make(map[int]*record),
		clock:   time.Now,
	}
}

// Add records a new connection with phase = ReadingHeaders, per spec §4.4
// "add(fd)".
func (m *Manager) Add(fd int) {
	now := m.clock()
	m.mu.Lock()
	m.records[fd] = &record{phase: ReadingHeaders, lastActivity: now, requestStart: now}
	m.mu.Unlock()
}

// Touch updates the fd's last-activity timestamp. Called on every
// successful byte transfer.
func (m *Manager) Touch(fd int) {
	m.mu.Lock()
	if r, ok := m.records[fd]; ok {
		r.lastActivity = m.clock()
	}
	m.mu.Unlock()
}

// SetPhase stores the new phase for fd and touches it.
func (m *Manager) SetPhase(fd int, phase Phase) {
	now := m.clock()
	m.mu.Lock()
	if r, ok := m.records[fd]; ok {
		r.phase = phase
		r.lastActivity = now
	}
	m.mu.Unlock()
}

// ResetForNextRequest rearms fd's overall-request deadline for the next
// keep-alive request on the same connection.
func (m *Manager) ResetForNextRequest(fd int) {
	now := m.clock()
	m.mu.Lock()
	if r, ok := m.records[fd]; ok {
		r.phase = ReadingHeaders
		r.lastActivity = now
		r.requestStart = now
	}
	m.mu.Unlock()
}

// Remove drops fd's record, called when its Connection is destroyed.
func (m *Manager) Remove(fd int) {
	m.mu.Lock()
	delete(m.records, fd)
	m.mu.Unlock()
}

func (m *Manager) phaseTimeout(phase Phase) time.Duration {
	switch phase {
	case ReadingHeaders:
		return m.policy.HeaderRead
	case ReadingBody:
		return m.policy.BodyRead
	case Writing:
		return m.policy.Write
	default:
		return m.policy.KeepAliveIdle
	}
}

// Sweep reports every fd whose phase deadline or overall-request deadline
// has passed, per spec §4.4 "sweep()".
func (m *Manager) Sweep() []int {
	now := m.clock()
	var expired []int
	m.mu.Lock()
	for fd, r := range m.records {
		if now.Sub(r.lastActivity) > m.phaseTimeout(r.phase) || now.Sub(r.requestStart) > m.policy.Request {
			expired = append(expired, fd)
		}
	}
	m.mu.Unlock()
	return expired
}

// NextWake returns the minimum remaining budget across all records,
// floored at minWake, per spec §4.4. With no live records it returns the
// keep-alive-idle duration so the loop still wakes periodically.
func (m *Manager) NextWake() time.Duration {
	now := m.clock()
	min := m.policy.KeepAliveIdle
	m.mu.Lock()
	for _, r := range m.records {
		phaseLeft := m.phaseTimeout(r.phase) - now.Sub(r.lastActivity)
		reqLeft := m.policy.Request - now.Sub(r.requestStart)
		left := phaseLeft
		if reqLeft < left {
			left = reqLeft
		}
		if left < min {
			min = left
		}
	}
	m.mu.Unlock()
	if min < minWake {
		min = minWake
	}
	return min
}

// Len reports the number of live records, used by tests asserting no
// descriptor leak (spec §8).
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
