/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package timeoutmgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSweepExpiresByPhase(t *testing.T) {
	m := New(Policy{HeaderRead: 50 * time.Millisecond, BodyRead: time.Hour, Write: time.Hour, KeepAliveIdle: time.Hour, Request: time.Hour})
	m.Add(7)
	require.Empty(t, m.Sweep())

	m.clock = func() time.Time { return time.Now().Add(100 * time.Millisecond) }
	require.Equal(t, []int{7}, m.Sweep())
}

func TestSweepExpiresByOverallRequest(t *testing.T) {
	m := New(Policy{HeaderRead: time.Hour, BodyRead: time.Hour, Write: time.Hour, KeepAliveIdle: time.Hour, Request: 50 * time.Millisecond})
	m.Add(3)
	m.clock = func() time.Time { return time.Now().Add(100 * time.Millisecond) }
	require.Equal(t, []int{3}, m.Sweep())
}

func TestResetForNextRequestRearmsOverallDeadline(t *testing.T) {
	base := time.Now()
	m := New(Policy{HeaderRead: time.Hour, BodyRead: time.Hour, Write: time.Hour, KeepAliveIdle: time.Hour, Request: 200 * time.Millisecond})
	m.clock = func() time.Time { return base }
	m.Add(1)

	m.clock = func() time.Time { return base.Add(150 * time.Millisecond) }
	m.ResetForNextRequest(1)
	require.Empty(t, m.Sweep())

	m.clock = func() time.Time { return base.Add((150 + 250) * time.Millisecond) }
	require.Equal(t, []int{1}, m.Sweep())
}

func TestNextWakeFloorsAtMinimum(t *testing.T) {
	m := New(Policy{HeaderRead: time.Millisecond, BodyRead: time.Hour, Write: time.Hour, KeepAliveIdle: time.Hour, Request: time.Hour})
	m.Add(1)
	require.Equal(t, minWake, m.NextWake())
}

func TestRemoveDropsRecord(t *testing.T) {
	m := New(Policy{})
	m.Add(1)
	require.Equal(t, 1, m.Len())
	m.Remove(1)
	require.Equal(t, 0, m.Len())
}
