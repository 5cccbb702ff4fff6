package logring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendAndSnapshotOrder(t *testing.T) {
	r := New()
	base := time.Now()
	r.Append(SeverityInfo, "first", base)
	r.Append(SeverityWarn, "second", base.Add(time.Second))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "first", snap[0].Message)
	require.Equal(t, "second", snap[1].Message)
}

func TestAppendEvictsOldestWhenFull(t *testing.T) {
	r := New()
	base := time.Now()
	for i := 0; i < Capacity+10; i++ {
		r.Append(SeverityInfo, "entry", base.Add(time.Duration(i)*time.Millisecond))
	}

	require.Equal(t, Capacity, r.Len())
	snap := r.Snapshot()
	require.Len(t, snap, Capacity)
	require.Equal(t, base.Add(10*time.Millisecond), snap[0].Time)
	require.Equal(t, base.Add(time.Duration(Capacity+9)*time.Millisecond), snap[Capacity-1].Time)
}

func TestHelperMethodsSetSeverity(t *testing.T) {
	r := New()
	r.Info("info")
	r.Warn("warn")
	r.Error("error")

	snap := r.Snapshot()
	require.Equal(t, SeverityInfo, snap[0].Severity)
	require.Equal(t, SeverityWarn, snap[1].Severity)
	require.Equal(t, SeverityError, snap[2].Severity)
}
