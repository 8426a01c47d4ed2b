package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofinances/internal/core"
	applog "gofinances/internal/log"
)

func TestLoader_ReturnsLatestResult(t *testing.T) {
	l := NewLoader(func(_ context.Context, userID string, ref time.Time) (core.Summary, error) {
		return core.Summary{Overview: core.MonthOverview{Year: ref.Year()}}, nil
	}, applog.Discard())

	s, err := l.Load(context.Background(), "u", ViewDashboard, march2022)
	require.NoError(t, err)
	assert.Equal(t, 2022, s.Overview.Year)
	assert.Equal(t, uint64(1), l.Latest("u", ViewDashboard))
	assert.Equal(t, uint64(0), l.Latest("u", ViewResume))
	assert.Equal(t, uint64(0), l.Latest("other", ViewDashboard))
}

func TestLoader_DiscardsSupersededLoad(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	april := time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC)

	l := NewLoader(func(_ context.Context, userID string, ref time.Time) (core.Summary, error) {
		if ref.Equal(march2022) {
			close(started)
			<-release
		}
		return core.Summary{Overview: core.MonthOverview{Month: int(ref.Month())}}, nil
	}, applog.Discard())

	type result struct {
		s   core.Summary
		err error
	}
	slow := make(chan result, 1)
	go func() {
		s, err := l.Load(context.Background(), "u", ViewDashboard, march2022)
		slow <- result{s, err}
	}()
	<-started

	fresh, err := l.Load(context.Background(), "u", ViewDashboard, april)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.Overview.Month)

	close(release)
	r := <-slow
	assert.ErrorIs(t, r.err, ErrSuperseded)
	assert.Zero(t, r.s.Overview.Month)
}

func TestLoader_UsersDoNotSupersedeEachOther(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	l := NewLoader(func(_ context.Context, userID string, ref time.Time) (core.Summary, error) {
		if userID == "slow" {
			close(started)
			<-release
		}
		return core.Summary{}, nil
	}, applog.Discard())

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), "slow", ViewDashboard, march2022)
		done <- err
	}()
	<-started

	_, err := l.Load(context.Background(), "fast", ViewDashboard, march2022)
	require.NoError(t, err)

	close(release)
	assert.NoError(t, <-done)
}

func TestLoader_ViewsDoNotSupersedeEachOther(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	april := time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC)

	l := NewLoader(func(_ context.Context, _ string, ref time.Time) (core.Summary, error) {
		if ref.Equal(march2022) {
			close(started)
			<-release
		}
		return core.Summary{Overview: core.MonthOverview{Month: int(ref.Month())}}, nil
	}, applog.Discard())

	type result struct {
		s   core.Summary
		err error
	}
	dashboard := make(chan result, 1)
	go func() {
		s, err := l.Load(context.Background(), "u", ViewDashboard, march2022)
		dashboard <- result{s, err}
	}()
	<-started

	resume, err := l.Load(context.Background(), "u", ViewResume, april)
	require.NoError(t, err)
	assert.Equal(t, 4, resume.Overview.Month)

	close(release)
	r := <-dashboard
	require.NoError(t, r.err)
	assert.Equal(t, 3, r.s.Overview.Month)
}

func TestLoader_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader(func(context.Context, string, time.Time) (core.Summary, error) {
		return core.Summary{}, boom
	}, applog.Discard())

	_, err := l.Load(context.Background(), "u", ViewDashboard, march2022)
	assert.ErrorIs(t, err, boom)
}
