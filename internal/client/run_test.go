package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/where/internal/protocol"
	"github.com/danmuck/where/internal/testutil/testlog"
)

type fakeQuerier struct {
	results map[string]protocol.Collection
	errs    map[string]error
	calls   []Settings
}

func (q *fakeQuerier) Query(_ context.Context, s Settings) (protocol.Collection, error) {
	q.calls = append(q.calls, s)
	if err, ok := q.errs[s.Endpoint]; ok {
		return nil, err
	}
	out := make(protocol.Collection, 0, len(q.results[s.Endpoint]))
	for _, session := range q.results[s.Endpoint] {
		session.Host = s.Label
		out = append(out, session)
	}
	return out, nil
}

func newRunFixture() *fakeQuerier {
	return &fakeQuerier{
		results: map[string]protocol.Collection{
			"alpha": {{PID: 1, User: "alice", TTY: "pts/0", Active: true}},
			"gamma": {{PID: 3, User: "carol", TTY: "pts/3", Active: true}, {PID: 4, User: "dan", TTY: "tty1"}},
		},
		errs: map[string]error{
			"beta": &TimeoutError{Target: "beta", Address: "192.0.2.2:15", Attempts: 3, Timeout: time.Second},
		},
	}
}

func TestRunFailsafeSkipsFailedTarget(t *testing.T) {
	testlog.Start(t)

	q := newRunFixture()
	failsafe := true
	targets := []Target{
		{Endpoint: "alpha"},
		{Endpoint: "beta", Failsafe: &failsafe},
		{Endpoint: "gamma", Label: "g"},
	}

	res, err := Run(context.Background(), q, targets, DefaultGlobal())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(q.calls) != 3 {
		t.Fatalf("expected every target queried, got %d", len(q.calls))
	}
	if len(res.Sessions) != 3 {
		t.Fatalf("expected 3 sessions from remaining targets, got %d", len(res.Sessions))
	}
	if res.Sessions[0].Host != "alpha" || res.Sessions[1].Host != "g" || res.Sessions[2].User != "dan" {
		t.Fatalf("unexpected session order or labels: %+v", res.Sessions)
	}
	if len(res.Failures) != 1 || res.Failures[0].Target.Endpoint != "beta" || !errors.Is(res.Failures[0].Err, ErrTimeout) {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
}

func TestRunWithoutFailsafeAborts(t *testing.T) {
	testlog.Start(t)

	q := newRunFixture()
	targets := []Target{{Endpoint: "alpha"}, {Endpoint: "beta"}, {Endpoint: "gamma"}}

	res, err := Run(context.Background(), q, targets, DefaultGlobal())
	var abort *AbortError
	if !errors.As(err, &abort) || abort.Target != "beta" {
		t.Fatalf("expected AbortError for beta, got %v", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected abort to wrap the timeout, got %v", err)
	}
	if len(q.calls) != 2 {
		t.Fatalf("expected run to stop after beta, got %d calls", len(q.calls))
	}
	if len(res.Sessions) != 0 {
		t.Fatalf("expected no output after abort, got %+v", res.Sessions)
	}
}

func TestRunMergesSettingsPerTarget(t *testing.T) {
	q := newRunFixture()
	timeout := 100 * time.Millisecond
	g := Global{Timeout: time.Second, MaxRetries: 2, Port: 1515}

	if _, err := Run(context.Background(), q, []Target{{Endpoint: "alpha", Timeout: &timeout}, {Endpoint: "gamma"}}, g); err != nil {
		t.Fatalf("run: %v", err)
	}
	if q.calls[0].Timeout != timeout || q.calls[0].MaxRetries != 2 || q.calls[0].Port != 1515 {
		t.Fatalf("unexpected first settings: %+v", q.calls[0])
	}
	if q.calls[1].Timeout != time.Second {
		t.Fatalf("override leaked into next target: %+v", q.calls[1])
	}
}
