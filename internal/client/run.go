package client

import (
	"context"

	"github.com/danmuck/where/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Querier fetches one target's sessions. *Client satisfies it.
type Querier interface {
	Query(ctx context.Context, s Settings) (protocol.Collection, error)
}

// Failure records a failsafe target that was skipped.
type Failure struct {
	Target Settings
	Err    error
}

// Result is the outcome of an aggregation run.
type Result struct {
	Sessions protocol.Collection
	Failures []Failure
}

// Run queries targets strictly in order. A failing target with failsafe
// set is skipped; without it the run stops and returns an *AbortError.
func Run(ctx context.Context, q Querier, targets []Target, g Global) (Result, error) {
	var res Result
	for _, t := range targets {
		s := Merge(t, g)
		sessions, err := q.Query(ctx, s)
		if err != nil {
			log.Error().Str("target", s.Label).Bool("failsafe", s.Failsafe).Err(err).Msg("target failed")
			if !s.Failsafe {
				return Result{}, &AbortError{Target: s.Endpoint, Err: err}
			}
			res.Failures = append(res.Failures, Failure{Target: s, Err: err})
			continue
		}
		log.Debug().Str("target", s.Label).Int("sessions", len(sessions)).Msg("target answered")
		res.Sessions = append(res.Sessions, sessions...)
	}
	return res, nil
}
