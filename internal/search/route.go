package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/udisondev/ppather/internal/event"
	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/metrics"
	"github.com/udisondev/ppather/internal/pathgraph"
)

// Status classifies a route search result.
type Status int

const (
	// StatusFound means Path reaches the goal radius.
	StatusFound Status = iota
	// StatusNoPath is an expected failure: the frontier was exhausted, the
	// expansion cap was hit, the start had no ground or geometry failed to load.
	StatusNoPath
	// StatusCanceled means the context ended the search.
	StatusCanceled
	// StatusFault means the search panicked; Err carries the recovered value.
	StatusFault
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNoPath:
		return "no_path"
	case StatusCanceled:
		return "canceled"
	case StatusFault:
		return "fault"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of FindRoute. Path is empty unless Status is StatusFound.
type Result struct {
	Status Status
	Path   pathgraph.Path
	// Closest is the explored position nearest to the goal, valid when HasClosest.
	Closest    geo.Location
	HasClosest bool
	Expanded   int
	// Err explains a non-found status when there is more to say than "exhausted".
	Err error
}

// Found reports whether a path was produced.
func (r Result) Found() bool { return r.Status == StatusFound }

// FindRoute searches a route from from to to on the bound map. A radius <= 0
// uses the configured close-enough distance.
//
// Expected failures and internal faults are reported through Result; the
// error is reserved for misuse such as calling before CreatePathGraph.
func (s *Search) FindRoute(ctx context.Context, from, to geo.Location, strategy pathgraph.Strategy, radius float64) (res Result, err error) {
	if s.state != Initialized {
		return Result{}, ErrNotInitialized
	}
	if radius <= 0 {
		radius = s.cfg.CloseEnough
	}

	mapID := s.mapID
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("route search fault",
				"map", mapID, "from", from, "to", to, "panic", r, "stack", string(debug.Stack()))
			res = Result{Status: StatusFault, Err: fmt.Errorf("route search fault: %v", r)}
		}
		metrics.Searches.WithLabelValues(res.Status.String()).Inc()
		metrics.SearchDuration.WithLabelValues(strategy.String()).Observe(time.Since(began).Seconds())
	}()

	s.bus.Publish(event.Event{Type: event.SearchBegan, MapID: mapID, From: &from, To: &to})

	out, ferr := s.graph.FindPath(ctx, pathgraph.Query{
		From:          from,
		To:            to,
		Strategy:      strategy,
		CloseEnough:   radius,
		MaxExpansions: s.cfg.MaxExpansions,
	})

	res = Result{Path: out.Path, Expanded: out.Expanded}
	if out.Closest != nil {
		res.Closest, res.HasClosest = out.Closest.Location(), true
	}

	switch {
	case ferr == nil && out.Found():
		res.Status = StatusFound
	case ferr == nil:
		res.Status = StatusNoPath
		if !out.Exhausted {
			res.Err = fmt.Errorf("gave up after %d expansions", out.Expanded)
		}
	case errors.Is(ferr, context.Canceled), errors.Is(ferr, context.DeadlineExceeded):
		res.Status = StatusCanceled
		res.Err = ferr
	default:
		res.Status = StatusNoPath
		res.Err = ferr
		slog.Warn("route search failed", "map", mapID, "from", from, "to", to, "err", ferr)
	}

	slog.Debug("route search finished",
		"map", mapID,
		"status", res.Status,
		"strategy", strategy,
		"expanded", res.Expanded,
		"spots", s.graph.Len(),
		"elapsed", time.Since(began))

	s.publishDiagnostics(from, out.Goal, radius, res)
	return res, nil
}

func (s *Search) publishDiagnostics(from, goal geo.Location, radius float64, res Result) {
	s.bus.Publish(event.Sphere(s.mapID, from, 1, "start"))
	s.bus.Publish(event.Sphere(s.mapID, goal, radius, "goal"))
	if res.Found() {
		points := res.Path.Points()
		s.bus.Publish(event.Lines(s.mapID, points, "path"))
		s.bus.Publish(event.Event{Type: event.PathCreated, MapID: s.mapID, Points: points})
		return
	}
	if res.HasClosest {
		s.bus.Publish(event.Sphere(s.mapID, res.Closest, 1, "closest"))
	}
}
