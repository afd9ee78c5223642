// Package healthcheck probes the backend collections one after another and
// folds the outcomes into a single verdict.
package healthcheck

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"biblioteca/pkg/apiclient"
)

const DefaultTimeout = 2500 * time.Millisecond

const (
	MessageAllOK       = "all endpoints ok"
	MessagePartial     = "partially ok"
	MessageUnavailable = "unavailable - none responded"
)

// DefaultEndpoints asks each collection for a single record.
var DefaultEndpoints = []string{
	"/" + apiclient.BooksCollection + "?_limit=1",
	"/" + apiclient.MembersCollection + "?_limit=1",
	"/" + apiclient.LoansCollection + "?_limit=1",
}

// Prober performs a single GET bounded by timeout and reports the HTTP
// status. *apiclient.Client satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string, timeout time.Duration) (int, error)
}

type Options struct {
	Timeout   time.Duration
	Endpoints []string
	// RequireAll makes the check pass only when every endpoint answered 2xx.
	// Otherwise one success is enough.
	RequireAll bool
	Logger     *slog.Logger
}

type EndpointResult struct {
	Path string
	OK   bool
	// Status is 0 when no HTTP response arrived.
	Status  int
	Latency time.Duration
	Error   string
}

type Result struct {
	OK           bool
	Message      string
	Endpoints    []EndpointResult
	TotalLatency time.Duration
}

type Checker struct {
	prober Prober
	opts   Options
}

func New(p Prober, opts Options) *Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if len(opts.Endpoints) == 0 {
		opts.Endpoints = DefaultEndpoints
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Checker{prober: p, opts: opts}
}

// Check probes every endpoint in order, each with its own timeout, and never
// retries.
func (c *Checker) Check(ctx context.Context) Result {
	start := time.Now()
	res := Result{Endpoints: make([]EndpointResult, 0, len(c.opts.Endpoints))}

	succeeded := 0
	for _, path := range c.opts.Endpoints {
		ep := c.probe(ctx, path)
		if ep.OK {
			succeeded++
		}
		c.opts.Logger.Debug("health probe",
			"path", ep.Path, "ok", ep.OK, "status", ep.Status, "latency", ep.Latency, "error", ep.Error)
		res.Endpoints = append(res.Endpoints, ep)
	}

	total := len(res.Endpoints)
	switch {
	case succeeded == total && total > 0:
		res.Message = MessageAllOK
	case succeeded > 0:
		res.Message = MessagePartial
	default:
		res.Message = MessageUnavailable
	}
	if c.opts.RequireAll {
		res.OK = total > 0 && succeeded == total
	} else {
		res.OK = succeeded > 0
	}
	res.TotalLatency = time.Since(start)
	return res
}

func (c *Checker) probe(ctx context.Context, path string) EndpointResult {
	start := time.Now()
	status, err := c.prober.Probe(ctx, path, c.opts.Timeout)
	ep := EndpointResult{Path: path, Status: status, Latency: time.Since(start)}

	switch {
	case errors.Is(err, apiclient.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		ep.Error = "timeout"
	case err != nil:
		ep.Error = err.Error()
	case status < 200 || status > 299:
		ep.Error = apiclient.StatusText(status)
	default:
		ep.OK = true
	}
	return ep
}
