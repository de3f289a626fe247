// Package bench drives repeated requests through the minigun client and
// reports latency percentiles, throughput and status distribution.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wesleyorama2/minigun/http"
)

// Config describes a benchmark run.
type Config struct {
	Method      http.Method
	URL         string
	Options     *http.Options
	Requests    int           // total requests to send
	Concurrency int           // number of workers
	RPS         float64       // 0 means unlimited
	Duration    time.Duration // optional cap on wall time
	Logger      *zap.Logger
}

// Report is the outcome of a run.
type Report struct {
	Method      string           `json:"method" yaml:"method"`
	URL         string           `json:"url" yaml:"url"`
	Requests    int64            `json:"requests" yaml:"requests"`
	Succeeded   int64            `json:"succeeded" yaml:"succeeded"`
	Failed      int64            `json:"failed" yaml:"failed"`
	Bytes       int64            `json:"bytes" yaml:"bytes"`
	Elapsed     time.Duration    `json:"elapsed" yaml:"elapsed"`
	RPS         float64          `json:"rps" yaml:"rps"`
	Latency     LatencyStats     `json:"latency" yaml:"latency"`
	StatusCodes map[int]int64    `json:"statusCodes" yaml:"statusCodes"`
	Errors      map[string]int64 `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	if !c.Method.Valid() {
		return fmt.Errorf("invalid method %q", c.Method)
	}
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive, got %d", c.Requests)
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Concurrency > c.Requests {
		c.Concurrency = c.Requests
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must not be negative, got %g", c.RPS)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", c.Duration)
	}
	return nil
}

// Run sends cfg.Requests requests using cfg.Concurrency workers and blocks
// until they complete, cfg.Duration elapses or ctx is cancelled. On
// cancellation the partial report is returned together with ctx.Err().
func Run(ctx context.Context, client *http.Client, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	runCtx := ctx
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	logger.Info("benchmark starting",
		zap.String("method", cfg.Method.String()),
		zap.String("url", cfg.URL),
		zap.Int("requests", cfg.Requests),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Float64("rps", cfg.RPS),
	)

	rec := NewRecorder()
	jobs := make(chan struct{})
	start := time.Now()

	var wg sync.WaitGroup
	for range cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				sent := time.Now()
				resp, err := client.ExecuteContext(runCtx, cfg.Method, cfg.URL, cfg.Options)
				elapsed := time.Since(sent)
				if err != nil {
					if runCtx.Err() != nil {
						// stopped mid-flight, not a server failure
						continue
					}
					rec.RecordError(http.KindOf(err).String(), elapsed)
					continue
				}
				rec.RecordResponse(resp.StatusCode, len(resp.Body), elapsed)
			}
		}()
	}

produce:
	for range cfg.Requests {
		if limiter != nil {
			if err := limiter.Wait(runCtx); err != nil {
				break
			}
		}
		select {
		case jobs <- struct{}{}:
		case <-runCtx.Done():
			break produce
		}
	}
	close(jobs)
	wg.Wait()

	report := rec.Report(time.Since(start))
	report.Method = cfg.Method.String()
	report.URL = cfg.URL

	logger.Info("benchmark finished",
		zap.Int64("requests", report.Requests),
		zap.Int64("failed", report.Failed),
		zap.Duration("p99", report.Latency.P99),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}
