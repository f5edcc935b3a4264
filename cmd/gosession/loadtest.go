package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const loadtestTokenHeader = "X-Session-Token"

type loadtestOptions struct {
	concurrency int
	ops         int
	redisAddr   string
	latency     time.Duration
}

func loadtestCmd() *cobra.Command {
	var opts loadtestOptions

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Hammer a store with concurrent refreshes and session checks",
		Long: `loadtest runs an in-process backend, builds a store whose credential lives in
Redis, and drives concurrent RefreshToken and CheckSession calls against it. With no
--redis-addr (or REDIS_ADDR) an embedded miniredis is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.concurrency <= 0 || opts.ops <= 0 {
				return fmt.Errorf("concurrency and ops must be > 0")
			}
			if opts.redisAddr == "" {
				opts.redisAddr = os.Getenv("REDIS_ADDR")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 20000, "operations per phase (refresh + check)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	cmd.Flags().DurationVar(&opts.latency, "backend-latency", 0, "artificial latency added to every backend response")
	return cmd
}

func runLoadtest(ctx context.Context, out io.Writer, opts loadtestOptions) error {
	var (
		cleanup func()
		client  redis.UniversalClient
	)
	addr := opts.redisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	defer cleanup()

	backend := httptest.NewServer(loadtestBackend(opts.latency))
	defer backend.Close()

	cfg := goSession.DefaultConfig()
	cfg.API.BaseURL = backend.URL
	cfg.Credential.Backend = goSession.CredentialRedis
	cfg.Credential.RedisKey = "gs:loadtest"
	cfg.Credential.CaptureHeader = loadtestTokenHeader

	store, err := goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer store.Close()

	refreshStats, err := runPhase(ctx, opts, func(ctx context.Context) error {
		return store.RefreshToken(ctx)
	})
	if err != nil {
		return err
	}
	checkStats, err := runPhase(ctx, opts, func(ctx context.Context) error {
		store.CheckSession(ctx)
		return nil
	})
	if err != nil {
		return err
	}

	snap := store.MetricsSnapshot()
	fmt.Fprintln(out, "---- results ----")
	printStats(out, "refresh", refreshStats)
	printStats(out, "check", checkStats)
	fmt.Fprintf(out, "gateway requests=%d errors=%d stale_dropped=%d\n",
		snap.Counters[goSession.MetricGatewayRequest],
		snap.Counters[goSession.MetricGatewayError],
		snap.Counters[goSession.MetricStaleResultDropped],
	)
	final := store.Snapshot()
	fmt.Fprintf(out, "final status=%s\n", final.Status())
	return nil
}

// loadtestBackend answers refresh with a fixed user and rotates the session token header.
func loadtestBackend(latency time.Duration) http.Handler {
	var issued atomic.Uint64
	user := map[string]string{
		"id":       "u-load",
		"email":    "load@example.com",
		"name":     "Load Test",
		"provider": "google",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if latency > 0 {
			time.Sleep(latency)
		}
		w.Header().Set(loadtestTokenHeader, fmt.Sprintf("tok-%d", issued.Add(1)))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(user)
	})
	return mux
}

func runPhase(ctx context.Context, opts loadtestOptions, op func(context.Context) error) (phaseStats, error) {
	var (
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opts.ops)
		mu        sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < opts.concurrency; w++ {
		g.Go(func() error {
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= opts.ops {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				t0 := time.Now()
				err := op(gctx)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return phaseStats{}, err
	}
	return computeStats(time.Since(start), latencies, failures), nil
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
