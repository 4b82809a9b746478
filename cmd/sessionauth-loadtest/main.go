// Command sessionauth-loadtest measures session create and lookup latency
// through the session manager against a Redis backend.
//
// Every lookup reloads the backend snapshot, so cost grows with the number of
// stored sessions; --sessions controls that size.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/deniswachira/sessionauth/session"
	"github.com/deniswachira/sessionauth/session/redisstore"
)

func main() {
	var (
		sessions    = pflag.Int("sessions", 2000, "number of sessions to seed")
		concurrency = pflag.Int("concurrency", 32, "number of concurrent workers")
		ops         = pflag.Int("ops", 5000, "operations per phase (lookup + create)")
		redisAddr   = pflag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = pflag.String("prefix", "lt", "session key prefix")
		duration    = pflag.Int("duration", 3600, "session duration in seconds")
	)
	pflag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	store := session.NewSnapshotStore(redisstore.New(client, redisstore.Options{Prefix: *prefix}))
	manager := session.NewManager(store, session.NewPolicy(*duration))

	ids := make([]string, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range ids {
		sid, err := manager.Create(ctx, fmt.Sprintf("user-%d", i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		ids[i] = sid
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	lookup := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		uid, err := manager.UserIDForSessionID(ctx, ids[r.Intn(len(ids))])
		if err == nil && uid == "" {
			return session.ErrSessionNotFound
		}
		return err
	})
	create := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		_, err := manager.Create(ctx, fmt.Sprintf("user-%d", r.Intn(len(ids))))
		return err
	})

	report(os.Stdout, map[string]result{"lookup": lookup, "create": create}, "lookup", "create")
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// runPhase calls op ops times across concurrency workers and records the
// latency of each call.
func runPhase(ops, concurrency int, seed int64, op func(*rand.Rand) error) result {
	var (
		wg       sync.WaitGroup
		next     atomic.Int64
		failures atomic.Int64
	)
	perWorker := make([][]time.Duration, concurrency)

	start := time.Now()
	for w := range perWorker {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*seed))
			for next.Add(1) <= int64(ops) {
				t0 := time.Now()
				if err := op(r); err != nil {
					failures.Add(1)
				}
				perWorker[w] = append(perWorker[w], time.Since(t0))
			}
		}(w)
	}
	wg.Wait()

	var samples []time.Duration
	for _, l := range perWorker {
		samples = append(samples, l...)
	}
	return summarize(time.Since(start), samples, failures.Load())
}

type result struct {
	elapsed  time.Duration
	samples  []time.Duration
	failures int64
}

func summarize(elapsed time.Duration, samples []time.Duration, failures int64) result {
	slices.Sort(samples)
	return result{elapsed: elapsed, samples: samples, failures: failures}
}

// quantile returns the sample at q in [0, 1] of the sorted samples.
func (r result) quantile(q float64) time.Duration {
	if len(r.samples) == 0 {
		return 0
	}
	idx := int(q * float64(len(r.samples)-1))
	return r.samples[min(max(idx, 0), len(r.samples)-1)]
}

func (r result) throughput() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(len(r.samples)) / r.elapsed.Seconds()
}

func report(w io.Writer, results map[string]result, order ...string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "phase\tops\tfailures\telapsed\tops/sec\tp50\tp95\tp99")
	for _, name := range order {
		r := results[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.0f\t%s\t%s\t%s\n",
			name, len(r.samples), r.failures,
			r.elapsed.Round(time.Millisecond), r.throughput(),
			r.quantile(0.50).Round(time.Microsecond),
			r.quantile(0.95).Round(time.Microsecond),
			r.quantile(0.99).Round(time.Microsecond),
		)
	}
	_ = tw.Flush()
}
