package main

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"
)

func TestQuantile(t *testing.T) {
	r := summarize(time.Second, []time.Duration{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 0)
	if got := r.quantile(0.5); got != 5 {
		t.Fatalf("p50 = %d, want 5", got)
	}
	if got := r.quantile(1); got != 10 {
		t.Fatalf("p100 = %d, want 10", got)
	}
	if got := (result{}).quantile(0.5); got != 0 {
		t.Fatalf("empty quantile = %d", got)
	}
	if got := r.throughput(); got != 10 {
		t.Fatalf("throughput = %f, want 10", got)
	}
}

func TestRunPhaseCountsEveryOp(t *testing.T) {
	calls := 0
	r := runPhase(50, 1, 1, func(*rand.Rand) error {
		calls++
		if calls%10 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	if len(r.samples) != 50 || calls != 50 {
		t.Fatalf("expected 50 ops, got %d (calls %d)", len(r.samples), calls)
	}
	if r.failures != 5 {
		t.Fatalf("expected 5 failures, got %d", r.failures)
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, map[string]result{"lookup": summarize(time.Second, []time.Duration{time.Millisecond}, 1)}, "lookup")
	out := buf.String()
	if !strings.Contains(out, "lookup") || !strings.Contains(out, "p99") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}
