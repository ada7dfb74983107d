package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
)

type fakeLock struct {
	acquired   bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name     string
	err      error
	runs     int
	deadline bool
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	_, t.deadline = ctx.Deadline()
	return t.err
}

func newTestService(t *testing.T, lock Lock, m *metrics.CronJobMetrics, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry:   registry,
		Lock:       lock,
		Metrics:    m,
		JobTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service := newTestService(t, lock, metrics.NewCronJobMetrics(reg), success, failure)

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", success.runs, failure.runs)
	}
	if !success.deadline {
		t.Fatalf("expected job timeout applied")
	}
	if lock.releases != 1 || lock.acquired {
		t.Fatalf("expected lock released once, releases=%d", lock.releases)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var failures float64
	for _, mf := range mfs {
		if mf.GetName() != "lbn_job_failure_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "job" && l.GetValue() == "fail" {
					failures = m.GetCounter().GetValue()
				}
			}
		}
	}
	if failures != 1 {
		t.Fatalf("expected failure counter 1, got %v", failures)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "stale-payment-expiry"}
	lock := &fakeLock{acquired: true}
	service := newTestService(t, lock, nil, job)

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped while lock held elsewhere")
	}
}

func TestRunOnceReturnsLockError(t *testing.T) {
	service := newTestService(t, &fakeLock{acquireErr: errors.New("redis down")}, nil, &testJob{name: "x"})
	if err := service.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected lock error")
	}
}
