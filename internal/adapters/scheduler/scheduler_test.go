package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blazevision/engine/internal/adapters/scheduler"
	"github.com/blazevision/engine/internal/domain/model"
	"github.com/blazevision/engine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// funcRunner adapts a function to the Runner interface.
type funcRunner func(ctx context.Context, job *model.Job) (*model.AnalysisResult, error)

func (f funcRunner) Run(ctx context.Context, job *model.Job) (*model.AnalysisResult, error) {
	return f(ctx, job)
}

func testJob(cfg model.AnalysisConfig) *model.Job {
	if cfg.Sport == "" {
		cfg.Sport = model.SportOther
	}
	return model.NewJob("synthetic://clip?duration=1", cfg)
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func TestPoolConcurrencyBound(t *testing.T) {
	Convey("Given a pool with two slots and slow jobs", t, func() {
		var running, peak int64
		runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
			cur := atomic.AddInt64(&running, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			return &model.AnalysisResult{Status: model.StatusCompleted}, nil
		})

		pool := scheduler.New(2, runner)
		pool.Start(context.Background())
		defer pool.Stop()

		Convey("When submitting six jobs", func() {
			jobs := make([]*model.Job, 6)
			for i := range jobs {
				jobs[i] = testJob(model.AnalysisConfig{})
				So(pool.Submit(jobs[i]), ShouldBeNil)
			}

			Convey("Then no more than two process at once and all complete", func() {
				ok := waitFor(func() bool {
					for _, j := range jobs {
						if j.Status() != model.StatusCompleted {
							return false
						}
					}
					return true
				}, 2*time.Second)
				So(ok, ShouldBeTrue)
				So(atomic.LoadInt64(&peak), ShouldBeLessThanOrEqualTo, 2)
			})
		})
	})
}

func TestPoolFIFO(t *testing.T) {
	Convey("Given a single-slot pool", t, func() {
		release := make(chan struct{})
		var order []string
		var mu sync.Mutex
		runner := funcRunner(func(ctx context.Context, job *model.Job) (*model.AnalysisResult, error) {
			mu.Lock()
			order = append(order, job.ID())
			mu.Unlock()
			<-release
			return &model.AnalysisResult{Status: model.StatusCompleted}, nil
		})

		pool := scheduler.New(1, runner)
		pool.Start(context.Background())
		defer pool.Stop()

		Convey("When two jobs are submitted", func() {
			first := testJob(model.AnalysisConfig{})
			second := testJob(model.AnalysisConfig{})
			So(pool.Submit(first), ShouldBeNil)
			So(pool.Submit(second), ShouldBeNil)

			So(waitFor(func() bool { return first.Status() == model.StatusProcessing }, time.Second), ShouldBeTrue)

			Convey("Then the second stays queued until the first finishes", func() {
				So(second.Status(), ShouldEqual, model.StatusQueued)

				close(release)
				So(waitFor(func() bool { return second.Status() == model.StatusCompleted }, 2*time.Second), ShouldBeTrue)

				mu.Lock()
				defer mu.Unlock()
				So(order, ShouldResemble, []string{first.ID(), second.ID()})
			})
		})
	})
}

func TestPoolCancellation(t *testing.T) {
	Convey("Given a pool running a cooperative job", t, func() {
		started := make(chan struct{})
		runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

		pool := scheduler.New(1, runner)
		pool.Start(context.Background())
		defer pool.Stop()

		Convey("When cancelling the in-flight job", func() {
			job := testJob(model.AnalysisConfig{})
			So(pool.Submit(job), ShouldBeNil)
			<-started

			So(pool.Cancel(job.ID()), ShouldBeTrue)

			Convey("Then the job retires cancelled with no result", func() {
				So(waitFor(func() bool { return job.Status() == model.StatusCancelled }, time.Second), ShouldBeTrue)
				So(job.Snapshot().Result, ShouldBeNil)
			})
		})

		Convey("When cancelling an unknown job", func() {
			So(pool.Cancel("missing"), ShouldBeFalse)
		})
	})

	Convey("Given an in-flight job with a processing deadline", t, func() {
		started := make(chan struct{})
		runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

		pool := scheduler.New(1, runner)
		pool.Start(context.Background())
		defer pool.Stop()

		Convey("When cancelling well before the deadline", func() {
			job := testJob(model.AnalysisConfig{MaxDuration: time.Hour})
			So(pool.Submit(job), ShouldBeNil)
			<-started

			So(pool.Cancel(job.ID()), ShouldBeTrue)

			Convey("Then the cancel interrupts the deadline context", func() {
				So(waitFor(func() bool { return job.Status() == model.StatusCancelled }, time.Second), ShouldBeTrue)
			})
		})
	})
}

func TestPoolTimeout(t *testing.T) {
	Convey("Given a job with a short processing deadline", t, func() {
		runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

		pool := scheduler.New(1, runner)
		pool.Start(context.Background())
		defer pool.Stop()

		Convey("When the deadline expires", func() {
			job := testJob(model.AnalysisConfig{MaxDuration: 10 * time.Millisecond})
			So(pool.Submit(job), ShouldBeNil)

			Convey("Then the job is cancelled, not failed", func() {
				So(waitFor(func() bool { return job.Status().Terminal() }, time.Second), ShouldBeTrue)
				So(job.Status(), ShouldEqual, model.StatusCancelled)
				So(job.Snapshot().Error, ShouldBeNil)
			})
		})
	})
}

func TestPoolFailureClassification(t *testing.T) {
	Convey("Given runners that fail in different ways", t, func() {
		Convey("When the runner returns a classified error", func() {
			runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
				return nil, model.NewJobError(model.ErrKindDecode, "unreadable container")
			})
			pool := scheduler.New(1, runner)
			pool.Start(context.Background())
			defer pool.Stop()

			job := testJob(model.AnalysisConfig{})
			So(pool.Submit(job), ShouldBeNil)

			Convey("Then the kind survives to the job error", func() {
				So(waitFor(func() bool { return job.Status() == model.StatusFailed }, time.Second), ShouldBeTrue)
				snap := job.Snapshot()
				So(snap.Error, ShouldNotBeNil)
				So(snap.Error.Kind, ShouldEqual, model.ErrKindDecode)
			})
		})

		Convey("When the runner panics", func() {
			runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
				panic("index out of range")
			})
			pool := scheduler.New(1, runner)
			pool.Start(context.Background())
			defer pool.Stop()

			job := testJob(model.AnalysisConfig{})
			So(pool.Submit(job), ShouldBeNil)

			Convey("Then the pool survives and the job fails internal", func() {
				So(waitFor(func() bool { return job.Status() == model.StatusFailed }, time.Second), ShouldBeTrue)
				So(job.Snapshot().Error.Kind, ShouldEqual, model.ErrKindInternal)

				next := testJob(model.AnalysisConfig{})
				So(pool.Submit(next), ShouldBeNil)
				So(waitFor(func() bool { return next.Status().Terminal() }, time.Second), ShouldBeTrue)
			})
		})
	})
}

func TestPoolSkipsTerminalJobs(t *testing.T) {
	Convey("Given a job cancelled while still queued", t, func() {
		var invoked int64
		runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
			atomic.AddInt64(&invoked, 1)
			return &model.AnalysisResult{Status: model.StatusCompleted}, nil
		})

		pool := scheduler.New(1, runner)

		job := testJob(model.AnalysisConfig{})
		So(pool.Submit(job), ShouldBeNil)
		So(job.Transition(model.StatusCancelled, nil, nil), ShouldBeNil)

		Convey("When the pool starts", func() {
			pool.Start(context.Background())
			defer pool.Stop()

			sentinel := testJob(model.AnalysisConfig{})
			So(pool.Submit(sentinel), ShouldBeNil)
			So(waitFor(func() bool { return sentinel.Status().Terminal() }, time.Second), ShouldBeTrue)

			Convey("Then the cancelled job was never run", func() {
				So(atomic.LoadInt64(&invoked), ShouldEqual, 1)
				So(job.Status(), ShouldEqual, model.StatusCancelled)
			})
		})
	})
}

func TestPoolShutdown(t *testing.T) {
	Convey("Given a pool with an in-flight cooperative job", t, func() {
		started := make(chan struct{})
		runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

		pool := scheduler.New(1, runner)
		pool.Start(context.Background())

		job := testJob(model.AnalysisConfig{})
		So(pool.Submit(job), ShouldBeNil)
		<-started

		Convey("When stopping the pool", func() {
			pool.Stop()

			Convey("Then the job reached a safe checkpoint and retired", func() {
				So(job.Status(), ShouldEqual, model.StatusCancelled)
			})

			Convey("And new submissions are refused", func() {
				err := pool.Submit(testJob(model.AnalysisConfig{}))
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a single-slot pool with a deep backlog", t, func() {
		var invoked int64
		started := make(chan struct{})
		runner := funcRunner(func(ctx context.Context, _ *model.Job) (*model.AnalysisResult, error) {
			if atomic.AddInt64(&invoked, 1) == 1 {
				close(started)
			}
			<-ctx.Done()
			return nil, ctx.Err()
		})

		pool := scheduler.New(1, runner)
		pool.Start(context.Background())

		jobs := make([]*model.Job, 4)
		for i := range jobs {
			jobs[i] = testJob(model.AnalysisConfig{})
			So(pool.Submit(jobs[i]), ShouldBeNil)
		}
		<-started

		Convey("When stopping with jobs still pending", func() {
			pool.Stop()

			Convey("Then the backlog is retired without running", func() {
				for _, j := range jobs {
					So(j.Status(), ShouldEqual, model.StatusCancelled)
				}
				So(atomic.LoadInt64(&invoked), ShouldEqual, 1)
			})
		})
	})
}
