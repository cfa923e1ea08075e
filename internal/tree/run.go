// Package tree contains the three engines that produce, refresh and
// materialize the mirrored document tree: Builder, Updater and Syncer.
// They share one coordination shape (workpool + dynamic barrier) but are
// independent passes, each owning its pool for one invocation.
package tree

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/coursemirror/coursemirror/internal/api"
	"github.com/coursemirror/coursemirror/internal/logging"
	"github.com/coursemirror/coursemirror/internal/progress"
	"github.com/coursemirror/coursemirror/internal/workpool"
)

// ErrStructural marks unrecoverable environment failures, such as a required
// directory that cannot be created. Everything else is a data condition.
var ErrStructural = errors.New("structural violation")

// Options configures one engine instance.
type Options struct {
	Source   api.Source
	Log      *logging.Logger
	Reporter *progress.Reporter

	// Workers is the pool size; 0 means available parallelism.
	Workers int
}

func (o *Options) logger() *logging.Logger {
	if o.Log == nil {
		return logging.Nop()
	}
	return o.Log
}

func (o *Options) reporter() *progress.Reporter {
	if o.Reporter == nil {
		return progress.NewReporter()
	}
	return o.Reporter
}

// run carries the execution state of one top-level operation. The stop flag
// and error live here, not in process-wide globals, so concurrent runs
// against different roots cannot interfere.
type run struct {
	ctx      context.Context
	source   api.Source
	log      *logging.Logger
	reporter *progress.Reporter
	pool     *workpool.Pool
	barrier  *workpool.Barrier

	requests atomic.Int64
	dirty    atomic.Bool

	stopOnce sync.Once
	stopped  atomic.Bool
	stopErr  error
}

// newRun creates the pool and barrier for one operation. parties is the
// barrier's initial count; the caller is always one of them.
func newRun(ctx context.Context, opts Options, parties int) *run {
	return &run{
		ctx:      ctx,
		source:   opts.Source,
		log:      opts.logger(),
		reporter: opts.reporter(),
		pool:     workpool.New(opts.Workers),
		barrier:  workpool.NewBarrier(parties),
	}
}

// spawn registers one child unit with the barrier and submits it. The
// barrier arrival is owned by the wrapper, so a unit body only has to
// register further children before it returns. A rejected submission is
// balanced immediately.
func (r *run) spawn(unit func()) {
	r.barrier.Register(1)
	err := r.pool.Submit(func() {
		defer r.barrier.Arrive()
		unit()
	})
	if err != nil {
		r.barrier.Arrive()
	}
}

// requestStop escalates a fatal condition: no further units start, the
// barrier releases its waiter, in-flight units finish undisturbed.
func (r *run) requestStop(err error) {
	r.stopOnce.Do(func() {
		r.stopErr = err
		r.stopped.Store(true)
		r.pool.Stop()
		r.barrier.ForceTermination()
	})
}

// stopping reports whether the stop flag is set. Units check it before
// submitting children.
func (r *run) stopping() bool {
	return r.stopped.Load()
}

// err returns the escalated error, if any. Valid only after wait.
func (r *run) err() error {
	if r.stopped.Load() {
		return r.stopErr
	}
	return nil
}

// addRequest records one remote call.
func (r *run) addRequest() {
	r.requests.Add(1)
	r.reporter.AddRequest()
}

// wait blocks until every registered unit arrived (or the barrier was
// forced), then drains the pool so no unit is still mutating the tree when
// the caller persists it.
func (r *run) wait() {
	r.barrier.ArriveAndWait()
	r.pool.Shutdown()
}

// handleListError applies the propagation policy for one listing failure:
// fatal classes escalate to the run, per-branch classes are logged and the
// branch is simply absent from the result.
func (r *run) handleListError(what string, err error) {
	if api.IsFatal(err) {
		r.log.Error().Err(err).Str("branch", what).Msg("aborting run")
		r.requestStop(err)
		return
	}
	r.log.Warn().Err(err).Str("branch", what).Msg("skipping branch")
}
