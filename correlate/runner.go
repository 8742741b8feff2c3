package correlate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zero-day-ai/threatgraph/artifact"
	"github.com/zero-day-ai/threatgraph/graph"
)

// job pairs one artifact with one strategy. Jobs are independent,
// read-only, and safe to run in any order.
type job struct {
	art   artifact.Artifact
	strat strategy
}

type jobResult struct {
	candidates []graph.MatchCandidate
	strategy   string
	value      string
	err        error
}

// runOutcome is the joined output of one pool run.
type runOutcome struct {
	candidates []graph.MatchCandidate
	failures   int
	lastErr    error
}

// runJobs executes every job on a bounded worker pool and joins the
// results before returning. A failed job contributes no candidates and
// bumps the failure tally; the pool itself only fails on caller
// cancellation, so partial evidence is never exposed alongside a ctx
// error.
func runJobs(ctx context.Context, store graph.Store, jobs []job, concurrency int, timeout time.Duration, log *slog.Logger) (runOutcome, error) {
	if len(jobs) == 0 {
		return runOutcome{}, nil
	}
	if concurrency > len(jobs) {
		concurrency = len(jobs)
	}

	jobCh := make(chan job, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	resCh := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			for j := range jobCh {
				resCh <- runOne(ctx, store, j, timeout)
			}
		}(i)
	}

	var out runOutcome
	for range jobs {
		res := <-resCh
		if res.err != nil {
			if ctx.Err() == nil {
				out.failures++
				out.lastErr = res.err
				log.Warn("search strategy failed",
					slog.String("strategy", res.strategy),
					slog.String("value", res.value),
					slog.Any("error", res.err))
			}
			continue
		}
		out.candidates = append(out.candidates, res.candidates...)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return runOutcome{}, err
	}
	return out, nil
}

// runOne executes a single job under its own timeout. A cancelled parent
// context short-circuits without touching the store.
func runOne(ctx context.Context, store graph.Store, j job, timeout time.Duration) jobResult {
	res := jobResult{strategy: j.strat.name(), value: j.art.Value()}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res.candidates, res.err = j.strat.run(qctx, store, j.art)
	return res
}
