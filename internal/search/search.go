package search

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"golang.org/x/sync/errgroup"
)

type Estimator interface {
	Fit(ctx context.Context, samples []domain.Sample) error
	// Score is higher for better estimators.
	Score(samples []domain.Sample) float64
}

// Factory returns an unfitted estimator. seed drives all of its randomness.
type Factory[E Estimator] func(params domain.Params, seed int64) (E, error)

// GridSearch evaluates every grid candidate with stratified k-fold cross
// validation and refits the best one on all samples.
type GridSearch[E Estimator] struct {
	Grid    Grid
	Folds   int
	Jobs    int
	Seed    int64
	Factory Factory[E]
	Logger  *zap.Logger
}

type CandidateResult struct {
	Params      domain.Params `json:"params"`
	FoldScores  []float64     `json:"fold_scores"`
	MeanScore   float64       `json:"mean_test_score"`
	StdScore    float64       `json:"std_test_score"`
	Rank        int           `json:"rank_test_score"`
	MeanFitTime float64       `json:"mean_fit_time"`
}

type Result[E Estimator] struct {
	Candidates []CandidateResult
	BestIndex  int
	BestParams domain.Params
	BestScore  float64
	Best       E
}

func (gs *GridSearch[E]) Fit(ctx context.Context, samples []domain.Sample) (*Result[E], error) {
	var logger = gs.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := gs.Grid.Validate(); err != nil {
		return nil, err
	}
	var labels = make([]float64, len(samples))
	for i := range samples {
		labels[i] = samples[i].Target
	}
	folds, err := StratifiedKFold(labels, gs.Folds)
	if err != nil {
		return nil, err
	}
	var candidates = gs.Grid.Candidates()
	var jobs = gs.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	logger.Info("grid search started",
		zap.Int("candidates", len(candidates)),
		zap.Int("folds", len(folds)),
		zap.Int("samples", len(samples)),
		zap.Int("jobs", jobs))
	var start = time.Now()

	type foldData struct {
		train, test []domain.Sample
	}
	var data = make([]foldData, len(folds))
	for f, fold := range folds {
		data[f] = foldData{train: subset(samples, fold.Train), test: subset(samples, fold.Test)}
	}

	var scores = make([][]float64, len(candidates))
	var fitTimes = make([][]time.Duration, len(candidates))
	for c := range candidates {
		scores[c] = make([]float64, len(folds))
		fitTimes[c] = make([]time.Duration, len(folds))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for c, params := range candidates {
		for f := range folds {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.Errorf("panic fitting %v fold %d: %v\n%s", params, f, r, debug.Stack())
					}
				}()
				var fitStart = time.Now()
				estimator, err := gs.Factory(params, fitSeed(gs.Seed, c, f))
				if err != nil {
					return errors.Wrapf(err, "build %v", params)
				}
				if err := estimator.Fit(gctx, data[f].train); err != nil {
					return errors.Wrapf(err, "fit %v fold %d", params, f)
				}
				fitTimes[c][f] = time.Since(fitStart)
				scores[c][f] = estimator.Score(data[f].test)
				logger.Debug("fold finished",
					zap.Stringer("params", params),
					zap.Int("fold", f),
					zap.Float64("score", scores[c][f]),
					zap.Duration("elapsed", fitTimes[c][f]))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	var result = &Result[E]{Candidates: make([]CandidateResult, len(candidates))}
	for c, params := range candidates {
		var mean, variance = stat.PopMeanVariance(scores[c], nil)
		var total time.Duration
		for _, d := range fitTimes[c] {
			total += d
		}
		result.Candidates[c] = CandidateResult{
			Params:      params,
			FoldScores:  scores[c],
			MeanScore:   mean,
			StdScore:    math.Sqrt(variance),
			MeanFitTime: total.Seconds() / float64(len(folds)),
		}
	}
	rank(result.Candidates)
	for c := range result.Candidates {
		var cr = &result.Candidates[c]
		logger.Info("candidate scored",
			zap.Stringer("params", cr.Params),
			zap.Float64("mean_score", cr.MeanScore),
			zap.Float64("std_score", cr.StdScore),
			zap.Int("rank", cr.Rank))
	}
	for c := range result.Candidates {
		if result.Candidates[c].Rank == 1 {
			result.BestIndex = c
			break
		}
	}
	result.BestParams = candidates[result.BestIndex]
	result.BestScore = result.Candidates[result.BestIndex].MeanScore
	logger.Info("grid search finished",
		zap.Stringer("best_params", result.BestParams),
		zap.Float64("best_score", result.BestScore),
		zap.Duration("elapsed", time.Since(start)))

	best, err := gs.Factory(result.BestParams, fitSeed(gs.Seed, result.BestIndex, len(folds)))
	if err != nil {
		return nil, errors.Wrapf(err, "build %v", result.BestParams)
	}
	if err := best.Fit(ctx, samples); err != nil {
		return nil, errors.Wrapf(err, "refit %v", result.BestParams)
	}
	result.Best = best
	logger.Info("best candidate refitted", zap.Stringer("params", result.BestParams))
	return result, nil
}

// rank assigns 1 to the best mean score; ties share the smallest rank.
func rank(candidates []CandidateResult) {
	for i := range candidates {
		var r = 1
		for j := range candidates {
			if candidates[j].MeanScore > candidates[i].MeanScore {
				r++
			}
		}
		candidates[i].Rank = r
	}
}

func fitSeed(base int64, candidate, fold int) int64 {
	return base*1_000_003 + int64(candidate)*1009 + int64(fold)
}

func subset(samples []domain.Sample, indexes []int) []domain.Sample {
	var result = make([]domain.Sample, len(indexes))
	for i, index := range indexes {
		result[i] = samples[index]
	}
	return result
}
