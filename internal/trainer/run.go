package trainer

import (
	"context"
	"os"
	"time"

	"github.com/ChizhovVadim/churnann/internal/config"
	"github.com/ChizhovVadim/churnann/internal/dataset"
	"github.com/ChizhovVadim/churnann/internal/search"
	"github.com/ChizhovVadim/churnann/internal/train"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Report struct {
	RunID    string
	Search   *search.Result[*train.Classifier]
	Test     train.Evaluation
	Metadata *Metadata
}

// Run executes the whole training job: load, prepare, grid search, persist.
// Panics are recovered and returned as *PanicError.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (report *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, NewPanicError(r)
		}
	}()

	var runID = uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("Starting the training.",
		zap.String("input", cfg.InputPath),
		zap.String("model_dir", cfg.ModelDir))
	var start = time.Now()

	frame, err := dataset.LoadCSV(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		zap.Int("rows", frame.Rows()),
		zap.Int("columns", len(frame.Columns)))

	var opts = dataset.DefaultOptions()
	opts.TestSize = cfg.TestSize
	opts.Seed = cfg.Seed
	prepared, err := dataset.Prepare(frame, opts)
	if err != nil {
		return nil, errors.Wrap(err, "prepare dataset")
	}
	var trainSamples = prepared.TrainSamples()
	var testSamples = prepared.TestSamples()
	logger.Info("dataset prepared",
		zap.Int("train", len(trainSamples)),
		zap.Int("test", len(testSamples)),
		zap.Strings("classes", prepared.Encoder.Classes))

	var gs = &search.GridSearch[*train.Classifier]{
		Grid:    cfg.Grid,
		Folds:   cfg.Folds,
		Jobs:    cfg.Jobs,
		Seed:    cfg.Seed,
		Factory: train.NewClassifier,
		Logger:  logger,
	}
	result, err := gs.Fit(ctx, trainSamples)
	if err != nil {
		return nil, errors.Wrap(err, "grid search")
	}

	var evaluation = train.Evaluate(result.Best.Model, testSamples)
	logger.Info("held-out evaluation",
		zap.Float64("accuracy", evaluation.Accuracy),
		zap.Float64("loss", evaluation.Loss))

	if err := os.MkdirAll(cfg.ModelDir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := result.Best.Model.Network().Save(cfg.ModelPath()); err != nil {
		return nil, errors.Wrap(err, "save model")
	}
	var metadata = NewMetadata(runID, cfg, prepared, result, evaluation)
	if err := metadata.Save(cfg.MetadataPath()); err != nil {
		return nil, err
	}
	logger.Info("Training complete.",
		zap.String("model", cfg.ModelPath()),
		zap.Duration("elapsed", time.Since(start)))

	return &Report{
		RunID:    runID,
		Search:   result,
		Test:     evaluation,
		Metadata: metadata,
	}, nil
}
