package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChizhovVadim/churnann/internal/config"
	"github.com/ChizhovVadim/churnann/internal/search"
	"github.com/ChizhovVadim/churnann/internal/train"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func writeChurnCSV(t *testing.T, path string, rows int) {
	t.Helper()
	var rnd = rand.New(rand.NewSource(1))
	var sb strings.Builder
	sb.WriteString("user_id")
	for j := 1; j <= 15; j++ {
		fmt.Fprintf(&sb, ",f%02d", j)
	}
	sb.WriteString(",domain_name,churn\n")
	var domains = []string{"a.com", "b.org", "c.net"}
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "user%d", i)
		var signal = rnd.NormFloat64()
		for j := 1; j <= 15; j++ {
			var v = rnd.NormFloat64()
			if j == 1 {
				v = signal
			}
			if j == 5 && i%9 == 0 {
				sb.WriteString(",")
				continue
			}
			fmt.Fprintf(&sb, ",%.5f", v)
		}
		var churn = 0
		if signal > 0 {
			churn = 1
		}
		fmt.Fprintf(&sb, ",%s,%d\n", domains[i%len(domains)], churn)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
}

func testConfig(t *testing.T) *config.Config {
	var cfg = config.DefaultConfig()
	cfg.Prefix = t.TempDir() + "/"
	cfg.Grid = search.Grid{BatchSizes: []int{16}, Epochs: []int{2, 200}, Optimizers: []string{"adam", "rmsprop"}}
	cfg.Folds = 3
	cfg.Jobs = 2
	cfg.Resolve()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunWritesModel(t *testing.T) {
	defer goleak.VerifyNone(t)

	var cfg = testConfig(t)
	writeChurnCSV(t, cfg.InputPath, 160)

	report, err := Run(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.Search.Candidates, 4)
	assert.Equal(t, 40, report.Test.Samples)
	assert.Greater(t, report.Search.BestScore, 0.6)

	net, err := train.LoadNetwork(cfg.ModelPath())
	require.NoError(t, err)
	model, err := train.NewModelFromNetwork(net)
	require.NoError(t, err)
	var features = make([]float64, train.InputSize)
	features[0] = 1.5
	want, err := report.Search.Best.Model.Predict(features)
	require.NoError(t, err)
	got, err := model.Predict(features)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-5)

	metadata, err := LoadMetadata(cfg.MetadataPath())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, metadata.RunID)
	assert.Equal(t, report.Search.BestParams, metadata.BestParams)
	assert.Equal(t, []string{"a.com", "b.org", "c.net"}, metadata.Classes)
	assert.Len(t, metadata.FeatureNames, 16)
	assert.Len(t, metadata.Scaler.Mean, 16)
	assert.Equal(t, "churn", metadata.TargetName)
	assert.Equal(t, 3, metadata.Folds)

	_, err = os.Stat(cfg.FailurePath())
	assert.True(t, os.IsNotExist(err))
}

func TestRunMissingInput(t *testing.T) {
	var cfg = testConfig(t)
	_, err := Run(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunCanceled(t *testing.T) {
	var cfg = testConfig(t)
	writeChurnCSV(t, cfg.InputPath, 60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, cfg, zap.NewNop())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunRecoversPanic(t *testing.T) {
	_, err := Run(context.Background(), nil, zap.NewNop())
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Contains(t, FailureMessage(err), "goroutine")
}

func TestWriteFailure(t *testing.T) {
	var dir = filepath.Join(t.TempDir(), "output")
	var cause = pkgerrors.Wrap(pkgerrors.New("column \"x\" is broken"), "prepare dataset")
	require.NoError(t, WriteFailure(dir, cause))

	data, err := os.ReadFile(filepath.Join(dir, "failure"))
	require.NoError(t, err)
	var text = string(data)
	assert.True(t, strings.HasPrefix(text, "Exception during training: prepare dataset: column \"x\" is broken\n"))
	assert.Contains(t, text, "trainer.TestWriteFailure")
}
