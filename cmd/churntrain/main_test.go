package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJob(t *testing.T, prefix string) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("user_id")
	for j := 1; j <= 15; j++ {
		fmt.Fprintf(&sb, ",f%d", j)
	}
	sb.WriteString(",domain_name,churn\n")
	for i := 0; i < 48; i++ {
		fmt.Fprintf(&sb, "u%d", i)
		for j := 1; j <= 15; j++ {
			fmt.Fprintf(&sb, ",%d", (i*j)%11)
		}
		fmt.Fprintf(&sb, ",d%d.com,%d\n", i%3, i%2)
	}
	var input = filepath.Join(prefix, "input", "data", "training", "churn.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(input), 0755))
	require.NoError(t, os.WriteFile(input, []byte(sb.String()), 0644))

	var hyper = filepath.Join(prefix, "input", "config", "hyperparameters.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(hyper), 0755))
	require.NoError(t, os.WriteFile(hyper,
		[]byte(`{"batch_size": "8", "epochs": "2", "optimizer": "adam,rmsprop", "cv": "3"}`), 0644))
}

func TestExecuteSuccess(t *testing.T) {
	var prefix = t.TempDir()
	writeJob(t, prefix)

	var stderr bytes.Buffer
	var code = execute([]string{"--prefix", prefix, "--jobs", "2", "--env-file", ""}, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())

	assert.FileExists(t, filepath.Join(prefix, "model", "ann.nn"))
	assert.FileExists(t, filepath.Join(prefix, "model", "ann.json"))
	assert.NoFileExists(t, filepath.Join(prefix, "output", "failure"))
}

func TestExecuteFailureWritesReason(t *testing.T) {
	var prefix = t.TempDir()

	var stderr bytes.Buffer
	var code = execute([]string{"--prefix", prefix, "--env-file", ""}, &stderr)
	assert.Equal(t, ExitFailure, code)

	data, err := os.ReadFile(filepath.Join(prefix, "output", "failure"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Exception during training: "))
	assert.Contains(t, string(data), "churn.csv")
	assert.Contains(t, stderr.String(), "Exception during training: ")
}

func TestExecuteInvalidFolds(t *testing.T) {
	var prefix = t.TempDir()
	writeJob(t, prefix)

	var stderr bytes.Buffer
	var code = execute([]string{"--prefix", prefix, "--folds", "1", "--env-file", ""}, &stderr)
	assert.Equal(t, ExitFailure, code)
	assert.FileExists(t, filepath.Join(prefix, "output", "failure"))
}

func TestExecuteEarlyFailureUsesPrefix(t *testing.T) {
	var prefix = t.TempDir()
	t.Setenv("CHURN_JOBS", "many")

	var stderr bytes.Buffer
	var code = execute([]string{"--prefix", prefix, "--env-file", ""}, &stderr)
	assert.Equal(t, ExitFailure, code)

	data, err := os.ReadFile(filepath.Join(prefix, "output", "failure"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "CHURN_JOBS")
}

func TestExecuteFlagErrorUsesOutputDir(t *testing.T) {
	var outputDir = filepath.Join(t.TempDir(), "out")

	var stderr bytes.Buffer
	var code = execute([]string{"--output-dir", outputDir, "--folds", "ten"}, &stderr)
	assert.Equal(t, ExitFailure, code)
	assert.FileExists(t, filepath.Join(outputDir, "failure"))
}
