// Command churntrain trains the churn classifier inside a training job
// container and reports the outcome through its exit code.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChizhovVadim/churnann/internal/config"
	"github.com/ChizhovVadim/churnann/internal/trainer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time via ldflags
var Version = "dev"

type options struct {
	configPath      string
	envFile         string
	prefix          string
	input           string
	outputDir       string
	modelDir        string
	hyperparameters string
	folds           int
	jobs            int
	seed            int64
	verbose         bool
}

// job tracks where a failure must be reported; it follows the
// configuration as soon as the output directory is known.
type job struct {
	failureDir string
	logger     *zap.Logger
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}

func execute(args []string, stderr io.Writer) int {
	var defaults = config.DefaultConfig()
	defaults.Resolve()
	var j = &job{failureDir: defaults.OutputDir, logger: zap.NewNop()}

	var cmd = newRootCmd(j)
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var message = trainer.FailureMessage(err)
	fmt.Fprint(stderr, message)
	j.logger.Error("training failed", zap.Error(err))
	if writeErr := trainer.WriteFailure(j.failureDir, err); writeErr != nil {
		fmt.Fprintf(stderr, "cannot write failure file: %v\n", writeErr)
	}
	_ = j.logger.Sync()
	return ExitFailure
}

func newRootCmd(j *job) *cobra.Command {
	var opts options
	var cmd = &cobra.Command{
		Use:   "churntrain",
		Short: "Train the customer churn classifier",
		Long: `churntrain reads the training CSV from the job's input channel, prepares it,
grid-searches the network hyperparameters with stratified cross validation
and writes the best model to the model directory.

Exit status is 0 on success and 255 on failure; on failure the reason is
written to <output-dir>/failure.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraining(cmd, j, &opts)
		},
	}
	cmd.Version = Version
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		j.failureDir = flagFailureDir(cmd, &opts)
		return err
	})

	var flags = cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to dotenv file with CHURN_* variables")
	flags.StringVar(&opts.prefix, "prefix", config.DefaultPrefix, "Container mount root")
	flags.StringVar(&opts.input, "input", "", "Training CSV (default <prefix>input/data/training/churn.csv)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Failure output directory (default <prefix>output)")
	flags.StringVar(&opts.modelDir, "model-dir", "", "Model directory (default <prefix>model)")
	flags.StringVar(&opts.hyperparameters, "hyperparameters", "", "Hyperparameters JSON (default <prefix>input/config/hyperparameters.json)")
	flags.IntVar(&opts.folds, "folds", 10, "Number of cross validation folds")
	flags.IntVar(&opts.jobs, "jobs", 0, "Concurrent fits (default number of CPUs)")
	flags.Int64Var(&opts.seed, "seed", 0, "Random seed for split, initialization and shuffling")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

// flagFailureDir resolves the failure directory from the path flags alone,
// so errors in later configuration layers still land next to the job.
func flagFailureDir(cmd *cobra.Command, opts *options) string {
	var cfg = config.DefaultConfig()
	if cmd.Flags().Changed("prefix") {
		cfg.Prefix = opts.prefix
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	cfg.Resolve()
	return cfg.OutputDir
}

func runTraining(cmd *cobra.Command, j *job, opts *options) error {
	j.failureDir = flagFailureDir(cmd, opts)
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	var flags = cmd.Flags()
	var paths = []struct {
		name  string
		value string
		field *string
	}{
		{"prefix", opts.prefix, &cfg.Prefix},
		{"input", opts.input, &cfg.InputPath},
		{"output-dir", opts.outputDir, &cfg.OutputDir},
		{"model-dir", opts.modelDir, &cfg.ModelDir},
		{"hyperparameters", opts.hyperparameters, &cfg.HyperparametersPath},
	}
	for _, p := range paths {
		if flags.Changed(p.name) {
			*p.field = p.value
		}
	}
	cfg.Resolve()
	j.failureDir = cfg.OutputDir

	if err := cfg.ApplyHyperparameters(cfg.HyperparametersPath); err != nil {
		return err
	}
	if flags.Changed("folds") {
		cfg.Folds = opts.folds
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	j.logger = logger
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = trainer.Run(ctx, cfg, logger)
	return err
}

func newLogger(verbose bool) (*zap.Logger, error) {
	var config = zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return logger, nil
}
