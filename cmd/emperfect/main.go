package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/ulid/v2"

	"github.com/mercere99/emperfect/internal/config"
	"github.com/mercere99/emperfect/internal/recipe"
	"github.com/mercere99/emperfect/internal/runner"
	"github.com/mercere99/emperfect/internal/watch"
	"github.com/mercere99/emperfect/pkg/clog"
	"github.com/mercere99/emperfect/pkg/storage"
)

var (
	app = kingpin.New("emperfect", "Autograding harness for classroom programming assignments")

	recipeArg  = app.Arg("recipe", "Recipe file describing the test cases").Required().String()
	watchFlags = app.Flag("watch", "Re-run grading when this file changes (repeatable)").Strings()
)

func main() {
	app.UsageWriter(os.Stdout)
	app.ErrorWriter(os.Stdout)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "emperfect: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(clog.NewTextHandler(os.Stderr,
		clog.WithColor(!env.NoColor),
		clog.WithLevel(env.SlogLevel()),
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	grade := func(ctx context.Context) error {
		return runOnce(ctx, env, logger, *recipeArg)
	}

	if err := grade(ctx); err != nil {
		logger.Error("grading failed", clog.Err(err))
		os.Exit(1)
	}

	if len(*watchFlags) > 0 {
		watcher, err := watch.New(*watchFlags, logger, grade)
		if err != nil {
			logger.Error("cannot set up watch mode", clog.Err(err))
			os.Exit(1)
		}
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("watch mode failed", clog.Err(err))
			os.Exit(1)
		}
	}
}

// runOnce grades the whole recipe once and publishes the resulting artifacts.
// Failing tests are ordinary results; only harness-internal problems return
// an error.
func runOnce(ctx context.Context, env *config.Env, logger *slog.Logger, recipePath string) error {
	runID := ulid.Make().String()
	logger.Debug("starting run", "run_id", runID, "recipe", recipePath)

	interp := recipe.New(recipePath, runner.New(logger), logger, runID)
	if err := interp.Run(ctx); err != nil {
		return err
	}

	return publishArtifacts(ctx, env, logger, interp.ArtifactFiles())
}

// publishArtifacts uploads the file-backed reports when a remote store is
// configured; the default local storage type leaves files where the run
// wrote them.
func publishArtifacts(ctx context.Context, env *config.Env, logger *slog.Logger, files []string) error {
	if env.StorageType != "s3" {
		return nil
	}
	store, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
	if err != nil {
		return err
	}
	return uploadFiles(ctx, store, logger, files)
}

func uploadFiles(ctx context.Context, store storage.Storage, logger *slog.Logger, files []string) error {
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("skipping missing artifact", "file", file)
			continue
		}
		if err := store.Write(ctx, file, data); err != nil {
			return err
		}
		logger.Info("published artifact", "file", file)
	}
	return nil
}
