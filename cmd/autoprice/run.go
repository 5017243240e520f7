package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/autoprice/config"
	"github.com/YuminosukeSato/autoprice/dataset"
	"github.com/YuminosukeSato/autoprice/linear"
	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/pkg/log"
	"github.com/YuminosukeSato/autoprice/server"
	"github.com/YuminosukeSato/autoprice/training"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = linear.Version

// app is everything built before a command does its own work.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	table  *dataset.Table
	result *training.Result
}

func bootstrap(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := log.NewZerolog(logOut, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, errors.NewValidationError("log-level", err.Error(), cfg.Log.Level)
	}
	// library code logs through slog in json mode for its stack traces
	if cfg.Log.Format == log.FormatJSON {
		if err := log.SetupLoggerTo(logOut, cfg.Log.Level); err != nil {
			return nil, errors.NewValidationError("log-level", err.Error(), cfg.Log.Level)
		}
	} else {
		log.SetLogger(log.NewZerologLogger(logger))
	}
	log.InstallWarnings(logger)

	source := cfg.Dataset.Path
	if source == "" {
		source = cfg.Dataset.URL
	}
	logger.Info().Str(log.SourceKey, source).Msg("Loading dataset")

	raw, err := dataset.Load(ctx, cfg.Dataset)
	if err != nil {
		return nil, err
	}
	table, err := dataset.Clean(raw, cfg.Dataset.NumericColumns)
	if err != nil {
		return nil, err
	}

	result, err := training.Train(table, cfg.Model.Features, cfg.Model.Target,
		cfg.Model.TestSize, cfg.Model.Seed, linear.WithRcond(cfg.Model.Rcond))
	if err != nil {
		return nil, errors.Wrap(err, "training model")
	}

	report := result.Report
	logger.Info().
		Int(log.TrainKey, report.NTrain).
		Int(log.TestKey, report.NTest).
		Float64(log.R2ScoreKey, report.R2).
		Float64(log.RMSEKey, report.RMSE).
		Float64(log.MAEKey, report.MAE).
		Int(log.RankKey, result.Model.Rank()).
		Msg("Model trained")

	return &app{cfg: cfg, logger: logger, table: table, result: result}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, os.Stdout)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Addr:            a.cfg.Server.Addr(),
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		Table:           a.table,
		Features:        a.cfg.Model.Features,
		Result:          a.result,
		Predictor:       training.NewDelayedPredictor(a.result.Model, a.cfg.Predict.Delay),
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func runTrain(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Weights interface{}     `json:"weights"`
			Report  training.Report `json:"report"`
		}{a.result.Model.Weights(), a.result.Report})
	}

	m := a.result.Model
	fmt.Fprintf(out, "%-20s %14.4f\n", "intercept", m.Intercept())
	coef := m.Coefficients()
	for _, name := range m.FeatureNames() {
		fmt.Fprintf(out, "%-20s %14.4f\n", name, coef[name])
	}

	r := a.result.Report
	fmt.Fprintf(out, "\ntrain=%d test=%d rank=%d\n", r.NTrain, r.NTest, m.Rank())
	if r.Evaluated {
		fmt.Fprintf(out, "R2=%.4f RMSE=%.2f MAE=%.2f\n", r.R2, r.RMSE, r.MAE)
	} else {
		fmt.Fprintln(out, "not evaluated: empty test partition")
	}
	return nil
}
