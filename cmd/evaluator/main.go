package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/infrastructure/config"
	"github.com/davidleathers/credit-risk-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/credit-risk-engine/internal/metrics"
	"github.com/davidleathers/credit-risk-engine/internal/service/evaluation"
	"github.com/davidleathers/credit-risk-engine/internal/service/narrative"
	"github.com/davidleathers/credit-risk-engine/internal/service/underwriting"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config file (default configs/config.yaml)")
		casePath   = flag.String("case", "", "Path to the case file (JSON); - reads stdin")
		lang       = flag.String("lang", "", "Narrative language override: es or en")
		pretty     = flag.Bool("pretty", true, "Indent the JSON output")
	)
	flag.Parse()

	if *casePath == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluator -case <file.json> [-config <file.yaml>] [-lang es|en]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to set up logger", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	provider, err := telemetry.Initialize(ctx, &telemetry.Config{
		ServiceName:    "credit-risk-engine",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	registry, err := metrics.NewRegistry("credit-risk-engine")
	if err != nil {
		logger.Error("failed to create metrics registry", "error", err)
		os.Exit(1)
	}

	svc := evaluation.NewService(
		ledger.NewDetector(cfg.DetectorPolicy()),
		scoring.NewEngine(cfg.ScoringPolicy()),
		underwriting.NewEstimator(cfg.ConfidenceWeights()),
		underwriting.NewMatrix(cfg.DecisionPolicy()),
		logger,
		registry,
	)

	req, err := readCase(*casePath)
	if err != nil {
		logger.Error("failed to read case", "path", *casePath, "error", err)
		os.Exit(1)
	}
	if *lang != "" {
		req.Language = narrative.Language(*lang)
	}

	result, err := svc.Evaluate(ctx, *req)
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
}

func readCase(path string) (*evaluation.Request, error) {
	var data []byte
	var err error

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var req evaluation.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing case file: %w", err)
	}
	return &req, nil
}
