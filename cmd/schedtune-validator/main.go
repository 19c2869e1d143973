package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/perfkit/schedtune-validator/internal/config"
	"github.com/perfkit/schedtune-validator/internal/platform"
	"github.com/perfkit/schedtune-validator/internal/results"
	"github.com/perfkit/schedtune-validator/internal/sweep"
	"github.com/perfkit/schedtune-validator/internal/trace"
	"github.com/perfkit/schedtune-validator/internal/workload"
)

func main() {
	var configPath string
	var artifactRoot string
	var marginPct float64
	var dbPath string
	var verbosity int
	flag.StringVar(&configPath, "config", "", "Path to the harness configuration file.")
	flag.StringVar(&artifactRoot, "artifacts", "", "Override for the artifact root directory.")
	flag.Float64Var(&marginPct, "margin", 0, "Override for the allowed frequency margin in percent.")
	flag.StringVar(&dbPath, "db", "", "Override for the results database path.")
	flag.IntVar(&verbosity, "v", 0, "Log verbosity.")
	flag.Parse()

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zapLog, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	logger := zapr.NewLogger(zapLog)
	setupLog := logger.WithName("setup")

	cfg := config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			setupLog.Error(err, "unable to load configuration")
			os.Exit(1)
		}
	}
	if artifactRoot != "" {
		cfg.Artifacts.Root = artifactRoot
	}
	if marginPct != 0 {
		cfg.Sweep.MarginPct = marginPct
	}
	if dbPath != "" {
		cfg.Results.DBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		setupLog.Error(err, "invalid configuration")
		os.Exit(1)
	}

	plat, err := platform.Discover()
	if err != nil {
		setupLog.Error(err, "unable to read platform capability data")
		os.Exit(1)
	}
	cpu, err := plat.BiggestCPU()
	if err != nil {
		setupLog.Error(err, "no CPU available for the workload")
		os.Exit(1)
	}
	setupLog.Info("platform discovered",
		"workloadCPU", cpu, "kernel", plat.KernelVersion)

	runner := workload.NewRTAppRunner(workload.RTAppOpts{
		BinaryPath: cfg.Workload.RTAppPath,
		Launcher:   cfg.Workload.Launcher,
	}, logger.WithName("workload"))

	traceFile := cfg.Workload.TraceFile
	factory := &sweep.FreqSweepFactory{
		Boosts: cfg.Sweep.Boosts,
		Deps: sweep.ItemDeps{
			Platform: plat,
			Runner:   runner,
			OpenTrace: func(itemDir string) (trace.Source, error) {
				return trace.NewFileSource(filepath.Join(itemDir, traceFile)), nil
			},
			ArtifactRoot: cfg.Artifacts.Root,
			Logger:       logger.WithName("item"),
		},
	}

	orchestrator := sweep.NewOrchestrator(factory, logger.WithName("sweep"))
	setupLog.Info("trace capture must provide events",
		"events", orchestrator.RequiredEvents())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := results.NewRunID()
	setupLog.Info("starting sweep", "runID", runID, "boosts", cfg.Sweep.Boosts)

	executed, runErr := orchestrator.RunSweep(ctx)
	if runErr != nil {
		setupLog.Error(runErr, "sweep execution failed, reporting partial results",
			"completedItems", len(executed))
	}

	labeled, evalErr := sweep.EvaluateItems(executed, cfg.Sweep.MarginPct)
	if evalErr != nil {
		setupLog.Error(evalErr, "some items could not be evaluated")
	}
	merged := sweep.Merge(labeled)

	if cfg.Results.DBPath != "" {
		store, err := results.Open(cfg.Results.DBPath)
		if err != nil {
			setupLog.Error(err, "unable to open results store")
			os.Exit(1)
		}
		defer store.Close()
		if err := store.SaveSweep(runID, labeled, merged); err != nil {
			setupLog.Error(err, "unable to persist sweep results")
			os.Exit(1)
		}
	}

	printReport(labeled, merged)

	if runErr != nil || evalErr != nil || !merged.OverallPassed {
		os.Exit(1)
	}
}

func printReport(labeled []sweep.LabeledResult, merged sweep.Result) {
	fmt.Printf("%-10s %-14s %-14s %-10s %s\n",
		"label", "target (kHz)", "average (kHz)", "distance", "verdict")
	for _, entry := range labeled {
		verdict := "PASS"
		if !entry.Result.Passed {
			verdict = "FAIL"
		}
		fmt.Printf("%-10s %-14d %-14.1f %-9.2f%% %s\n",
			entry.Label,
			uint64(entry.Result.TargetFreqKHz),
			entry.Result.AvgFreqKHz,
			entry.Result.DistancePct,
			verdict)
	}

	if len(merged.FailedLabels) > 0 {
		fmt.Printf("failed: %v\n", merged.FailedLabels)
	}
	if merged.OverallPassed {
		fmt.Println("overall: PASS")
	} else {
		fmt.Println("overall: FAIL")
	}
}
