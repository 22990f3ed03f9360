package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"authwatch/config"
	"authwatch/internal/detect"
	"authwatch/internal/genlog"
	inputredis "authwatch/internal/input/redis"
	"authwatch/internal/logger"
	"authwatch/internal/metrics"
	"authwatch/internal/output/alerthttp"
	"authwatch/internal/output/alertjson"
	"authwatch/internal/output/eventjson"
	"authwatch/internal/parser"
	"authwatch/internal/pipeline"
	"authwatch/internal/rules"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("authwatch.yml"); err == nil {
		return "authwatch.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "authwatch.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "authwatch.yml"
}

func applyDefaults(cfg *config.Config) {
	aw := &cfg.AuthWatch

	if aw.Input.Mode == "" {
		aw.Input.Mode = "file"
	}
	if aw.Input.File.Path == "" && len(aw.Input.File.Paths) == 0 {
		aw.Input.File.Path = "data/ssh_auth.log"
	}
	if aw.Input.Redis.Addr == "" {
		aw.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if aw.Input.Redis.Key == "" {
		aw.Input.Redis.Key = "auth_log_lines"
	}
	if aw.Input.Redis.PopTimeout == 0 {
		aw.Input.Redis.PopTimeout = 5 * time.Second
	}

	if aw.Output.Alerts.Mode == "" {
		aw.Output.Alerts.Mode = "file"
	}
	if aw.Output.Alerts.File.Path == "" {
		aw.Output.Alerts.File.Path = "output/alerts.jsonl"
	}
	if aw.Output.Alerts.CSVPath == "" {
		aw.Output.Alerts.CSVPath = "output/alerts.csv"
	}
	if aw.Output.Events.CSVPath == "" {
		aw.Output.Events.CSVPath = "output/processed_logs.csv"
	}
	if aw.Output.Summary.Path == "" {
		aw.Output.Summary.Path = "output/summary.json"
	}

	if aw.Metrics.Addr == "" {
		aw.Metrics.Addr = ":9310"
	}
	if aw.Logging.Level == "" {
		aw.Logging.Level = "info"
	}
}

// detectConfig converts the YAML tuning, applies defaults and
// validates it before any parsing happens.
func detectConfig(dc config.DetectConfig) (detect.Config, error) {
	cfg := detect.Config{
		Window: dc.Window,
		BruteForce: detect.Thresholds{
			Medium:   dc.BruteForceThresholds.Medium,
			High:     dc.BruteForceThresholds.High,
			Critical: dc.BruteForceThresholds.Critical,
		},
		VulnerableUsers:         dc.VulnerableUsernames,
		TargetingThreshold:      dc.TargetingThreshold,
		BreachCriticalThreshold: dc.BreachCriticalThreshold,
		ExpectedRegions:         dc.ExpectedRegions,
		PrefixRegions:           dc.PrefixRegions,
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return detect.Config{}, &config.ValidationError{Reason: err.Error()}
	}
	return cfg, nil
}

func runPipeline(args []string) int {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	applyDefaults(cfg)
	aw := &cfg.AuthWatch

	if err := logger.Init(aw.Logging.Enabled, aw.Logging.Level, aw.Logging.File, aw.Logging.Console); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}

	logger.Infof("authwatch starting")
	logger.Infof("Config loaded from: %s", configPath)

	detectCfg, err := detectConfig(aw.Detect)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	prefixes, err := aw.Detect.Prefixes()
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if aw.Metrics.Enabled {
		go metrics.Serve(aw.Metrics.Addr)
	}

	var source pipeline.Source
	switch aw.Input.Mode {
	case "file":
		paths := aw.Input.File.Paths
		if len(paths) == 0 {
			paths = []string{aw.Input.File.Path}
		}
		source = pipeline.NewFileSource(paths...)
		logger.Infof("Input mode: file (%s)", strings.Join(paths, ", "))
	case "redis":
		consumer, err := inputredis.NewConsumer(inputredis.Config{
			Addr:       aw.Input.Redis.Addr,
			Password:   aw.Input.Redis.Password,
			DB:         aw.Input.Redis.DB,
			Key:        aw.Input.Redis.Key,
			PopTimeout: aw.Input.Redis.PopTimeout,
		})
		if err != nil {
			logger.Errorf("Failed to create Redis consumer: %v", err)
			return 1
		}
		source = pipeline.NewRedisSource(consumer)
		logger.Infof("Input mode: redis (%s key=%s)", aw.Input.Redis.Addr, aw.Input.Redis.Key)
	default:
		logger.Errorf("Unknown input mode: %s", aw.Input.Mode)
		return 1
	}
	defer source.Close()

	var engine rules.Engine
	if aw.Rules.Enabled {
		if strings.TrimSpace(aw.Rules.Path) == "" {
			logger.Warnf("Rules enabled but rules.path is empty; event tagging disabled")
		} else {
			sigmaEngine, stats, err := rules.NewSigmaEngine(aw.Rules.Path)
			if err != nil {
				logger.Errorf("Failed to load Sigma rules from %s: %v", aw.Rules.Path, err)
				return 1
			}
			engine = sigmaEngine
			logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
				stats.Loaded,
				stats.SkippedComplex,
				stats.SkippedDatasource,
				stats.SkippedInvalid,
				stats.TotalFiles,
			)
			if stats.Loaded == 0 {
				logger.Warnf("No compatible Sigma rules loaded; event tagging is effectively disabled")
			}
		}
	}

	var reportWriter pipeline.ReportWriter
	switch aw.Output.Alerts.Mode {
	case "file":
		w, err := alertjson.NewWriter(aw.Output.Alerts.File.Path)
		if err != nil {
			logger.Errorf("Failed to create alert file writer: %v", err)
			return 1
		}
		reportWriter = w
		logger.Infof("Alert output mode: file (%s)", aw.Output.Alerts.File.Path)
	case "http":
		w, err := alerthttp.NewWriter(alerthttp.Config{
			URL:     aw.Output.Alerts.HTTP.URL,
			Timeout: aw.Output.Alerts.HTTP.Timeout,
			Headers: aw.Output.Alerts.HTTP.Headers,
		})
		if err != nil {
			logger.Errorf("Failed to create alert HTTP writer: %v", err)
			return 1
		}
		reportWriter = w
		logger.Infof("Alert output mode: http (%s)", aw.Output.Alerts.HTTP.URL)
	default:
		logger.Errorf("Unknown alert output mode: %s", aw.Output.Alerts.Mode)
		return 1
	}
	defer reportWriter.Close()

	var eventWriter pipeline.EventWriter
	if aw.Output.Events.JSONLPath != "" {
		w, err := eventjson.NewWriter(aw.Output.Events.JSONLPath)
		if err != nil {
			logger.Errorf("Failed to create event writer: %v", err)
			return 1
		}
		eventWriter = w
		defer w.Close()
	}

	pipe := pipeline.New(source, engine, reportWriter, eventWriter, pipeline.Config{
		Parser:           parser.Config{Year: aw.Parser.Year},
		Detect:           detectCfg,
		InternalPrefixes: prefixes,
		EventCSVPath:     aw.Output.Events.CSVPath,
		AlertCSVPath:     aw.Output.Alerts.CSVPath,
		SummaryPath:      aw.Output.Summary.Path,
	})

	result, err := pipe.Run(ctx)
	if err != nil {
		logger.Errorf("Pipeline failed: %v", err)
		return 1
	}

	printReport(result)
	logger.Infof("authwatch finished")
	return 0
}

func printReport(result *pipeline.Result) {
	s := result.Summary
	fmt.Printf("parsed=%d failed=%d success_rate=%.1f%%\n", s.Parsed, s.Failed, s.SuccessRate)
	fmt.Printf("alerts=%d aggregated=%d critical=%d\n", s.Alerts, s.AggregatedAlerts, s.CriticalThreats)
	for i, agg := range result.Report {
		if i >= 10 {
			fmt.Printf("... and %d more\n", len(result.Report)-i)
			break
		}
		kinds := make([]string, 0, len(agg.Alerts))
		for _, k := range agg.Kinds() {
			kinds = append(kinds, string(k))
		}
		fmt.Printf("  %-8s %-15s metric=%.1f kinds=%s\n",
			agg.Severity, agg.SourceIP, agg.MaxMetric, strings.Join(kinds, ","))
	}
}

func runGenerate(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	out := fs.String("out", "data/ssh_auth.log", "Output log file path")
	entries := fs.Int("n", 5000, "Number of log entries to generate")
	seed := fs.Int64("seed", 1, "Random seed for reproducible output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := genlog.Generate(genlog.Config{Path: *out, Entries: *entries, Seed: *seed}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate logs: %v\n", err)
		return 1
	}
	fmt.Printf("generated entries=%d output=%s\n", *entries, *out)
	return 0
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
			os.Exit(runPipeline(os.Args[2:]))
		case "generate":
			os.Exit(runGenerate(os.Args[2:]))
		default:
			// Backward-compatible mode: first arg is config path.
			os.Exit(runPipeline(os.Args[1:]))
		}
	}

	os.Exit(runPipeline(nil))
}
