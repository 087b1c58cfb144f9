// Command shield is a thin consumer of the anonymization engine: it reads
// lines from stdin, anonymizes them within one session and optionally
// round-trips each line back through deanonymization. The engine itself is a
// library; this binary only wires configuration, logging and the audit
// export together.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raaihank/llm-shield/internal/anonymizer"
	"github.com/raaihank/llm-shield/internal/config"
	"github.com/raaihank/llm-shield/internal/detect"
	"github.com/raaihank/llm-shield/internal/logger"
	"github.com/raaihank/llm-shield/internal/vault"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		roundTrip   = flag.Bool("roundtrip", false, "Deanonymize each line again and print the restored text")
	)
	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("llm-shield %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}

	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting llm-shield",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
	)

	// Build the audit trail: always log, optionally export to Redis.
	var sink vault.Sink = vault.NewLogSink(log)
	if cfg.Audit.Export.Enabled {
		redisSink, err := vault.NewRedisSink(cfg.Audit.Export.VaultExportConfig(), log)
		if err != nil {
			log.Fatal("Failed to initialize audit export", zap.Error(err))
		}
		defer redisSink.Close()
		sink = vault.MultiSink{sink, redisSink}
	}

	store := vault.NewMemory(sink, log)

	detector, err := detect.NewRegexDetector(cfg.Anonymizer.EntityTypes, log)
	if err != nil {
		log.Fatal("Failed to create detector", zap.Error(err))
	}

	engine, err := anonymizer.New(cfg.Anonymizer, detector, store, log)
	if err != nil {
		log.Fatal("Failed to create anonymizer", zap.Error(err))
	}

	// The vault never sweeps on its own; this process owns the timer.
	done := make(chan struct{})
	go runSweeper(store, cfg.Anonymizer.SweepInterval, done)
	defer close(done)

	if err := process(engine, *roundTrip); err != nil {
		log.Fatal("Processing failed", zap.Error(err))
	}
}

// process anonymizes stdin line by line within a single session.
func process(engine *anonymizer.Anonymizer, roundTrip bool) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sessionID := ""
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			fmt.Println()
			continue
		}

		result, err := engine.Anonymize(line, sessionID)
		if err != nil {
			return fmt.Errorf("anonymize: %w", err)
		}
		sessionID = result.SessionID
		fmt.Println(result.AnonymizedText)

		if roundTrip {
			restored, err := engine.Deanonymize(result.AnonymizedText, sessionID)
			if err != nil {
				return fmt.Errorf("deanonymize: %w", err)
			}
			fmt.Println(restored)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	if sessionID != "" {
		fmt.Fprintf(os.Stderr, "session: %s\n", sessionID)
	}
	return nil
}

// runSweeper triggers expired-entry eviction until done is closed.
func runSweeper(store vault.Storage, interval time.Duration, done chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			store.SweepExpired()
		case <-done:
			return
		}
	}
}
