package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"settingscout/internal/artifact"
	"settingscout/internal/config"
	"settingscout/internal/device"
	"settingscout/internal/entry"
	"settingscout/internal/explore"
	"settingscout/internal/inspector"
	"settingscout/internal/llm"
	"settingscout/internal/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Printf("config: %v", err)
		return 2
	}
	if cfg.LLM.APIKey == "" {
		log.Printf("GEMINI_API_KEY is not set")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	adb := device.NewADB(cfg.ADBPath, cfg.Serial)
	pkg := cfg.Package
	if pkg != "" {
		if err := adb.AppStart(ctx, pkg); err != nil {
			log.Printf("start %s: %v", pkg, err)
			return 1
		}
		explore.Sleep(ctx, 3*time.Second)
	} else {
		app, err := adb.CurrentApp(ctx)
		if err != nil {
			log.Printf("current app: %v", err)
			return 1
		}
		pkg = app.Package
	}
	log.Printf("run %s: exploring %s on %q", cfg.RunID, pkg, cfg.Serial)

	store, err := artifact.Open(ctx, cfg.Artifact.Store(), nil)
	if err != nil {
		log.Printf("artifact store: %v", err)
		return 1
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	gem, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature)
	if err != nil {
		log.Printf("gemini: %v", err)
		return 1
	}
	cli := llm.Wrap(gem,
		llm.WithLogging(nil),
		llm.Retry(cfg.LLM.Retries, 2*time.Second),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
	)
	defer cli.Close()

	var insp inspector.Inspector = inspector.NewVision(cli, nil)
	if cfg.LLM.CacheSize > 0 {
		cached, err := inspector.NewCached(insp, cfg.LLM.CacheSize, nil)
		if err != nil {
			log.Printf("inspect cache: %v", err)
			return 1
		}
		insp = cached
	}

	nav := entry.NewNavigator(adb, entry.DefaultStages(entry.NewPersonalDetector(cli), entry.NewSettingsDetector(cli)), store, cfg.RunID, nil)
	prefix, err := nav.Navigate(ctx)
	if err != nil {
		log.Printf("entry navigation stopped early: %v", err)
	}
	log.Printf("entry prefix: %d nodes", len(prefix))

	engine := explore.NewEngine(adb, insp, nil, cfg.Explore, explore.Sleep, nil)
	out := engine.Run(ctx, prefix)
	rep := engine.Store.Finalize()

	code := 0
	if !out.Success {
		log.Printf("exploration failed: %v", out.Err)
		code = 1
	}
	if rep.Empty() {
		log.Printf("no privacy settings recorded")
		return code
	}
	path, err := report.NewWriter(store).Write(ctx, cfg.RunID, pkg, rep)
	if err != nil {
		log.Printf("write report: %v", err)
		return 1
	}
	log.Printf("report written: %s/%s", cfg.RunID, path)
	return code
}
