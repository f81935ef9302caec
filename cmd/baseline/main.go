package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"settingscout/internal/baseline"
	"settingscout/internal/device"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	defDuration := 403200 * time.Millisecond
	if v, err := strconv.ParseFloat(os.Getenv("TEST_DURATION"), 64); err == nil {
		defDuration = time.Duration(v * float64(time.Second))
	}
	fs := flag.NewFlagSet("baseline", flag.ContinueOnError)
	serial := fs.String("serial", os.Getenv("DEVICE_SERIAL"), "adb device serial")
	adbPath := fs.String("adb", "adb", "path to the adb binary")
	pkg := fs.String("package", os.Getenv("TARGET_PACKAGE"), "app package to explore")
	duration := fs.Duration("duration", defDuration, "how long to explore")
	seed := fs.Int64("seed", 42, "random seed")
	out := fs.String("log", "path_log_baseline2.jsonl", "JSONL action log")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *pkg == "" {
		log.Printf("--package or TARGET_PACKAGE is required")
		return 2
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Printf("action log: %v", err)
		return 1
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := baseline.New(device.NewADB(*adbPath, *serial), *pkg, *duration, f, nil)
	e.Rand = rand.New(rand.NewSource(*seed))
	stats, err := e.Run(ctx)
	if err != nil {
		log.Printf("baseline failed after %d steps: %v", stats.Steps, err)
		return 1
	}
	log.Printf("baseline finished after %d steps → %s", stats.Steps, *out)
	return 0
}
