package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"settingscout/internal/artifact"
	"settingscout/internal/explore"
)

type Config struct {
	Serial  string
	ADBPath string
	// Package is the app under test; empty means whatever is in the foreground.
	Package string
	RunID   string

	LLM      LLMConfig
	Explore  explore.Options
	Profile  string
	Artifact ArtifactConfig
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	RPS         float64
	Burst       int
	Retries     int
	// CacheSize bounds the inspection cache; 0 disables it.
	CacheSize int
}

type ArtifactConfig struct {
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	PostgresDSN string
	DiskRoot    string
}

// CanUseS3 reports whether the S3 settings are complete.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Store().S3.Complete()
}

// Store converts the settings to artifact.Config.
func (a ArtifactConfig) Store() artifact.Config {
	return artifact.Config{
		S3: artifact.S3Config{
			Endpoint:  a.Endpoint,
			Region:    a.Region,
			AccessKey: a.AccessKey,
			SecretKey: a.SecretKey,
			Bucket:    a.Bucket,
			UseSSL:    a.UseSSL,
		},
		PostgresDSN: a.PostgresDSN,
		DiskRoot:    a.DiskRoot,
	}
}

// Load reads .env, then the environment, then args. Flags win over the
// environment, which wins over defaults. Exploration tunables come from
// DefaultOptions overlaid with the optional YAML profile.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("scout", flag.ContinueOnError)
	serial := fs.String("serial", env("DEVICE_SERIAL", ""), "adb device serial")
	adbPath := fs.String("adb", env("ADB_PATH", "adb"), "path to the adb binary")
	pkg := fs.String("package", env("APP_PACKAGE", ""), "app package (default: foreground app)")
	runID := fs.String("run-id", env("RUN_ID", ""), "run identifier (default: random UUID)")
	model := fs.String("model", env("GEMINI_MODEL", "gemini-2.5-flash"), "Gemini model id")
	profile := fs.String("profile", env("EXPLORE_PROFILE", ""), "YAML file overriding exploration tunables")
	out := fs.String("out", env("ARTIFACT_DIR", "."), "artifact directory when no remote store is configured")
	descent := fs.String("personalization-descent", "", "override personalization descent (true/false)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Serial:  strings.TrimSpace(*serial),
		ADBPath: firstNonEmpty(strings.TrimSpace(*adbPath), "adb"),
		Package: strings.TrimSpace(*pkg),
		RunID:   strings.TrimSpace(*runID),
		Profile: strings.TrimSpace(*profile),
		LLM: LLMConfig{
			APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:       strings.TrimSpace(*model),
			Temperature: float32(envFloat("GEMINI_TEMPERATURE", 0.2)),
			RPS:         envFloat("LLM_RPS", 1),
			Burst:       envInt("LLM_BURST", 1),
			Retries:     envInt("LLM_RETRIES", 3),
			CacheSize:   envInt("INSPECT_CACHE_SIZE", 64),
		},
		Artifact: loadArtifactConfig(*out),
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	opts := explore.DefaultOptions()
	if cfg.Profile != "" {
		var err error
		if opts, err = LoadProfile(cfg.Profile, opts); err != nil {
			return nil, err
		}
	}
	if v := strings.TrimSpace(*descent); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: -personalization-descent: %w", err)
		}
		opts.PersonalizationDescent = b
	}
	cfg.Explore = opts
	return cfg, nil
}

func loadArtifactConfig(diskRoot string) ArtifactConfig {
	return ArtifactConfig{
		Endpoint:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")), strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))),
		Region:      firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:      firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "settingscout-artifacts"),
		UseSSL:      envBool("ARTIFACT_S3_USE_SSL", true),
		PostgresDSN: strings.TrimSpace(os.Getenv("ARTIFACT_PG_DSN")),
		DiskRoot:    firstNonEmpty(strings.TrimSpace(diskRoot), "."),
	}
}

func env(key, def string) string {
	return firstNonEmpty(strings.TrimSpace(os.Getenv(key)), def)
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
