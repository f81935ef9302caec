package artifact

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Config selects the backing store: S3 when fully configured, else Postgres
// when a DSN is set, else a directory on disk.
type Config struct {
	S3          S3Config
	PostgresDSN string
	DiskRoot    string
}

func Open(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.S3.Complete() {
		s, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		logger.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.S3.Bucket, cfg.S3.Endpoint)
		return s, nil
	}
	if strings.TrimSpace(cfg.S3.Endpoint) != "" {
		logger.Printf("artifact store: s3 config incomplete, falling back")
	}
	if dsn := strings.TrimSpace(cfg.PostgresDSN); dsn != "" {
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact postgres store: %w", err)
		}
		logger.Printf("artifact store: postgres")
		return s, nil
	}
	root := strings.TrimSpace(cfg.DiskRoot)
	if root == "" {
		root = "."
	}
	s, err := NewDiskStore(root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact disk store: %w", err)
	}
	logger.Printf("artifact store: disk root=%s", s.Root())
	return s, nil
}
