package stage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
	"github.com/lucasnoah/mlfactory/internal/source"
)

// Ingestion downloads the source dataset once and unpacks it.
type Ingestion struct {
	cfg     config.IngestionConfig
	fetcher *source.Fetcher
	logger  *slog.Logger
}

// NewIngestion creates the ingestion component. A nil fetcher uses the
// default HTTP client.
func NewIngestion(cfg config.IngestionConfig, fetcher *source.Fetcher, logger *slog.Logger) *Ingestion {
	logger = componentLogger(logger, "data_ingestion")
	if fetcher == nil {
		fetcher = source.NewFetcher(logger)
	}
	return &Ingestion{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Run downloads then extracts.
func (s *Ingestion) Run(ctx context.Context) error {
	if err := s.Download(ctx); err != nil {
		return err
	}
	return s.Extract()
}

// Download fetches source_URL into local_data_file unless that file already exists.
func (s *Ingestion) Download(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if info, err := os.Stat(s.cfg.LocalDataFile); err == nil && info.Mode().IsRegular() {
		s.logger.Info("file already exists", "path", s.cfg.LocalDataFile, "bytes", info.Size())
		return nil
	}
	if s.cfg.SourceURL == "" {
		return fmt.Errorf("download: source URL is empty")
	}
	if _, err := s.fetcher.Fetch(ctx, s.cfg.SourceURL, s.cfg.LocalDataFile); err != nil {
		return err
	}
	return nil
}

// Extract unzips local_data_file into unzip_dir, or copies a plain file there.
func (s *Ingestion) Extract() error {
	isZip, err := source.IsZip(s.cfg.LocalDataFile)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", s.cfg.LocalDataFile, err)
	}
	if isZip {
		files, err := source.Unzip(s.cfg.LocalDataFile, s.cfg.UnzipDir)
		if err != nil {
			return err
		}
		s.logger.Info("archive extracted", "path", s.cfg.LocalDataFile, "dir", s.cfg.UnzipDir, "files", len(files))
		return nil
	}

	dst := filepath.Join(s.cfg.UnzipDir, filepath.Base(s.cfg.LocalDataFile))
	if sameFile(dst, s.cfg.LocalDataFile) {
		return nil
	}
	if err := pipeline.CopyFile(dst, s.cfg.LocalDataFile); err != nil {
		return err
	}
	s.logger.Info("dataset copied", "path", dst)
	return nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
