package catalogpix

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// sidecarFile is the per-item metadata sidecar written next to kept images.
const sidecarFile = "metadata.json"

// SidecarEntry describes one kept image in the metadata sidecar.
type SidecarEntry struct {
	FileName             string    `json:"fileName"`
	URL                  string    `json:"url"`
	DownloadDate         time.Time `json:"downloadDate"`
	QualityScore         float64   `json:"qualityScore"`
	Width                int       `json:"width"`
	Height               int       `json:"height"`
	BackgroundConfidence float64   `json:"backgroundConfidence"`
	HasWatermark         bool      `json:"hasWatermark"`
	MatchConfidence      float64   `json:"matchConfidence"`
	Credit               string    `json:"credit,omitempty"`
}

// imageExt maps a decoded format to the persisted file extension.
func imageExt(format string) string {
	if format == "png" {
		return ".png"
	}
	return ".jpg"
}

// workingDir is where images land while the item is still Pending: the bare
// folder name, renamed once at finalization.
func (cfg *Config) workingDir(item *CatalogItem) string {
	return filepath.Join(cfg.BaseDir, cfg.folderName(item, Found))
}

// writeImage persists one accepted image as
// <dir>/<itemId>_<n>_<uniqueSuffix>.<ext>. Write failures are fatal for the
// item and propagate.
func (cfg *Config) writeImage(dir string, item *CatalogItem, n int, f *FetchedImage) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create item dir: %w", err)
	}
	name := fmt.Sprintf("%s_%d_%s%s", sanitizeName(item.ID), n, uuid.NewString()[:8], imageExt(f.Format))
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return p, nil
}

// finalizeDir moves the item's directory to the name matching its terminal
// classification. A rename, never a copy, so at most one directory exists
// per item; creates the directory when none exists yet (NoImageFound with
// zero writes). Returns the final directory path.
func (cfg *Config) finalizeDir(item *CatalogItem, final Classification) (string, error) {
	working := cfg.workingDir(item)
	target := filepath.Join(cfg.BaseDir, cfg.folderName(item, final))

	if target == working {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", fmt.Errorf("create item dir: %w", err)
		}
		return target, nil
	}

	_, err := os.Stat(working)
	switch {
	case err == nil:
		if err := os.Rename(working, target); err != nil {
			return "", fmt.Errorf("rename item dir: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", fmt.Errorf("create item dir: %w", err)
		}
	default:
		return "", fmt.Errorf("stat item dir: %w", err)
	}
	return target, nil
}

// writeSidecar writes the metadata sidecar for an item directory.
func (cfg *Config) writeSidecar(dir string, entries []SidecarEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sidecarFile), data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}
