package debug

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valerio/go-skyboy/skyboy/video"
)

// SaveFramePNGToDir saves a framebuffer as PNG with timestamp to a specific directory.
// An empty directory means the current working directory. Returns the written path.
func SaveFramePNGToDir(frame *video.Framebuffer, baseName, directory string) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("no frame data available for snapshot")
	}

	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		outputDir = cwd
	}

	timestamp := time.Now().Format("20060102_150405.000")
	filePath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", baseName, timestamp))
	if err := frame.SavePNG(filePath); err != nil {
		return "", err
	}

	slog.Info("Snapshot saved", "path", filePath, "size", fmt.Sprintf("%dx%d", video.Width, video.Height), "format", "PNG")
	return filePath, nil
}

// WriteSnapshotJSON writes the debug snapshot as JSON to path.
func WriteSnapshotJSON(s *Snapshot, path string) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}
