// Package storage persists uploaded files on local disk and hands back the
// public URL they are served under.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sudo-init-do/tradebit/internal/config"
)

const maxUploadBytes = 8 << 20 // 8 MiB

var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// SaveUpload writes the multipart file under <upload_dir>/<subdir>/ with a
// generated name and returns the public URL for it.
func SaveUpload(fh *multipart.FileHeader, subdir string) (string, error) {
	if fh.Size <= 0 || fh.Size > maxUploadBytes {
		return "", fmt.Errorf("file size out of range")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExts[ext] {
		return "", fmt.Errorf("file type %q not allowed", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(config.App.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	base := strings.TrimRight(config.App.PublicBaseURL, "/")
	return fmt.Sprintf("%s/uploads/%s/%s", base, subdir, name), nil
}
