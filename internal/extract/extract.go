// Package extract unpacks release archives into the installation directory
// and protects user data folders across an update.
package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Extractor unpacks archives by extension, falling back to format probing
// when the extension is unrecognised.
type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract unpacks the archive at archivePath into destDir.
func (e *Extractor) Extract(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	name := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return e.extractZip(archivePath, destDir)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return e.extractTarGz(archivePath, destDir)
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tar.zstd"):
		return e.extractTarZst(archivePath, destDir)
	case strings.HasSuffix(name, ".7z"):
		return e.extract7z(archivePath, destDir)
	}

	// Unknown extension: try each format until one takes.
	e.logger.Warn("unknown archive extension, probing formats", zap.String("archive", archivePath))
	if err := e.extractZip(archivePath, destDir); err == nil {
		return nil
	}
	if err := e.extract7z(archivePath, destDir); err == nil {
		return nil
	}
	if err := e.extractTarGz(archivePath, destDir); err == nil {
		return nil
	}
	if err := e.extractTarZst(archivePath, destDir); err == nil {
		return nil
	}
	return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
}

func (e *Extractor) extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		target, err := safeJoin(destDir, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to read zip entry %s: %w", file.Name, err)
		}
		err = writeFile(target, src, file.Mode())
		src.Close()
		if err != nil {
			return err
		}
	}
	e.logger.Info("extracted zip archive",
		zap.String("archive", archivePath), zap.Int("entries", len(reader.File)))
	return nil
}

func (e *Extractor) extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	return e.extractTar(tar.NewReader(gz), destDir)
}

func (e *Extractor) extractTarZst(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to open zstd stream: %w", err)
	}
	defer zr.Close()

	return e.extractTar(tar.NewReader(zr), destDir)
}

func (e *Extractor) extractTar(tr *tar.Reader, destDir string) error {
	count := 0
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			if err := writeFile(target, tr, header.FileInfo().Mode()); err != nil {
				return err
			}
			count++
		default:
			// Symlinks and special files are skipped.
		}
	}
	e.logger.Info("extracted tar archive", zap.String("dest", destDir), zap.Int("files", count))
	return nil
}

func (e *Extractor) extract7z(archivePath, destDir string) error {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		target, err := safeJoin(destDir, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to read 7z entry %s: %w", file.Name, err)
		}
		err = writeFile(target, src, file.Mode())
		src.Close()
		if err != nil {
			return err
		}
	}
	e.logger.Info("extracted 7z archive",
		zap.String("archive", archivePath), zap.Int("entries", len(reader.File)))
	return nil
}

// safeJoin rejects entries that would escape destDir.
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return filepath.Join(destDir, cleaned), nil
}

func writeFile(target string, src io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file %s: %w", target, err)
	}
	return out.Close()
}
