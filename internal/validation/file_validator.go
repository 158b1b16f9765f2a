package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrNotPortfolioFile rejects files by name: wrong extension or an Office
	// lock file.
	ErrNotPortfolioFile = errors.New("not a portfolio file")

	// ErrEmptyFile rejects zero-byte files before any parser sees them.
	ErrEmptyFile = errors.New("file is empty")
)

// FileValidator checks portfolio inputs and export destinations for the
// executables.
type FileValidator struct {
	logger     *slog.Logger
	extensions []string
}

func NewFileValidator(extensions []string, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:     logger.With(slog.String("component", "file_validator")),
		extensions: extensions,
	}
}

// ValidatePortfolioFile checks the name first, then that path is a readable,
// non-empty regular file.
func (v *FileValidator) ValidatePortfolioFile(path string) error {
	if err := v.checkName(path); err != nil {
		v.logger.Warn("Rejected portfolio file", slog.String("file", path), slog.String("reason", err.Error()))
		return err
	}
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return nil
}

func (v *FileValidator) checkName(path string) error {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%w: %s is an Office lock file", ErrNotPortfolioFile, base)
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !slices.Contains(v.extensions, ext) {
		return fmt.Errorf("%w: %s (extension %q, accepted %v)", ErrNotPortfolioFile, base, ext, v.extensions)
	}
	return nil
}

// ValidateFile checks that path is a readable, non-empty regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file %s does not exist: %w", path, err)
	case err != nil:
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	case info.IsDir():
		return fmt.Errorf("%s is a directory, not a file", path)
	case info.Size() == 0:
		return fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	f.Close()

	v.logger.Debug("File validated", slog.String("file", path), slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory creates dir if needed and proves it is writable
// with a probe file.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
