// =============================================================================
// GAEB LV Tools - File Operations
// =============================================================================
//
// Shared file plumbing for the pipeline: staging byte input (stdin) into a
// suffixed temporary file so the extension-dispatched extractors can read
// it, and archiving processed inputs.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TempFile is a temporary file that is removed on Cleanup. The suffix is
// preserved because the extractors dispatch on the file extension.
type TempFile struct {
	Path string
}

// StageBytes writes data to a fresh temporary file with the given suffix
// (e.g. ".x84"). The caller owns the file and must call Cleanup.
func StageBytes(data []byte, suffix string) (*TempFile, error) {
	f, err := os.CreateTemp("", "gaeblv-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("closing temp file: %w", err)
	}
	return &TempFile{Path: f.Name()}, nil
}

// Cleanup removes the temporary file. Safe to call more than once.
func (t *TempFile) Cleanup() {
	if t == nil || t.Path == "" {
		return
	}
	os.Remove(t.Path)
	t.Path = ""
}

// ArchiveFile moves a processed input into the archive directory. A name
// collision gets a timestamp inserted before the extension so earlier
// archives are never overwritten.
func ArchiveFile(path, archiveDir string) (string, error) {
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}

	target := filepath.Join(archiveDir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		base := strings.TrimSuffix(filepath.Base(target), ext)
		stamp := time.Now().Format("20060102_150405")
		target = filepath.Join(archiveDir, fmt.Sprintf("%s_%s%s", base, stamp, ext))
	}

	if err := os.Rename(path, target); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(path, target); err != nil {
			return "", fmt.Errorf("copying to archive: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("removing original after archive copy: %w", err)
		}
	}
	return target, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
