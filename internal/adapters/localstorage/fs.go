package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockName = ".lock"

// partialSuffixes mark files the extractor is still writing or abandoned.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// LocalStorage implements ports.Storage for the local filesystem. Each job
// gets its own directory, and every artifact inside it is named after the
// job ID.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// InitJob creates the job directory and holds its lock until the returned
// unlock function is called.
func (s *LocalStorage) InitJob(ctx context.Context, jobID string) (func() error, error) {
	if err := validJobID(jobID); err != nil {
		return nil, err
	}
	path := s.GetJobPath(jobID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory %s: %w", path, err)
	}

	lock := flock.New(filepath.Join(path, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock job %s: %w", jobID, err)
	}
	if !ok {
		return nil, fmt.Errorf("job %s is already locked", jobID)
	}
	return lock.Unlock, nil
}

// OutputTemplate returns the yt-dlp output template for the job.
func (s *LocalStorage) OutputTemplate(jobID string) string {
	return filepath.Join(s.GetJobPath(jobID), jobID+".%(ext)s")
}

// CleanupPattern returns the glob matching every artifact of the job.
func (s *LocalStorage) CleanupPattern(jobID string) string {
	return filepath.Join(s.GetJobPath(jobID), jobID+".*")
}

// Locate returns the job's output file. The canonical <id>.<preferredExt>
// wins; otherwise the first finished artifact in name order is used.
func (s *LocalStorage) Locate(jobID, preferredExt string) (string, error) {
	expected := filepath.Join(s.GetJobPath(jobID), jobID+"."+preferredExt)
	if info, err := os.Stat(expected); err == nil && info.Mode().IsRegular() {
		return expected, nil
	}

	matches, err := filepath.Glob(s.CleanupPattern(jobID))
	if err != nil {
		return "", fmt.Errorf("failed to scan job %s: %w", jobID, err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if isPartial(m) {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			return m, nil
		}
	}
	return "", fmt.Errorf("no output for job %s: %w", jobID, fs.ErrNotExist)
}

// RemoveJob deletes the job directory and anything left in it.
func (s *LocalStorage) RemoveJob(jobID string) error {
	if err := validJobID(jobID); err != nil {
		return err
	}
	if err := os.RemoveAll(s.GetJobPath(jobID)); err != nil {
		return fmt.Errorf("failed to remove job directory: %w", err)
	}
	return nil
}

// GetJobPath returns the path for a job directory.
func (s *LocalStorage) GetJobPath(jobID string) string {
	return filepath.Join(s.BaseDir, jobID)
}

// Sweep removes job directories older than maxAge whose lock is free. A
// live job holds its lock, so only workspaces orphaned by a crashed or
// killed process are removed. It returns the removed job IDs.
func (s *LocalStorage) Sweep(ctx context.Context, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.BaseDir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	var errs []error
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !entry.IsDir() || validJobID(entry.Name()) != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		jobID := entry.Name()
		lock := flock.New(filepath.Join(s.GetJobPath(jobID), lockName))
		ok, err := lock.TryLock()
		if err != nil || !ok {
			continue
		}
		_ = lock.Unlock()

		if err := s.RemoveJob(jobID); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, jobID)
	}
	return removed, errors.Join(errs...)
}

func validJobID(jobID string) error {
	if _, err := uuid.Parse(jobID); err != nil {
		return fmt.Errorf("invalid job id %q: %w", jobID, err)
	}
	return nil
}

func isPartial(path string) bool {
	base := filepath.Base(path)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
