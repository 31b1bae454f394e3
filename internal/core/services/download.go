package services

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nvman/backend/internal/core/ports"
	"github.com/nvman/backend/internal/domain"
	"github.com/nvman/backend/internal/infrastructure/logger"
)

const downloadChunkSize = 64 * 1024

// DownloadEngine performs resumable HTTP transfers into a staging file,
// honoring the task's pause flag and cancel signal and emitting progress
// through the event publisher.
type DownloadEngine struct {
	client       *http.Client
	userAgent    string
	pollInterval time.Duration
	events       ports.EventPublisher
	logger       *logger.Logger
}

type DownloadEngineConfig struct {
	Client       *http.Client
	UserAgent    string
	PollInterval time.Duration
	Events       ports.EventPublisher
	Logger       *logger.Logger
}

func NewDownloadEngine(cfg DownloadEngineConfig) *DownloadEngine {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &DownloadEngine{
		client:       client,
		userAgent:    cfg.UserAgent,
		pollInterval: interval,
		events:       cfg.Events,
		logger:       cfg.Logger,
	}
}

// Fetch streams url into partPath, resuming from its current size, and
// commits by renaming partPath to finalPath. On cancellation the staging
// file is deleted and ErrTaskCancelled returned; on a plain network or I/O
// failure the staging file is kept for a future resume.
func (e *DownloadEngine) Fetch(t *domain.Task, url, partPath, finalPath, baseStatus string) error {
	var offset int64
	if fi, err := os.Stat(partPath); err == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download: build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	e.logger.Infow("download_start", "task_id", t.ID, "url", url, "offset", offset)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPartialContent,
		offset == 0 && resp.StatusCode >= 200 && resp.StatusCode < 300:
		return e.stream(t, resp, offset, partPath, finalPath, baseStatus)

	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		// The staging file already holds the full resource.
		e.logger.Infow("download_range_satisfied", "task_id", t.ID)
		if _, err := os.Stat(partPath); err == nil {
			if err := os.Rename(partPath, finalPath); err != nil {
				return fmt.Errorf("download: finalize: %w", err)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}

func (e *DownloadEngine) stream(t *domain.Task, resp *http.Response, offset int64, partPath, finalPath, baseStatus string) error {
	total := offset
	if resp.ContentLength > 0 {
		total += resp.ContentLength
	}

	file, err := os.OpenFile(partPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("download: open staging file: %w", err)
	}

	downloaded := offset
	buf := make([]byte, downloadChunkSize)

	for {
		// Cancellation is checked between chunks; an in-flight chunk
		// always completes.
		if t.Cancel.Fired() {
			return e.abort(t, file, partPath)
		}

		for t.Paused.Load() {
			e.events.Publish(domain.ProgressEvent{
				ID:       t.ID,
				Progress: domain.Pct(percent(downloaded, total)),
				Status:   "paused",
				IsPaused: true,
			})
			time.Sleep(e.pollInterval)
			// Cancellation must be observable while paused.
			if t.Cancel.Fired() {
				return e.abort(t, file, partPath)
			}
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				file.Close()
				return fmt.Errorf("download: write staging file: %w", werr)
			}
			downloaded += int64(n)
			e.events.Publish(domain.ProgressEvent{
				ID:       t.ID,
				Progress: domain.Pct(percent(downloaded, total)),
				Status:   baseStatus,
			})
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			file.Close()
			return fmt.Errorf("download: read body: %w", rerr)
		}
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("download: close staging file: %w", err)
	}
	// The rename is the commit point: any failure before it leaves the
	// staging file intact for a future resume.
	if err := os.Rename(partPath, finalPath); err != nil {
		return fmt.Errorf("download: finalize: %w", err)
	}

	e.logger.Infow("download_complete", "task_id", t.ID, "bytes", downloaded)
	return nil
}

func (e *DownloadEngine) abort(t *domain.Task, file *os.File, partPath string) error {
	file.Close()
	if err := os.Remove(partPath); err != nil {
		e.logger.Warnw("download_staging_remove_failed", "task_id", t.ID, "error", err)
	}
	e.logger.Infow("download_cancelled", "task_id", t.ID)
	return ErrTaskCancelled
}

func percent(downloaded, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(float64(downloaded) / float64(total) * 100)
}
