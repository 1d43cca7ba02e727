// Package jobs tracks scan passes: one record per run of the scan pipeline,
// with bounded history and metrics.
package jobs

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// Options configures a Manager.
type Options struct {
	MaxHistory      int           // finished passes kept; oldest are evicted first
	CleanupInterval time.Duration // how often finished passes are aged out
	MaxAge          time.Duration // finished passes older than this are removed
	Clock           clockwork.Clock
	Registerer      prometheus.Registerer
	Logger          *slog.Logger
}

// Manager records scan passes.
type Manager struct {
	mu       sync.RWMutex
	passes   map[string]*model.ScanPass
	finished []string // IDs of finished passes, oldest first
	opts     Options
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	metrics  *PassMetrics
	logger   *slog.Logger
}

// NewManager creates a pass manager
func NewManager(opts Options) *Manager {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 200
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		passes:   make(map[string]*model.ScanPass),
		opts:     opts,
		stopChan: make(chan struct{}),
		metrics:  NewPassMetrics(opts.Registerer),
		logger:   opts.Logger.With("component", "passes"),
	}
}

// Start begins the background cleanup
func (m *Manager) Start() {
	m.logger.Info("pass manager started",
		slog.Int("max_history", m.opts.MaxHistory),
		slog.Duration("max_age", m.opts.MaxAge))

	m.wg.Add(1)
	go m.cleanupRoutine()
}

// Stop shuts down the cleanup routine
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.wg.Wait()
	m.logger.Info("pass manager stopped")
}

// BeginPass creates a running pass and returns its ID
func (m *Manager) BeginPass(kind model.PassKind, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	pass := &model.ScanPass{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.PassStatusRunning,
		Progress:  &model.PassProgress{},
		CreatedAt: m.opts.Clock.Now(),
		Metadata:  metadata,
	}

	m.passes[pass.ID] = pass
	m.metrics.RecordPassStarted(kind)
	m.logger.Debug("pass started", slog.String("pass_id", pass.ID), slog.String("kind", string(kind)))
	return pass.ID
}

// UpdatePassProgress replaces the progress counters of a running pass
func (m *Manager) UpdatePassProgress(passID string, progress model.PassProgress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pass, exists := m.passes[passID]
	if !exists || pass.Finished() {
		return
	}
	p := progress
	pass.Progress = &p
}

// CompletePass marks a pass completed with its final counters
func (m *Manager) CompletePass(passID string, progress model.PassProgress) error {
	return m.finish(passID, model.PassStatusCompleted, "", &progress)
}

// FailPass marks a pass failed
func (m *Manager) FailPass(passID string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return m.finish(passID, model.PassStatusFailed, msg, nil)
}

// AbortPass marks a pass aborted, e.g. by the watchdog
func (m *Manager) AbortPass(passID string, reason string) error {
	return m.finish(passID, model.PassStatusAborted, reason, nil)
}

// RecordDropped counts a scan request that never became a pass
func (m *Manager) RecordDropped(kind model.PassKind) {
	m.metrics.RecordScanDropped(kind)
}

func (m *Manager) finish(passID string, status model.PassStatus, errorMsg string, progress *model.PassProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pass, exists := m.passes[passID]
	if !exists {
		return errors.NewPassNotFoundError(passID)
	}
	if pass.Finished() {
		return fmt.Errorf("pass with ID '%s' already finished (current: %s)", passID, pass.Status)
	}

	now := m.opts.Clock.Now()
	pass.Status = status
	pass.CompletedAt = &now
	if errorMsg != "" {
		pass.Error = errorMsg
	}
	if progress != nil {
		p := *progress
		pass.Progress = &p
	}

	entries := 0
	if pass.Progress != nil {
		entries = pass.Progress.EntriesCreated
	}
	m.metrics.RecordPassFinished(pass.Kind, status, pass.Duration(), entries)

	m.finished = append(m.finished, passID)
	for len(m.finished) > m.opts.MaxHistory {
		delete(m.passes, m.finished[0])
		m.finished = m.finished[1:]
	}

	switch status {
	case model.PassStatusCompleted:
		m.logger.Debug("pass completed",
			slog.String("pass_id", passID),
			slog.String("kind", string(pass.Kind)),
			slog.Duration("duration", pass.Duration()),
			slog.Int("entries", entries))
	default:
		m.logger.Warn("pass ended early",
			slog.String("pass_id", passID),
			slog.String("kind", string(pass.Kind)),
			slog.String("status", string(status)),
			slog.String("error", errorMsg))
	}
	return nil
}

// GetPass retrieves a pass by ID
func (m *Manager) GetPass(passID string) (*model.ScanPass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pass, exists := m.passes[passID]
	if !exists {
		return nil, errors.NewPassNotFoundError(passID)
	}
	return copyPass(pass), nil
}

// ListPasses returns passes newest first, optionally filtered by kind and status
func (m *Manager) ListPasses(kind *model.PassKind, status *model.PassStatus) []*model.ScanPass {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*model.ScanPass
	for _, pass := range m.passes {
		if kind != nil && pass.Kind != *kind {
			continue
		}
		if status != nil && pass.Status != *status {
			continue
		}
		result = append(result, copyPass(pass))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// cleanupRoutine runs periodic pass cleanup
func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	ticker := m.opts.Clock.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			m.CleanupOldPasses(m.opts.MaxAge)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldPasses removes finished passes older than maxAge
func (m *Manager) CleanupOldPasses(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.opts.Clock.Now().Add(-maxAge)
	kept := m.finished[:0]
	cleaned := 0
	for _, id := range m.finished {
		pass := m.passes[id]
		if pass != nil && pass.CompletedAt != nil && pass.CompletedAt.Before(cutoff) {
			delete(m.passes, id)
			cleaned++
			continue
		}
		kept = append(kept, id)
	}
	m.finished = kept

	if cleaned > 0 {
		m.logger.Debug("cleaned up old passes", slog.Int("count", cleaned))
	}
	return cleaned
}

// GetMetrics returns current pass metrics
func (m *Manager) GetMetrics() PassMetricsData {
	return m.metrics.GetMetrics()
}

// GetPassSuccessRate returns the overall pass success rate
func (m *Manager) GetPassSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

func copyPass(pass *model.ScanPass) *model.ScanPass {
	passCopy := *pass
	if pass.Progress != nil {
		progressCopy := *pass.Progress
		passCopy.Progress = &progressCopy
	}
	if pass.CompletedAt != nil {
		completed := *pass.CompletedAt
		passCopy.CompletedAt = &completed
	}
	if pass.Metadata != nil {
		passCopy.Metadata = make(map[string]string, len(pass.Metadata))
		for k, v := range pass.Metadata {
			passCopy.Metadata[k] = v
		}
	}
	return &passCopy
}
