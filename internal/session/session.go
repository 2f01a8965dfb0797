package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dvloznov/statement-insights/internal/aggregate"
	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/pipeline"
)

// ErrAnalysisInProgress is returned when a session already has an analysis
// in flight.
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// Analyzer runs one analysis over a set of documents.
type Analyzer interface {
	Analyze(ctx context.Context, sessionID string, docs []domain.Document) (*domain.AnalysisResult, error)
}

// DocumentInfo describes an uploaded document without its contents.
type DocumentInfo struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// Session holds one user's transaction store and filter state.
// All methods are safe for concurrent use.
type Session struct {
	ID string

	mu           sync.RWMutex
	transactions []domain.Transaction
	insights     []string
	filter       domain.FilterState
	documents    []DocumentInfo
	runID        string
	busy         bool
	lastError    string
	lastAccess   time.Time
}

// New creates an empty session.
func New(id string) *Session {
	return &Session{
		ID:         id,
		filter:     domain.DefaultFilter(),
		lastAccess: time.Now(),
	}
}

// State is the rendered state of a session: the derived view plus the
// analysis lifecycle fields.
type State struct {
	aggregate.View
	SessionID string         `json:"sessionId"`
	Busy      bool           `json:"busy"`
	Error     string         `json:"error,omitempty"`
	Documents []DocumentInfo `json:"documents"`
	RunID     string         `json:"runId,omitempty"`
}

// BeginAnalysis marks the session busy for docs. Stored transactions,
// insights and filters are cleared so no stale data is shown while the
// new analysis runs. When docs cannot be analyzed at all the input error
// is recorded and returned, and the store is left as it was.
func (s *Session) BeginAnalysis(docs []domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrAnalysisInProgress
	}
	if err := pipeline.CheckDocuments(docs); err != nil {
		s.lastError = pipeline.UserMessage(err)
		s.touchLocked()
		return err
	}
	s.busy = true
	s.lastError = ""
	s.transactions = nil
	s.insights = nil
	s.runID = ""
	s.filter = domain.DefaultFilter()
	s.documents = make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		s.documents = append(s.documents, DocumentInfo{Name: d.Name, MIMEType: d.MIMEType, Size: len(d.Data)})
	}
	s.touchLocked()
	return nil
}

// CompleteAnalysis replaces the store with res and clears the busy flag.
func (s *Session) CompleteAnalysis(res *domain.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	s.lastError = ""
	s.transactions = append([]domain.Transaction(nil), res.Transactions...)
	s.insights = append([]string(nil), res.Insights...)
	s.runID = res.RunID
	s.filter = domain.DefaultFilter()
	s.touchLocked()
}

// FailAnalysis clears the store and records the user-facing message for err.
func (s *Session) FailAnalysis(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	s.transactions = nil
	s.insights = nil
	s.runID = ""
	s.lastError = pipeline.UserMessage(err)
	s.touchLocked()
}

// Reject records a failure that happened before an analysis could start,
// such as an unreadable upload. Input errors keep the store; anything else
// clears it like FailAnalysis.
func (s *Session) Reject(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrAnalysisInProgress
	}
	if pipeline.KindOf(err) != pipeline.KindInput {
		s.transactions = nil
		s.insights = nil
		s.runID = ""
		s.documents = nil
		s.filter = domain.DefaultFilter()
	}
	s.lastError = pipeline.UserMessage(err)
	s.touchLocked()
	return nil
}

// Finish completes or fails the in-flight analysis depending on err.
func (s *Session) Finish(res *domain.AnalysisResult, err error) {
	if err != nil {
		s.FailAnalysis(err)
		return
	}
	s.CompleteAnalysis(res)
}

// Run analyzes docs synchronously. It returns ErrAnalysisInProgress without
// touching the store when another analysis is running.
func (s *Session) Run(ctx context.Context, a Analyzer, docs []domain.Document) error {
	if err := s.BeginAnalysis(docs); err != nil {
		return err
	}
	res, err := a.Analyze(ctx, s.ID, docs)
	s.Finish(res, err)
	return err
}

// SetFilter replaces the filter state.
func (s *Session) SetFilter(f domain.FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f.Normalize()
	s.touchLocked()
}

// ResetFilters restores the default filter state.
func (s *Session) ResetFilters() {
	s.SetFilter(domain.DefaultFilter())
}

// snapshotLocked copies the store and filter state so every derivation
// observes one version.
func (s *Session) snapshotLocked() aggregate.Snapshot {
	return aggregate.Snapshot{
		Transactions: append([]domain.Transaction(nil), s.transactions...),
		Insights:     append([]string(nil), s.insights...),
		Filter:       s.filter,
	}
}

// State derives the current view from a single snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	s.touchLocked()
	snap := s.snapshotLocked()
	st := State{
		SessionID: s.ID,
		Busy:      s.busy,
		Error:     s.lastError,
		Documents: append([]DocumentInfo{}, s.documents...),
		RunID:     s.runID,
	}
	s.mu.Unlock()

	st.View = aggregate.Derive(snap)
	return st
}

// Busy reports whether an analysis is in flight.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *Session) touchLocked() {
	s.lastAccess = time.Now()
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess, s.busy
}
