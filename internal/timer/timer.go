// Package timer owns the completion lifecycle for a task on a date:
// start/stop/resume elapsed-time accounting, done/skip/block transitions,
// deferral, and undo. All state lives in the single completion row, so any
// device can recompute the timer from storage at any time.
package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/bywater/internal/model"
	"github.com/dukerupert/bywater/internal/store"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrDeferredDate  = errors.New("deferred status requires a deferred_to date")
	ErrTerminalState = errors.New("finished task can only be changed via undo")
	ErrNotFound      = errors.New("completion not found")
)

type Service struct {
	completions *store.CompletionStore
	now         func() time.Time
}

// NewService creates the timer service. A nil clock uses wall time; tests
// inject a fixed one.
func NewService(cs *store.CompletionStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{completions: cs, now: now}
}

// Transition applies a status change to the (activity, user, date) task,
// creating the completion row on first touch and mutating it thereafter.
//
// Elapsed-time rules: Start stamps started_at and leaves accumulated elapsed
// untouched, so resuming from stopped carries prior sessions over. Any
// transition out of a running state folds the open session into elapsed_ms
// and clears started_at, keeping started_at non-nil exactly while the status
// is started. overrideMinutes, when present on a done transition, replaces
// the computed elapsed time.
//
// A second Start while already started just re-stamps started_at: two racing
// devices are last-writer-wins, which can undercount but never corrupts.
//
// done and skipped are terminal: the only way out is Undo, which deletes the
// row. A transition attempted from either returns ErrTerminalState.
func (s *Service) Transition(activityID, userID int64, date string, status model.Status, overrideMinutes *int, deferredTo *string) (*model.Completion, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if status == model.StatusDeferred && deferredTo == nil {
		return nil, ErrDeferredDate
	}

	c, err := s.completions.Get(activityID, userID, date)
	if err != nil {
		return nil, fmt.Errorf("load completion: %w", err)
	}
	if c != nil && c.Status.Terminal() {
		return nil, ErrTerminalState
	}
	if c == nil {
		c = &model.Completion{ActivityID: activityID, UserID: userID, Date: date}
	}

	now := s.now().UTC()

	switch status {
	case model.StatusStarted:
		c.StartedAt = &now

	case model.StatusStopped:
		s.foldOpenSession(c, now)

	case model.StatusDone:
		s.foldOpenSession(c, now)
		if overrideMinutes != nil {
			c.ElapsedMS = int64(*overrideMinutes) * 60_000
		}
		c.CompletedAt = &now

	case model.StatusSkipped, model.StatusBlocked:
		s.foldOpenSession(c, now)

	case model.StatusDeferred:
		s.foldOpenSession(c, now)
		c.DeferredTo = deferredTo
	}

	c.Status = status
	return s.completions.Upsert(c)
}

// Undo deletes the completion row outright, returning the task to unstarted
// with no history.
func (s *Service) Undo(completionID int64) error {
	c, err := s.completions.GetByID(completionID)
	if err != nil {
		return fmt.Errorf("load completion: %w", err)
	}
	if c == nil {
		return ErrNotFound
	}
	if err := s.completions.Delete(completionID); err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// foldOpenSession accumulates a running session into elapsed_ms and clears
// the start timestamp. No-op when no timer is running.
func (s *Service) foldOpenSession(c *model.Completion, now time.Time) {
	if c.StartedAt == nil {
		return
	}
	if ms := now.Sub(*c.StartedAt).Milliseconds(); ms > 0 {
		c.ElapsedMS += ms
	}
	c.StartedAt = nil
}

// DisplayMS is the duration shown for a task: recorded elapsed time when any
// exists, the activity's default estimate otherwise. Display-time fallback
// only; nothing is written back.
func DisplayMS(a model.Activity, c *model.Completion) int64 {
	if c != nil && c.ElapsedMS > 0 {
		return c.ElapsedMS
	}
	return int64(a.DefaultMinutes) * 60_000
}
