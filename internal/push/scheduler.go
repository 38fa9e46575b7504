package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/bywater/internal/cycle"
	"github.com/dukerupert/bywater/internal/model"
	"github.com/dukerupert/bywater/internal/planner"
	"github.com/dukerupert/bywater/internal/store"
)

const defaultDigestHour = 7

// Scheduler periodically checks for alerts to send. Its only timed job is
// the morning digest: once per day, after the digest hour, each family
// member gets a summary of their assembled plan for the day.
type Scheduler struct {
	mu         sync.RWMutex
	service    *Service
	push       *store.PushStore
	families   *store.FamilyStore
	assembler  *planner.Assembler
	logger     *slog.Logger
	interval   time.Duration
	digestHour int
	now        func() time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewScheduler creates an alert scheduler. digestHour is the local hour
// (0-23) after which the daily digest may go out; values outside that range
// fall back to the default.
func NewScheduler(svc *Service, pushStore *store.PushStore, familyStore *store.FamilyStore, assembler *planner.Assembler, digestHour int, logger *slog.Logger) *Scheduler {
	if digestHour < 0 || digestHour > 23 {
		digestHour = defaultDigestHour
	}
	return &Scheduler{
		service:    svc,
		push:       pushStore,
		families:   familyStore,
		assembler:  assembler,
		logger:     logger,
		interval:   60 * time.Second,
		digestHour: digestHour,
		now:        time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	familyIDs, err := s.push.ListFamilyIDs()
	if err != nil {
		s.logger.Error("push scheduler: list families", "error", err)
		return
	}

	for _, fid := range familyIDs {
		s.checkDailyDigest(fid)
	}
}

func (s *Scheduler) checkDailyDigest(familyID int64) {
	now := s.now()
	if now.Hour() < s.digestHour {
		return
	}
	date := now.Format(cycle.DateLayout)

	members, err := s.families.ListMembers(familyID)
	if err != nil {
		s.logger.Error("push scheduler: list members", "error", err, "family_id", familyID)
		return
	}

	for _, m := range members {
		refID := fmt.Sprintf("digest-%d-%s", m.UserID, date)
		sent, err := s.push.WasSent(familyID, model.AlertTypeDailyDigest, refID)
		if err != nil {
			s.logger.Error("push scheduler: check sent", "error", err)
			continue
		}
		if sent {
			continue
		}

		enabled, _ := s.push.IsPreferenceEnabled(m.UserID, familyID, model.AlertTypeDailyDigest)
		if !enabled {
			continue
		}

		subs, err := s.push.ListByUser(m.UserID, familyID)
		if err != nil {
			s.logger.Error("push scheduler: list subscriptions", "error", err)
			continue
		}
		if len(subs) == 0 {
			continue
		}

		plan, err := s.assembler.Assemble(m.UserID, now)
		if err != nil {
			s.logger.Error("push scheduler: assemble plan", "error", err, "user_id", m.UserID)
			continue
		}
		if len(plan.Tasks) == 0 {
			// Nothing planned; mark as handled so we don't re-check all day
			if err := s.push.RecordSent(familyID, model.AlertTypeDailyDigest, refID); err != nil {
				s.logger.Error("push scheduler: record sent", "error", err, "reference_id", refID)
			}
			continue
		}

		payload := Payload{
			Title: "Today's Plan",
			Body: fmt.Sprintf("%d tasks today, about %d minutes",
				plan.Summary.TotalTasks, plan.Summary.TotalMS/60_000),
			URL: "/today",
			Tag: TagDailyDigest,
		}

		for i := range subs {
			if err := s.service.Send(&subs[i], payload); err != nil {
				if errors.Is(err, ErrExpired) {
					s.push.DeleteByEndpoint(subs[i].Endpoint)
				} else {
					s.logger.Error("push scheduler: send digest", "error", err)
				}
			}
		}

		if err := s.push.RecordSent(familyID, model.AlertTypeDailyDigest, refID); err != nil {
			s.logger.Error("push scheduler: record sent", "error", err, "reference_id", refID)
		}
	}
}

// SendTaskAlert notifies the other members of a family that someone finished
// an activity. Called from the completion handler, not from the scheduler.
func (s *Scheduler) SendTaskAlert(familyID, excludeUserID int64, userName, activityName string) {
	subs, err := s.push.ListByFamily(familyID)
	if err != nil {
		s.logger.Error("push: task alert list subscriptions", "error", err)
		return
	}

	payload := Payload{
		Title: "Task Done",
		Body:  fmt.Sprintf("%s finished %s", userName, activityName),
		URL:   "/today",
		Tag:   TagTaskCompleted,
	}

	for i := range subs {
		sub := &subs[i]
		if sub.UserID == excludeUserID {
			continue
		}
		enabled, _ := s.push.IsPreferenceEnabled(sub.UserID, familyID, model.AlertTypeTaskCompleted)
		if !enabled {
			continue
		}

		if err := s.service.Send(sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("push: send task alert", "error", err)
			}
		}
	}
}
