package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventpass/internal/status"
	"eventpass/models"
)

// OrganizerService runs the admin-driven verification gate and the
// event publication path it guards.
type OrganizerService struct {
	store OrganizerStore
}

func NewOrganizerService(store OrganizerStore) *OrganizerService {
	return &OrganizerService{store: store}
}

// Approve transitions a pending organizer to approved. The verdict is
// at-most-once; a second decision fails.
func (s *OrganizerService) Approve(ctx context.Context, organizerID, reviewerID string) error {
	ok, err := s.store.SetOrganizerVerdict(ctx, organizerID, models.OrganizerApproved, "", reviewerID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return status.ErrVerdictAlreadySet
	}
	slog.Info("organizer approved", "organizer_id", organizerID, "reviewed_by", reviewerID)
	return nil
}

// Reject is the terminal rejection path; it requires a reason.
func (s *OrganizerService) Reject(ctx context.Context, organizerID, reviewerID, reason string) error {
	if reason == "" {
		return fmt.Errorf("rejection requires a reason")
	}
	ok, err := s.store.SetOrganizerVerdict(ctx, organizerID, models.OrganizerRejected, reason, reviewerID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return status.ErrVerdictAlreadySet
	}
	slog.Info("organizer rejected", "organizer_id", organizerID, "reviewed_by", reviewerID)
	return nil
}

// SubmitEvent moves a draft event into the admin review queue.
func (s *OrganizerService) SubmitEvent(ctx context.Context, eventID string) error {
	ev, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.Status != models.EventDraft {
		return fmt.Errorf("event %s is %s, only drafts can be submitted", eventID, ev.Status)
	}
	return s.store.SetEventStatus(ctx, eventID, models.EventPending)
}

// ApproveEvent is the admin decision on a submitted event.
func (s *OrganizerService) ApproveEvent(ctx context.Context, eventID string) error {
	ev, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.Status != models.EventPending {
		return fmt.Errorf("event %s is %s, only pending events can be approved", eventID, ev.Status)
	}
	return s.store.SetEventStatus(ctx, eventID, models.EventApproved)
}

// PublishEvent makes an approved event visible to students. It refuses
// while the owning organizer is unverified; such events stay where
// they are until the verification gate opens.
func (s *OrganizerService) PublishEvent(ctx context.Context, eventID string) error {
	ev, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.Status != models.EventApproved {
		return fmt.Errorf("event %s is %s, only approved events can be published", eventID, ev.Status)
	}

	org, err := s.store.OrganizerByID(ctx, ev.OrganizerID)
	if err != nil {
		return err
	}
	if org.Status != models.OrganizerApproved {
		return status.ErrOrganizerNotApproved
	}

	return s.store.SetEventStatus(ctx, eventID, models.EventPublished)
}
