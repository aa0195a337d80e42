package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/laso/hms/internal/platform/apperr"
)

// CallAccess is the outcome of a join attempt. RoomName and Domain are only
// populated while the window is open.
type CallAccess struct {
	State            WindowState `json:"state"`
	MinutesRemaining int         `json:"minutes_remaining,omitempty"`
	RoomName         string      `json:"room_name,omitempty"`
	Domain           string      `json:"domain,omitempty"`
}

type Service struct {
	repo        Repository
	preMinutes  int
	postMinutes int
	meetDomain  string
	now         func() time.Time
}

func NewService(repo Repository, preMinutes, postMinutes int, meetDomain string) *Service {
	if preMinutes <= 0 {
		preMinutes = DefaultPreMinutes
	}
	if postMinutes <= 0 {
		postMinutes = DefaultPostMinutes
	}
	return &Service{
		repo:        repo,
		preMinutes:  preMinutes,
		postMinutes: postMinutes,
		meetDomain:  meetDomain,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Schedule(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	a.Status = StatusPlanned
	a.RoomName = ""
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Complete and Cancel close out a planned appointment.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.close(ctx, id, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.close(ctx, id, StatusCancelled)
}

func (s *Service) close(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPlanned {
		return nil, apperr.Wrap(apperr.ErrInvalidTransition, "appointment is %s", a.Status)
	}
	a.Status = to
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetTelemedicine toggles video consultation for an appointment. Only the
// assigned doctor may change the setting.
func (s *Service) SetTelemedicine(ctx context.Context, id, actorID uuid.UUID, enabled bool) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != a.DoctorID {
		return nil, apperr.Wrap(apperr.ErrNotAuthorized,
			"only the assigned doctor can modify telemedicine settings")
	}
	a.IsTelemedicine = enabled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CheckAvailability reports the caller's window state without side effects.
// Participants only.
func (s *Service) CheckAvailability(ctx context.Context, id, userID uuid.UUID) (*CallAccess, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.CanJoin(userID) {
		return nil, apperr.ErrNotAuthorized
	}
	if !a.IsTelemedicine {
		return nil, fmt.Errorf("not a telemedicine appointment")
	}
	state, minutes := Availability(a.ScheduledAt, s.now(), s.preMinutes, s.postMinutes)
	return &CallAccess{State: state, MinutesRemaining: minutes}, nil
}

// JoinCall grants a participant access to the video room while the window is
// open. The room token is generated on first join and reused afterwards; the
// service never talks to the conferencing backend, it only hands the token to
// the caller.
func (s *Service) JoinCall(ctx context.Context, id, userID uuid.UUID) (*CallAccess, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.CanJoin(userID) {
		return nil, apperr.ErrNotAuthorized
	}
	if !a.IsTelemedicine {
		return nil, fmt.Errorf("not a telemedicine appointment")
	}

	state, minutes := Availability(a.ScheduledAt, s.now(), s.preMinutes, s.postMinutes)
	if state != WindowOpen {
		return &CallAccess{State: state, MinutesRemaining: minutes}, nil
	}

	room := a.RoomName
	if room == "" {
		candidate, err := NewRoomName()
		if err != nil {
			return nil, fmt.Errorf("generate room name: %w", err)
		}
		room, err = s.repo.EnsureRoomName(ctx, a.ID, candidate)
		if err != nil {
			return nil, err
		}
	}
	return &CallAccess{State: WindowOpen, RoomName: room, Domain: s.meetDomain}, nil
}
