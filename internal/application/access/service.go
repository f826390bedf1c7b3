package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rotafacil/internal/domain/access"
	"rotafacil/internal/domain/audit"
	"rotafacil/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserNotFoundMessage is the denial given when the caller no longer exists
const UserNotFoundMessage = "Usuário não encontrado"

// WebSocketNotifier pushes access changes to connected clients
type WebSocketNotifier interface {
	NotifyUsers(userIDs ...string)
}

// Locker serialises schedule mutations
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// Service evaluates and administers access schedules
type Service struct {
	schedules  access.Repository
	users      auth.Repository
	audit      audit.Repository
	locker     Locker
	wsNotifier WebSocketNotifier
	location   *time.Location
	now        func() time.Time
}

// NewService creates a new access service evaluating schedules in loc
func NewService(schedules access.Repository, users auth.Repository, auditRepo audit.Repository, locker Locker, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		schedules: schedules,
		users:     users,
		audit:     auditRepo,
		locker:    locker,
		location:  loc,
		now:       time.Now,
	}
}

// SetWebSocketNotifier sets the WebSocket notifier for the service
func (s *Service) SetWebSocketNotifier(notifier WebSocketNotifier) {
	s.wsNotifier = notifier
}

func (s *Service) notify(userIDs ...string) {
	if s.wsNotifier != nil && len(userIDs) > 0 {
		s.wsNotifier.NotifyUsers(userIDs...)
	}
}

func (s *Service) record(ctx context.Context, action audit.Action, actorID, resource string, meta audit.Meta, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	entry := &audit.Entry{
		ID:        uuid.New().String(),
		UserID:    actorID,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("failed to record audit entry")
	}
}

func (s *Service) lock(ctx context.Context, scheduleID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, "access_schedule:"+scheduleID)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.Background()); err != nil {
			log.Warn().Err(err).Str("schedule_id", scheduleID).Msg("failed to release schedule lock")
		}
	}, nil
}

// Now returns the current time in the evaluation zone
func (s *Service) Now() time.Time {
	return s.now().In(s.location)
}

// EvaluateUser evaluates user's schedule at the current time. Users without a
// schedule, or whose schedule no longer exists, are unrestricted.
func (s *Service) EvaluateUser(ctx context.Context, user *auth.User) (access.Decision, error) {
	if !user.HasAccessSchedule() {
		return access.Unrestricted(), nil
	}
	schedule, err := s.schedules.GetSchedule(ctx, *user.AccessScheduleID)
	if err != nil {
		if errors.Is(err, access.ErrScheduleNotFound) {
			log.Warn().Str("user_id", user.ID).Str("schedule_id", *user.AccessScheduleID).Msg("user bound to a missing access schedule")
			return access.Unrestricted(), nil
		}
		return access.Decision{}, fmt.Errorf("load access schedule: %w", err)
	}
	return schedule.Evaluate(s.Now()), nil
}

// CheckAccess answers whether userID may use the platform right now and, when
// allowed, how many minutes remain in the current window
func (s *Service) CheckAccess(ctx context.Context, userID string) (access.Decision, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return access.Denied(UserNotFoundMessage), nil
		}
		return access.Decision{}, fmt.Errorf("load user: %w", err)
	}
	return s.EvaluateUser(ctx, user)
}

// RecordDenial writes an access_denied audit entry
func (s *Service) RecordDenial(ctx context.Context, userID, path string, decision access.Decision, meta audit.Meta) {
	s.record(ctx, audit.ActionAccessDenied, userID, path, meta, map[string]interface{}{"message": decision.Message})
}

// ListSchedules returns the schedules owned by ownerID
func (s *Service) ListSchedules(ctx context.Context, ownerID string) ([]*access.Schedule, error) {
	return s.schedules.ListSchedules(ctx, ownerID)
}

// GetSchedule returns a schedule by ID
func (s *Service) GetSchedule(ctx context.Context, scheduleID string) (*access.Schedule, error) {
	return s.schedules.GetSchedule(ctx, scheduleID)
}

// CreateSchedule validates and stores a new schedule owned by ownerID
func (s *Service) CreateSchedule(ctx context.Context, ownerID string, req *access.ScheduleCreateRequest, meta audit.Meta) (*access.Schedule, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", access.ErrInvalidSchedule)
	}
	if err := req.Windows.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	schedule := &access.Schedule{
		ID:        uuid.New().String(),
		Name:      req.Name,
		OwnerID:   ownerID,
		Windows:   req.Windows,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.schedules.CreateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	s.record(ctx, audit.ActionScheduleCreated, ownerID, schedule.ID, meta, map[string]interface{}{"name": schedule.Name})
	return schedule, nil
}

// UpdateSchedule changes a schedule's name and/or windows and tells every
// bound user's client to re-check.
func (s *Service) UpdateSchedule(ctx context.Context, scheduleID string, req *access.ScheduleUpdateRequest, actorID string, meta audit.Meta) (*access.Schedule, error) {
	if req.Windows != nil {
		if err := req.Windows.Validate(); err != nil {
			return nil, err
		}
	}

	unlock, err := s.lock(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("lock schedule: %w", err)
	}
	defer unlock()

	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		schedule.Name = req.Name
	}
	if req.Windows != nil {
		schedule.Windows = req.Windows
	}
	schedule.UpdatedAt = s.now()
	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	s.record(ctx, audit.ActionScheduleUpdated, actorID, scheduleID, meta, nil)
	s.notify(s.boundUserIDs(ctx, scheduleID)...)
	return schedule, nil
}

// DeleteSchedule detaches every user from the schedule, then removes it
func (s *Service) DeleteSchedule(ctx context.Context, scheduleID, actorID string, meta audit.Meta) error {
	unlock, err := s.lock(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("lock schedule: %w", err)
	}
	defer unlock()

	if _, err := s.schedules.GetSchedule(ctx, scheduleID); err != nil {
		return err
	}
	affected, err := s.users.ClearAccessSchedule(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("detach users: %w", err)
	}
	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	s.record(ctx, audit.ActionScheduleDeleted, actorID, scheduleID, meta, map[string]interface{}{"detached_users": len(affected)})
	s.notify(affected...)
	return nil
}

// AssignSchedule binds userID to scheduleID, or removes the restriction when
// scheduleID is nil or empty
func (s *Service) AssignSchedule(ctx context.Context, userID string, scheduleID *string, actorID string, meta audit.Meta) (*auth.User, error) {
	var target string
	if scheduleID != nil {
		target = *scheduleID
	}
	if target != "" {
		unlock, err := s.lock(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("lock schedule: %w", err)
		}
		defer unlock()
		if _, err := s.schedules.GetSchedule(ctx, target); err != nil {
			return nil, err
		}
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target == "" {
		user.AccessScheduleID = nil
	} else {
		user.AccessScheduleID = &target
	}
	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.record(ctx, audit.ActionScheduleAssigned, actorID, userID, meta, map[string]interface{}{"schedule_id": target})
	s.notify(userID)
	return user, nil
}

func (s *Service) boundUserIDs(ctx context.Context, scheduleID string) []string {
	users, err := s.users.ListUsersBySchedule(ctx, scheduleID)
	if err != nil {
		log.Warn().Err(err).Str("schedule_id", scheduleID).Msg("failed to list users bound to schedule")
		return nil
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// ListAuditEntries returns the newest audit entries
func (s *Service) ListAuditEntries(ctx context.Context, limit int) ([]*audit.Entry, error) {
	if s.audit == nil {
		return []*audit.Entry{}, nil
	}
	return s.audit.List(ctx, limit)
}
