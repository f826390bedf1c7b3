package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rotafacil/internal/config"
	"rotafacil/internal/domain/access"
	"rotafacil/internal/domain/audit"
	"rotafacil/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AccessPolicy decides whether a user may use the platform right now
type AccessPolicy interface {
	EvaluateUser(ctx context.Context, user *auth.User) (access.Decision, error)
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expires_in"` // seconds
	User      *auth.User `json:"user"`
}

// Service handles authentication and authorization
type Service struct {
	config   *config.AuthConfig
	userRepo auth.Repository
	policy   AccessPolicy
	audit    audit.Repository
	now      func() time.Time
}

// NewService creates a new authentication service. policy may be nil, in
// which case login is never restricted by access schedules.
func NewService(cfg *config.AuthConfig, userRepo auth.Repository, policy AccessPolicy, auditRepo audit.Repository) *Service {
	return &Service{
		config:   cfg,
		userRepo: userRepo,
		policy:   policy,
		audit:    auditRepo,
		now:      time.Now,
	}
}

func (s *Service) record(ctx context.Context, action audit.Action, userID, resource string, meta audit.Meta, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	entry := &audit.Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
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

// Login verifies credentials, enforces the user's access schedule and opens a session
func (s *Service) Login(ctx context.Context, email, password string, meta audit.Meta) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.record(ctx, audit.ActionLoginDenied, "", email, meta, map[string]interface{}{"reason": "unknown_email"})
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.record(ctx, audit.ActionLoginDenied, user.ID, email, meta, map[string]interface{}{"reason": "bad_password"})
		return nil, auth.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.record(ctx, audit.ActionLoginDenied, user.ID, email, meta, map[string]interface{}{"reason": "inactive"})
		return nil, auth.ErrUserInactive
	}

	if s.policy != nil {
		decision, err := s.policy.EvaluateUser(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("evaluate access schedule: %w", err)
		}
		if !decision.Allowed {
			s.record(ctx, audit.ActionLoginDenied, user.ID, email, meta, map[string]interface{}{"reason": "access_schedule_restriction"})
			return nil, &access.DeniedError{Message: decision.Message}
		}
	}

	now := s.now()
	session := &auth.Session{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.TokenTTL()),
		LastUsedAt: now,
	}
	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.IssueToken(user, session)
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = now
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	}

	s.record(ctx, audit.ActionLogin, user.ID, email, meta, nil)
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user logged in")

	return &LoginResult{
		Token:     token,
		ExpiresIn: int64(s.config.TokenTTL().Seconds()),
		User:      user,
	}, nil
}

// IssueToken signs an HS256 token bound to session
func (s *Service) IssueToken(user *auth.User, session *auth.Session) (string, error) {
	claims := auth.Claims{
		Email:     user.Email,
		Role:      user.Role,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the token signature and expiry, then checks that its
// session is still open and its user still active. A token issued before the
// user's last password change is rejected.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*auth.User, *auth.Claims, error) {
	claims := &auth.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithIssuedAt())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, nil, fmt.Errorf("%w: missing subject or session", auth.ErrInvalidToken)
	}

	session, err := s.userRepo.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.UserID != claims.Subject {
		return nil, nil, fmt.Errorf("%w: session does not belong to subject", auth.ErrInvalidToken)
	}
	if session.IsExpired(s.now()) {
		return nil, nil, auth.ErrSessionExpired
	}

	user, err := s.userRepo.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, auth.ErrUserInactive
	}
	if claims.IssuedAt != nil && user.TokenPredatesPasswordChange(claims.IssuedAt.Time) {
		return nil, nil, auth.ErrPasswordChanged
	}

	if err := s.userRepo.TouchSession(ctx, session.ID); err != nil {
		log.Debug().Err(err).Str("session_id", session.ID).Msg("failed to touch session")
	}
	return user, claims, nil
}

// Logout closes the session the token was issued for
func (s *Service) Logout(ctx context.Context, userID, sessionID string, meta audit.Meta) error {
	if sessionID != "" {
		if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	s.record(ctx, audit.ActionLogout, userID, sessionID, meta, nil)
	return nil
}

// ChangePassword replaces the user's password and revokes all their sessions
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string, meta audit.Meta) error {
	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(user.PasswordHash, current) {
		return auth.ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	now := s.now()
	user.PasswordHash = hash
	user.PasswordChangedAt = &now
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := s.userRepo.DeleteUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.record(ctx, audit.ActionPasswordChanged, userID, userID, meta, nil)
	return nil
}

// CreateUser registers a new account. The caller is responsible for checking
// that req.AccessScheduleID refers to an existing schedule.
func (s *Service) CreateUser(ctx context.Context, req *auth.UserCreateRequest, actorID string, meta audit.Meta) (*auth.User, error) {
	role := req.Role
	if role == "" {
		role = auth.RoleUser
	}
	if !auth.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &auth.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.AccessScheduleID != nil && *req.AccessScheduleID != "" {
		id := *req.AccessScheduleID
		user.AccessScheduleID = &id
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionUserCreated, actorID, user.ID, meta, map[string]interface{}{"email": user.Email, "role": string(role)})
	return user, nil
}

// UpdateUser applies an administrator's changes. Deactivating a user revokes
// their sessions.
func (s *Service) UpdateUser(ctx context.Context, userID string, req *auth.UserUpdateRequest, actorID string, meta audit.Meta) (*auth.User, error) {
	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		if !auth.ValidRole(req.Role) {
			return nil, fmt.Errorf("invalid role %q", req.Role)
		}
		user.Role = req.Role
	}
	deactivated := false
	if req.IsActive != nil {
		deactivated = user.IsActive && !*req.IsActive
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = s.now()
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	if deactivated {
		if err := s.userRepo.DeleteUserSessions(ctx, userID); err != nil {
			return nil, fmt.Errorf("revoke sessions: %w", err)
		}
	}
	s.record(ctx, audit.ActionUserUpdated, actorID, userID, meta, nil)
	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	return s.userRepo.GetUser(ctx, userID)
}

// ListUsers retrieves all users
func (s *Service) ListUsers(ctx context.Context) ([]*auth.User, error) {
	return s.userRepo.ListUsers(ctx)
}

// DevUser is the virtual administrator used when DEV_MODE is on
func (s *Service) DevUser() *auth.User {
	return &auth.User{
		ID:       "dev-admin",
		Email:    "dev@localhost",
		Name:     "Developer",
		Role:     auth.RoleAdmin,
		IsActive: true,
	}
}

// JanitorLock keeps concurrent server replicas from sweeping sessions at once
type JanitorLock interface {
	TryAcquire(ctx context.Context, key string) (bool, func(context.Context) error, error)
}

const janitorLockKey = "session_janitor"

// RunSessionJanitor removes expired sessions every interval until ctx is done.
// A round is skipped when another replica holds the janitor lock.
func (s *Service) RunSessionJanitor(ctx context.Context, interval time.Duration, lock JanitorLock) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepSessions(ctx, lock)
		}
	}
}

func (s *Service) sweepSessions(ctx context.Context, lock JanitorLock) {
	if lock != nil {
		ok, release, err := lock.TryAcquire(ctx, janitorLockKey)
		if err != nil {
			log.Warn().Err(err).Msg("failed to take session janitor lock")
			return
		}
		if !ok {
			log.Debug().Msg("session janitor running elsewhere")
			return
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.Warn().Err(err).Msg("failed to release session janitor lock")
			}
		}()
	}
	if err := s.userRepo.CleanupExpiredSessions(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clean up expired sessions")
	}
}
