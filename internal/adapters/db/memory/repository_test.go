package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rotafacil/internal/domain/access"
	"rotafacil/internal/domain/audit"
	"rotafacil/internal/domain/auth"
)

func strPtr(s string) *string { return &s }

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	if err := repo.CreateUser(ctx, &auth.User{ID: "u1", Email: "Tecnico@Empresa.com"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "tecnico@empresa.com"); err != nil {
		t.Fatalf("expected lookup to ignore case, got %v", err)
	}
	if err := repo.CreateUser(ctx, &auth.User{ID: "u2", Email: "TECNICO@empresa.com"}); !errors.Is(err, auth.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	_ = repo.CreateUser(ctx, &auth.User{ID: "u1", Email: "a@b.c", AccessScheduleID: strPtr("s1")})

	u, _ := repo.GetUser(ctx, "u1")
	*u.AccessScheduleID = "tampered"

	again, _ := repo.GetUser(ctx, "u1")
	if *again.AccessScheduleID != "s1" {
		t.Fatalf("stored user was mutated through a returned pointer")
	}
}

func TestUserRepository_ClearAccessSchedule(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	_ = repo.CreateUser(ctx, &auth.User{ID: "u1", Email: "1@x", AccessScheduleID: strPtr("s1")})
	_ = repo.CreateUser(ctx, &auth.User{ID: "u2", Email: "2@x", AccessScheduleID: strPtr("s2")})
	_ = repo.CreateUser(ctx, &auth.User{ID: "u3", Email: "3@x", AccessScheduleID: strPtr("s1")})

	ids, err := repo.ClearAccessSchedule(ctx, "s1")
	if err != nil {
		t.Fatalf("ClearAccessSchedule: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 affected users, got %v", ids)
	}
	remaining, _ := repo.ListUsersBySchedule(ctx, "s1")
	if len(remaining) != 0 {
		t.Fatalf("expected no users left on s1, got %d", len(remaining))
	}
	other, _ := repo.ListUsersBySchedule(ctx, "s2")
	if len(other) != 1 {
		t.Fatalf("expected s2 untouched")
	}
}

func TestUserRepository_Sessions(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	now := time.Now()
	_ = repo.CreateSession(ctx, &auth.Session{ID: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)})
	_ = repo.CreateSession(ctx, &auth.Session{ID: "old", UserID: "u1", ExpiresAt: now.Add(-time.Hour)})
	_ = repo.CreateSession(ctx, &auth.Session{ID: "other", UserID: "u2", ExpiresAt: now.Add(time.Hour)})

	if err := repo.CleanupExpiredSessions(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetSession(ctx, "old"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("expected expired session removed, got %v", err)
	}

	if err := repo.DeleteUserSessions(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetSession(ctx, "live"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("expected u1 sessions removed, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "other"); err != nil {
		t.Errorf("expected u2 session kept, got %v", err)
	}
	if err := repo.TouchSession(ctx, "missing"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound touching a missing session, got %v", err)
	}
}

func TestScheduleRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository()
	s := &access.Schedule{ID: "s1", Name: "Comercial", OwnerID: "admin", Windows: access.WeeklySchedule{
		"monday": {{Start: "08:00", End: "17:00"}},
	}}
	if err := repo.CreateSchedule(ctx, s); err != nil {
		t.Fatal(err)
	}
	_ = repo.CreateSchedule(ctx, &access.Schedule{ID: "s2", Name: "Alheio", OwnerID: "someone-else"})

	list, _ := repo.ListSchedules(ctx, "admin")
	if len(list) != 1 || list[0].ID != "s1" {
		t.Fatalf("expected only admin's schedule, got %+v", list)
	}
	if all, _ := repo.ListSchedules(ctx, ""); len(all) != 2 || all[0].Name != "Alheio" {
		t.Fatalf("expected every schedule sorted by name, got %+v", all)
	}

	list[0].Windows["monday"][0].End = "23:00"
	got, _ := repo.GetSchedule(ctx, "s1")
	if got.Windows["monday"][0].End != "17:00" {
		t.Fatal("stored windows were mutated through a returned schedule")
	}

	got.Name = "Noturno"
	if err := repo.UpdateSchedule(ctx, got); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteSchedule(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetSchedule(ctx, "s1"); !errors.Is(err, access.ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound, got %v", err)
	}
	if err := repo.UpdateSchedule(ctx, got); !errors.Is(err, access.ErrScheduleNotFound) {
		t.Fatalf("expected ErrScheduleNotFound on update, got %v", err)
	}
}

func TestAuditRepository_NewestFirstAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository()
	for _, a := range []audit.Action{audit.ActionLogin, audit.ActionAccessDenied, audit.ActionLogout} {
		_ = repo.Record(ctx, &audit.Entry{ID: string(a), Action: a})
	}

	got, _ := repo.List(ctx, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Action != audit.ActionLogout || got[1].Action != audit.ActionAccessDenied {
		t.Fatalf("expected newest first, got %s, %s", got[0].Action, got[1].Action)
	}

	all, _ := repo.List(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("expected default limit to return all 3, got %d", len(all))
	}
}

func TestLocker_SerialisesSameKey(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	release, err := l.Acquire(ctx, "schedule:s1")
	if err != nil {
		t.Fatal(err)
	}

	// a different key is independent
	other, err := l.Acquire(ctx, "schedule:s2")
	if err != nil {
		t.Fatal(err)
	}
	_ = other(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(waitCtx, "schedule:s1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second acquire to block until deadline, got %v", err)
	}

	_ = release(ctx)
	_ = release(ctx) // idempotent

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err := l.Acquire(ctx, "schedule:s1")
		if err != nil {
			t.Errorf("acquire after release: %v", err)
			return
		}
		_ = r(ctx)
	}()
	wg.Wait()
}

func TestLocker_TryAcquire(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	ok, release, err := l.TryAcquire(ctx, "session_janitor")
	if err != nil || !ok {
		t.Fatalf("expected free lock, got ok=%v err=%v", ok, err)
	}
	if ok, _, _ := l.TryAcquire(ctx, "session_janitor"); ok {
		t.Fatal("expected held lock to be refused")
	}
	_ = release(ctx)
	ok, release, _ = l.TryAcquire(ctx, "session_janitor")
	if !ok {
		t.Fatal("expected lock to be free after release")
	}
	_ = release(ctx)
}
