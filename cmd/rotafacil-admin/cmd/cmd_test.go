package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotafacil/internal/adapters/db/memory"
	appaccess "rotafacil/internal/application/access"
	appauth "rotafacil/internal/application/auth"
	"rotafacil/internal/config"
	domainaccess "rotafacil/internal/domain/access"
	domainauth "rotafacil/internal/domain/auth"
)

type memoryBackend struct {
	*backend
	audits *memory.AuditRepository
}

func useMemoryBackend(t *testing.T) *memoryBackend {
	t.Helper()
	users := memory.NewUserRepository()
	schedules := memory.NewScheduleRepository()
	audits := memory.NewAuditRepository()
	accessService := appaccess.NewService(schedules, users, audits, memory.NewLocker(), time.UTC)
	b := &memoryBackend{
		backend: &backend{
			users:     users,
			schedules: schedules,
			auth:      appauth.NewService(&config.AuthConfig{TokenTTLHours: 1}, users, accessService, audits),
			access:    accessService,
			close:     func() {},
		},
		audits: audits,
	}

	prev := openBackend
	openBackend = func(context.Context) (*backend, error) { return b.backend, nil }
	t.Cleanup(func() { openBackend = prev })
	return b
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCreateUserAndSetAdmin(t *testing.T) {
	b := useMemoryBackend(t)
	t.Setenv("ROTAFACIL_PASSWORD", "")
	ctx := context.Background()

	out, err := run(t, "segredo123\n", "create-user", "--email", "Ana@Example.com", "--name", "Ana")
	require.NoError(t, err)
	assert.Contains(t, out, "created user ana@example.com")

	u, err := b.users.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, u.Role)
	assert.True(t, appauth.CheckPassword(u.PasswordHash, "segredo123"))

	out, err = run(t, "", "set-admin", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "is now an administrator")

	u, _ = b.users.GetUserByEmail(ctx, "ana@example.com")
	assert.True(t, u.IsAdmin())

	out, err = run(t, "", "set-admin", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "already an administrator")

	_, err = run(t, "", "set-admin", "ninguem@example.com")
	assert.Error(t, err)
}

func TestCreateUserRejectsUnknownSchedule(t *testing.T) {
	useMemoryBackend(t)
	t.Setenv("ROTAFACIL_PASSWORD", "segredo123")

	_, err := run(t, "", "create-user", "--email", "bia@example.com", "--name", "Bia", "--schedule", "missing")
	assert.Error(t, err)
	newUserSchedule = ""
}

func TestAssignSchedule(t *testing.T) {
	b := useMemoryBackend(t)
	ctx := context.Background()
	require.NoError(t, b.schedules.CreateSchedule(ctx, &domainaccess.Schedule{
		ID: "s1", Name: "Comercial", OwnerID: "admin",
		Windows: domainaccess.WeeklySchedule{"monday": {{Start: "08:00", End: "18:00"}}},
	}))
	require.NoError(t, b.users.CreateUser(ctx, &domainauth.User{ID: "u1", Email: "caio@example.com", Role: domainauth.RoleUser, IsActive: true}))

	out, err := run(t, "", "assign-schedule", "caio@example.com", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "bound to schedule s1")
	u, _ := b.users.GetUser(ctx, "u1")
	require.NotNil(t, u.AccessScheduleID)
	assert.Equal(t, "s1", *u.AccessScheduleID)

	out, err = run(t, "", "list-schedules")
	require.NoError(t, err)
	assert.Contains(t, out, "Comercial")
	assert.Contains(t, out, "monday")

	out, err = run(t, "", "assign-schedule", "caio@example.com", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "no access restriction")
	u, _ = b.users.GetUser(ctx, "u1")
	assert.Nil(t, u.AccessScheduleID)

	entries, _ := b.audits.List(ctx, 10)
	require.NotEmpty(t, entries)
	assert.Equal(t, actorID, entries[0].UserID)
}

func TestReadPassword(t *testing.T) {
	t.Setenv("ROTAFACIL_PASSWORD", "")
	got, err := readPassword(strings.NewReader("abc12345\n"))
	require.NoError(t, err)
	assert.Equal(t, "abc12345", got)

	_, err = readPassword(strings.NewReader("\n"))
	assert.Error(t, err)
}
