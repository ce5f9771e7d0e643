package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vedx/vedx-site/internal/adminclient"
	"github.com/vedx/vedx-site/internal/http/handlers"
	"github.com/vedx/vedx-site/internal/repo/memory"
	"github.com/vedx/vedx-site/internal/service"
	"github.com/vedx/vedx-site/pkg/config"
	"github.com/vedx/vedx-site/pkg/events"
	"github.com/vedx/vedx-site/pkg/logger"
)

type captureMailer struct {
	mu   sync.Mutex
	code string
}

func (m *captureMailer) Send(_ context.Context, _, _, _, _, _ string) (string, error) {
	return "", nil
}

func (m *captureMailer) SendPasswordResetOTP(_ context.Context, _, _, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = code
	return nil
}

func (m *captureMailer) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code
}

type harness struct {
	url   string
	state string
	mail  *captureMailer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger.SetOutput(io.Discard, slog.LevelError)

	mail := &captureMailer{}
	auth := service.NewAuthService(
		memory.NewAdminRepository(),
		memory.NewOTPRepository(),
		memory.NewSessionRepository(),
		memory.NewRateLimitRepository(),
		mail, events.NewLocalEventBus(),
		config.AuthConfig{
			JWTSecret:       "test-secret",
			SessionTTL:      time.Hour,
			OTPTTL:          10 * time.Minute,
			OTPMaxAttempts:  5,
			OTPResendLimit:  5,
			OTPResendWindow: 10 * time.Minute,
		},
		service.WithHashCost(&argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}, bcrypt.MinCost),
	)
	require.NoError(t, auth.SeedAdmin(context.Background(), config.AdminSeedConfig{
		Email:     "admin@vedx.com",
		Password:  "ChangeMe123",
		FirstName: "Site",
		LastName:  "Admin",
	}))

	r := chi.NewRouter()
	r.Mount("/api/auth", handlers.NewAuthHandler(auth).Routes())
	r.Mount("/api/admin", handlers.NewAdminHandler(auth).Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &harness{url: srv.URL, state: filepath.Join(t.TempDir(), "admin.yaml"), mail: mail}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(strings.NewReader(stdin))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api", h.url, "--state", h.state}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) stored(t *testing.T) *adminclient.State {
	t.Helper()
	st, err := adminclient.NewFileStore(h.state).Load()
	require.NoError(t, err)
	return st
}

func TestLoginProfileLogout(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "profile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	out, err := h.run(t, "", "login", "-u", "admin@vedx.com", "-p", "ChangeMe123")
	require.NoError(t, err)
	assert.Contains(t, out, "Session valid until")
	assert.NotEmpty(t, h.stored(t).Token)

	out, err = h.run(t, "", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@vedx.com")

	out, err = h.run(t, "", "profile", "update", "--first-name", "Asha")
	require.NoError(t, err)
	assert.Contains(t, out, "Asha Admin")
	assert.Equal(t, "Asha", h.stored(t).Profile.FirstName)

	_, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Empty(t, h.stored(t).Token)
}

func TestLogin_PromptsAndReportsServerMessage(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "admin@vedx.com\nwrong-password\n", "login")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestPasswordPromptsKeepSurroundingSpaces(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "login", "-u", "admin@vedx.com", "-p", "ChangeMe123")
	require.NoError(t, err)
	_, err = h.run(t, "ChangeMe123\r\n  Passw0rd! \n", "change-password")
	require.NoError(t, err)

	_, err = h.run(t, "admin@vedx.com\nPassw0rd!\n", "login")
	require.Error(t, err, "the spaces are part of the new password")

	out, err := h.run(t, " admin@vedx.com \n  Passw0rd! \n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Session valid until")
}

func TestResetWizardCommands(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "login", "-u", "admin@vedx.com", "-p", "ChangeMe123")
	require.NoError(t, err)

	_, err = h.run(t, "", "reset", "verify", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset start")

	_, err = h.run(t, "", "reset", "start", "admin@vedx.com")
	require.NoError(t, err)
	code := h.mail.last()
	require.Len(t, code, 6)

	out, err := h.run(t, "", "reset", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Next step: verify-otp")

	_, err = h.run(t, "", "reset", "verify", code)
	require.NoError(t, err)
	assert.Equal(t, code, h.stored(t).ResetOTP)

	_, err = h.run(t, "", "reset", "complete", "-p", "short1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")

	_, err = h.run(t, "", "reset", "complete", "-p", "Passw0rd!")
	require.NoError(t, err)

	st := h.stored(t)
	assert.Empty(t, st.ResetEmail)
	assert.Empty(t, st.ResetOTP)
	assert.Empty(t, st.Token, "reset drops the stored login")

	_, err = h.run(t, "", "login", "-u", "admin@vedx.com", "-p", "Passw0rd!")
	require.NoError(t, err)
}

func TestResetAbandon(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "reset", "start", "admin@vedx.com")
	require.NoError(t, err)

	out, err := h.run(t, "", "reset", "abandon")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset abandoned")

	out, err = h.run(t, "", "reset", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Next step: forgot-password")
}

func TestExplain_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	cmd := newRootCmd(strings.NewReader(""))
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--api", url, "--state", filepath.Join(t.TempDir(), "s.yaml"), "reset", "start", "admin@vedx.com"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to send the code right now")
}
