package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/platform/mailer"
	"github.com/vedx/vedx-site/internal/repo"
	"github.com/vedx/vedx-site/internal/utils"
	"github.com/vedx/vedx-site/pkg/auth"
	"github.com/vedx/vedx-site/pkg/config"
	"github.com/vedx/vedx-site/pkg/events"
	"github.com/vedx/vedx-site/pkg/logger"
)

const (
	msgLogin          = "Login successful"
	msgLogout         = "Logged out"
	msgOTPSent        = "If an account exists for that email, an OTP has been sent"
	msgOTPResent      = "If an account exists for that email, a new OTP has been sent"
	msgOTPVerified    = "OTP verified successfully"
	msgPasswordReset  = "Password reset successfully. Please log in with your new password"
	msgPasswordChange = "Password changed successfully"
	msgProfileUpdated = "Profile updated successfully"
	msgProfile        = "Profile loaded"
)

type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) (*domain.MessageResponse, error)
	// Authenticate checks a bearer token's signature, expiry and session registration.
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)

	ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error)
	ResendOTP(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error)
	VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.MessageResponse, error)
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.MessageResponse, error)

	ChangePassword(ctx context.Context, claims *auth.Claims, req *domain.ChangePasswordRequest) (*domain.MessageResponse, error)
	Profile(ctx context.Context, adminID string) (*domain.ProfileResponse, error)
	UpdateProfile(ctx context.Context, adminID string, req *domain.UpdateProfileRequest) (*domain.ProfileResponse, error)

	SeedAdmin(ctx context.Context, seed config.AdminSeedConfig) error
	PurgeExpiredOTPs(ctx context.Context) (int64, error)
}

type Option func(*authService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *authService) { s.now = now }
}

// WithCodeGenerator replaces the random OTP source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *authService) { s.newCode = gen }
}

// WithHashCost lowers hashing work, for tests.
func WithHashCost(params *argon2id.Params, bcryptCost int) Option {
	return func(s *authService) {
		s.argonParams = params
		s.bcryptCost = bcryptCost
	}
}

type authService struct {
	adminRepo   repo.AdminRepository
	otpRepo     repo.OTPRepository
	sessionRepo repo.SessionRepository
	limitRepo   repo.RateLimitRepository
	mailer      mailer.Service
	eventBus    events.Publisher
	config      config.AuthConfig

	now         func() time.Time
	newCode     func() (string, error)
	argonParams *argon2id.Params
	bcryptCost  int
}

func NewAuthService(
	adminRepo repo.AdminRepository,
	otpRepo repo.OTPRepository,
	sessionRepo repo.SessionRepository,
	limitRepo repo.RateLimitRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
	config config.AuthConfig,
	opts ...Option,
) AuthService {
	s := &authService{
		adminRepo:   adminRepo,
		otpRepo:     otpRepo,
		sessionRepo: sessionRepo,
		limitRepo:   limitRepo,
		mailer:      mailer,
		eventBus:    eventBus,
		config:      config,
		now:         time.Now,
		newCode:     func() (string, error) { return utils.NumericCode(domain.OTPLength) },
		argonParams: argon2id.DefaultParams,
		bcryptCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrInvalidCredential
	}

	ok, err := argon2id.ComparePasswordAndHash(req.Password, admin.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}
	if !ok {
		logger.WarnContext(ctx, "Failed admin login", "admin_id", admin.ID)
		return nil, domain.ErrInvalidCredential
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}
	token, expiresAt, err := auth.NewSessionToken(admin.ID, admin.Email, session.ID, s.config.JWTSecret, now, s.config.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	logger.InfoContext(ctx, "Admin logged in", "admin_id", admin.ID, "session_id", session.ID)

	return &domain.LoginResponse{
		Message:   msgLogin,
		Token:     token,
		ExpiresAt: expiresAt,
		Admin:     admin.ToProfile(),
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) (*domain.MessageResponse, error) {
	if err := s.sessionRepo.Revoke(ctx, claims.SessionID()); err != nil {
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}
	return &domain.MessageResponse{Message: msgLogout}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := auth.Parse(token, s.config.JWTSecret, s.now())
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	ok, err := s.sessionRepo.Exists(ctx, claims.SessionID())
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (s *authService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error) {
	if err := s.issueChallenge(ctx, req, false); err != nil {
		return nil, err
	}
	return &domain.MessageResponse{Message: msgOTPSent}, nil
}

func (s *authService) ResendOTP(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error) {
	if err := s.issueChallenge(ctx, req, true); err != nil {
		return nil, err
	}
	return &domain.MessageResponse{Message: msgOTPResent}, nil
}

// issueChallenge backs both forgot-password and resend-otp. Unknown emails get
// the same response as known ones and no challenge is stored.
func (s *authService) issueChallenge(ctx context.Context, req *domain.ForgotPasswordRequest, resend bool) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	if err := s.checkResendLimit(ctx, req.Email); err != nil {
		return err
	}

	admin, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		logger.InfoContext(ctx, "Password reset requested for unknown email", "email", utils.MaskEmail(req.Email))
		return nil
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash OTP: %w", err)
	}

	now := s.now()
	challenge := &domain.OTPChallenge{
		ID:        uuid.NewString(),
		Email:     admin.Email,
		CodeHash:  string(codeHash),
		Status:    domain.OTPPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.OTPTTL),
	}
	if err := s.otpRepo.Replace(ctx, challenge); err != nil {
		return fmt.Errorf("failed to store OTP challenge: %w", err)
	}

	name := strings.TrimSpace(admin.FirstName + " " + admin.LastName)
	if err := s.mailer.SendPasswordResetOTP(ctx, admin.Email, name, code, s.config.OTPTTL); err != nil {
		logger.ErrorContext(ctx, "Failed to deliver OTP", "error", err, "email", utils.MaskEmail(admin.Email))
		return domain.ErrDelivery
	}

	logger.InfoContext(ctx, "OTP issued", "admin_id", admin.ID, "resend", resend, "expires_at", challenge.ExpiresAt)
	s.publish(ctx, events.OTPIssued, events.OTPIssuedEvent{
		Email:     admin.Email,
		ExpiresAt: challenge.ExpiresAt,
		Resend:    resend,
	})
	return nil
}

func (s *authService) checkResendLimit(ctx context.Context, email string) error {
	if s.limitRepo == nil || s.config.OTPResendLimit <= 0 {
		return nil
	}
	allowed, err := s.limitRepo.CheckRateLimit(ctx, "otp:"+email, s.config.OTPResendLimit, s.config.OTPResendWindow)
	if err != nil {
		// Fail open: a broken limiter must not lock the admin out of recovery.
		logger.ErrorContext(ctx, "Rate limit check failed", "error", err)
		return nil
	}
	if !allowed {
		return domain.ErrRateLimited
	}
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.MessageResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	challenge, err := s.otpRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load OTP challenge: %w", err)
	}
	now := s.now()
	if challenge == nil || challenge.IsVerified() {
		return nil, domain.ErrNoActiveChallenge
	}
	if err := s.checkCode(ctx, challenge, req.OTP, now); err != nil {
		return nil, err
	}

	won, err := s.otpRepo.MarkVerified(ctx, challenge.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark OTP verified: %w", err)
	}
	if !won {
		return nil, domain.ErrNoActiveChallenge
	}

	logger.InfoContext(ctx, "OTP verified", "email", utils.MaskEmail(req.Email))
	return &domain.MessageResponse{Message: msgOTPVerified}, nil
}

// checkCode applies expiry, lockout and code comparison. Every comparison first
// reserves an attempt, so concurrent guesses cannot exceed the limit; a matching
// code gives its attempt back.
func (s *authService) checkCode(ctx context.Context, c *domain.OTPChallenge, code string, now time.Time) error {
	if c.IsExpired(now) {
		return domain.ErrExpiredOTP
	}
	reserved, err := s.otpRepo.ReserveAttempt(ctx, c.ID, s.config.OTPMaxAttempts)
	if err != nil {
		return fmt.Errorf("failed to record OTP attempt: %w", err)
	}
	if !reserved {
		return domain.ErrNoActiveChallenge
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)); err != nil {
		return domain.ErrInvalidOTP
	}
	if err := s.otpRepo.ReleaseAttempt(ctx, c.ID); err != nil {
		logger.WarnContext(ctx, "Failed to release OTP attempt", "error", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.MessageResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrNotFound
	}

	challenge, err := s.otpRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load OTP challenge: %w", err)
	}
	if challenge == nil {
		return nil, domain.ErrNoActiveChallenge
	}
	if !challenge.IsVerified() {
		return nil, domain.ErrOTPNotVerified
	}
	now := s.now()
	if err := s.checkCode(ctx, challenge, req.OTP, now); err != nil {
		return nil, err
	}

	hash, err := argon2id.CreateHash(req.NewPassword, s.argonParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	won, err := s.otpRepo.DeleteVerified(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume OTP challenge: %w", err)
	}
	if !won {
		return nil, domain.ErrNoActiveChallenge
	}

	if err := s.adminRepo.UpdatePassword(ctx, admin.ID, hash, now); err != nil {
		s.restoreChallenge(ctx, challenge)
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	revoked, err := s.sessionRepo.RevokeAll(ctx, admin.ID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	logger.InfoContext(ctx, "Admin password reset", "admin_id", admin.ID, "sessions_revoked", revoked)
	s.publish(ctx, events.PasswordReset, events.PasswordEvent{AdminID: admin.ID, SessionsRevoked: revoked, At: now})

	return &domain.MessageResponse{Message: msgPasswordReset}, nil
}

// restoreChallenge puts back a verified challenge consumed by a reset whose
// password write failed, so the admin can retry with the same code. A challenge
// issued in the meantime wins.
func (s *authService) restoreChallenge(ctx context.Context, c *domain.OTPChallenge) {
	current, err := s.otpRepo.FindByEmail(ctx, c.Email)
	if err == nil && current == nil {
		err = s.otpRepo.Replace(ctx, c)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to restore OTP challenge", "email", c.Email, "error", err)
	}
}

func (s *authService) ChangePassword(ctx context.Context, claims *auth.Claims, req *domain.ChangePasswordRequest) (*domain.MessageResponse, error) {
	if claims == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.FindByID(ctx, claims.AdminID())
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrUnauthorized
	}

	ok, err := argon2id.ComparePasswordAndHash(req.CurrentPassword, admin.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredential
	}

	hash, err := argon2id.CreateHash(req.NewPassword, s.argonParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now()
	if err := s.adminRepo.UpdatePassword(ctx, admin.ID, hash, now); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	revoked, err := s.sessionRepo.RevokeAll(ctx, admin.ID, claims.SessionID())
	if err != nil {
		return nil, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	logger.InfoContext(ctx, "Admin password changed", "admin_id", admin.ID, "sessions_revoked", revoked)
	s.publish(ctx, events.PasswordChanged, events.PasswordEvent{AdminID: admin.ID, SessionsRevoked: revoked, At: now})

	return &domain.MessageResponse{Message: msgPasswordChange}, nil
}

func (s *authService) Profile(ctx context.Context, adminID string) (*domain.ProfileResponse, error) {
	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrUnauthorized
	}
	return &domain.ProfileResponse{Message: msgProfile, Admin: admin.ToProfile()}, nil
}

func (s *authService) UpdateProfile(ctx context.Context, adminID string, req *domain.UpdateProfileRequest) (*domain.ProfileResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	admin, err := s.adminRepo.UpdateProfile(ctx, adminID, req, now)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, &domain.ValidationError{Field: "email", Message: "Email is already in use"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrUnauthorized
	}

	logger.InfoContext(ctx, "Admin profile updated", "admin_id", admin.ID)
	s.publish(ctx, events.ProfileUpdated, events.ProfileUpdatedEvent{AdminID: admin.ID, Email: admin.Email, At: now})

	return &domain.ProfileResponse{Message: msgProfileUpdated, Admin: admin.ToProfile()}, nil
}

// SeedAdmin creates the configured administrator unless one with that email exists.
func (s *authService) SeedAdmin(ctx context.Context, seed config.AdminSeedConfig) error {
	email := domain.NormalizeEmail(seed.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid ADMIN_EMAIL: %w", err)
	}

	existing, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find admin: %w", err)
	}
	if existing != nil {
		logger.DebugContext(ctx, "Admin already seeded", "admin_id", existing.ID)
		return nil
	}

	if err := domain.ValidatePassword("ADMIN_PASSWORD", seed.Password); err != nil {
		return err
	}
	hash, err := argon2id.CreateHash(seed.Password, s.argonParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	identifier := strings.TrimSpace(seed.Identifier)
	switch {
	case identifier == "":
		identifier = email
	case strings.Contains(identifier, "@"):
		identifier = domain.NormalizeEmail(identifier)
	}

	now := s.now()
	admin := &domain.Admin{
		ID:           uuid.NewString(),
		Identifier:   identifier,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(seed.FirstName),
		LastName:     strings.TrimSpace(seed.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.InfoContext(ctx, "Admin seeded", "admin_id", admin.ID, "email", utils.MaskEmail(email))
	return nil
}

func (s *authService) PurgeExpiredOTPs(ctx context.Context) (int64, error) {
	n, err := s.otpRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge OTP challenges: %w", err)
	}
	if n > 0 {
		logger.DebugContext(ctx, "Purged expired OTP challenges", "count", n)
	}
	return n, nil
}

func (s *authService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
