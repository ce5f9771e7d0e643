package adminclient

import (
	"time"

	"github.com/vedx/vedx-site/internal/domain"
)

// Session is the typed view over a SessionStore.
type Session struct {
	store SessionStore
	now   func() time.Time
}

func NewSession(store SessionStore, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{store: store, now: now}
}

func (s *Session) State() (*State, error) {
	return s.store.Load()
}

func (s *Session) update(fn func(st *State)) error {
	st, err := s.store.Load()
	if err != nil {
		return err
	}
	fn(st)
	return s.store.Save(st)
}

// Token returns the stored session token, or "" when there is none or it has expired.
func (s *Session) Token() (string, error) {
	st, err := s.store.Load()
	if err != nil {
		return "", err
	}
	if st.Token == "" || !s.now().Before(st.SessionExpiry) {
		return "", nil
	}
	return st.Token, nil
}

func (s *Session) SetLogin(res *domain.LoginResponse) error {
	return s.update(func(st *State) {
		st.Token = res.Token
		st.SessionExpiry = res.ExpiresAt
		st.Profile = res.Admin
	})
}

func (s *Session) SetProfile(p *domain.AdminProfile) error {
	return s.update(func(st *State) { st.Profile = p })
}

func (s *Session) ClearLogin() error {
	return s.update(func(st *State) {
		st.Token = ""
		st.SessionExpiry = time.Time{}
		st.Profile = nil
	})
}

func (s *Session) setResetEmail(email string) error {
	return s.update(func(st *State) {
		st.ResetEmail = email
		st.ResetOTP = ""
	})
}

func (s *Session) setResetOTP(otp string) error {
	return s.update(func(st *State) { st.ResetOTP = otp })
}

func (s *Session) ClearReset() error {
	return s.update(func(st *State) {
		st.ResetEmail = ""
		st.ResetOTP = ""
	})
}
