package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oneteam-dev/aichat/internal/database"
	"github.com/oneteam-dev/aichat/internal/guard"
	"github.com/oneteam-dev/aichat/internal/handlers/dto"
	"github.com/oneteam-dev/aichat/internal/models"
	"github.com/oneteam-dev/aichat/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserStore struct {
	users map[string]*models.User
}

func (s *fakeUserStore) FindUserByUsername(username string) (*models.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) SaveUser(user *models.User) error {
	s.users[user.Username] = user
	return nil
}

func (s *fakeUserStore) UserExists(column, value string) (bool, error) {
	for _, u := range s.users {
		if column == "username" && u.Username == value {
			return true, nil
		}
		if column == "email" && u.Email == value {
			return true, nil
		}
		if column == "nickname" && u.Nickname == value {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) UpdateLastLogin(id uuid.UUID, at time.Time) error {
	for _, u := range s.users {
		if u.ID == id {
			u.TouchLastLogin(at)
			return nil
		}
	}
	return database.ErrNotFound
}

type fakeAttemptStore struct {
	attempts map[string][]models.LoginAttempt
	blocked  map[string]bool
	users    *fakeUserStore
}

func newFakeAttemptStore(users *fakeUserStore) *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts: make(map[string][]models.LoginAttempt),
		blocked:  make(map[string]bool),
		users:    users,
	}
}

func (s *fakeAttemptStore) RecordLoginAttempt(attempt *models.LoginAttempt) error {
	// свежие попытки впереди, как при сортировке по attempted_at DESC
	s.attempts[attempt.Username] = append([]models.LoginAttempt{*attempt}, s.attempts[attempt.Username]...)
	return nil
}

func (s *fakeAttemptStore) RecentLoginAttempts(username string, limit int) ([]models.LoginAttempt, error) {
	all := s.attempts[username]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeAttemptStore) BlockUser(username string) error {
	s.blocked[username] = true
	if u, ok := s.users.users[username]; ok {
		u.Block()
	}
	return nil
}

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func (r *fakeRevoker) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if r.revoked == nil {
		r.revoked = make(map[string]time.Duration)
	}
	r.revoked[token] = ttl
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func newAuthRig(t *testing.T, users ...*models.User) (*AuthHandler, *fakeUserStore, *fakeAttemptStore) {
	t.Helper()
	store := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		store.users[u.Username] = u
	}
	attempts := newFakeAttemptStore(store)
	h := NewAuthHandler(store, auth.NewJWTManager("test-secret", time.Hour), guard.New(attempts), &fakeRevoker{})
	return h, store, attempts
}

func doLogin(h *AuthHandler, username, password string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/auth/login", h.Login)

	body, _ := json.Marshal(dto.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin_Success(t *testing.T) {
	previous := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHash(t, "correct horse"),
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		LastLogin:    &previous,
	}
	h, _, attempts := newAuthRig(t, user)

	w := doLogin(h, "alice", "correct horse")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp dto.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Username != "alice" || resp.Role != "USER" || resp.AccessToken == "" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Message != "login - user" {
		t.Errorf("message = %q", resp.Message)
	}
	// в ответе предыдущий вход, не только что выполненный
	if resp.LastLogin == nil || !resp.LastLogin.Equal(previous) {
		t.Errorf("lastLogin = %v, want %v", resp.LastLogin, previous)
	}
	if user.LastLogin.Equal(previous) {
		t.Error("last login not advanced in store")
	}

	got := attempts.attempts["alice"]
	if len(got) != 1 || !got[0].Success || got[0].Reason != "login - user" {
		t.Errorf("recorded attempts = %+v", got)
	}
}

func TestLogin_AdminReason(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "root",
		PasswordHash: mustHash(t, "pw-pw-pw"),
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	}
	h, _, _ := newAuthRig(t, user)

	w := doLogin(h, "root", "pw-pw-pw")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp dto.LoginResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Message != "login - administrator" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	h, _, attempts := newAuthRig(t)

	w := doLogin(h, "ghost", "whatever-pw")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if len(attempts.attempts["ghost"]) != 1 {
		t.Error("unknown-user attempt not journaled")
	}
}

func TestLogin_StatusRejections(t *testing.T) {
	tests := []struct {
		status  models.UserStatus
		wantMsg string
	}{
		{models.StatusInactive, "account is dormant"},
		{models.StatusSuspended, "account is suspended"},
		{models.StatusPending, "account email is not confirmed"},
		{models.StatusBlocked, "account is blocked by administrator"},
		{models.StatusDeleted, "account is deleted"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			user := &models.User{
				ID:           uuid.New(),
				Username:     "carol",
				PasswordHash: mustHash(t, "some password"),
				Role:         models.RoleUser,
				Status:       tt.status,
			}
			h, _, attempts := newAuthRig(t, user)

			w := doLogin(h, "carol", "some password")
			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", w.Code)
			}

			var resp map[string]string
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", resp["error"], tt.wantMsg)
			}

			// отказ по статусу не должен блокировать аккаунт
			if attempts.blocked["carol"] {
				t.Error("status rejection consumed the lockout window")
			}
		})
	}
}

func TestLogin_LockoutAfterConsecutiveFailures(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "mallory",
		PasswordHash: mustHash(t, "real password"),
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}
	h, _, attempts := newAuthRig(t, user)

	for i := 0; i < guard.MaxAttempts-1; i++ {
		w := doLogin(h, "mallory", "wrong password")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, w.Code)
		}
	}

	w := doLogin(h, "mallory", "wrong password")
	if w.Code != http.StatusLocked {
		t.Fatalf("final attempt: status = %d, want 423", w.Code)
	}
	if !attempts.blocked["mallory"] {
		t.Error("account not blocked after threshold")
	}

	// заблокированный аккаунт отбивается по статусу даже с верным паролем
	w = doLogin(h, "mallory", "real password")
	if w.Code != http.StatusForbidden {
		t.Errorf("post-lockout status = %d, want 403", w.Code)
	}
}

func TestLogin_SuccessResetsWindow(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "dave",
		PasswordHash: mustHash(t, "real password"),
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}
	h, _, attempts := newAuthRig(t, user)

	for i := 0; i < guard.MaxAttempts-1; i++ {
		doLogin(h, "dave", "wrong password")
	}
	if w := doLogin(h, "dave", "real password"); w.Code != http.StatusOK {
		t.Fatalf("success login status = %d", w.Code)
	}

	// после успеха счет подряд идущих неудач начинается заново
	if w := doLogin(h, "dave", "wrong password"); w.Code != http.StatusUnauthorized {
		t.Errorf("post-success failure status = %d, want 401", w.Code)
	}
	if attempts.blocked["dave"] {
		t.Error("account blocked despite intervening success")
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	existing := &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		Status:   models.StatusActive,
	}
	h, _, _ := newAuthRig(t, existing)

	router := gin.New()
	router.POST("/api/users/signup", h.Signup)

	body, _ := json.Marshal(dto.SignupRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "long enough pw",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestSignup_NicknameUniqueness(t *testing.T) {
	existing := &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		Nickname: "Ally",
		Status:   models.StatusActive,
	}

	tests := []struct {
		name       string
		nickname   string
		wantStatus int
	}{
		{"duplicate nickname rejected", "Ally", http.StatusConflict},
		{"free nickname accepted", "Bee", http.StatusCreated},
		{"empty nickname always accepted", "", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newAuthRig(t, existing)

			router := gin.New()
			router.POST("/api/users/signup", h.Signup)

			body, _ := json.Marshal(dto.SignupRequest{
				Username: "bob",
				Email:    "bob@example.com",
				Password: "long enough pw",
				Nickname: tt.nickname,
			})
			req := httptest.NewRequest(http.MethodPost, "/api/users/signup", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	revoker := &fakeRevoker{}
	h := NewAuthHandler(&fakeUserStore{users: map[string]*models.User{}}, manager, guard.New(newFakeAttemptStore(&fakeUserStore{users: map[string]*models.User{}})), revoker)

	token, _ := manager.Generate(uuid.NewString(), "alice", "Alice", "USER")

	router := gin.New()
	router.POST("/auth/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	ttl, ok := revoker.revoked[token]
	if !ok {
		t.Fatal("token not revoked")
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("revocation ttl = %v", ttl)
	}
}
