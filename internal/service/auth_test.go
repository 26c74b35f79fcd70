package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/auth"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(4), testLogger())
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	res, err := svc.Register(context.Background(), "alice", "Alice@Example.com", "hunter2hunter2", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if res.Token == "" {
		t.Error("Register() should issue a token")
	}
	if res.User.ID == "" {
		t.Error("Register() should persist the user")
	}
	if res.User.Email != "alice@example.com" {
		t.Errorf("email should be lowercased, got %q", res.User.Email)
	}
	if res.User.PasswordHash == "hunter2hunter2" {
		t.Error("password must not be stored in plaintext")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@b.com", "longenough"},
		{"bad username chars", "has spaces", "a@b.com", "longenough"},
		{"bad email", "alice", "not-an-email", "longenough"},
		{"short password", "alice", "a@b.com", "short"},
		{"password over bcrypt limit", "alice", "a@b.com", strings.Repeat("p", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password, "")
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() should wrap ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "bob", "bob@example.com", "longenough", ""); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), "bob", "other@example.com", "longenough", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Register() should wrap ErrConflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "carol", "carol@example.com", "correcthorse", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res, err := svc.Login(context.Background(), "carol", "correcthorse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token == "" || res.User.Username != "carol" {
		t.Errorf("Login() = %+v", res)
	}
}

func TestLogin_ByEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "carol", "carol@example.com", "correcthorse", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res, err := svc.Login(context.Background(), "Carol@Example.com", "correcthorse")
	if err != nil {
		t.Fatalf("Login() by email error = %v", err)
	}
	if res.User.Username != "carol" {
		t.Errorf("Login() by email resolved %q, want carol", res.User.Username)
	}

	if _, err := svc.Login(context.Background(), "nobody@example.com", "correcthorse"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("unknown email should wrap ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UniformFailures(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "dave", "dave@example.com", "correcthorse", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Wrong password and unknown username must be indistinguishable.
	_, errWrongPass := svc.Login(context.Background(), "dave", "wrong")
	_, errNoUser := svc.Login(context.Background(), "nobody", "wrong")

	if !errors.Is(errWrongPass, apperror.ErrUnauthorized) {
		t.Errorf("wrong password should wrap ErrUnauthorized, got %v", errWrongPass)
	}
	if !errors.Is(errNoUser, apperror.ErrUnauthorized) {
		t.Errorf("unknown user should wrap ErrUnauthorized, got %v", errNoUser)
	}

	var appErrA, appErrB *apperror.AppError
	if errors.As(errWrongPass, &appErrA) && errors.As(errNoUser, &appErrB) {
		if appErrA.Message != appErrB.Message {
			t.Errorf("failure messages differ: %q vs %q", appErrA.Message, appErrB.Message)
		}
	}
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	res, err := svc.Register(context.Background(), "erin", "erin@example.com", "correcthorse", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	stored := repo.users[res.User.ID]
	stored.IsActive = false

	if _, err := svc.Login(context.Background(), "erin", "correcthorse"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("deactivated login should wrap ErrForbidden, got %v", err)
	}
}

func TestLoginWithTwitter_NewAndReturning(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	profile := &auth.TwitterProfile{ID: "tw-1", Username: "gopher", Name: "Go Pher"}
	tok := &auth.TwitterToken{AccessToken: "at-1", RefreshToken: "rt-1", Expiry: time.Now().Add(time.Hour)}

	first, err := svc.LoginWithTwitter(context.Background(), profile, tok)
	if err != nil {
		t.Fatalf("LoginWithTwitter() error = %v", err)
	}
	if first.User.TwitterUserID != "tw-1" || first.User.Username != "gopher" {
		t.Errorf("first login user = %+v", first.User)
	}

	// Second login with fresh tokens reuses the same account.
	tok2 := &auth.TwitterToken{AccessToken: "at-2", RefreshToken: "rt-2", Expiry: time.Now().Add(2 * time.Hour)}
	second, err := svc.LoginWithTwitter(context.Background(), profile, tok2)
	if err != nil {
		t.Fatalf("second LoginWithTwitter() error = %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("returning login created a new user: %q vs %q", second.User.ID, first.User.ID)
	}
	if second.User.TwitterAccessToken != "at-2" {
		t.Error("returning login should refresh the stored access token")
	}
}

func TestLoginWithTwitter_UsernameCollision(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	// A local user already owns the handle.
	if _, err := svc.Register(context.Background(), "gopher", "local@example.com", "longenough", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	profile := &auth.TwitterProfile{ID: "tw-9", Username: "gopher"}
	tok := &auth.TwitterToken{AccessToken: "at", Expiry: time.Now().Add(time.Hour)}

	res, err := svc.LoginWithTwitter(context.Background(), profile, tok)
	if err != nil {
		t.Fatalf("LoginWithTwitter() error = %v", err)
	}
	if res.User.Username == "gopher" {
		t.Error("colliding handle should have been qualified")
	}
	if res.User.TwitterUserID != "tw-9" {
		t.Errorf("TwitterUserID = %q, want tw-9", res.User.TwitterUserID)
	}
}

func TestLinkAndUnlinkTwitter(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	res, err := svc.Register(context.Background(), "frank", "frank@example.com", "longenough", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	status, err := svc.GetTwitterStatus(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("GetTwitterStatus() error = %v", err)
	}
	if status.Linked {
		t.Error("fresh account should not be linked")
	}

	creds := &auth.OAuth1Credentials{Token: "t1", TokenSecret: "s1", UserID: "tw-5", ScreenName: "frank_tw"}
	if _, err := svc.LinkTwitter(context.Background(), res.User.ID, creds); err != nil {
		t.Fatalf("LinkTwitter() error = %v", err)
	}

	status, err = svc.GetTwitterStatus(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("GetTwitterStatus() error = %v", err)
	}
	if !status.Linked || status.Username != "frank_tw" {
		t.Errorf("status after link = %+v", status)
	}

	if err := svc.UnlinkTwitter(context.Background(), res.User.ID); err != nil {
		t.Fatalf("UnlinkTwitter() error = %v", err)
	}
	status, _ = svc.GetTwitterStatus(context.Background(), res.User.ID)
	if status.Linked {
		t.Error("status after unlink should be unlinked")
	}
}
