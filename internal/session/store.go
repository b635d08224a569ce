// Package session owns the signed-in user. It is the only writer of the
// session object; every other component treats the current user as
// read-only and refreshes it through this store's operations.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/onnwee/tastemap/internal/apiclient"
	"github.com/onnwee/tastemap/internal/fielderr"
	"github.com/onnwee/tastemap/internal/user"
	"github.com/onnwee/tastemap/internal/validate"
)

// SignupPayload is the request body for POST /auth/signup.
type SignupPayload struct {
	FullName string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the signup fields client-side, returning one error per
// offending field.
func (p SignupPayload) Validate() fielderr.Errors {
	errs := fielderr.Errors{}
	if _, err := validate.FullName(p.FullName); err != nil {
		errs["fullname"] = "Full name must be at least 3 characters."
	}
	if _, err := validate.Username(p.Username); err != nil {
		errs[fielderr.FieldUsername] = "Username must be at least 6 characters."
	}
	if _, err := validate.Email(p.Email); err != nil {
		errs[fielderr.FieldEmail] = "Please enter a valid email address."
	}
	if _, err := validate.Password(p.Password); err != nil {
		errs["password"] = "Password must be at least 8 characters."
	}
	return errs
}

// ValidationError carries field errors for input rejected before any request
// was made.
type ValidationError struct {
	Fields fielderr.Errors
}

func (e *ValidationError) Error() string {
	return "invalid input"
}

// SigninPayload is the request body for POST /auth/signin. Identifier is a
// username or email.
type SigninPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// UpdateProfilePayload is the partial-update body for PATCH
// /auth/update-profile. Location rides along only when fully populated.
type UpdateProfilePayload struct {
	FullName string             `json:"fullname"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Bio      string             `json:"bio"`
	Location *user.FormLocation `json:"location,omitempty"`
}

// Store holds the current user and exposes the session lifecycle operations.
// Created once at application start; sign-out resets it to an empty state.
type Store struct {
	client *apiclient.Client
	logger *slog.Logger

	mu      sync.Mutex
	current *user.User
	subs    map[int]func(*user.User)
	nextSub int

	checkOnce sync.Once
}

// New creates a session store backed by the given API client.
func New(client *apiclient.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		logger: logger,
		subs:   make(map[int]func(*user.User)),
	}
}

// Current returns the signed-in user, or nil.
func (s *Store) Current() *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	return s.Current() != nil
}

// Subscribe registers an observer notified on every user change (sign-in,
// profile update, sign-out). Returns an unsubscribe function.
func (s *Store) Subscribe(fn func(*user.User)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// setUser swaps the current user and notifies observers outside the lock.
func (s *Store) setUser(u *user.User) {
	s.mu.Lock()
	s.current = u
	observers := make([]func(*user.User), 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(u)
	}
}

// Signup validates the payload and creates an account, signing the new user
// in. Invalid input is rejected before any request. Server failure clears
// the session and returns the error for the caller to present.
func (s *Store) Signup(ctx context.Context, payload SignupPayload) (*user.User, error) {
	if errs := payload.Validate(); !errs.Valid() {
		return nil, &ValidationError{Fields: errs}
	}
	var raw json.RawMessage
	if err := s.client.Post(ctx, "/auth/signup", payload, &raw); err != nil {
		s.setUser(nil)
		return nil, err
	}
	return s.applyUser(raw)
}

// Signin authenticates with a username-or-email identifier and password.
// Failure clears the session and returns the error for the caller to present.
func (s *Store) Signin(ctx context.Context, payload SigninPayload) (*user.User, error) {
	var raw json.RawMessage
	if err := s.client.Post(ctx, "/auth/signin", payload, &raw); err != nil {
		s.setUser(nil)
		return nil, err
	}
	return s.applyUser(raw)
}

// Signout ends the server session and clears the local user on success.
func (s *Store) Signout(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/signout", nil, nil); err != nil {
		return err
	}
	s.setUser(nil)
	return nil
}

// Me fetches the current session's user. Failure clears the session.
func (s *Store) Me(ctx context.Context) (*user.User, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/auth/me", nil, &raw); err != nil {
		s.setUser(nil)
		return nil, err
	}
	return s.applyUser(raw)
}

// UpdateProfile submits a partial profile update and re-applies the
// normalized user from the response.
func (s *Store) UpdateProfile(ctx context.Context, payload UpdateProfilePayload) (*user.User, error) {
	var raw json.RawMessage
	if err := s.client.Patch(ctx, "/auth/update-profile", payload, &raw); err != nil {
		return nil, err
	}
	return s.applyUser(raw)
}

// UpdateProfilePic uploads a new profile picture as a data URL.
func (s *Store) UpdateProfilePic(ctx context.Context, dataURL string) (*user.User, error) {
	body := map[string]string{"profilePic": dataURL}
	var raw json.RawMessage
	if err := s.client.Patch(ctx, "/auth/update-profile-pic", body, &raw); err != nil {
		return nil, err
	}
	return s.applyUser(raw)
}

// DeleteProfile removes the account server-side. The local session is left
// untouched; callers sign out explicitly afterwards.
func (s *Store) DeleteProfile(ctx context.Context) error {
	return s.client.Delete(ctx, "/auth/delete-profile", nil)
}

// EnsureSessionChecked calls Me at most once per store lifetime. Its failure
// is swallowed: an invalid or absent session simply means "not signed in".
func (s *Store) EnsureSessionChecked(ctx context.Context) {
	s.checkOnce.Do(func() {
		if _, err := s.Me(ctx); err != nil {
			s.logger.DebugContext(ctx, "session check found no session", slog.String("error", err.Error()))
		}
	})
}

// applyUser normalizes a raw identity-bearing response and stores the result.
func (s *Store) applyUser(raw json.RawMessage) (*user.User, error) {
	u, err := user.Normalize(raw)
	if err != nil {
		return nil, err
	}
	s.setUser(u)
	return u, nil
}
