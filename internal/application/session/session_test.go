package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alejandrodnm/nexbit/internal/application/session"
	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuth struct {
	token     string
	err       error
	calls     int
	signUpErr error
	signUps   []domain.SignUpForm
}

func (m *mockAuth) Login(_ context.Context, email, password string) (string, error) {
	m.calls++
	return m.token, m.err
}

func (m *mockAuth) SignUp(_ context.Context, form domain.SignUpForm) error {
	m.signUps = append(m.signUps, form)
	return m.signUpErr
}

func TestSession_LoginLogout(t *testing.T) {
	auth := &mockAuth{token: "jwt-1"}
	s := session.New(auth)

	var seen []string
	s.Subscribe(func(_ context.Context, token string) { seen = append(seen, token) })

	_, ok := s.Token()
	assert.False(t, ok)

	require.NoError(t, s.Login(context.Background(), " user@example.com ", "pw"))
	token, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "jwt-1", token)
	assert.Equal(t, "user@example.com", s.Email())

	s.Logout(context.Background())
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Email())

	// logout sin sesión no notifica
	s.Logout(context.Background())
	assert.Equal(t, []string{"jwt-1", ""}, seen)
}

func TestSession_LoginFailureKeepsState(t *testing.T) {
	auth := &mockAuth{token: "jwt-1"}
	s := session.New(auth)
	require.NoError(t, s.Login(context.Background(), "a@b.c", "pw"))

	notified := 0
	s.Subscribe(func(context.Context, string) { notified++ })

	auth.err = errors.New("invalid credentials")
	err := s.Login(context.Background(), "a@b.c", "bad")
	assert.Error(t, err)

	token, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "jwt-1", token)
	assert.Zero(t, notified)
}

func TestSession_MissingCredentials(t *testing.T) {
	auth := &mockAuth{token: "x"}
	s := session.New(auth)

	assert.ErrorIs(t, s.Login(context.Background(), "", "pw"), session.ErrMissingCredentials)
	assert.ErrorIs(t, s.Login(context.Background(), "a@b.c", ""), session.ErrMissingCredentials)
	assert.Zero(t, auth.calls)
}

func TestSession_SignUp(t *testing.T) {
	auth := &mockAuth{}
	s := session.New(auth)
	notified := 0
	s.Subscribe(func(context.Context, string) { notified++ })

	form := domain.SignUpForm{Email: " new@example.com ", Username: "kim", Password: "secret1", PasswordCheck: "secret1"}
	require.NoError(t, s.SignUp(context.Background(), form))
	require.Len(t, auth.signUps, 1)
	assert.Equal(t, "new@example.com", auth.signUps[0].Email)
	assert.False(t, s.Authenticated())
	assert.Zero(t, notified)

	// validación local: el backend no se llama
	form.PasswordCheck = "other"
	assert.ErrorIs(t, s.SignUp(context.Background(), form), domain.ErrPasswordMismatch)
	assert.Len(t, auth.signUps, 1)

	auth.signUpErr = errors.New("email taken")
	form.PasswordCheck = form.Password
	assert.ErrorContains(t, s.SignUp(context.Background(), form), "email taken")
}
