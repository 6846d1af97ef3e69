// Package session guarda el bearer token del usuario y notifica cada login/logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/alejandrodnm/nexbit/internal/ports"
)

// ErrMissingCredentials se devuelve si email o password están vacíos.
var ErrMissingCredentials = errors.New("email and password are required")

// Listener recibe el nuevo estado tras cada transición. token vacío = logout.
type Listener func(ctx context.Context, token string)

// Session es el contexto de autenticación del proceso.
// Cero o un token; las transiciones se serializan.
type Session struct {
	auth ports.Authenticator

	mu        sync.RWMutex
	token     string
	email     string
	listeners []Listener

	transition sync.Mutex // serializa Login/Logout y sus notificaciones
}

// New crea una sesión sin autenticar.
func New(auth ports.Authenticator) *Session {
	return &Session{auth: auth}
}

// Login autentica y guarda el token. Un fallo deja la sesión como estaba.
func (s *Session) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}

	s.transition.Lock()
	defer s.transition.Unlock()

	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.email = email
	s.mu.Unlock()

	slog.Info("session: logged in", "email", email)
	s.notify(ctx, token)
	return nil
}

// SignUp valida el formulario y da de alta la cuenta. No cambia la sesión:
// el usuario inicia sesión después con Login.
func (s *Session) SignUp(ctx context.Context, form domain.SignUpForm) error {
	form, err := domain.ValidateSignUp(form)
	if err != nil {
		return err
	}
	if err := s.auth.SignUp(ctx, form); err != nil {
		return fmt.Errorf("session.SignUp: %w", err)
	}
	slog.Info("session: account created", "email", form.Email, "username", form.Username)
	return nil
}

// Logout borra el token. Sin sesión activa no hace nada.
func (s *Session) Logout(ctx context.Context) {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	had := s.token != ""
	email := s.email
	s.token, s.email = "", ""
	s.mu.Unlock()

	if !had {
		return
	}
	slog.Info("session: logged out", "email", email)
	s.notify(ctx, "")
}

// Token devuelve el token actual y si hay sesión.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Authenticated indica si hay un token.
func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// Email devuelve el usuario autenticado, vacío sin sesión.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// Subscribe registra un listener. Se llama fuera del lock, en el orden de registro.
func (s *Session) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify(ctx context.Context, token string) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, token)
	}
}
