package domain

import (
	"errors"
	"strings"
)

// MinPasswordLength y MinUsernameLength son los mínimos del alta de cuenta.
const (
	MinPasswordLength = 6
	MinUsernameLength = 2
)

// Errores de validación del alta, comprobados antes de llamar al backend.
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrInvalidEmail     = errors.New("a valid email address is required")
	ErrUsernameTooShort = errors.New("username must be at least 2 characters")
)

// SignUpForm es el formulario de alta de cuenta.
type SignUpForm struct {
	Email         string
	Username      string
	Password      string
	PasswordCheck string
}

// ValidateSignUp aplica las comprobaciones en orden y para en el primer fallo:
// confirmación de password, longitud de password, email con '@', longitud del nombre.
// Devuelve el formulario con email y nombre sin espacios alrededor.
func ValidateSignUp(form SignUpForm) (SignUpForm, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Username = strings.TrimSpace(form.Username)

	if form.Password != form.PasswordCheck {
		return SignUpForm{}, ErrPasswordMismatch
	}
	if len([]rune(form.Password)) < MinPasswordLength {
		return SignUpForm{}, ErrPasswordTooShort
	}
	if !strings.Contains(form.Email, "@") {
		return SignUpForm{}, ErrInvalidEmail
	}
	if len([]rune(form.Username)) < MinUsernameLength {
		return SignUpForm{}, ErrUsernameTooShort
	}
	return form, nil
}
