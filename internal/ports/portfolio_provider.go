package ports

import (
	"context"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// PortfolioProvider obtiene los saldos del usuario autenticado.
type PortfolioProvider interface {
	// FetchPosition devuelve la posición en el activo base de market más el cash
	// en la moneda de cotización.
	FetchPosition(ctx context.Context, token, market string) (domain.Position, error)
}

// Authenticator intercambia credenciales por un bearer token y da de alta cuentas.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	// SignUp registra una cuenta con un formulario ya validado. No inicia sesión.
	SignUp(ctx context.Context, form domain.SignUpForm) error
}
