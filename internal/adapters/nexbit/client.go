package nexbit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://nexbit.p-e.kr"

	// El backend no documenta límites. Quotes cada 10s y predicciones cada 4h
	// quedan muy por debajo; el margen es para ráfagas manuales del CLI.
	publicRatePerSec = 5
	userRatePerSec   = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// APIError es una respuesta 4xx del backend. Message lleva el campo "message"
// del cuerpo tal cual, o el cuerpo crudo si no es JSON.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized indica si err es un 401 del backend (token caducado o inválido).
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client es el HTTP client del backend de nexbit con rate limiting y retries.
// Implementa todos los puertos de datos de mercado y de usuario.
type Client struct {
	http          *http.Client
	base          string
	publicLimiter *rate.Limiter
	userLimiter   *rate.Limiter
	retryWait     time.Duration
	loc           *time.Location
}

// Option configura un Client.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client por defecto (timeout de 10s).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryWait cambia la espera base del backoff.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}

// WithLocation fija la zona en la que se interpretan las fechas sin offset
// que devuelve el backend (por defecto UTC).
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// NewClient crea un Client contra baseURL. Si está vacío usa el de producción.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		http:          &http.Client{Timeout: 10 * time.Second},
		base:          strings.TrimRight(baseURL, "/"),
		publicLimiter: rate.NewLimiter(publicRatePerSec, 5),
		userLimiter:   rate.NewLimiter(userRatePerSec, 2),
		retryWait:     baseRetryWait,
		loc:           time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get hace un GET con rate limiting y retries. token vacío = endpoint público.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, path string, query url.Values, token string, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.doWithRetry(ctx, limiter, maxRetries, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		setBearer(req, token)
		return c.http.Do(req)
	}, out)
}

// post hace un POST JSON. retries = 0 para operaciones no idempotentes (órdenes).
func (c *Client) post(ctx context.Context, limiter *rate.Limiter, path, token string, body, out any, retries int) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.doWithRetry(ctx, limiter, retries, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		setBearer(req, token)
		return c.http.Do(req)
	}, out)
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doWithRetry ejecuta la función con backoff exponencial.
// 429, 5xx y errores de red se reintentan; cualquier otro 4xx vuelve como *APIError.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, retries int, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= retries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == retries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			if err := c.sleep(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == retries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, attempt)
			}
			slog.Warn("nexbit: retrying request", "status", resp.StatusCode, "attempt", attempt+1)
			if err := c.sleep(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", retries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorMessage(body []byte) string {
	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return msg.Message
	}
	return strings.TrimSpace(string(body))
}
