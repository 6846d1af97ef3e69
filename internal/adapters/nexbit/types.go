package nexbit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DTOs raw del backend. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// messageResponse es el cuerpo de error genérico del backend.
type messageResponse struct {
	Message string `json:"message"`
}

// candleRaw es un elemento de GET /api/exchangePrice (la respuesta es un array).
type candleRaw struct {
	ID       int64   `json:"id"`
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// predictPriceResponse es la respuesta de GET /api/predict_price.
type predictPriceResponse struct {
	Success        bool     `json:"success"`
	PredictedPrice *float64 `json:"predicted_price"`
	Message        string   `json:"message"`
}

// predictProbabilityResponse es la respuesta de GET /api/predict_probability.
type predictProbabilityResponse struct {
	UpProbability *float64 `json:"up_probability"`
}

// orderRequest es el body de POST /api/order.
type orderRequest struct {
	Market  string `json:"market"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Volume  string `json:"volume"`
	OrdType string `json:"ord_type"`
}

// orderResponse es la respuesta de POST /api/order. El backend reenvía la del
// exchange, por eso los campos son opcionales.
type orderResponse struct {
	UUID    string `json:"uuid"`
	State   string `json:"state"`
	Message string `json:"message"`
}

// loginRequest es el body de POST /user/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signUpRequest es el cuerpo de POST /user/signup.
type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// loginResponse es la respuesta de POST /user/login: token o message.
type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// myAssetResponse es la respuesta de GET /user/myasset.
type myAssetResponse struct {
	Assets          []assetRaw `json:"assets"`
	BTCCurrentPrice flexFloat  `json:"btc_current_price"`
}

// assetRaw es un saldo; los números llegan como strings.
type assetRaw struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Locked       string `json:"locked"`
	AvgBuyPrice  string `json:"avg_buy_price"`
	UnitCurrency string `json:"unit_currency"`
}

// tradeLogsResponse es la respuesta de GET /user/mytradelogs.
type tradeLogsResponse struct {
	Success bool          `json:"success"`
	Data    []tradeLogRaw `json:"data"`
	Message string        `json:"message"`
}

// tradeLogRaw es una orden del historial. Los numéricos pueden llegar como
// string o como número según el endpoint del exchange que los originó.
type tradeLogRaw struct {
	UUID           string    `json:"uuid"`
	Market         string    `json:"market"`
	Side           string    `json:"side"`
	OrdType        string    `json:"ord_type"`
	State          string    `json:"state"`
	Price          flexFloat `json:"price"`
	Volume         flexFloat `json:"volume"`
	ExecutedVolume flexFloat `json:"executed_volume"`
	PaidFee        flexFloat `json:"paid_fee"`
	CreatedAt      string    `json:"created_at"`
	ExecutedAt     string    `json:"executed_at"`
}

// aiStatusResponse es la respuesta de GET /user/ai/status. status puede ser
// bool, número o string según la versión del backend.
type aiStatusResponse struct {
	Status json.RawMessage `json:"status"`
}

// flexFloat acepta un número JSON, un string numérico, "" o null (estos dos como 0).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("flexFloat: %w", err)
		}
		s = strings.TrimSpace(unq)
		if s == "" {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flexFloat: %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}
