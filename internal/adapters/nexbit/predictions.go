package nexbit

import (
	"context"
	"errors"
	"fmt"
)

// ErrPredictionUnavailable indica que el backend no devolvió predicción
// (success=false o campo ausente). El snapshot previo debe mantenerse.
var ErrPredictionUnavailable = errors.New("prediction unavailable")

// FetchPredictedPrice obtiene el precio predicho de GET /api/predict_price.
func (c *Client) FetchPredictedPrice(ctx context.Context) (float64, error) {
	var resp predictPriceResponse
	if err := c.get(ctx, c.publicLimiter, "/api/predict_price", nil, "", &resp); err != nil {
		return 0, fmt.Errorf("nexbit.FetchPredictedPrice: %w", err)
	}
	if !resp.Success || resp.PredictedPrice == nil {
		if resp.Message != "" {
			return 0, fmt.Errorf("nexbit.FetchPredictedPrice: %w: %s", ErrPredictionUnavailable, resp.Message)
		}
		return 0, fmt.Errorf("nexbit.FetchPredictedPrice: %w", ErrPredictionUnavailable)
	}
	return *resp.PredictedPrice, nil
}

// FetchUpProbability obtiene la probabilidad de subida de GET /api/predict_probability.
func (c *Client) FetchUpProbability(ctx context.Context) (float64, error) {
	var resp predictProbabilityResponse
	if err := c.get(ctx, c.publicLimiter, "/api/predict_probability", nil, "", &resp); err != nil {
		return 0, fmt.Errorf("nexbit.FetchUpProbability: %w", err)
	}
	if resp.UpProbability == nil {
		return 0, fmt.Errorf("nexbit.FetchUpProbability: %w", ErrPredictionUnavailable)
	}
	p := *resp.UpProbability
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("nexbit.FetchUpProbability: probability %v out of range", p)
	}
	return p, nil
}
