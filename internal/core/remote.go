package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemotePredictor proxies inference to an external model server over HTTP.
// The model's artifact field holds the endpoint URL.
type RemotePredictor struct {
	client *resty.Client
}

type remotePredictRequest struct {
	Input string `json:"input"`
}

type remotePredictResponse struct {
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

func NewRemotePredictor(endpoint string) *RemotePredictor {
	return &RemotePredictor{
		client: resty.New().SetBaseURL(endpoint).SetTimeout(30 * time.Second),
	}
}

func (p *RemotePredictor) Predict(ctx context.Context, input string) (string, error) {
	var result remotePredictResponse

	res, err := p.client.R().
		SetContext(ctx).
		SetBody(remotePredictRequest{Input: input}).
		SetResult(&result).
		Post("/predict")
	if err != nil {
		return "", fmt.Errorf("remote predictor request failed: %w", err)
	}

	if res.IsError() {
		return "", fmt.Errorf("remote predictor returned status %d: %s", res.StatusCode(), res.String())
	}
	if result.Error != "" {
		return "", fmt.Errorf("remote predictor error: %s", result.Error)
	}
	if result.Label == "" {
		return "", fmt.Errorf("remote predictor returned empty label")
	}

	return result.Label, nil
}
