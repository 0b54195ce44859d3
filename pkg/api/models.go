package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
}

type SignupResponse struct {
	Message string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Account struct {
	Id      uuid.UUID       `json:"id"`
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Surname string          `json:"surname"`
	Balance decimal.Decimal `json:"balance"`
	Role    string          `json:"role"`
}

// AmountRequest is decoded from query params (?amount=) for the balance
// endpoints.
type AmountRequest struct {
	Amount decimal.Decimal `schema:"amount,required"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type BalanceChange struct {
	Id            int64           `json:"id"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

type Model struct {
	Id             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	PredictionCost decimal.Decimal `json:"prediction_cost"`
}

type PredictRequest struct {
	InferenceInput string `json:"inference_input"`
	ModelName      string `json:"model_name,omitempty"`
}

type PredictResponse struct {
	TaskId uuid.UUID `json:"task_id"`
}

// Prediction is the terminal/pending task DTO shape shared by the result and
// history endpoints.
type Prediction struct {
	Id               uuid.UUID       `json:"id"`
	AccountEmail     string          `json:"account_email"`
	ModelName        string          `json:"model_name"`
	InferenceInput   string          `json:"inference_input"`
	Status           string          `json:"status"`
	Result           string          `json:"result,omitempty"`
	IsSuccess        bool            `json:"is_success"`
	Cost             decimal.Decimal `json:"cost"`
	RequestTimestamp time.Time       `json:"request_timestamp"`
	ResultTimestamp  *time.Time      `json:"result_timestamp,omitempty"`
}

type PendingResponse struct {
	Detail string `json:"detail"`
}
