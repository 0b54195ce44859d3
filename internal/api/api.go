package api

import (
	"errors"
	"net/http"

	"github.com/Stillgh/sentiment-analysis/internal/auth"
	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/dispatcher"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"
	"github.com/Stillgh/sentiment-analysis/internal/registry"
	"github.com/Stillgh/sentiment-analysis/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type BackendService struct {
	db         *gorm.DB
	auth       *auth.Service
	ledger     *ledger.Ledger
	registry   *registry.Registry
	dispatcher *dispatcher.Dispatcher
}

func NewBackendService(db *gorm.DB, authSvc *auth.Service, ldg *ledger.Ledger, reg *registry.Registry, disp *dispatcher.Dispatcher) *BackendService {
	return &BackendService{db: db, auth: authSvc, ledger: ldg, registry: reg, dispatcher: disp}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Get("/models", RestHandler(s.ListModels))

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", RestHandler(s.Signup))
		r.Post("/login", RestHandler(s.Login))

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Get("/me", RestHandler(s.MyInfo))
			r.Get("/balance", RestHandler(s.CurrentBalance))
			r.Post("/balance/add", RestHandler(s.AddBalance))
			r.Post("/balance/withdraw", RestHandler(s.WithdrawBalance))
			r.Get("/balance/history", RestHandler(s.BalanceHistory))
		})
	})

	r.Route("/prediction", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/predict", RestHandler(s.SubmitPrediction))
		r.Get("/result/{task_id}", RestHandler(s.GetPredictionResult))
		r.Get("/history", RestHandler(s.PredictionHistory))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(auth.RequireAdmin)
		r.Get("/predictions", RestHandler(s.AllPredictions))
		r.Get("/users", RestHandler(s.AllUsers))
	})
}

func (s *BackendService) Signup(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SignupRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Email == "" || req.Password == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "email and password are required")
	}

	if _, err := s.auth.Signup(r.Context(), req.Email, req.Password, req.Name, req.Surname); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return nil, CodedErrorf(http.StatusConflict, "account with email %s already exists", req.Email)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create account")
	}

	return api.SignupResponse{Message: "account successfully registered"}, nil
}

func (s *BackendService) Login(r *http.Request) (any, error) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, CodedErrorf(http.StatusUnauthorized, "invalid email or password")
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "login failed")
	}

	return api.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *BackendService) MyInfo(r *http.Request) (any, error) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}
	return toAccountDto(account), nil
}

func (s *BackendService) CurrentBalance(r *http.Request) (any, error) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}
	return api.BalanceResponse{Balance: account.Balance}, nil
}

func (s *BackendService) AddBalance(r *http.Request) (any, error) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}

	req, err := ParseRequestQueryParams[api.AmountRequest](r)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Credit(r.Context(), account.Id, req.Amount); err != nil {
		return nil, ledgerError(err)
	}
	return nil, nil
}

func (s *BackendService) WithdrawBalance(r *http.Request) (any, error) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}

	req, err := ParseRequestQueryParams[api.AmountRequest](r)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Withdraw(r.Context(), account.Id, req.Amount); err != nil {
		return nil, ledgerError(err)
	}
	return nil, nil
}

func (s *BackendService) BalanceHistory(r *http.Request) (any, error) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}

	changes, err := s.ledger.History(r.Context(), account.Id)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to load balance history")
	}

	dtos := make([]api.BalanceChange, 0, len(changes))
	for _, change := range changes {
		dtos = append(dtos, toBalanceChangeDto(change))
	}
	return dtos, nil
}

func (s *BackendService) ListModels(r *http.Request) (any, error) {
	models, err := s.registry.List(r.Context())
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to list models")
	}

	dtos := make([]api.Model, 0, len(models))
	for _, model := range models {
		dtos = append(dtos, toModelDto(model))
	}
	return dtos, nil
}

func (s *BackendService) SubmitPrediction(r *http.Request) (any, error) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}

	req, err := ParseRequest[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}

	taskId, err := s.dispatcher.Submit(r.Context(), account.Id, req.ModelName, req.InferenceInput)
	if err != nil {
		switch {
		case errors.Is(err, dispatcher.ErrInvalidInput):
			return nil, CodedError(http.StatusBadRequest, err)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return nil, CodedError(http.StatusBadRequest, err)
		case errors.Is(err, registry.ErrModelNotFound):
			return nil, CodedErrorf(http.StatusNotFound, "model %q not found", req.ModelName)
		case errors.Is(err, dispatcher.ErrEnqueueFailure):
			// The task exists and is already FAILED; callers can still poll it.
			return nil, CodedErrorf(http.StatusInternalServerError, "failed to enqueue prediction task %s", taskId)
		default:
			return nil, CodedErrorf(http.StatusInternalServerError, "failed to submit prediction")
		}
	}

	return api.PredictResponse{TaskId: taskId}, nil
}

func (s *BackendService) GetPredictionResult(r *http.Request) (any, error) {
	if _, ok := auth.AccountFrom(r.Context()); !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}

	taskId, err := URLParamUUID(r, "task_id")
	if err != nil {
		return nil, err
	}

	task, err := database.GetTask(r.Context(), s.db, taskId)
	if err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "prediction task %s not found", taskId)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to load prediction task")
	}

	if !task.Terminal() {
		return WithStatus(http.StatusAccepted, api.PendingResponse{Detail: "still processing"}), nil
	}

	return toPredictionDto(task), nil
}

func (s *BackendService) PredictionHistory(r *http.Request) (any, error) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "not authenticated")
	}

	tasks, err := database.GetTasksForAccount(r.Context(), s.db, account.Id)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to load prediction history")
	}
	return toPredictionDtos(tasks), nil
}

func (s *BackendService) AllPredictions(r *http.Request) (any, error) {
	tasks, err := database.GetAllTasks(r.Context(), s.db)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to load prediction history")
	}
	return toPredictionDtos(tasks), nil
}

func (s *BackendService) AllUsers(r *http.Request) (any, error) {
	accounts, err := database.GetAllAccounts(r.Context(), s.db)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to list accounts")
	}

	dtos := make([]api.Account, 0, len(accounts))
	for _, account := range accounts {
		dtos = append(dtos, toAccountDto(account))
	}
	return dtos, nil
}

func ledgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return CodedError(http.StatusBadRequest, err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return CodedError(http.StatusBadRequest, err)
	case errors.Is(err, ledger.ErrAccountNotFound):
		return CodedError(http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrAccountDisabled):
		return CodedError(http.StatusForbidden, err)
	default:
		return CodedErrorf(http.StatusInternalServerError, "balance operation failed")
	}
}
