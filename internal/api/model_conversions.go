package api

import (
	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/pkg/api"
)

func toAccountDto(account database.Account) api.Account {
	return api.Account{
		Id:      account.Id,
		Email:   account.Email,
		Name:    account.Name,
		Surname: account.Surname,
		Balance: account.Balance,
		Role:    account.Role,
	}
}

func toBalanceChangeDto(change database.BalanceChange) api.BalanceChange {
	return api.BalanceChange{
		Id:            change.Id,
		BalanceBefore: change.BalanceBefore,
		Amount:        change.Amount,
		Timestamp:     change.Timestamp,
	}
}

func toModelDto(model database.Model) api.Model {
	return api.Model{
		Id:             model.Id,
		Name:           model.Name,
		Kind:           model.Kind,
		PredictionCost: model.PredictionCost,
	}
}

func toPredictionDto(task database.PredictionTask) api.Prediction {
	dto := api.Prediction{
		Id:               task.Id,
		InferenceInput:   task.InferenceInput,
		Status:           task.Status(),
		Result:           task.Result.String,
		IsSuccess:        task.IsSuccess,
		Cost:             task.Withdrawal,
		RequestTimestamp: task.RequestTimestamp,
	}
	if task.Account != nil {
		dto.AccountEmail = task.Account.Email
	}
	if task.Model != nil {
		dto.ModelName = task.Model.Name
	}
	if task.ResultTimestamp.Valid {
		t := task.ResultTimestamp.Time
		dto.ResultTimestamp = &t
	}
	return dto
}

func toPredictionDtos(tasks []database.PredictionTask) []api.Prediction {
	dtos := make([]api.Prediction, 0, len(tasks))
	for _, task := range tasks {
		dtos = append(dtos, toPredictionDto(task))
	}
	return dtos
}
