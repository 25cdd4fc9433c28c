package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"slotkeeper/infras/otel"
	"slotkeeper/infras/postgres"
	"slotkeeper/internal/domains/slot/model"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	gRepo "slotkeeper/shared/repository"
)

// SlotTemplate is read-only: templates are maintained by an external admin workflow.
type SlotTemplate interface {
	GetByWeekday(ctx context.Context, unitID, serviceID string, weekday int) ([]model.SlotTemplate, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.SlotTemplate]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) SlotTemplate {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.SlotTemplate](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (r *repositoryImpl) GetByWeekday(ctx context.Context, unitID, serviceID string, weekday int) ([]model.SlotTemplate, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot_template.GetByWeekday")
	defer scope.End()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldUnitID, Value: unitID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldServiceID, Value: serviceID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldWeekday, Value: weekday, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}

	params := gDto.QueryParams{SortBy: "start_time", SortDir: gDto.SortDirAsc}

	return r.GetAll(ctx, params, filter) //nolint:wrapcheck
}
