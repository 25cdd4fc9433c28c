package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"slotkeeper/infras/otel"
	"slotkeeper/infras/postgres"
	"slotkeeper/internal/domains/idempotency/model"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/failure"
	"slotkeeper/shared/logger"
	gRepo "slotkeeper/shared/repository"
)

type Idempotency interface {
	// GetTx returns a zero Record when key is unknown or its record expired.
	GetTx(ctx context.Context, tx *sqlx.Tx, key string, now time.Time) (model.Record, error)
	// SaveTx stores record, replacing an expired one. A live record under the same key is a conflict.
	SaveTx(ctx context.Context, tx *sqlx.Tx, record model.Record) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Record]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Idempotency {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Record](model.EntityName, model.TableName, model.FieldKey, db, otel),
		otel:       otel,
	}
}

func (r *repositoryImpl) GetTx(ctx context.Context, tx *sqlx.Tx, key string, now time.Time) (model.Record, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".idempotency.GetTx")
	defer scope.End()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldKey, Value: key, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldExpiresAt, Value: now.UTC(), Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName},
		},
	}

	return r.Repository.GetTx(ctx, tx, filter) //nolint:wrapcheck
}

func (r *repositoryImpl) SaveTx(ctx context.Context, tx *sqlx.Tx, record model.Record) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".idempotency.SaveTx")
	defer scope.End()

	query := `INSERT INTO idempotency_keys (key, response_body, created_at, expires_at)
		VALUES (:key, :response_body, :created_at, :expires_at)
		ON CONFLICT (key) DO UPDATE
		SET response_body = EXCLUDED.response_body,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at <= EXCLUDED.created_at`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := tx.NamedExecContext(ctx, query, record)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return failure.Conflict("failed to store idempotent response") // nolint:wrapcheck
	}

	affected, err := result.RowsAffected()
	if err != nil || affected == 0 {
		return failure.Conflict("idempotency key already used") // nolint:wrapcheck
	}

	return nil
}
