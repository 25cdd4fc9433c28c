package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"slotkeeper/infras/otel"
	"slotkeeper/infras/postgres"
	"slotkeeper/internal/domains/appointment/model"
	"slotkeeper/shared"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/logger"
	gRepo "slotkeeper/shared/repository"
)

type Appointment interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, appointment model.Appointment) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Appointment, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Appointment, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	// GetByIDForUpdateTx returns a zero Appointment when id is unknown.
	GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Appointment, error)
	// UpdateLifecycleTx persists status, notes and audit columns of appointment.
	UpdateLifecycleTx(ctx context.Context, tx *sqlx.Tx, appointment model.Appointment) error
	// CountUnlinkedTx counts scheduled appointments at start that hold no reservation.
	CountUnlinkedTx(ctx context.Context, tx *sqlx.Tx, unitID, serviceID string, start time.Time) (int, error)
	UnlinkedUsageByDay(ctx context.Context, unitID, serviceID string, dayStart, dayEnd time.Time) (map[int64]int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Appointment]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Appointment {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Appointment](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Appointment, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.GetByIDForUpdateTx")
	defer scope.End()

	return r.GetForUpdateTx(ctx, tx, shared.FilterByID(id, model.FieldID, model.TableName)) //nolint:wrapcheck
}

func (r *repositoryImpl) UpdateLifecycleTx(ctx context.Context, tx *sqlx.Tx, appointment model.Appointment) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.UpdateLifecycleTx")
	defer scope.End()

	mod := map[string]any{
		model.FieldStatus:     appointment.Status,
		model.FieldNotes:      appointment.Notes,
		model.FieldModifiedAt: appointment.ModifiedAt,
		model.FieldModifiedBy: appointment.ModifiedBy,
	}

	affected, err := r.UpdateTx(ctx, tx, mod, shared.FilterByID(appointment.ID, model.FieldID, model.TableName))
	if err != nil {
		return err //nolint:wrapcheck
	}

	if affected != 1 {
		return fmt.Errorf("failed to update appointment %s: %d rows affected", appointment.ID, affected)
	}

	return nil
}

func (r *repositoryImpl) CountUnlinkedTx(ctx context.Context, tx *sqlx.Tx, unitID, serviceID string, start time.Time) (int, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.CountUnlinkedTx")
	defer scope.End()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldUnitID, Value: unitID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldServiceID, Value: serviceID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStartTS, Value: start.UTC(), Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Value: model.StatusScheduled, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldReservationID, Operator: gDto.FilterIsNull, Table: model.TableName},
		},
	}

	return r.CountTx(ctx, tx, filter) //nolint:wrapcheck
}

type usageRow struct {
	StartTS time.Time `db:"start_ts"`
	Total   int       `db:"total"`
}

func (r *repositoryImpl) UnlinkedUsageByDay(ctx context.Context, unitID, serviceID string, dayStart, dayEnd time.Time) (map[int64]int, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.UnlinkedUsageByDay")
	defer scope.End()

	query := `SELECT start_ts, COUNT(*) AS total FROM appointments
		WHERE unit_id = $1 AND service_id = $2 AND start_ts >= $3 AND start_ts < $4
		  AND status = 'scheduled' AND reservation_id IS NULL
		GROUP BY start_ts`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var rows []usageRow
	if err := r.db.Read.SelectContext(ctx, &rows, query, unitID, serviceID, dayStart.UTC(), dayEnd.UTC()); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get appointment usage: %w", err)
	}

	usage := make(map[int64]int, len(rows))
	for _, row := range rows {
		usage[row.StartTS.Unix()] += row.Total
	}

	return usage, nil
}
