package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"slotkeeper/infras/otel"
	"slotkeeper/infras/postgres"
	"slotkeeper/internal/domains/availability/model"
	"slotkeeper/shared/constant"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/logger"
	gRepo "slotkeeper/shared/repository"
)

const reservationColumns = `id, reservation_token, unit_id, service_id, resource_id, start_ts, end_ts,
	seat, status, expires_at, release_reason, created_at, modified_at`

type Reservation interface {
	// AcquireSlotLockTx serializes writers of one slot until tx ends.
	AcquireSlotLockTx(ctx context.Context, tx *sqlx.Tx, slotKey string) error
	// ExpireStaleTx releases locked rows of one slot whose expiry is at or before now.
	ExpireStaleTx(ctx context.Context, tx *sqlx.Tx, unitID, serviceID string, start, now time.Time) (int64, error)
	ActiveSeatsTx(ctx context.Context, tx *sqlx.Tx, unitID, serviceID string, start, now time.Time) ([]int, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, reservation model.Reservation) error
	// GetByTokenForUpdateTx returns a zero Reservation when the token is unknown.
	GetByTokenForUpdateTx(ctx context.Context, tx *sqlx.Tx, token string) (model.Reservation, error)
	// ReleaseTx moves a reservation from status from to released. Zero affected rows means it was not in from.
	ReleaseTx(ctx context.Context, tx *sqlx.Tx, id string, from model.Status, reason model.ReleaseReason, now time.Time) (int64, error)
	// ConfirmTx moves a locked reservation to confirmed and clears its expiry.
	ConfirmTx(ctx context.Context, tx *sqlx.Tx, id string, now time.Time) (int64, error)
	UsageByDay(ctx context.Context, unitID, serviceID string, dayStart, dayEnd, now time.Time) (model.Usage, error)
	// ReleaseExpired flips up to limit expired locked rows to released and returns them.
	ReleaseExpired(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) AcquireSlotLockTx(ctx context.Context, tx *sqlx.Tx, slotKey string) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.AcquireSlotLockTx")
	defer scope.End()

	return postgres.AdvisoryXactLock(ctx, tx, slotKey) //nolint:wrapcheck
}

func slotFilters(unitID, serviceID string, start time.Time) []any {
	return []any{
		gDto.Filter{Field: model.FieldUnitID, Value: unitID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{Field: model.FieldServiceID, Value: serviceID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{Field: model.FieldStartTS, Value: start.UTC(), Operator: gDto.FilterOperatorEq, Table: model.TableName},
	}
}

func (r *repositoryImpl) ExpireStaleTx(ctx context.Context, tx *sqlx.Tx, unitID, serviceID string, start, now time.Time) (int64, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ExpireStaleTx")
	defer scope.End()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: append(slotFilters(unitID, serviceID, start),
			gDto.Filter{Field: model.FieldStatus, ArgName: "current_status", Value: model.StatusLocked, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldExpiresAt, ArgName: "stale_before", Value: now.UTC(), Operator: gDto.FilterOperatorLessEq, Table: model.TableName},
		),
	}

	mod := map[string]any{
		model.FieldStatus:        model.StatusReleased,
		model.FieldReleaseReason: string(model.ReleaseExpired),
		model.FieldModifiedAt:    now.UTC(),
	}

	return r.UpdateTx(ctx, tx, mod, filter) //nolint:wrapcheck
}

func (r *repositoryImpl) ActiveSeatsTx(ctx context.Context, tx *sqlx.Tx, unitID, serviceID string, start, now time.Time) ([]int, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ActiveSeatsTx")
	defer scope.End()

	query := `SELECT seat FROM reservations
		WHERE unit_id = $1 AND service_id = $2 AND start_ts = $3
		  AND (status = 'confirmed' OR (status = 'locked' AND expires_at > $4))
		ORDER BY seat`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var seats []int
	if err := tx.SelectContext(ctx, &seats, query, unitID, serviceID, start.UTC(), now.UTC()); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get active seats: %w", err)
	}

	return seats, nil
}

func (r *repositoryImpl) GetByTokenForUpdateTx(ctx context.Context, tx *sqlx.Tx, token string) (model.Reservation, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.GetByTokenForUpdateTx")
	defer scope.End()

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldToken, Value: token, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}

	return r.GetForUpdateTx(ctx, tx, filter) //nolint:wrapcheck
}

func (r *repositoryImpl) ReleaseTx(ctx context.Context, tx *sqlx.Tx, id string, from model.Status, reason model.ReleaseReason, now time.Time) (int64, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ReleaseTx")
	defer scope.End()

	mod := map[string]any{
		model.FieldStatus:        model.StatusReleased,
		model.FieldReleaseReason: string(reason),
		model.FieldModifiedAt:    now.UTC(),
	}

	return r.UpdateTx(ctx, tx, mod, byIDAndStatus(id, from)) //nolint:wrapcheck
}

func (r *repositoryImpl) ConfirmTx(ctx context.Context, tx *sqlx.Tx, id string, now time.Time) (int64, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ConfirmTx")
	defer scope.End()

	mod := map[string]any{
		model.FieldStatus:     model.StatusConfirmed,
		model.FieldExpiresAt:  nil,
		model.FieldModifiedAt: now.UTC(),
	}

	return r.UpdateTx(ctx, tx, mod, byIDAndStatus(id, model.StatusLocked)) //nolint:wrapcheck
}

func byIDAndStatus(id string, status model.Status) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, ArgName: "current_status", Value: status, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}
}

type usageRow struct {
	StartTS time.Time `db:"start_ts"`
	Total   int       `db:"total"`
}

func (r *repositoryImpl) UsageByDay(ctx context.Context, unitID, serviceID string, dayStart, dayEnd, now time.Time) (model.Usage, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.UsageByDay")
	defer scope.End()

	query := `SELECT start_ts, COUNT(*) AS total FROM reservations
		WHERE unit_id = $1 AND service_id = $2 AND start_ts >= $3 AND start_ts < $4
		  AND (status = 'confirmed' OR (status = 'locked' AND expires_at > $5))
		GROUP BY start_ts`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var rows []usageRow
	if err := r.db.Read.SelectContext(ctx, &rows, query, unitID, serviceID, dayStart.UTC(), dayEnd.UTC(), now.UTC()); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get reservation usage: %w", err)
	}

	usage := make(model.Usage, len(rows))
	for _, row := range rows {
		usage[row.StartTS.Unix()] += row.Total
	}

	return usage, nil
}

func (r *repositoryImpl) ReleaseExpired(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ReleaseExpired")
	defer scope.End()

	query := `UPDATE reservations SET status = 'released', release_reason = 'expired', modified_at = $1
		WHERE id IN (
			SELECT id FROM reservations
			WHERE status = 'locked' AND expires_at <= $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + reservationColumns
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var released []model.Reservation
	if err := r.db.Write.SelectContext(ctx, &released, query, now.UTC(), limit); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to release expired reservations: %w", err)
	}

	return released, nil
}
