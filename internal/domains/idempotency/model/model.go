package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	TableName  = "idempotency_keys"
	EntityName = "idempotency_key"

	FieldKey       = "key"
	FieldExpiresAt = "expires_at"
)

// Record is the stored response of the first successful request made with Key.
type Record struct {
	Key          string         `db:"key"`
	ResponseBody types.JSONText `db:"response_body"`
	CreatedAt    time.Time      `db:"created_at"`
	ExpiresAt    time.Time      `db:"expires_at"`
}

func (r Record) IsLive(now time.Time) bool {
	return r.Key != "" && !r.ExpiresAt.Before(now)
}
