package dto_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"slotkeeper/shared/constant"
	"slotkeeper/shared/dto"
	"slotkeeper/shared/model"
)

func TestMetadata_FromModel(t *testing.T) {
	metadata := &dto.Metadata{}
	metadata.FromModel(model.Metadata{
		CreatedAt:  time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		ModifiedAt: time.Date(2025, 3, 3, 9, 15, 30, 0, time.UTC),
	})

	assert.Equal(t, "2025-03-03T09:00:00Z", metadata.CreatedAt)
	assert.Equal(t, "2025-03-03T09:15:30Z", metadata.ModifiedAt)
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		withDefaults bool
		expected     dto.QueryParams
	}{
		{
			name:     "all parameters",
			query:    "page=2&limit=20&sort_by=start_ts&sort_dir=desc",
			expected: dto.QueryParams{Page: 2, Limit: 20, SortBy: "start_ts", SortDir: dto.SortDirDesc},
		},
		{
			name:         "defaults when absent",
			withDefaults: true,
			expected:     dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "no defaults when absent",
			expected: dto.QueryParams{},
		},
		{
			name:         "malformed numbers fall back",
			query:        "page=abc&limit=-10",
			withDefaults: true,
			expected:     dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:         "zero page falls back",
			query:        "page=0&limit=5",
			withDefaults: true,
			expected:     dto.QueryParams{Page: constant.DefaultValuePage, Limit: 5},
		},
		{
			name:     "unknown sort direction ignored",
			query:    "sort_by=created_at&sort_dir=sideways",
			expected: dto.QueryParams{SortBy: "created_at"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/appointments?"+tt.query, nil)

			params := dto.QueryParams{}
			params.FromRequest(req, tt.withDefaults)

			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestQueryParams_Normalize(t *testing.T) {
	sortable := []string{"start_ts", "created_at"}

	tests := []struct {
		name     string
		params   dto.QueryParams
		maxLimit int
		expected dto.QueryParams
	}{
		{
			name:     "unknown column replaced",
			params:   dto.QueryParams{Page: 1, Limit: 10, SortBy: "client_id; DROP TABLE appointments"},
			maxLimit: 50,
			expected: dto.QueryParams{Page: 1, Limit: 10, SortBy: "start_ts", SortDir: "ASC"},
		},
		{
			name:     "allowed column kept",
			params:   dto.QueryParams{Page: 3, Limit: 10, SortBy: "created_at", SortDir: "DESC"},
			maxLimit: 50,
			expected: dto.QueryParams{Page: 3, Limit: 10, SortBy: "created_at", SortDir: "DESC"},
		},
		{
			name:     "limit capped",
			params:   dto.QueryParams{Page: 1, Limit: 500, SortBy: "start_ts", SortDir: "ASC"},
			maxLimit: 50,
			expected: dto.QueryParams{Page: 1, Limit: 50, SortBy: "start_ts", SortDir: "ASC"},
		},
		{
			name:     "no cap when max is zero",
			params:   dto.QueryParams{Page: 1, Limit: 500, SortBy: "start_ts", SortDir: "ASC"},
			expected: dto.QueryParams{Page: 1, Limit: 500, SortBy: "start_ts", SortDir: "ASC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.Normalize(sortable, tt.maxLimit)

			assert.Equal(t, tt.expected, tt.params)
		})
	}
}

func TestQueryParams_OffsetAndOrderBy(t *testing.T) {
	params := dto.QueryParams{Page: 3, Limit: 20, SortBy: "start_ts", SortDir: dto.SortDirDesc}

	assert.Equal(t, 40, params.Offset())
	assert.Equal(t, "ORDER BY appointments.start_ts DESC", params.OrderBy("appointments"))
	assert.Equal(t, "ORDER BY start_ts DESC", params.OrderBy(""))

	assert.Equal(t, 0, dto.QueryParams{Limit: 20}.Offset())
	assert.Empty(t, dto.QueryParams{Page: 1, Limit: 20}.OrderBy("appointments"))
}
