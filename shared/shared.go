package shared

import (
	"math"
	"strings"

	"slotkeeper/shared/dto"
)

func CalculateTotalPage(total, limit int) (res int) {
	if total == 0 || limit <= 0 {
		res = 1
	} else {
		res = int(math.Ceil(float64(total) / float64(limit)))
	}

	return res
}

func FilterByID(id, fieldID, table string) dto.FilterGroup {
	return dto.FilterGroup{
		Filters: []any{
			dto.Filter{
				Field:    fieldID,
				Value:    id,
				Operator: dto.FilterOperatorEq,
				Table:    table,
			},
		},
	}
}

// FilterEqIfPresent appends an equality filter to group when value is non-empty.
func FilterEqIfPresent(group *dto.FilterGroup, field, table, value string) {
	if value == "" {
		return
	}

	group.Filters = append(group.Filters, dto.Filter{
		Field:    field,
		Value:    value,
		Operator: dto.FilterOperatorEq,
		Table:    table,
	})
}

// BuildCacheKey joins prefix and parts with ":".
func BuildCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}

	return prefix + ":" + strings.Join(parts, ":")
}
