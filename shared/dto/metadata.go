package dto

import (
	"slotkeeper/shared/model"
	"slotkeeper/shared/timezone"
)

type Metadata struct {
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
}

func (m *Metadata) FromModel(model model.Metadata) {
	m.CreatedAt = timezone.Format(model.CreatedAt)
	m.ModifiedAt = timezone.Format(model.ModifiedAt)
}
