package dto

import (
	"time"

	"slotkeeper/internal/domains/appointment/model"
	"slotkeeper/shared"
	gDto "slotkeeper/shared/dto"
	"slotkeeper/shared/timezone"
)

type CreateAppointmentRequest struct {
	ReservationToken string    `json:"reservation_token" validate:"required,reservation_token"`
	ClientID         string    `json:"client_id"         validate:"required"`
	UnitID           string    `json:"unit_id"           validate:"required"`
	ServiceID        string    `json:"service_id"        validate:"required"`
	ResourceID       *string   `json:"resource_id"       validate:"omitempty"`
	Start            time.Time `json:"start"             validate:"required"`
	Origin           string    `json:"origin"            validate:"omitempty,oneof=client staff admin"`
	Notes            *string   `json:"notes"             validate:"omitempty,max=500"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"required,max=280"`
}

type AppointmentResponse struct {
	ID               string  `json:"id"`
	ReservationToken string  `json:"reservation_token,omitempty"`
	ClientID         string  `json:"client_id"`
	UnitID           string  `json:"unit_id"`
	ServiceID        string  `json:"service_id"`
	ResourceID       *string `json:"resource_id,omitempty"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	Status           string  `json:"status"`
	Origin           string  `json:"origin"`
	Notes            *string `json:"notes,omitempty"`
	gDto.Metadata
}

func (r *AppointmentResponse) FromModel(appointment model.Appointment) {
	r.ID = appointment.ID
	r.ClientID = appointment.ClientID
	r.UnitID = appointment.UnitID
	r.ServiceID = appointment.ServiceID
	r.ResourceID = appointment.ResourceID
	r.Start = appointment.StartTS.UTC().Format(time.RFC3339)
	r.End = appointment.EndTS.UTC().Format(time.RFC3339)
	r.Status = string(appointment.Status)
	r.Origin = string(appointment.Origin)
	r.Notes = appointment.Notes
	r.Metadata.FromModel(appointment.Metadata)
}

type ListAppointmentsQuery struct {
	ClientID   string `json:"client_id"   validate:"omitempty"`
	ResourceID string `json:"resource_id" validate:"omitempty"`
	UnitID     string `json:"unit_id"     validate:"omitempty"`
	Date       string `json:"date"        validate:"omitempty,datetime=2006-01-02"`
}

// ToFilter builds the AND filter for the present fields. Date matches start_ts within that UTC day.
func (q ListAppointmentsQuery) ToFilter() gDto.FilterGroup {
	filter := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	shared.FilterEqIfPresent(&filter, model.FieldClientID, model.TableName, q.ClientID)
	shared.FilterEqIfPresent(&filter, model.FieldResourceID, model.TableName, q.ResourceID)
	shared.FilterEqIfPresent(&filter, model.FieldUnitID, model.TableName, q.UnitID)

	if day, err := timezone.ParseDay(q.Date); err == nil {
		filter.Filters = append(filter.Filters,
			gDto.Filter{Field: model.FieldStartTS, ArgName: "day_start", Value: day, Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStartTS, ArgName: "day_end", Value: day.AddDate(0, 0, 1), Operator: gDto.FilterOperatorLess, Table: model.TableName},
		)
	}

	return filter
}

type GetAppointmentsResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetAppointmentsResponse) FromModels(models []model.Appointment, totalData int, params gDto.QueryParams) {
	r.Page = params.Page
	r.Limit = params.Limit
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, params.Limit)

	r.Appointments = make([]AppointmentResponse, len(models))
	for i, mod := range models {
		r.Appointments[i].FromModel(mod)
	}
}
