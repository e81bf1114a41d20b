package models

import "time"

// VacationType distinguishes free days from block days.
type VacationType string

const (
	VacationTypeNone   VacationType = ""
	VacationTypeFree   VacationType = "libres"
	VacationTypeBlock  VacationType = "bloque"
	CalendarDateLayout              = "2006-01-02"
)

// RequestStatus is the lifecycle state of a vacation request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pendiente"
	RequestStatusApproved  RequestStatus = "aprobada"
	RequestStatusRejected  RequestStatus = "rechazada"
	RequestStatusCancelled RequestStatus = "cancelada"
)

// VacationRequest is a vacation request as returned by the list endpoints.
type VacationRequest struct {
	ID             int64         `json:"id"`
	EmployeeID     int64         `json:"usuarioId"`
	EmployeeName   string        `json:"nombreEmpleado"`
	Department     string        `json:"departamento,omitempty"`
	Type           VacationType  `json:"tipoVacaciones"`
	DaysRequested  int           `json:"diasSolicitados"`
	StartDate      string        `json:"fechaInicio"`
	EndDate        string        `json:"fechaFin"`
	SubmittedAt    time.Time     `json:"fechaSolicitud"`
	Status         RequestStatus `json:"estado"`
	Period         int           `json:"periodoProgramacion"`
	Notes          string        `json:"observaciones,omitempty"`
	ApproverName   *string       `json:"aprobadoPor,omitempty"`
	DecisionReason *string       `json:"motivoRechazo,omitempty"`
}

// EntitlementPeriod is the remaining balance of one yearly period.
type EntitlementPeriod struct {
	Period             int     `json:"periodo"`
	FreeDaysAvailable  float64 `json:"diasLibresDisponibles"`
	BlockDaysAvailable float64 `json:"diasBloqueDisponibles"`
}

// HasAvailability reports whether any day can still be requested.
func (p EntitlementPeriod) HasAvailability() bool {
	return p.FreeDaysAvailable > 0 || p.BlockDaysAvailable > 0
}

// VacationRequestDraft is the in-progress vacation request form. EndDate is
// always derived from StartDate and DaysRequested.
type VacationRequestDraft struct {
	Type          VacationType `json:"type"`
	DaysRequested int          `json:"daysRequested"`
	StartDate     *time.Time   `json:"startDate,omitempty"`
	EndDate       *time.Time   `json:"endDate,omitempty"`
	Notes         string       `json:"notes"`
}

// CreateVacationRequest is the payload submitted to create a request.
type CreateVacationRequest struct {
	Type          VacationType `json:"tipoVacaciones" validate:"required,oneof=libres bloque"`
	DaysRequested int          `json:"diasSolicitados" validate:"required,gt=0"`
	StartDate     string       `json:"fechaInicio" validate:"required,datetime=2006-01-02"`
	EndDate       string       `json:"fechaFin" validate:"required,datetime=2006-01-02"`
	Period        int          `json:"periodo" validate:"required,gt=0"`
	Notes         string       `json:"observaciones" validate:"max=500"`
}

// DecisionRequest is the payload for approve, reject and cancel actions.
type DecisionRequest struct {
	Comment string `json:"comentario,omitempty" validate:"max=500"`
	Reason  string `json:"motivo,omitempty" validate:"max=500"`
}

// ActionResult is the server reply to a mutating action.
type ActionResult struct {
	Message   string        `json:"mensaje"`
	RequestID int64         `json:"solicitudId,omitempty"`
	Status    RequestStatus `json:"estado,omitempty"`
}

// FormatCalendarDate renders t as a calendar-date string.
func FormatCalendarDate(t time.Time) string {
	return t.Format(CalendarDateLayout)
}

// ParseCalendarDate parses a calendar-date string at UTC midnight.
func ParseCalendarDate(raw string) (time.Time, error) {
	return time.ParseInLocation(CalendarDateLayout, raw, time.UTC)
}
