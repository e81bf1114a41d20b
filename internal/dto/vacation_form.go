package dto

import "github.com/noah-isme/vacation-admin-console/internal/models"

// VacationFormView is the state of the vacation request form.
type VacationFormView struct {
	Periods            []models.EntitlementPeriod  `json:"periods"`
	SelectedPeriod     *models.EntitlementPeriod   `json:"selectedPeriod,omitempty"`
	Draft              models.VacationRequestDraft `json:"draft"`
	DayOptions         []int                       `json:"dayOptions"`
	FreeDaysAvailable  float64                     `json:"freeDaysAvailable"`
	BlockDaysAvailable float64                     `json:"blockDaysAvailable"`
	CanSubmit          bool                        `json:"canSubmit"`
	IsLoading          bool                        `json:"isLoading"`
	IsSubmitting       bool                        `json:"isSubmitting"`
	Error              string                      `json:"error,omitempty"`
	SuccessNotice      string                      `json:"successNotice,omitempty"`
}

// FormTypeRequest selects the vacation type; an empty type clears it.
type FormTypeRequest struct {
	Type models.VacationType `json:"type" validate:"omitempty,oneof=libres bloque"`
}

// FormDaysRequest selects the number of days; 0 clears it.
type FormDaysRequest struct {
	Days int `json:"days" validate:"min=0"`
}

// FormStartDateRequest sets the start date as a calendar date; empty clears it.
type FormStartDateRequest struct {
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
}

// FormNotesRequest sets the free-text notes.
type FormNotesRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}
