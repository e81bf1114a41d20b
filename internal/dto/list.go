package dto

import "github.com/noah-isme/vacation-admin-console/internal/models"

// ListView is what the table-rendering layer receives for a list screen.
type ListView struct {
	Screen           string             `json:"screen"`
	Items            interface{}        `json:"items"`
	Pagination       models.Pagination  `json:"pagination"`
	CompleteTotal    *int               `json:"completeTotal,omitempty"`
	CurrentPageTotal int                `json:"currentPageTotal"`
	Sort             models.Sort        `json:"sort"`
	Filters          models.Filters     `json:"filters"`
	Stats            map[string]float64 `json:"stats,omitempty"`
	StatsSource      string             `json:"statsSource,omitempty"`
	IsLoading        bool               `json:"isLoading"`
	Error            string             `json:"error,omitempty"`
	SuccessMessage   string             `json:"successMessage,omitempty"`
}

// PageRequest moves a list screen to another page.
type PageRequest struct {
	Page int `json:"page" validate:"required,min=1"`
}

// PageSizeRequest changes a list screen's page size.
type PageSizeRequest struct {
	PageSize int `json:"pageSize" validate:"required,min=1"`
}

// SortRequest sorts a list screen. When IsDescending is omitted the console
// applies the header-click toggle.
type SortRequest struct {
	Column       string `json:"column" validate:"required"`
	IsDescending *bool  `json:"isDescending"`
}

// FiltersRequest carries a partial filter update.
type FiltersRequest struct {
	Filters map[string]string `json:"filters" validate:"required"`
}

// DecisionBody is the body of approve, reject and cancel actions.
type DecisionBody struct {
	Comment string `json:"comment" validate:"max=500"`
	Reason  string `json:"reason" validate:"max=500"`
}

// ActionView is returned after a mutating action.
type ActionView struct {
	Result *models.ActionResult `json:"result,omitempty"`
	List   ListView             `json:"list"`
}
