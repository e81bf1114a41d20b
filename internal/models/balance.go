package models

// Balance is one employee's vacation balance for a period.
type Balance struct {
	EmployeeID         int64   `json:"usuarioId"`
	EmployeeName       string  `json:"nombreEmpleado"`
	Department         string  `json:"departamento,omitempty"`
	Period             int     `json:"periodo"`
	AssignedDays       float64 `json:"diasAsignados"`
	TakenDays          float64 `json:"diasTomados"`
	PendingDays        float64 `json:"diasPendientes"`
	FreeDaysAvailable  float64 `json:"diasLibresDisponibles"`
	BlockDaysAvailable float64 `json:"diasBloqueDisponibles"`
}
