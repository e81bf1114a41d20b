package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/noah-isme/vacation-admin-console/internal/models"
)

// Screen keys.
const (
	ScreenTeamRequests = "team-requests"
	ScreenMyRequests   = "my-requests"
	ScreenBalances     = "balances"
	ScreenUsers        = "users"
	ScreenRoles        = "roles"
)

// ScreenKeys lists every list screen the console serves.
var ScreenKeys = []string{ScreenTeamRequests, ScreenMyRequests, ScreenBalances, ScreenUsers, ScreenRoles}

type teamRequestRepository interface {
	ListTeam(ctx context.Context, query models.ListQuery) (*models.ListResult[models.VacationRequest], error)
	ListMine(ctx context.Context, query models.ListQuery) (*models.ListResult[models.VacationRequest], error)
	Create(ctx context.Context, payload models.CreateVacationRequest) (*models.ActionResult, error)
	Approve(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error)
	Reject(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error)
	Cancel(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error)
}

type balanceRepository interface {
	List(ctx context.Context, query models.ListQuery) (*models.ListResult[models.Balance], error)
	MyPeriods(ctx context.Context) ([]models.EntitlementPeriod, error)
}

type userRepository interface {
	List(ctx context.Context, query models.ListQuery) (*models.ListResult[models.User], error)
}

type roleRepository interface {
	List(ctx context.Context, query models.ListQuery) (*models.ListResult[models.Role], error)
}

var requestExportHeaders = []string{"ID", "Empleado", "Tipo", "Días", "Inicio", "Fin", "Período", "Estado", "Solicitada"}

func requestRow(r models.VacationRequest) map[string]string {
	submitted := ""
	if !r.SubmittedAt.IsZero() {
		submitted = models.FormatCalendarDate(r.SubmittedAt)
	}
	return map[string]string{
		"ID":         strconv.FormatInt(r.ID, 10),
		"Empleado":   r.EmployeeName,
		"Tipo":       string(r.Type),
		"Días":       strconv.Itoa(r.DaysRequested),
		"Inicio":     r.StartDate,
		"Fin":        r.EndDate,
		"Período":    strconv.Itoa(r.Period),
		"Estado":     string(r.Status),
		"Solicitada": submitted,
	}
}

// requestStats counts the current page by status.
func requestStats(items []models.VacationRequest) map[string]float64 {
	stats := map[string]float64{
		"total":      float64(len(items)),
		"pendientes": 0,
		"aprobadas":  0,
		"rechazadas": 0,
		"canceladas": 0,
		"dias":       0,
	}
	for _, r := range items {
		switch r.Status {
		case models.RequestStatusPending:
			stats["pendientes"]++
		case models.RequestStatusApproved:
			stats["aprobadas"]++
		case models.RequestStatusRejected:
			stats["rechazadas"]++
		case models.RequestStatusCancelled:
			stats["canceladas"]++
		}
		stats["dias"] += float64(r.DaysRequested)
	}
	return stats
}

func balanceStats(items []models.Balance) map[string]float64 {
	stats := map[string]float64{
		"empleados":             float64(len(items)),
		"diasLibresDisponibles": 0,
		"diasBloqueDisponibles": 0,
		"diasTomados":           0,
		"diasPendientes":        0,
	}
	for _, b := range items {
		stats["diasLibresDisponibles"] += b.FreeDaysAvailable
		stats["diasBloqueDisponibles"] += b.BlockDaysAvailable
		stats["diasTomados"] += b.TakenDays
		stats["diasPendientes"] += b.PendingDays
	}
	return stats
}

func userStats(items []models.User) map[string]float64 {
	stats := map[string]float64{"total": float64(len(items)), "activos": 0, "inactivos": 0}
	for _, u := range items {
		if u.Active {
			stats["activos"]++
		} else {
			stats["inactivos"]++
		}
	}
	return stats
}

func formatDays(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func teamRequestsScreen(repo teamRequestRepository) ListScreen[models.VacationRequest] {
	return ListScreen[models.VacationRequest]{
		Key: ScreenTeamRequests,
		FilterKeys: []string{
			"estado", "periodo", "tipoVacaciones", "empleadoId",
			"fechaInicioRango", "fechaFinRango", "incluirSubordinadosNivelN",
		},
		DefaultFilters: models.Filters{"estado": string(models.RequestStatusPending)},
		DefaultSort:    models.Sort{Column: "fechaSolicitud", Direction: models.SortDescending},
		Mapper:         requestColumns,
		Fetch:          repo.ListTeam,
		Stats:          requestStats,
		Export:         ExportSpec[models.VacationRequest]{Title: "Solicitudes del equipo", Headers: requestExportHeaders, Row: requestRow},
	}
}

func myRequestsScreen(repo teamRequestRepository) ListScreen[models.VacationRequest] {
	return ListScreen[models.VacationRequest]{
		Key:            ScreenMyRequests,
		FilterKeys:     []string{"estado", "periodo", "tipoVacaciones"},
		DefaultFilters: models.Filters{},
		DefaultSort:    models.Sort{Column: "fechaSolicitud", Direction: models.SortDescending},
		Mapper:         requestColumns,
		Fetch:          repo.ListMine,
		Stats:          requestStats,
		Export:         ExportSpec[models.VacationRequest]{Title: "Mis solicitudes", Headers: requestExportHeaders, Row: requestRow},
	}
}

func balancesScreen(repo balanceRepository) ListScreen[models.Balance] {
	headers := []string{"Empleado", "Departamento", "Período", "Asignados", "Tomados", "Pendientes", "Libres", "Bloque"}
	return ListScreen[models.Balance]{
		Key:            ScreenBalances,
		FilterKeys:     []string{"periodo", "empleadoId", "incluirSubordinadosNivelN"},
		DefaultFilters: models.Filters{},
		Mapper:         balanceColumns,
		Fetch:          repo.List,
		Stats:          balanceStats,
		Export: ExportSpec[models.Balance]{
			Title:   "Saldos de vacaciones",
			Headers: headers,
			Row: func(b models.Balance) map[string]string {
				return map[string]string{
					"Empleado":     b.EmployeeName,
					"Departamento": b.Department,
					"Período":      strconv.Itoa(b.Period),
					"Asignados":    formatDays(b.AssignedDays),
					"Tomados":      formatDays(b.TakenDays),
					"Pendientes":   formatDays(b.PendingDays),
					"Libres":       formatDays(b.FreeDaysAvailable),
					"Bloque":       formatDays(b.BlockDaysAvailable),
				}
			},
		},
	}
}

func usersScreen(repo userRepository) ListScreen[models.User] {
	return ListScreen[models.User]{
		Key:            ScreenUsers,
		FilterKeys:     []string{"busqueda", "rol", "activo"},
		DefaultFilters: models.Filters{},
		DefaultSort:    models.Sort{Column: "nombreCompleto", Direction: models.SortAscending},
		Mapper:         userColumns,
		Fetch:          repo.List,
		Stats:          userStats,
		Export: ExportSpec[models.User]{
			Title:   "Usuarios",
			Headers: []string{"Nombre", "Email", "Departamento", "Roles", "Activo"},
			Row: func(u models.User) map[string]string {
				active := "No"
				if u.Active {
					active = "Sí"
				}
				return map[string]string{
					"Nombre":       u.FullName,
					"Email":        u.Email,
					"Departamento": u.Department,
					"Roles":        strings.Join(u.Roles, ", "),
					"Activo":       active,
				}
			},
		},
	}
}

func rolesScreen(repo roleRepository) ListScreen[models.Role] {
	return ListScreen[models.Role]{
		Key:            ScreenRoles,
		FilterKeys:     []string{"busqueda"},
		DefaultFilters: models.Filters{},
		DefaultSort:    models.Sort{Column: "nombre", Direction: models.SortAscending},
		Mapper:         roleColumns,
		Fetch:          repo.List,
		Export: ExportSpec[models.Role]{
			Title:   "Roles",
			Headers: []string{"Rol", "Descripción", "Permisos", "Usuarios"},
			Row: func(r models.Role) map[string]string {
				return map[string]string{
					"Rol":         r.Name,
					"Descripción": r.Description,
					"Permisos":    strings.Join(r.Permissions, ", "),
					"Usuarios":    strconv.Itoa(r.AssignedUsers),
				}
			},
		},
	}
}
