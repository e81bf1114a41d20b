package models

// UserRole is a role name as issued by the vacation API.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleHR       UserRole = "RRHH"
	RoleManager  UserRole = "JEFE"
	RoleEmployee UserRole = "EMPLEADO"
)

// User is an account listed on the user management screen.
type User struct {
	ID         int64    `json:"id"`
	Email      string   `json:"email"`
	FullName   string   `json:"nombreCompleto"`
	Department string   `json:"departamento,omitempty"`
	Roles      []string `json:"roles"`
	ManagerID  *int64   `json:"jefeId,omitempty"`
	Active     bool     `json:"activo"`
}

// Role groups permissions on the role management screen.
type Role struct {
	ID            int64    `json:"id"`
	Name          string   `json:"nombre"`
	Description   string   `json:"descripcion,omitempty"`
	Permissions   []string `json:"permisos"`
	AssignedUsers int      `json:"usuariosAsignados"`
}
