package service

// DefaultRequestSortField is the backend field used when a request column has
// no explicit mapping.
const DefaultRequestSortField = "fechaSolicitud"

// ColumnFieldMapper translates UI column keys into backend sort fields.
// Lookups are case-sensitive and never fail: unknown keys map to the fallback.
// Relationship columns map to dotted navigation paths which are passed through
// unchecked.
type ColumnFieldMapper struct {
	fields   map[string]string
	fallback string
}

// NewColumnFieldMapper copies table so the mapper stays immutable.
func NewColumnFieldMapper(table map[string]string, fallback string) ColumnFieldMapper {
	fields := make(map[string]string, len(table))
	for k, v := range table {
		fields[k] = v
	}
	return ColumnFieldMapper{fields: fields, fallback: fallback}
}

// Field returns the backend sort field for a column key.
func (m ColumnFieldMapper) Field(column string) string {
	if field, ok := m.fields[column]; ok {
		return field
	}
	return m.fallback
}

// Has reports whether column has an explicit mapping entry.
func (m ColumnFieldMapper) Has(column string) bool {
	_, ok := m.fields[column]
	return ok
}

// Fallback returns the field used for unmapped columns.
func (m ColumnFieldMapper) Fallback() string {
	return m.fallback
}

var (
	requestColumns = NewColumnFieldMapper(map[string]string{
		"id":              "id",
		"empleado":        "usuario.nombreCompleto",
		"nombreEmpleado":  "usuario.nombreCompleto",
		"departamento":    "usuario.departamento.nombre",
		"tipoVacaciones":  "tipoVacaciones",
		"diasSolicitados": "diasSolicitados",
		"fechaInicio":     "fechaInicio",
		"fechaFin":        "fechaFin",
		"fechaSolicitud":  "fechaSolicitud",
		"estado":          "estado",
		"periodo":         "periodoProgramacion",
		"aprobadoPor":     "aprobadoPor.nombreCompleto",
	}, DefaultRequestSortField)

	balanceColumns = NewColumnFieldMapper(map[string]string{
		"empleado":              "usuario.nombreCompleto",
		"nombreEmpleado":        "usuario.nombreCompleto",
		"departamento":          "usuario.departamento.nombre",
		"periodo":               "periodo",
		"diasAsignados":         "diasAsignados",
		"diasTomados":           "diasTomados",
		"diasPendientes":        "diasPendientes",
		"diasLibresDisponibles": "diasLibresDisponibles",
		"diasBloqueDisponibles": "diasBloqueDisponibles",
	}, "usuario.nombreCompleto")

	userColumns = NewColumnFieldMapper(map[string]string{
		"nombreCompleto": "nombreCompleto",
		"email":          "email",
		"departamento":   "departamento.nombre",
		"jefe":           "jefe.nombreCompleto",
		"activo":         "activo",
	}, "nombreCompleto")

	roleColumns = NewColumnFieldMapper(map[string]string{
		"nombre":            "nombre",
		"usuariosAsignados": "usuariosAsignados",
	}, "nombre")
)

// MapColumnToField maps a request-list column key to its backend sort field.
func MapColumnToField(column string) string {
	return requestColumns.Field(column)
}

// HasColumnMapping reports whether a request-list column is explicitly mapped.
func HasColumnMapping(column string) bool {
	return requestColumns.Has(column)
}
