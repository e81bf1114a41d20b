package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed error with HTTP awareness. Message is always safe
// to show to the console user.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so cloned values still compare equal to the
// predefined ones.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors. Messages are the localized strings shown in a screen's
// error slot.
var (
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "Recurso no encontrado")
	ErrForbidden           = New("FORBIDDEN", http.StatusForbidden, "No tiene permisos para realizar esta acción")
	ErrUnauthorized        = New("UNAUTHORIZED", http.StatusUnauthorized, "La sesión ha expirado. Inicie sesión nuevamente")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "Datos inválidos")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "Error interno del servidor")
	ErrListFetch           = New("LIST_FETCH_FAILED", http.StatusBadGateway, "Error al cargar los datos. Intente nuevamente.")
	ErrUpstreamRejected    = New("UPSTREAM_REJECTED", http.StatusUnprocessableEntity, "La solicitud fue rechazada por el servidor")
	ErrUpstreamUnavailable = New("UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "No se pudo conectar con el servidor. Intente nuevamente.")
	ErrExportDisabled      = New("EXPORT_DISABLED", http.StatusNotFound, "La exportación no está habilitada")

	ErrPeriodRequired    = New("PERIOD_REQUIRED", http.StatusBadRequest, "No hay un período disponible para solicitar vacaciones")
	ErrTypeRequired      = New("TYPE_REQUIRED", http.StatusBadRequest, "Debe seleccionar el tipo de vacaciones")
	ErrDaysRequired      = New("DAYS_REQUIRED", http.StatusBadRequest, "Debe indicar una cantidad de días válida")
	ErrStartDateRequired = New("START_DATE_REQUIRED", http.StatusBadRequest, "Debe seleccionar la fecha de inicio")
	ErrEndDateRequired   = New("END_DATE_REQUIRED", http.StatusBadRequest, "No se pudo calcular la fecha de fin")
	ErrSubmitInProgress  = New("SUBMIT_IN_PROGRESS", http.StatusConflict, "Ya hay una solicitud en envío")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Message returns the user-displayable message for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return FromError(err).Message
}
