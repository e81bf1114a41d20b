package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/vacation-admin-console/internal/middleware"
	"github.com/noah-isme/vacation-admin-console/internal/models"
	appErrors "github.com/noah-isme/vacation-admin-console/pkg/errors"
)

// settleTimeout bounds how long a handler waits for a screen's fetch before
// answering with the state as it is.
const settleTimeout = 10 * time.Second

func sessionFromContext(c *gin.Context) (*models.SessionInfo, error) {
	session := middleware.CurrentSession(c)
	if session == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return session, nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Identificador de solicitud no válido")
	}
	return id, nil
}

type waiter interface {
	Wait(ctx context.Context) error
}

// settle waits for the latest fetch unless the caller asked for ?wait=false.
// A timeout is not an error: the view then reports isLoading.
func settle(c *gin.Context, w waiter) {
	if c.Query("wait") == "false" {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), settleTimeout)
	defer cancel()
	_ = w.Wait(ctx)
}

// bindJSON decodes the body and validates it with the struct's validate tags.
func bindJSON(c *gin.Context, validate *validator.Validate, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	if validate == nil {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "validation failed")
	}
	return nil
}
