package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler responde el estado del servicio.
type HealthHandler struct {
	env string
}

func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{env: env}
}

// Health maneja GET /api/health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "env": h.env})
}

// bindOptionalJSON acepta un cuerpo vacio como objeto vacio; los campos
// faltantes los valida el servicio con su propio mensaje.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
