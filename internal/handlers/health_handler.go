package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// @Summary      Smoke-test route
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /get-hello [get]
func (h *HealthHandler) GetHello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "hello"})
}
