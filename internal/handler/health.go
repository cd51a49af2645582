package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version 构建时通过 -ldflags 注入
var Version = "dev"

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func (h *HealthHandler) RecommendationsHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "recommendations",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
