package api

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/service"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultsHandler serves the public per-language defaults. Writes are
// guarded by the admin password carried in the request body.
type DefaultsHandler struct {
	defaultsService service.DefaultsService
	logger          *zap.Logger
}

// NewDefaultsHandler creates a new DefaultsHandler.
func NewDefaultsHandler(defaultsService service.DefaultsService, logger *zap.Logger) *DefaultsHandler {
	return &DefaultsHandler{defaultsService: defaultsService, logger: logger}
}

type LoadDefaultsQuery struct {
	Language string `form:"language" binding:"required,min=2,max=35"`
}

type SaveDefaultsRequest struct {
	Language string          `json:"language" binding:"required,min=2,max=35"`
	Data     json.RawMessage `json:"data" binding:"required"`
	Password string          `json:"password" binding:"required"`
}

// LoadDefaults godoc
// @Summary Get defaults of a kind for a language
// @Tags Defaults
// @Produce json
// @Param kind path string true "Defaults kind" Enums(colors, favourites, tools)
// @Param language query string true "Language code"
// @Success 200 {object} gin.H "success, data, language"
// @Failure 400 {object} gin.H "success: false, error"
// @Failure 404 {object} gin.H "success: false, error"
// @Router /defaults/{kind} [get]
func (h *DefaultsHandler) LoadDefaults(c *gin.Context) {
	kind, ok := domain.ParseDefaultsKind(c.Param("kind"))
	if !ok {
		failure(c, http.StatusNotFound, fmt.Sprintf("Unknown defaults kind %q", c.Param("kind")))
		return
	}

	var q LoadDefaultsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failure(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	d, err := h.defaultsService.Load(c.Request.Context(), kind, q.Language)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDefaultsNotFound):
			failure(c, http.StatusNotFound, fmt.Sprintf("No defaults found for language %s", q.Language))
		case errors.Is(err, service.ErrLanguageRequired):
			failure(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to load defaults",
				zap.String("kind", string(kind)),
				zap.String("language", q.Language),
				zap.Error(err),
			)
			failure(c, http.StatusInternalServerError, "Failed to load defaults")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     d.Data,
		"language": d.Language,
	})
}

// SaveDefaults godoc
// @Summary Create or replace defaults of a kind for a language
// @Description Requires the admin password. The stored blob is replaced as a whole.
// @Tags Defaults
// @Accept json
// @Produce json
// @Param kind path string true "Defaults kind" Enums(colors, favourites, tools)
// @Param request body SaveDefaultsRequest true "Language, JSON data and admin password"
// @Success 200 {object} gin.H "success, message"
// @Failure 400 {object} gin.H "success: false, error"
// @Failure 401 {object} gin.H "success: false, error: Invalid admin password"
// @Router /defaults/{kind} [post]
func (h *DefaultsHandler) SaveDefaults(c *gin.Context) {
	kind, ok := domain.ParseDefaultsKind(c.Param("kind"))
	if !ok {
		failure(c, http.StatusNotFound, fmt.Sprintf("Unknown defaults kind %q", c.Param("kind")))
		return
	}

	var req SaveDefaultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err := h.defaultsService.Save(c.Request.Context(), kind, req.Language, req.Data, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredential), errors.Is(err, service.ErrCredentialCheckFailed):
			failure(c, http.StatusUnauthorized, "Invalid admin password")
		case errors.Is(err, service.ErrInvalidDefaultsData), errors.Is(err, service.ErrLanguageRequired):
			failure(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to save defaults",
				zap.String("kind", string(kind)),
				zap.String("language", req.Language),
				zap.Error(err),
			)
			failure(c, http.StatusInternalServerError, "Failed to save defaults")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%s defaults saved for language %s", kind, req.Language),
	})
}

func failure(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}
