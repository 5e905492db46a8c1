package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/service/experts"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExpertHandler struct {
	service experts.ExpertUseCase
	logger  *zap.Logger
}

func NewExpertHandler(service experts.ExpertUseCase, logger *zap.Logger) *ExpertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpertHandler{service: service, logger: logger}
}

func (h *ExpertHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

type listExpertsQuery struct {
	Page     string `form:"page"`
	Limit    string `form:"limit"`
	Search   string `form:"search"`
	Category string `form:"category"`
}

func (h *ExpertHandler) list(c *gin.Context) {
	var q listExpertsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := domain.ExpertFilter{Search: q.Search, Category: q.Category}
	var err error
	if filter.Page, err = optionalInt(q.Page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	if filter.Limit, err = optionalInt(q.Limit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ExpertHandler) get(c *gin.Context) {
	detail, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func optionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
