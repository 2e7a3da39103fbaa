package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadagent_backend/internal/leads/service"
	"leadagent_backend/internal/leads/transport"
	"leadagent_backend/platform/httpkit"
	"leadagent_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	leads := rg.Group("/leads")
	{
		leads.GET("", h.list)
		leads.GET("/:id", h.get)
		leads.PATCH("/:id", h.update)
	}
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	qualifiedOnly := c.Query("qualified") == "true"

	items, err := h.svc.List(c.Request.Context(), limit, offset, qualifiedOnly)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ListLeadsResponse{Items: items, Count: len(items)})
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}
	lead, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}
	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	update, email, phone := req.ToUpdate()
	lead, err := h.svc.UpdateManual(c.Request.Context(), id, update, email, phone)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, lead)
}
