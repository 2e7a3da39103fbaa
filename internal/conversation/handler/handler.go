package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadagent_backend/internal/conversation/domain"
	"leadagent_backend/internal/conversation/session"
	"leadagent_backend/internal/conversation/transport"
	"leadagent_backend/platform/httpkit"
	"leadagent_backend/platform/validator"
)

// maxAudioBytes caps uploaded voice turns at 10 MiB.
const maxAudioBytes = 10 << 20

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *session.Service
	validate *validator.Validator
	turnRate *httpkit.TurnRateLimiter
}

func New(svc *session.Service, validate *validator.Validator, turnRate *httpkit.TurnRateLimiter) *Handler {
	return &Handler{svc: svc, validate: validate, turnRate: turnRate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	conv := rg.Group("/conversations")
	{
		conv.POST("", h.start)
		conv.POST("/:id/messages", h.turnRate.RateLimit(), h.sendMessage)
		conv.POST("/:id/audio", h.turnRate.RateLimit(), h.sendAudio)
		conv.GET("/:id", h.get)
		conv.GET("/:id/messages", h.messages)
		conv.GET("/:id/lead", h.lead)
		conv.POST("/:id/end", h.end)
	}
}

func (h *Handler) start(c *gin.Context) {
	var req transport.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Channel == "" {
		req.Channel = domain.ChannelText
	}

	conv, greeting, err := h.svc.Start(c.Request.Context(), req.Channel)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.StartConversationResponse{
		ID:       conv.ID,
		LeadID:   conv.LeadID,
		Channel:  conv.Channel,
		Greeting: greeting,
	})
}

func (h *Handler) sendMessage(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}
	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	res, err := h.svc.ProcessText(c.Request.Context(), id, req.Text)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, turnResponse(res))
}

func (h *Handler) sendAudio(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}
	audio, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read audio body", nil)
		return
	}
	if len(audio) > maxAudioBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "audio payload too large", nil)
		return
	}

	res, err := h.svc.ProcessAudio(c.Request.Context(), id, audio, c.ContentType())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, turnResponse(res))
}

func (h *Handler) get(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}
	conv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, conv)
}

func (h *Handler) messages(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}
	msgs, err := h.svc.Messages(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.MessagesResponse{Items: msgs, Count: len(msgs)})
}

func (h *Handler) lead(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}
	lead, err := h.svc.Lead(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) end(c *gin.Context) {
	id, ok := h.conversationID(c)
	if !ok {
		return
	}
	var req transport.EndConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	conv, err := h.svc.End(c.Request.Context(), id, req.Reason)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, conv)
}

func (h *Handler) conversationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid conversation id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func turnResponse(res session.TurnResult) transport.TurnResponse {
	return transport.TurnResponse{
		ConversationID: res.ConversationID,
		Reply:          res.Reply,
		ReplyAudio:     transport.EncodeAudio(res.ReplyAudio),
		Transcript:     res.Transcript,
		Stage:          res.Stage,
		Advanced:       res.Advanced,
		Forced:         res.Forced,
		Ending:         res.Ending,
		Profile:        res.Profile,
	}
}
