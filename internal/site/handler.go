package site

import (
	"errors"
	"net/http"
	"net/url"
	"unicode/utf16"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classyai/internal/draft"
	"classyai/internal/feedback"
	"classyai/internal/lead"
	"classyai/internal/transport"
	"classyai/pkg/logger"
)

type Handler struct {
	page      PageConfig
	registry  *Registry
	submitter *Submitter
	logger    *zap.Logger
}

func NewHandler(page PageConfig, registry *Registry, submitter *Submitter, logger *zap.Logger) *Handler {
	return &Handler{
		page:      page.WithDefaults(),
		registry:  registry,
		submitter: submitter,
		logger:    logger,
	}
}

type formState struct {
	Fields   map[string]string `json:"fields"`
	InFlight bool              `json:"in_flight"`
}

func stateOf(f *feedback.Form) formState {
	return formState{Fields: f.Snapshot(), InFlight: f.InFlight()}
}

func (h *Handler) view(c *gin.Context) *View {
	return h.registry.Get(visitorID(c))
}

// Home handles GET /
func (h *Handler) Home(c *gin.Context) {
	v := h.view(c)
	c.JSON(http.StatusOK, gin.H{
		"page":      h.page,
		"toast":     v.Notifier.Current(),
		"chat_open": v.ChatPanel.IsOpen(),
		"forms": gin.H{
			"contact": stateOf(&v.Contact),
			"chat":    stateOf(&v.Chat),
		},
	})
}

// SubmitContact handles POST /forms/contact
func (h *Handler) SubmitContact(c *gin.Context) {
	h.submit(c, lead.SourceContact)
}

// SubmitChat handles POST /forms/chat
func (h *Handler) SubmitChat(c *gin.Context) {
	h.submit(c, lead.SourceChat)
}

func (h *Handler) submit(c *gin.Context, source lead.Source) {
	values, err := formValues(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	v := h.view(c)
	res, err := h.submitter.Submit(c.Request.Context(), v, source, values)
	switch {
	case errors.Is(err, lead.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_email"})
		return
	case errors.Is(err, ErrMessageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message_required"})
		return
	case errors.Is(err, ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "submission_in_progress"})
		return
	case err != nil:
		logger.WithTrace(c.Request.Context(), h.logger).Error("Submit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submit_failed"})
		return
	}

	form := &v.Contact
	if source == lead.SourceChat {
		form = &v.Chat
	}

	status := http.StatusOK
	if res.Outcome == transport.OutcomeFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"outcome":     res.Outcome.String(),
		"toast":       res.Toast,
		"handoff_url": res.HandoffURL,
		"form":        stateOf(form),
		"chat_open":   v.ChatPanel.IsOpen(),
	})
}

func formValues(c *gin.Context) (url.Values, error) {
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
			return nil, err
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return c.Request.PostForm, nil
}

// OpenChat handles POST /chat/open
func (h *Handler) OpenChat(c *gin.Context) {
	v := h.view(c)
	v.ChatPanel.SetOpen(true)
	c.JSON(http.StatusOK, gin.H{"chat_open": true})
}

// CloseChat handles POST /chat/close
func (h *Handler) CloseChat(c *gin.Context) {
	v := h.view(c)
	v.ChatPanel.SetOpen(false)
	c.JSON(http.StatusOK, gin.H{"chat_open": false})
}

// ToggleChat handles POST /chat/toggle
func (h *Handler) ToggleChat(c *gin.Context) {
	v := h.view(c)
	c.JSON(http.StatusOK, gin.H{"chat_open": v.ChatPanel.Toggle()})
}

// DismissToast handles DELETE /toast
func (h *Handler) DismissToast(c *gin.Context) {
	h.view(c).Notifier.Dismiss()
	c.Status(http.StatusNoContent)
}

// characterCount counts UTF-16 code units, the way browsers report a
// textarea's length.
func characterCount(text string) int {
	return len(utf16.Encode([]rune(text)))
}

func (h *Handler) storyState(v *View) gin.H {
	text := v.Story.Text()
	return gin.H{
		"draft":      text,
		"characters": characterCount(text),
		"can_send":   v.Story.CanSend(),
		"sending":    v.Story.Sending(),
		"toast":      v.Notifier.Current(),
	}
}

// Story handles GET /startup-story. Loading the page restores the saved draft.
func (h *Handler) Story(c *gin.Context) {
	v := h.view(c)
	if _, err := v.Story.Restore(c.Request.Context()); err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.storyState(v))
}

type draftRequest struct {
	Text string `json:"text"`
}

// UpdateDraft handles PUT /startup-story/draft
func (h *Handler) UpdateDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	v := h.view(c)
	if err := v.Story.Set(c.Request.Context(), req.Text); err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.storyState(v))
}

// ClearDraft handles DELETE /startup-story/draft
func (h *Handler) ClearDraft(c *gin.Context) {
	v := h.view(c)
	if err := v.Story.Clear(c.Request.Context()); err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.storyState(v))
}

// SendStory handles POST /startup-story/send
func (h *Handler) SendStory(c *gin.Context) {
	values, err := formValues(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	v := h.view(c)
	res, err := h.submitter.SendStory(c.Request.Context(), v, values)
	switch {
	case errors.Is(err, draft.ErrNothingToSend):
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing_to_send"})
		return
	case errors.Is(err, draft.ErrSendInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "submission_in_progress"})
		return
	case err != nil:
		h.storageError(c, err)
		return
	}

	status := http.StatusOK
	if res.Outcome == transport.OutcomeFailed {
		status = http.StatusBadGateway
	}
	state := h.storyState(v)
	state["outcome"] = res.Outcome.String()
	state["ack"] = res.Ack
	state["handoff_url"] = res.HandoffURL
	c.JSON(status, state)
}

func (h *Handler) storageError(c *gin.Context, err error) {
	logger.WithTrace(c.Request.Context(), h.logger).Error("Draft storage failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "draft_storage_failed"})
}
