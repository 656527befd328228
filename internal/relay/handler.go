package relay

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classyai/internal/lead"
	"classyai/pkg/logger"
	"classyai/pkg/metrics"
)

type ContactHandler struct {
	acceptor Acceptor
	logger   *zap.Logger
}

func NewContactHandler(acceptor Acceptor, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		acceptor: acceptor,
		logger:   logger,
	}
}

type contactRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Message  string `json:"message" binding:"required,max=5000"`
	Source   string `json:"source" binding:"required,oneof=contact chat story"`
	Name     string `json:"name" binding:"max=200"`
	Honeypot string `json:"confirm_email_address"`
}

// Contact handles POST /api/contact
func (h *ContactHandler) Contact(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithTrace(ctx, h.logger)

	var req contactRequest
	bindErr := c.ShouldBindJSON(&req)

	// A filled honeypot gets the same answer as a real lead and is dropped,
	// whether or not the rest of the body is valid.
	if lead.Flagged(lead.Payload{Honeypot: req.Honeypot}) {
		metrics.IncrementRelayLead(sourceLabel(req.Source), "honeypot")
		log.Info("Honeypot filled, discarding submission", zap.String("source", req.Source))
		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
		return
	}

	if bindErr != nil {
		metrics.IncrementRelayLead(sourceLabel(req.Source), "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.acceptor.Accept(ctx, lead.Payload{
		Email:   strings.TrimSpace(req.Email),
		Name:    strings.TrimSpace(req.Name),
		Message: req.Message,
		Source:  lead.Source(req.Source),
	})
	if err != nil {
		metrics.IncrementRelayLead(req.Source, "error")
		log.Error("Failed to accept lead", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept lead"})
		return
	}

	metrics.IncrementRelayLead(req.Source, "queued")
	c.JSON(http.StatusOK, gin.H{
		"lead_id": id,
		"status":  "queued",
	})
}

// sourceLabel keeps metric cardinality bounded for unvalidated input.
func sourceLabel(s string) string {
	if _, err := lead.ParseSource(s); err != nil {
		return "unknown"
	}
	return s
}
