package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/internal/service/access"
	"github.com/smiledesk/admin-api/internal/service/event"
	"github.com/smiledesk/admin-api/pkg/logger"
)

// Handler receives billing provider webhooks and mirrors subscription state
// into the local table the access gate reads from.
type Handler struct {
	subRepo       repository.SubscriptionRepository
	access        *access.Service
	events        event.Emitter
	webhookSecret string
	logger        *logger.Logger
}

func NewHandler(
	subRepo repository.SubscriptionRepository,
	accessSvc *access.Service,
	events event.Emitter,
	webhookSecret string,
	log *logger.Logger,
) *Handler {
	return &Handler{
		subRepo:       subRepo,
		access:        accessSvc,
		events:        events,
		webhookSecret: webhookSecret,
		logger:        log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/billing", h.HandleWebhook)
}

func (h *Handler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unreadable body"))
		return
	}

	if h.webhookSecret != "" {
		if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid signature"))
			return
		}
	}

	var evt model.BillingEvent
	if err := bindJSON(body, &evt); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sub := &model.Subscription{
		OwnerID:            evt.OwnerID,
		Status:             subscriptionStatus(evt),
		Plan:               model.Plan(evt.Plan),
		ProviderCustomerID: evt.ProviderCustomerID,
		ProviderSubID:      evt.ProviderSubID,
		CurrentPeriodEnd:   evt.CurrentPeriodEnd,
	}
	if err := h.subRepo.Upsert(c.Request.Context(), sub); err != nil {
		c.Error(fmt.Errorf("failed to upsert subscription: %w", err))
		return
	}

	// The access gate caches subscription lookups; drop the stale entry.
	h.access.Invalidate(evt.OwnerID)

	if err := h.events.Emit(c.Request.Context(), model.EventSubscriptionChanged, sub); err != nil {
		h.logger.Error(err, "failed to emit subscription event")
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// bindJSON unmarshals a pre-read body while still honoring binding tags.
func bindJSON(body []byte, obj interface{}) error {
	return binding.JSON.BindBody(body, obj)
}

func subscriptionStatus(evt model.BillingEvent) model.SubscriptionStatus {
	if evt.Type == "subscription.canceled" {
		return model.SubscriptionStatusCanceled
	}
	return model.SubscriptionStatus(evt.Status)
}
