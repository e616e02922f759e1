package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"salon-booking/booksy-webhook/parser"
	"salon-booking/booksy-webhook/reconciler"
	"salon-booking/shared/config"
)

var messageIDPattern = regexp.MustCompile(`(?i)message-id:\s*<([^>]+)>`)

type WebhookHandler struct {
	cfg *config.Config
	rec *reconciler.Reconciler
}

func NewWebhookHandler(cfg *config.Config, rec *reconciler.Reconciler) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, rec: rec}
}

// HandleBooksyEmail is the inbound-email endpoint. Only transport and auth
// failures produce non-200 responses; every processing outcome, including
// parse failures and unexpected panics, answers 200 so the upstream mailer
// never retries a message that will not parse differently next time.
func (h *WebhookHandler) HandleBooksyEmail(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.cfg.Booksy.WebhookSecret != "" {
		token := c.Query("token")
		if token == "" {
			token = c.GetHeader("X-Webhook-Token")
		}
		if token != h.cfg.Booksy.WebhookSecret {
			c.String(http.StatusUnauthorized, "invalid webhook token")
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("booksy webhook: panic recovered: %v", r)
			c.String(http.StatusOK, "processing error logged")
		}
	}()

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("booksy webhook: body read failed: %v", err)
		c.String(http.StatusOK, "processing error logged")
		return
	}

	form := parseWebhookForm(raw)
	subject := form.Get("subject")
	htmlBody := form.Get("html")
	textBody := form.Get("text")
	from := form.Get("from")

	if !parser.IsBooksyEmail(from, subject, htmlBody+"\n"+textBody, h.cfg.Booksy.SenderDomain) {
		c.String(http.StatusOK, "ignored: not a booksy email")
		return
	}

	messageID := extractMessageID(form.Get("headers"))

	event, problems := parser.Parse(subject, htmlBody, textBody)
	outcome, err := h.rec.Apply(c.Request.Context(), event, string(raw), messageID, problems)
	if err != nil {
		log.Printf("booksy webhook: reconcile failed for %s: %v", messageID, err)
		c.String(http.StatusOK, "processing error logged")
		return
	}

	log.Printf("booksy webhook: %s (%s, message %s)", outcome, event.EmailType, messageID)
	c.String(http.StatusOK, string(outcome))
}

// parseWebhookForm decodes a URL-encoded form body, transparently handling
// payloads that arrive base64-encoded as a whole.
func parseWebhookForm(raw []byte) url.Values {
	form, err := url.ParseQuery(string(raw))
	if err == nil && form.Get("subject") != "" {
		return form
	}

	decoded, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if decErr != nil {
		if form != nil {
			return form
		}
		return url.Values{}
	}
	if inner, err := url.ParseQuery(string(decoded)); err == nil {
		return inner
	}
	if form != nil {
		return form
	}
	return url.Values{}
}

// extractMessageID pulls the Message-Id token out of the raw header blob;
// a missing header gets a generated id so idempotency bookkeeping still
// has a key (such a message can no longer be deduplicated upstream anyway).
func extractMessageID(headers string) string {
	if m := messageIDPattern.FindStringSubmatch(headers); m != nil {
		return m[1]
	}
	return fmt.Sprintf("generated-%d-%06d", time.Now().UnixNano(), rand.Intn(1000000))
}
