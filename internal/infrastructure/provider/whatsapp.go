package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	whatsAppName       = "whatsapp"
	whatsAppDefaultURL = "https://graph.facebook.com/v21.0"
)

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppResponse struct {
	Messages []struct {
		ID     string `json:"id"`
		Status string `json:"message_status"`
	} `json:"messages"`
}

// WhatsAppClient implements integration.WhatsAppProvider over the Cloud API
type WhatsAppClient struct {
	http          *resty.Client
	phoneNumberID string
	logger        *zap.Logger
}

// NewWhatsAppClient creates a WhatsApp Cloud API client
func NewWhatsAppClient(cfg config.WhatsAppConfig, timeout time.Duration, logger *zap.Logger) *WhatsAppClient {
	return &WhatsAppClient{
		http: newRestyClient(orDefault(cfg.BaseURL, whatsAppDefaultURL), timeout).
			SetAuthToken(cfg.Token),
		phoneNumberID: cfg.PhoneNumberID,
		logger:        logger,
	}
}

// SendText sends a plain text message. toNumber is normalized to digits.
func (c *WhatsAppClient) SendText(ctx context.Context, toNumber, body string) (*integration.WhatsAppDelivery, error) {
	var out whatsAppResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(whatsAppMessage{
			MessagingProduct: "whatsapp",
			To:               digitsOnly(toNumber),
			Type:             "text",
			Text:             whatsAppText{Body: body},
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/%s/messages", c.phoneNumberID))
	if err := checkResponse(whatsAppName, resp, err, c.logger); err != nil {
		return nil, err
	}

	d := &integration.WhatsAppDelivery{}
	if len(out.Messages) > 0 {
		d.MessageID = out.Messages[0].ID
		d.Status = out.Messages[0].Status
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ integration.WhatsAppProvider = (*WhatsAppClient)(nil)
