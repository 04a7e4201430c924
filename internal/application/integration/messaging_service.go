package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	crmapp "github.com/mar-ia/crm/internal/application/crm"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/integration"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const whatsAppProvider = "whatsapp"

// Errors specific to messaging and voice agents
var (
	ErrPhoneRequired = shared.NewDomainError("PHONE_REQUIRED", "El contacto no tiene teléfono")
	ErrAgentNotFound = shared.NewDomainError("AGENT_NOT_FOUND", "Agente no encontrado")
)

// WhatsAppService sends WhatsApp messages to clients and records them
type WhatsAppService struct {
	clients   crm.ClientRepository
	documents crm.ClientDocumentStore
	provider  integration.WhatsAppProvider
	calls     callRecorder
	logger    *zap.Logger
}

// NewWhatsAppService creates the service. A nil provider disables sending.
func NewWhatsAppService(
	clients crm.ClientRepository,
	documents crm.ClientDocumentStore,
	provider integration.WhatsAppProvider,
	metrics *telemetry.CRMMetrics,
	logger *zap.Logger,
) *WhatsAppService {
	return &WhatsAppService{
		clients:   clients,
		documents: documents,
		provider:  provider,
		calls:     newCallRecorder(metrics, logger),
		logger:    logger,
	}
}

// Send delivers message to the client's phone and appends it to the history
func (s *WhatsAppService) Send(ctx context.Context, scope shared.Scope, req SendWhatsAppRequest) (*WhatsAppResult, error) {
	if s.provider == nil {
		return nil, ErrProviderNotConfigured.WithDetails("whatsapp")
	}
	client, err := s.clients.FindByID(ctx, scope.TenantID, scope.OrganizationID, req.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, crmapp.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	if strings.TrimSpace(client.Phone) == "" {
		return nil, ErrPhoneRequired
	}

	delivery, err := s.provider.SendText(ctx, client.Phone, req.Message)
	s.calls.record(ctx, whatsAppProvider, "send_text", err)
	if err != nil {
		return nil, err
	}

	rec, err := crm.NewCommunicationRecord(crm.ChannelWhatsApp, crm.DirectionOutbound, req.Message, "")
	if err != nil {
		return nil, err
	}
	rec.Metadata["messageId"] = delivery.MessageID
	rec.Metadata["status"] = delivery.Status
	if err := s.documents.AppendCommunication(ctx, scope.TenantID, scope.OrganizationID, client.ID, *rec); err != nil {
		// delivered but not recorded
		s.logger.Error("Failed to record WhatsApp message",
			zap.String("client_id", client.ID.String()),
			zap.String("message_id", delivery.MessageID),
			zap.Error(err))
		return &WhatsAppResult{Delivery: *delivery}, nil
	}

	s.logger.Info("WhatsApp message sent",
		zap.String("client_id", client.ID.String()),
		zap.String("message_id", delivery.MessageID))
	return &WhatsAppResult{Delivery: *delivery, CommunicationID: rec.ID}, nil
}
