package crm

import (
	"context"
	"fmt"

	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"go.uber.org/zap"
)

// timelineLookback bounds the duplicate check against recent history
const timelineLookback = 200

// TimelineHandler writes CRM events into the client's communication history
// in the document store. Delivery is at least once, so entries are keyed by
// event ID and a redelivered event is skipped.
type TimelineHandler struct {
	documents crm.ClientDocumentStore
	logger    *zap.Logger
}

// NewTimelineHandler creates a TimelineHandler
func NewTimelineHandler(documents crm.ClientDocumentStore, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{documents: documents, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *TimelineHandler) EventTypes() []string {
	return []string{crm.EventTypeLeadConverted}
}

// Handle implements shared.EventHandler
func (h *TimelineHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ev, ok := event.(*crm.LeadConvertedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	recordID := ev.EventID().String()
	history, err := h.documents.ListCommunications(ctx, ev.TenantID(), ev.OrganizationID, ev.ClientID, timelineLookback)
	if err != nil {
		return fmt.Errorf("list communications: %w", err)
	}
	for _, rec := range history {
		if rec.ID == recordID {
			h.logger.Debug("Timeline entry already written", zap.String("event_id", recordID))
			return nil
		}
	}

	summary := "Cliente creado a partir del lead " + ev.LeadName
	if ev.Company != "" {
		summary += " (" + ev.Company + ")"
	}
	rec := crm.NewSystemRecord(recordID, summary, ev.OccurredAt())
	rec.Metadata["kind"] = "lead_converted"
	rec.Metadata["leadId"] = ev.LeadID.String()
	rec.Metadata["convertedBy"] = ev.ConvertedBy.String()
	if ev.CampaignID != nil {
		rec.Metadata["campaignId"] = ev.CampaignID.String()
	}

	if err := h.documents.AppendCommunication(ctx, ev.TenantID(), ev.OrganizationID, ev.ClientID, rec); err != nil {
		return fmt.Errorf("append communication: %w", err)
	}
	h.logger.Info("Conversion added to client timeline",
		zap.String("client_id", ev.ClientID.String()),
		zap.String("lead_id", ev.LeadID.String()))
	return nil
}
