// Package crm holds the scoped CRUD services for leads, clients, campaigns
// and products. Every method takes the trusted scope built by the HTTP layer.
package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/bulk"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bulk defaults
const (
	DefaultBulkConcurrency = 8
	DefaultBulkMaxItems    = 500
)

// Errors specific to lead operations
var (
	ErrLeadNotFound     = shared.NewDomainError("LEAD_NOT_FOUND", "Lead no encontrado")
	ErrCampaignNotFound = shared.NewDomainError("CAMPAIGN_NOT_FOUND", "Campaña no encontrada")
)

// BulkOptions bounds batch operations
type BulkOptions struct {
	Concurrency int
	MaxItems    int
}

// LeadService handles lead operations
type LeadService struct {
	leads     crm.LeadRepository
	campaigns crm.CampaignRepository
	uow       crm.UnitOfWork
	metrics   *telemetry.CRMMetrics
	bulk      BulkOptions
	logger    *zap.Logger
}

// NewLeadService creates a new lead service. A nil metrics set uses the
// global meter.
func NewLeadService(
	leads crm.LeadRepository,
	campaigns crm.CampaignRepository,
	uow crm.UnitOfWork,
	metrics *telemetry.CRMMetrics,
	opts BulkOptions,
	logger *zap.Logger,
) *LeadService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultBulkConcurrency
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultBulkMaxItems
	}
	if metrics == nil {
		metrics = telemetry.NoopCRMMetrics()
	}
	return &LeadService{
		leads:     leads,
		campaigns: campaigns,
		uow:       uow,
		metrics:   metrics,
		bulk:      opts,
		logger:    logger,
	}
}

// List returns a page of leads in the scope
func (s *LeadService) List(ctx context.Context, scope shared.Scope, filter shared.Filter) (*shared.Paginated[LeadResponse], error) {
	filter = filter.Normalize()
	leads, total, err := s.leads.FindAll(ctx, scope.TenantID, scope.OrganizationID, filter)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	items := make([]LeadResponse, len(leads))
	for i := range leads {
		items[i] = ToLeadResponse(&leads[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one lead of the scope
func (s *LeadService) Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (*LeadResponse, error) {
	lead, err := s.find(ctx, s.leads, scope, id)
	if err != nil {
		return nil, err
	}
	resp := ToLeadResponse(lead)
	return &resp, nil
}

// Board returns every lead of the scope keyed by status. Statuses without
// leads are absent; an empty scope yields an empty map.
func (s *LeadService) Board(ctx context.Context, scope shared.Scope) (map[string][]LeadResponse, error) {
	grouped, err := s.leads.FindGroupedByStatus(ctx, scope.TenantID, scope.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("group leads: %w", err)
	}
	board := make(map[string][]LeadResponse, len(grouped))
	for status, leads := range grouped {
		if len(leads) == 0 {
			continue
		}
		items := make([]LeadResponse, len(leads))
		for i := range leads {
			items[i] = ToLeadResponse(&leads[i])
		}
		board[string(status)] = items
	}
	return board, nil
}

// Create adds a lead stamped with the scope
func (s *LeadService) Create(ctx context.Context, scope shared.Scope, req CreateLeadRequest) (*LeadResponse, error) {
	lead, err := crm.NewLead(scope, crm.NewLeadInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Priority:  crm.LeadPriority(req.Priority),
		Source:    crm.LeadSource(req.Source),
		Score:     req.Score,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}
	if req.CampaignID != nil {
		if err := s.ensureCampaign(ctx, scope, *req.CampaignID); err != nil {
			return nil, err
		}
		lead.AssignCampaign(req.CampaignID)
	}
	if req.AssignedTo != nil {
		lead.Assign(req.AssignedTo)
	}

	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("save lead: %w", err)
	}
	s.logger.Info("Lead created",
		zap.String("lead_id", lead.ID.String()),
		zap.String("organization_id", scope.OrganizationID.String()),
		zap.String("source", string(lead.Source)))
	resp := ToLeadResponse(lead)
	return &resp, nil
}

// Update applies a partial update to a lead
func (s *LeadService) Update(ctx context.Context, scope shared.Scope, id uuid.UUID, req UpdateLeadRequest) (*LeadResponse, error) {
	lead, err := s.find(ctx, s.leads, scope, id)
	if err != nil {
		return nil, err
	}
	if err := lead.Apply(req.Patch()); err != nil {
		return nil, err
	}
	if req.CampaignID != nil {
		if err := s.ensureCampaign(ctx, scope, *req.CampaignID); err != nil {
			return nil, err
		}
		lead.AssignCampaign(req.CampaignID)
	}
	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("save lead: %w", err)
	}
	resp := ToLeadResponse(lead)
	return &resp, nil
}

// Delete removes a lead
func (s *LeadService) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	if err := s.leads.Delete(ctx, scope.TenantID, scope.OrganizationID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrLeadNotFound
		}
		return fmt.Errorf("delete lead: %w", err)
	}
	s.logger.Info("Lead deleted", zap.String("lead_id", id.String()))
	return nil
}

// BulkDelete deletes every listed lead independently
func (s *LeadService) BulkDelete(ctx context.Context, scope shared.Scope, ids []uuid.UUID) (*bulk.Result, error) {
	return s.runBulk(ctx, bulk.OperationDelete, ids, func(ctx context.Context, id uuid.UUID) error {
		return s.Delete(ctx, scope, id)
	})
}

// BulkUpdate applies the same patch to every listed lead
func (s *LeadService) BulkUpdate(ctx context.Context, scope shared.Scope, ids []uuid.UUID, req UpdateLeadRequest) (*bulk.Result, error) {
	if req.Patch().IsEmpty() && req.CampaignID == nil {
		return nil, shared.ErrInvalidInput.WithDetails("no fields to update")
	}
	if req.CampaignID != nil {
		if err := s.ensureCampaign(ctx, scope, *req.CampaignID); err != nil {
			return nil, err
		}
	}
	return s.runBulk(ctx, bulk.OperationUpdate, ids, func(ctx context.Context, id uuid.UUID) error {
		lead, err := s.find(ctx, s.leads, scope, id)
		if err != nil {
			return err
		}
		if err := lead.Apply(req.Patch()); err != nil {
			return err
		}
		if req.CampaignID != nil {
			lead.AssignCampaign(req.CampaignID)
		}
		return s.leads.Save(ctx, lead)
	})
}

// BulkAssignCampaign links every listed lead to campaignID, or unlinks them
// when it is nil. The campaign is checked before any lead is touched.
func (s *LeadService) BulkAssignCampaign(ctx context.Context, scope shared.Scope, ids []uuid.UUID, campaignID *uuid.UUID) (*bulk.Result, error) {
	if campaignID != nil {
		if err := s.ensureCampaign(ctx, scope, *campaignID); err != nil {
			return nil, err
		}
	}
	return s.runBulk(ctx, bulk.OperationAssignCampaign, ids, func(ctx context.Context, id uuid.UUID) error {
		lead, err := s.find(ctx, s.leads, scope, id)
		if err != nil {
			return err
		}
		lead.AssignCampaign(campaignID)
		return s.leads.Save(ctx, lead)
	})
}

// runBulk runs fn for every id with bounded concurrency. Item errors are
// recorded, never returned, so one failure does not cancel its siblings.
func (s *LeadService) runBulk(ctx context.Context, op bulk.Operation, ids []uuid.UUID, fn func(context.Context, uuid.UUID) error) (*bulk.Result, error) {
	if len(ids) == 0 {
		return nil, shared.ErrInvalidInput.WithDetails("ids cannot be empty")
	}
	if len(ids) > s.bulk.MaxItems {
		return nil, shared.ErrInvalidInput.WithDetails(fmt.Sprintf("at most %d ids per request", s.bulk.MaxItems))
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "LeadService", "Bulk",
		telemetry.WithAttribute("bulk.operation", string(op)),
		telemetry.WithAttribute("bulk.size", len(ids)))
	defer span.End()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	result := bulk.NewResult(op, keys)

	var g errgroup.Group
	g.SetLimit(s.bulk.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			result.Record(i, fn(ctx, id))
			return nil
		})
	}
	_ = g.Wait()

	summary := result.Summary()
	s.metrics.BulkItems.Add(ctx, int64(summary.Succeeded),
		attribute.String("operation", string(op)), attribute.String("outcome", "success"))
	s.metrics.BulkItems.Add(ctx, int64(summary.Failed),
		attribute.String("operation", string(op)), attribute.String("outcome", "failure"))
	telemetry.SetAttributes(span, "bulk.succeeded", summary.Succeeded, "bulk.failed", summary.Failed)

	s.logger.Info("Bulk lead operation finished",
		zap.String("operation", string(op)),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return result, nil
}

// Convert marks a lead converted. With CreateClientRecord the lead update and
// the client insert share one transaction.
func (s *LeadService) Convert(ctx context.Context, scope shared.Scope, req ConvertLeadRequest) (*ConvertResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "LeadService", "Convert",
		telemetry.WithAttribute("lead.id", req.LeadID.String()),
		telemetry.WithAttribute("lead.create_client", req.CreateClientRecord))
	defer span.End()

	if !req.CreateClientRecord {
		lead, err := s.find(ctx, s.leads, scope, req.LeadID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := lead.MarkConverted(nil); err != nil {
			return nil, err
		}
		if err := s.leads.Save(ctx, lead); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("save lead: %w", err)
		}
		s.metrics.LeadConversions.Inc(ctx, attribute.Bool("client_created", false))
		return &ConvertResult{Lead: ToLeadResponse(lead)}, nil
	}

	var (
		converted *crm.Lead
		clientID  uuid.UUID
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos crm.TxRepositories) error {
		lead, err := s.find(ctx, repos.Leads, scope, req.LeadID)
		if err != nil {
			return err
		}
		client, err := crm.NewClientFromLead(lead, scope.UserID)
		if err != nil {
			return err
		}
		if req.ClientName != "" || len(req.Tags) > 0 {
			patch := crm.ClientPatch{}
			if req.ClientName != "" {
				patch.Name = &req.ClientName
			}
			if len(req.Tags) > 0 {
				patch.Tags = &req.Tags
			}
			if err := client.Apply(patch); err != nil {
				return err
			}
		}
		if err := lead.MarkConverted(&client.ID); err != nil {
			return err
		}
		if err := repos.Clients.Save(ctx, client); err != nil {
			return fmt.Errorf("save client: %w", err)
		}
		if err := repos.Leads.Save(ctx, lead); err != nil {
			return fmt.Errorf("save lead: %w", err)
		}
		if err := repos.Events.Record(ctx, crm.NewLeadConvertedEvent(lead, client.ID, scope.UserID)); err != nil {
			return fmt.Errorf("record conversion: %w", err)
		}
		converted = lead
		clientID = client.ID
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Lead conversion rolled back",
			zap.String("lead_id", req.LeadID.String()), zap.Error(err))
		return nil, err
	}

	s.metrics.LeadConversions.Inc(ctx, attribute.Bool("client_created", true))
	s.logger.Info("Lead converted",
		zap.String("lead_id", converted.ID.String()),
		zap.String("client_id", clientID.String()))
	telemetry.SetOK(span)
	return &ConvertResult{Lead: ToLeadResponse(converted), ClientID: &clientID}, nil
}

func (s *LeadService) find(ctx context.Context, repo crm.LeadRepository, scope shared.Scope, id uuid.UUID) (*crm.Lead, error) {
	lead, err := repo.FindByID(ctx, scope.TenantID, scope.OrganizationID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return lead, nil
}

func (s *LeadService) ensureCampaign(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	ok, err := s.campaigns.ExistsByID(ctx, scope.TenantID, scope.OrganizationID, id)
	if err != nil {
		return fmt.Errorf("check campaign: %w", err)
	}
	if !ok {
		return ErrCampaignNotFound
	}
	return nil
}
