package crm

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Communication history paging
const (
	DefaultCommunicationLimit = 50
	MaxCommunicationLimit     = 200
)

// DefaultPresignExpiration applies when the storage config leaves it unset
const DefaultPresignExpiration = 15 * time.Minute

// Errors specific to client operations
var (
	ErrClientNotFound  = shared.NewDomainError("CLIENT_NOT_FOUND", "Cliente no encontrado")
	ErrProfileNotFound = shared.NewDomainError("PROFILE_NOT_FOUND", "Perfil no encontrado")
	ErrAttachmentScope = shared.NewDomainError("INVALID_STORAGE_KEY", "El adjunto no pertenece a este cliente")
)

// ClientService handles clients and their document side
type ClientService struct {
	clients   crm.ClientRepository
	documents crm.ClientDocumentStore
	storage   AttachmentStorage
	presign   time.Duration
	logger    *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(
	clients crm.ClientRepository,
	documents crm.ClientDocumentStore,
	storage AttachmentStorage,
	presign time.Duration,
	logger *zap.Logger,
) *ClientService {
	if presign <= 0 {
		presign = DefaultPresignExpiration
	}
	return &ClientService{
		clients:   clients,
		documents: documents,
		storage:   storage,
		presign:   presign,
		logger:    logger,
	}
}

// List returns a page of clients in the scope
func (s *ClientService) List(ctx context.Context, scope shared.Scope, filter shared.Filter) (*shared.Paginated[ClientResponse], error) {
	filter = filter.Normalize()
	clients, total, err := s.clients.FindAll(ctx, scope.TenantID, scope.OrganizationID, filter)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	items := make([]ClientResponse, len(clients))
	for i := range clients {
		items[i] = ToClientResponse(&clients[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one client of the scope
func (s *ClientService) Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// Create adds a client stamped with the scope
func (s *ClientService) Create(ctx context.Context, scope shared.Scope, req CreateClientRequest) (*ClientResponse, error) {
	client, err := crm.NewClient(scope, crm.NewClientInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Tags:    req.Tags,
	})
	if err != nil {
		return nil, err
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("save client: %w", err)
	}
	s.logger.Info("Client created", zap.String("client_id", client.ID.String()))
	resp := ToClientResponse(client)
	return &resp, nil
}

// Update applies a partial update to a client
func (s *ClientService) Update(ctx context.Context, scope shared.Scope, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := client.Apply(req.Patch()); err != nil {
		return nil, err
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("save client: %w", err)
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// Delete removes a client. Its document side is left to expire with the
// tenant.
func (s *ClientService) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	if err := s.clients.Delete(ctx, scope.TenantID, scope.OrganizationID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("delete client: %w", err)
	}
	s.logger.Info("Client deleted", zap.String("client_id", id.String()))
	return nil
}

// RecordPayment appends a payment and raises the lifetime value
func (s *ClientService) RecordPayment(ctx context.Context, scope shared.Scope, id uuid.UUID, req RecordPaymentRequest) (*ClientResponse, error) {
	client, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}
	payment, err := client.RecordPayment(req.Amount, req.Currency, req.Reference, paidAt)
	if err != nil {
		return nil, err
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("save client: %w", err)
	}
	s.logger.Info("Payment recorded",
		zap.String("client_id", client.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("currency", payment.Currency))
	resp := ToClientResponse(client)
	return &resp, nil
}

// GetProfile returns the AI profile stored for a client
func (s *ClientService) GetProfile(ctx context.Context, scope shared.Scope, id uuid.UUID) (*crm.AIProfile, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	profile, err := s.documents.GetProfile(ctx, scope.TenantID, scope.OrganizationID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// SaveProfile replaces a client's AI profile
func (s *ClientService) SaveProfile(ctx context.Context, scope shared.Scope, id uuid.UUID, req ProfileRequest) (*crm.AIProfile, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	profile := crm.AIProfile{
		Personality:   strings.TrimSpace(req.Personality),
		Preferences:   nonNil(req.Preferences),
		BuyingSignals: nonNil(req.BuyingSignals),
		Sentiment:     req.Sentiment,
		Score:         req.Score,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.documents.SaveProfile(ctx, scope.TenantID, scope.OrganizationID, id, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &profile, nil
}

// AddCommunication appends one exchange to the client's history
func (s *ClientService) AddCommunication(ctx context.Context, scope shared.Scope, id uuid.UUID, req CommunicationRequest) (*crm.CommunicationRecord, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	record, err := crm.NewCommunicationRecord(crm.Channel(req.Channel), crm.Direction(req.Direction), req.Summary, req.Transcript)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Metadata {
		record.Metadata[k] = v
	}
	if err := s.documents.AppendCommunication(ctx, scope.TenantID, scope.OrganizationID, id, *record); err != nil {
		return nil, fmt.Errorf("append communication: %w", err)
	}
	return record, nil
}

// ListCommunications returns the most recent exchanges, newest first
func (s *ClientService) ListCommunications(ctx context.Context, scope shared.Scope, id uuid.UUID, limit int) ([]crm.CommunicationRecord, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultCommunicationLimit
	}
	if limit > MaxCommunicationLimit {
		limit = MaxCommunicationLimit
	}
	records, err := s.documents.ListCommunications(ctx, scope.TenantID, scope.OrganizationID, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	if records == nil {
		records = []crm.CommunicationRecord{}
	}
	return records, nil
}

// AttachmentUploadURL presigns an upload under the client's prefix
func (s *ClientService) AttachmentUploadURL(ctx context.Context, scope shared.Scope, id uuid.UUID, req AttachmentUploadRequest) (*AttachmentURL, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	name := SanitizeFileName(req.FileName)
	if name == "" {
		return nil, shared.ErrInvalidInput.WithDetails("fileName has no usable characters")
	}
	key := attachmentPrefix(scope, id) + uuid.NewString() + "-" + name
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, req.ContentType, s.presign)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &AttachmentURL{URL: url, StorageKey: key, ExpiresAt: expiresAt}, nil
}

// AttachmentDownloadURL presigns a download. The key must sit under the
// client's own prefix.
func (s *ClientService) AttachmentDownloadURL(ctx context.Context, scope shared.Scope, id uuid.UUID, storageKey string) (*AttachmentURL, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	clean := path.Clean(storageKey)
	if clean != storageKey || !strings.HasPrefix(clean, attachmentPrefix(scope, id)) {
		return nil, ErrAttachmentScope
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, clean, s.presign)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	return &AttachmentURL{URL: url, StorageKey: clean, ExpiresAt: expiresAt}, nil
}

func (s *ClientService) find(ctx context.Context, scope shared.Scope, id uuid.UUID) (*crm.Client, error) {
	client, err := s.clients.FindByID(ctx, scope.TenantID, scope.OrganizationID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return client, nil
}

func attachmentPrefix(scope shared.Scope, clientID uuid.UUID) string {
	return crm.ClientDocumentPath(scope.TenantID, scope.OrganizationID, clientID) + "/attachments/"
}

// SanitizeFileName strips accents and keeps letters, digits, dot, dash and
// underscore. Spaces become dashes.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	var b strings.Builder
	for _, r := range stripped {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if len(out) > 120 {
		out = out[len(out)-120:]
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
