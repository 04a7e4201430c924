package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClientStatus represents the status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusChurned  ClientStatus = "churned"
)

// IsValid checks if the status is known
func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusChurned:
		return true
	}
	return false
}

// DefaultCurrency is used when a payment does not name one
const DefaultCurrency = "EUR"

// Payment is one entry of a client's payment history
type Payment struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	PaidAt    time.Time
	Reference string
}

// Client is a converted, paying customer
type Client struct {
	shared.ScopedEntity
	Name          string
	Email         string
	Phone         string
	Company       string
	LeadID        *uuid.UUID
	Status        ClientStatus
	LifetimeValue decimal.Decimal
	Payments      []Payment
	Tags          []string
}

// NewClientInput carries the fields accepted on creation
type NewClientInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Tags    []string
}

// NewClient creates an active client stamped with scope
func NewClient(scope shared.Scope, in NewClientInput) (*Client, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		ScopedEntity:  shared.NewScopedEntity(scope),
		Name:          strings.TrimSpace(in.Name),
		Email:         identity.NormalizeEmail(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
		Company:       strings.TrimSpace(in.Company),
		Status:        ClientStatusActive,
		LifetimeValue: decimal.Zero,
		Payments:      make([]Payment, 0),
		Tags:          normalizeTags(in.Tags),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClientFromLead builds the client record produced by a lead conversion.
// The client inherits the lead's scope, not the caller's.
func NewClientFromLead(lead *Lead, createdBy uuid.UUID) (*Client, error) {
	scope := shared.Scope{
		TenantID:       lead.TenantID,
		OrganizationID: lead.OrganizationID,
		UserID:         createdBy,
	}
	name := lead.FullName()
	if lead.Company != "" && name == "" {
		name = lead.Company
	}
	c, err := NewClient(scope, NewClientInput{
		Name:    name,
		Email:   lead.Email,
		Phone:   lead.Phone,
		Company: lead.Company,
	})
	if err != nil {
		return nil, err
	}
	leadID := lead.ID
	c.LeadID = &leadID
	return c, nil
}

func (c *Client) validate() error {
	if c.Name == "" {
		return shared.NewDomainError("INVALID_CLIENT_NAME", "Client name is required")
	}
	if len(c.Name) > 200 {
		return shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot exceed 200 characters")
	}
	if c.Email != "" {
		if err := identity.ValidateEmail(c.Email); err != nil {
			return err
		}
	}
	if len(c.Phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if !c.Status.IsValid() {
		return shared.NewDomainError("INVALID_CLIENT_STATUS", "Unknown client status")
	}
	return nil
}

// ClientPatch lists optional field changes
type ClientPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Status  *ClientStatus
	Tags    *[]string
}

// Apply applies the patch atomically
func (c *Client) Apply(p ClientPatch) error {
	next := *c
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		next.Email = identity.NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		next.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Company != nil {
		next.Company = strings.TrimSpace(*p.Company)
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Tags != nil {
		next.Tags = normalizeTags(*p.Tags)
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.Touch()
	*c = next
	return nil
}

// RecordPayment appends a payment and adds it to the lifetime value
func (c *Client) RecordPayment(amount decimal.Decimal, currency, reference string, paidAt time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	p := Payment{
		ID:        uuid.New(),
		Amount:    amount,
		Currency:  currency,
		PaidAt:    paidAt,
		Reference: strings.TrimSpace(reference),
	}
	c.Payments = append(c.Payments, p)
	c.LifetimeValue = c.LifetimeValue.Add(amount)
	c.Touch()
	return &p, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
