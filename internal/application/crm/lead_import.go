package crm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/bulk"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/shared"
	csvimport "github.com/mar-ia/crm/internal/infrastructure/import"
	"github.com/mar-ia/crm/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidImportFile is returned when the upload cannot be read as a lead CSV
var ErrInvalidImportFile = shared.NewDomainError("INVALID_IMPORT_FILE", "Import file is not a valid lead CSV")

// Canonical lead import columns
const (
	colFirstName = "firstName"
	colLastName  = "lastName"
	colEmail     = "email"
	colPhone     = "phone"
	colCompany   = "company"
	colPriority  = "priority"
	colScore     = "score"
	colNotes     = "notes"
)

// leadHeaderAliases accepts the spellings spreadsheets exported from the
// frontend and common CRMs use
var leadHeaderAliases = map[string]string{
	"firstname": colFirstName, "nombre": colFirstName, "name": colFirstName,
	"lastname": colLastName, "apellido": colLastName, "apellidos": colLastName,
	"email": colEmail, "correo": colEmail, "correoelectronico": colEmail,
	"phone": colPhone, "telefono": colPhone, "movil": colPhone,
	"company": colCompany, "empresa": colCompany, "compania": colCompany,
	"priority": colPriority, "prioridad": colPriority,
	"score": colScore, "puntuacion": colScore,
	"notes": colNotes, "notas": colNotes,
}

var leadImportRules = []csvimport.FieldRule{
	csvimport.Field(colFirstName).Required().MaxLength(100).Build(),
	csvimport.Field(colLastName).MaxLength(100).Build(),
	csvimport.Field(colEmail).Email().Unique().MaxLength(200).Build(),
	csvimport.Field(colPhone).MaxLength(50).Build(),
	csvimport.Field(colCompany).MaxLength(200).Build(),
	csvimport.Field(colPriority).OneOf(
		string(crm.LeadPriorityLow), string(crm.LeadPriorityMedium),
		string(crm.LeadPriorityHigh), string(crm.LeadPriorityUrgent)).Build(),
	csvimport.Field(colScore).Int().Range(0, 100).Build(),
}

// ImportLeadsOptions tunes an import
type ImportLeadsOptions struct {
	CampaignID *uuid.UUID
	// DryRun validates every row without saving
	DryRun bool
}

// LeadImportResult reports what happened to each row
type LeadImportResult struct {
	DryRun          bool                 `json:"dryRun"`
	TotalRows       int                  `json:"totalRows"`
	Imported        int                  `json:"imported"`
	Failed          int                  `json:"failed"`
	LeadIDs         []uuid.UUID          `json:"leadIds,omitempty"`
	Errors          []csvimport.RowError `json:"errors,omitempty"`
	ErrorsTruncated bool                 `json:"errorsTruncated,omitempty"`
}

// Import creates one lead per valid CSV row with source "import". Row
// problems are reported in the result and never fail the whole upload.
func (s *LeadService) Import(ctx context.Context, scope shared.Scope, r io.Reader, opts ImportLeadsOptions) (*LeadImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "LeadService", "Import",
		telemetry.WithAttribute("import.dry_run", opts.DryRun))
	defer span.End()

	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if opts.CampaignID != nil {
		if err := s.ensureCampaign(ctx, scope, *opts.CampaignID); err != nil {
			return nil, err
		}
	}

	processor := csvimport.NewImportProcessor(
		csvimport.WithAliases(leadHeaderAliases),
		csvimport.WithProcessorMaxRows(s.bulk.MaxItems),
	)
	validated, err := processor.Validate(ctx, r, leadImportRules)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, ErrInvalidImportFile.WithDetails(err.Error())
	}
	errs := validated.Errors

	type pending struct {
		line int
		lead *crm.Lead
	}
	var leads []pending
	for _, row := range validated.ValidRows {
		lead, err := leadFromRow(scope, row)
		if err != nil {
			errs.Add(rowErrorFrom(row.LineNumber, err))
			continue
		}
		lead.AssignCampaign(opts.CampaignID)
		leads = append(leads, pending{line: row.LineNumber, lead: lead})
	}

	result := &LeadImportResult{DryRun: opts.DryRun, TotalRows: validated.TotalRows}
	if !opts.DryRun && len(leads) > 0 {
		saved := make([]bool, len(leads))
		var mu sync.Mutex
		var g errgroup.Group
		g.SetLimit(s.bulk.Concurrency)
		for i, p := range leads {
			g.Go(func() error {
				if err := s.leads.Save(ctx, p.lead); err != nil {
					mu.Lock()
					errs.Add(rowErrorFrom(p.line, err))
					mu.Unlock()
					return nil
				}
				saved[i] = true
				return nil
			})
		}
		_ = g.Wait()
		for i, ok := range saved {
			if ok {
				result.LeadIDs = append(result.LeadIDs, leads[i].lead.ID)
			}
		}
		result.Imported = len(result.LeadIDs)
	}
	if opts.DryRun {
		result.Imported = len(leads)
	}
	result.Failed = result.TotalRows - result.Imported
	result.Errors = errs.Errors()
	result.ErrorsTruncated = errs.IsTruncated()

	op := string(bulk.OperationImport)
	s.metrics.BulkItems.Add(ctx, int64(result.Imported),
		attribute.String("operation", op), attribute.String("outcome", "success"))
	s.metrics.BulkItems.Add(ctx, int64(result.Failed),
		attribute.String("operation", op), attribute.String("outcome", "failure"))
	telemetry.SetAttributes(span, "import.rows", result.TotalRows, "import.imported", result.Imported)

	s.logger.Info("Lead import finished",
		zap.String("organization_id", scope.OrganizationID.String()),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("rows", result.TotalRows),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))
	return result, nil
}

func leadFromRow(scope shared.Scope, row *csvimport.Row) (*crm.Lead, error) {
	score := 0
	if v := row.Get(colScore); v != "" {
		// already checked by the rules
		score, _ = strconv.Atoi(v)
	}
	priority := crm.LeadPriority("")
	if v := row.Get(colPriority); v != "" {
		priority = crm.LeadPriority(strings.ToLower(v))
	}
	return crm.NewLead(scope, crm.NewLeadInput{
		FirstName: row.Get(colFirstName),
		LastName:  row.Get(colLastName),
		Email:     row.Get(colEmail),
		Phone:     row.Get(colPhone),
		Company:   row.Get(colCompany),
		Priority:  priority,
		Source:    crm.LeadSourceImport,
		Score:     score,
		Notes:     row.Get(colNotes),
	})
}

func rowErrorFrom(line int, err error) csvimport.RowError {
	if de, ok := shared.AsDomainError(err); ok {
		return csvimport.RowError{Row: line, Code: de.Code, Message: de.Message}
	}
	return csvimport.RowError{Row: line, Code: "SAVE_FAILED", Message: fmt.Sprintf("could not save lead: %v", err)}
}
