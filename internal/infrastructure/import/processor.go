package csvimport

import (
	"context"
	"io"
)

// ImportProcessor parses a CSV stream and validates every row
type ImportProcessor struct {
	maxRows   int
	maxErrors int
	aliases   map[string]string
}

// ProcessorOption is a functional option for ImportProcessor
type ProcessorOption func(*ImportProcessor)

// WithProcessorMaxRows caps the number of data rows
func WithProcessorMaxRows(rows int) ProcessorOption {
	return func(p *ImportProcessor) {
		p.maxRows = rows
	}
}

// WithMaxErrors caps the number of errors kept in the result
func WithMaxErrors(n int) ProcessorOption {
	return func(p *ImportProcessor) {
		p.maxErrors = n
	}
}

// WithAliases sets header aliases handed to the parser
func WithAliases(aliases map[string]string) ProcessorOption {
	return func(p *ImportProcessor) {
		p.aliases = aliases
	}
}

// NewImportProcessor creates a processor with 10000 rows and 100 errors as
// default caps
func NewImportProcessor(opts ...ProcessorOption) *ImportProcessor {
	p := &ImportProcessor{maxRows: 10000, maxErrors: 100}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ValidationResult is the outcome of Validate. Rows that failed any rule
// are not in ValidRows.
type ValidationResult struct {
	TotalRows int
	ValidRows []*Row
	Errors    *ErrorCollection
}

// InvalidRows returns the number of data rows that failed validation
func (r *ValidationResult) InvalidRows() int {
	return r.TotalRows - len(r.ValidRows)
}

// Validate reads reader to the end. File level problems (encoding, header,
// row cap) are returned as errors; row level problems land in the result.
func (p *ImportProcessor) Validate(ctx context.Context, reader io.Reader, rules []FieldRule) (*ValidationResult, error) {
	parser, err := NewCSVParser(reader, WithHeaderAliases(p.aliases), WithMaxRows(p.maxRows))
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	errs := NewErrorCollection(p.maxErrors)
	validator := NewFieldValidator(rules, errs)
	if missing := parser.MissingHeaders(validator.RequiredColumns()); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	rows, err := parser.ReadAllRows(errs)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{TotalRows: parser.TotalRows(), Errors: errs}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if validator.ValidateRow(row) {
			result.ValidRows = append(result.ValidRows, row)
		}
	}
	return result, nil
}
