package csvimport

import (
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeEmail   FieldType = "email"
	TypeUUID    FieldType = "uuid"
)

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column     string
	Type       FieldType
	Required   bool
	MaxLength  int
	MinValue   *decimal.Decimal
	MaxValue   *decimal.Decimal
	OneOf      []string // compared case-insensitively
	Unique     bool     // within the file, case-insensitive
	CustomFunc func(value string) error
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new string rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int expects a whole number
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal expects a decimal number
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Email expects an email address
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Type = TypeEmail
	return b
}

// UUID expects a UUID
func (b *FieldRuleBuilder) UUID() *FieldRuleBuilder {
	b.rule.Type = TypeUUID
	return b
}

// MaxLength caps the value length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Range bounds a numeric value, both ends included
func (b *FieldRuleBuilder) Range(min, max int64) *FieldRuleBuilder {
	lo, hi := decimal.NewFromInt(min), decimal.NewFromInt(max)
	b.rule.MinValue, b.rule.MaxValue = &lo, &hi
	return b
}

// OneOf restricts the value to a fixed set
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

// Unique rejects values repeated within the file
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Custom adds a custom check run after the built-in ones
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator checks rows against rules, in rule order
type FieldValidator struct {
	rules  []FieldRule
	seen   map[string]map[string]int // column -> folded value -> first row
	errors *ErrorCollection
}

// NewFieldValidator creates a validator that reports into errs
func NewFieldValidator(rules []FieldRule, errs *ErrorCollection) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		seen:   make(map[string]map[string]int),
		errors: errs,
	}
}

// RequiredColumns lists the columns of required rules
func (v *FieldValidator) RequiredColumns() []string {
	var cols []string
	for _, r := range v.rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// ValidateRow reports every problem in row and returns true when there was none
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		if err := v.check(row, rule); err != nil {
			v.errors.Add(*err)
			ok = false
		}
	}
	return ok
}

func (v *FieldValidator) check(row *Row, rule FieldRule) *RowError {
	value := row.Get(rule.Column)
	fail := func(code, msg string) *RowError {
		return &RowError{Row: row.LineNumber, Column: rule.Column, Code: code, Message: msg, Value: value}
	}

	if value == "" {
		if rule.Required {
			return fail(CodeRequired, "value is required")
		}
		return nil
	}
	if err := validateType(value, rule.Type); err != nil {
		return fail(CodeInvalidType, fmt.Sprintf("expected %s", rule.Type))
	}
	if rule.MaxLength > 0 && len([]rune(value)) > rule.MaxLength {
		return fail(CodeInvalidLength, fmt.Sprintf("at most %d characters", rule.MaxLength))
	}
	if rule.MinValue != nil || rule.MaxValue != nil {
		d, _ := decimal.NewFromString(value)
		if (rule.MinValue != nil && d.LessThan(*rule.MinValue)) || (rule.MaxValue != nil && d.GreaterThan(*rule.MaxValue)) {
			return fail(CodeInvalidRange, fmt.Sprintf("must be between %s and %s", rule.MinValue, rule.MaxValue))
		}
	}
	if len(rule.OneOf) > 0 && !slices.ContainsFunc(rule.OneOf, func(s string) bool { return strings.EqualFold(s, value) }) {
		return fail(CodeInvalidValue, "must be one of "+strings.Join(rule.OneOf, ", "))
	}
	if rule.Unique {
		key := strings.ToLower(value)
		if v.seen[rule.Column] == nil {
			v.seen[rule.Column] = make(map[string]int)
		}
		if first, dup := v.seen[rule.Column][key]; dup {
			return fail(CodeDuplicate, fmt.Sprintf("duplicates row %d", first))
		}
		v.seen[rule.Column][key] = row.LineNumber
	}
	if rule.CustomFunc != nil {
		if err := rule.CustomFunc(value); err != nil {
			return fail(CodeInvalidFormat, err.Error())
		}
	}
	return nil
}

func validateType(value string, t FieldType) error {
	switch t {
	case TypeInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err
	case TypeEmail:
		addr, err := mail.ParseAddress(value)
		if err == nil && addr.Address != value {
			return fmt.Errorf("display names are not allowed")
		}
		return err
	case TypeUUID:
		_, err := uuid.Parse(value)
		return err
	}
	return nil
}
