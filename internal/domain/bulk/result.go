// Package bulk holds the per-item result model shared by batch operations.
package bulk

import (
	"encoding/json"

	"github.com/mar-ia/crm/internal/domain/shared"
)

// Operation names the action a batch applies to every item
type Operation string

const (
	OperationDelete         Operation = "delete"
	OperationUpdate         Operation = "update"
	OperationAssignCampaign Operation = "assign_campaign"
	OperationCreate         Operation = "create"
	OperationImport         Operation = "import"
)

// ItemResult is the outcome of a single item in a batch
type ItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Result aggregates item outcomes. Items keep the order of the input IDs.
//
// Each index is written by exactly one worker, so Record needs no lock as long
// as callers honour that.
type Result struct {
	Operation Operation    `json:"operation"`
	Items     []ItemResult `json:"results"`
}

// NewResult prepares a result with one pending slot per id
func NewResult(op Operation, ids []string) *Result {
	items := make([]ItemResult, len(ids))
	for i, id := range ids {
		items[i] = ItemResult{ID: id}
	}
	return &Result{Operation: op, Items: items}
}

// Record stores the outcome of the item at index i
func (r *Result) Record(i int, err error) {
	if i < 0 || i >= len(r.Items) {
		return
	}
	if err == nil {
		r.Items[i].Success = true
		r.Items[i].Error = ""
		r.Items[i].Code = ""
		return
	}
	r.Items[i].Success = false
	r.Items[i].Error = err.Error()
	if de, ok := shared.AsDomainError(err); ok {
		r.Items[i].Code = de.Code
	}
}

// Total returns the number of items in the batch
func (r *Result) Total() int {
	return len(r.Items)
}

// Succeeded returns the number of successful items
func (r *Result) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed items
func (r *Result) Failed() int {
	return r.Total() - r.Succeeded()
}

// Summary is the aggregate part of the report
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summary returns the aggregate counts
func (r *Result) Summary() Summary {
	s := r.Succeeded()
	return Summary{Total: r.Total(), Succeeded: s, Failed: r.Total() - s}
}

// MarshalJSON adds the summary next to the item list
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Operation Operation    `json:"operation"`
		Summary   Summary      `json:"summary"`
		Items     []ItemResult `json:"results"`
	}{r.Operation, r.Summary(), r.Items})
}
