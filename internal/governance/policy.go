// Package governance declares which models are subject to soft delete and
// audit capture. Governance is decided by model name alone; call sites never
// opt in per operation.
package governance

import (
	"github.com/agrocrm/backoffice/internal/store"
)

// Policy configures the soft-delete and audit interception layers.
type Policy struct {
	SoftDelete      map[string]bool
	Audited         map[string]bool
	DeletedAtColumn string
	// AuditModel is never audited, whatever Audited says.
	AuditModel string
	// StatusFields are the payload keys inspected for approval outcomes.
	StatusFields []string
}

// Default returns the back-office policy: sensitive, long-lived entities are
// soft-deleted and audited; Sale and Interaction pass through untouched.
func Default() Policy {
	governed := []string{
		store.ModelUser,
		store.ModelEmployee,
		store.ModelCustomer,
		store.ModelProduct,
		store.ModelStock,
		store.ModelProductImage,
		store.ModelRoleDefinition,
		store.ModelPermission,
		store.ModelRolePermission,
	}
	return New(governed, governed)
}

// New builds a Policy with the default column names.
func New(softDelete, audited []string) Policy {
	p := Policy{
		SoftDelete:      make(map[string]bool, len(softDelete)),
		Audited:         make(map[string]bool, len(audited)),
		DeletedAtColumn: store.DeletedAtColumn,
		AuditModel:      store.ModelAuditLog,
		StatusFields:    DefaultStatusFields(),
	}
	for _, m := range softDelete {
		p.SoftDelete[m] = true
	}
	for _, m := range audited {
		p.Audited[m] = true
	}
	return p
}

// DefaultStatusFields are the payload keys that carry approval outcomes.
func DefaultStatusFields() []string {
	return []string{"status", "approvalStatus", "approval_status", "state"}
}

// SoftDeletes reports whether deletes of model are redirected.
func (p Policy) SoftDeletes(model string) bool {
	return p.SoftDelete[model]
}

// Audits reports whether mutations of model are captured.
func (p Policy) Audits(model string) bool {
	if model == p.AuditModel {
		return false
	}
	return p.Audited[model]
}

// Column returns the deleted-at column name.
func (p Policy) Column() string {
	if p.DeletedAtColumn == "" {
		return store.DeletedAtColumn
	}
	return p.DeletedAtColumn
}

// Validate checks that every governed model exists in schema.
func (p Policy) Validate(schema *store.Schema) error {
	for m := range p.SoftDelete {
		if _, err := schema.Lookup(m); err != nil {
			return err
		}
	}
	for m := range p.Audited {
		if _, err := schema.Lookup(m); err != nil {
			return err
		}
	}
	return nil
}
