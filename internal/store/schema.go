package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Model describes how a model name maps onto storage.
type Model struct {
	Name       string
	Table      string
	PrimaryKey string
	// GenerateID assigns a random UUID string when Create omits the key.
	GenerateID bool
	// Timestamps maintains created_at and updated_at.
	Timestamps bool
	// Unique lists column sets that must be unique across the table.
	Unique [][]string
	// Tombstone marks tables carrying the deleted_at column.
	Tombstone bool
}

// PK returns the primary key column.
func (m Model) PK() string {
	if m.PrimaryKey == "" {
		return "id"
	}
	return m.PrimaryKey
}

// PrepareCreate returns a copy of data with generated id and timestamps.
func (m Model) PrepareCreate(data Record, now time.Time) Record {
	out := data.Clone()
	if out == nil {
		out = Record{}
	}
	if m.GenerateID {
		if id, ok := out[m.PK()]; !ok || isNil(id) || id == "" {
			out[m.PK()] = uuid.NewString()
		}
	}
	if m.Timestamps {
		if _, ok := out["created_at"]; !ok {
			out["created_at"] = now
		}
		out["updated_at"] = now
	}
	return out
}

// PrepareUpdate returns a copy of data with updated_at refreshed.
func (m Model) PrepareUpdate(data Record, now time.Time) Record {
	out := data.Clone()
	if out == nil {
		out = Record{}
	}
	if m.Timestamps {
		out["updated_at"] = now
	}
	return out
}

// Schema is the registry of known models.
type Schema struct {
	models map[string]Model
}

// NewSchema builds a Schema from models. Table defaults to the model name.
func NewSchema(models ...Model) *Schema {
	s := &Schema{models: make(map[string]Model, len(models))}
	for _, m := range models {
		if m.Table == "" {
			m.Table = m.Name
		}
		s.models[m.Name] = m
	}
	return s
}

// Lookup returns the model registered under name.
func (s *Schema) Lookup(name string) (Model, error) {
	if s != nil {
		if m, ok := s.models[name]; ok {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

// Names lists registered model names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
