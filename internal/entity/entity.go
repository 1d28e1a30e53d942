// Package entity implements Edison's generic file-per-entity engine:
// a typed header (frontmatter) plus a markdown body, a declared state
// machine, and a guard-checked transition operation shared by every
// entity kind (tasks and sessions).
package entity

import "time"

// Edge is one relationship from an entity to another.
type Edge struct {
	Type   string `yaml:"type"`
	Target string `yaml:"target"`
}

// Header is the common frontmatter every entity kind embeds. Concrete
// entity types (Task, Session) compose Header plus their own
// typed fields.
type Header struct {
	ID            string    `yaml:"id"`
	Type          string    `yaml:"entity_type"`
	Status        string    `yaml:"status"`
	CreatedAt     time.Time `yaml:"created_at"`
	UpdatedAt     time.Time `yaml:"updated_at"`
	Relationships []Edge    `yaml:"relationships,omitempty"`
}

// Entity is implemented by every concrete entity type so the generic
// engine can read/write the parts it needs without knowing the rest of
// the struct.
type Entity interface {
	GetHeader() *Header
	// Body returns the current markdown body, including any
	// EXTENSIBLE-marked regions, verbatim.
	Body() string
	SetBody(string)
}

// GetHeader satisfies Entity for types that embed Header directly.
func (h *Header) GetHeader() *Header { return h }
