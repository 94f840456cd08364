package model

import (
	"errors"
	"time"
)

// Tool is a tracked tool in the register. Holder and Location are written
// together by custody updates.
type Tool struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code,omitempty"`
	Name        string     `json:"name"`
	Holder      string     `json:"holder"`
	Location    string     `json:"location"`
	LastUpdated string     `json:"last_updated"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// HasImage reports whether a photo is stored for the tool.
func (t *Tool) HasImage() bool {
	return t.ImageMime != ""
}

// DateLayout is the format of Tool.LastUpdated.
const DateLayout = "2006-01-02"

// ErrToolNotFound is returned when a write targets a tool that does not exist
// or has been deleted.
var ErrToolNotFound = errors.New("tool not found")

// ErrInvalidFilter is returned for a ToolFilter naming an unknown field or
// match mode. Retrying it cannot succeed.
var ErrInvalidFilter = errors.New("invalid tool filter")

// Searchable tool fields.
const (
	FieldCode   = "code"
	FieldName   = "name"
	FieldHolder = "holder"
)

// Match selects how a ToolFilter compares values.
type Match int

const (
	// MatchEquals is exact equality.
	MatchEquals Match = iota
	// MatchContains is case-insensitive substring containment.
	MatchContains
)

// ToolFilter is a single-field predicate over tools.
type ToolFilter struct {
	Field string
	Match Match
	Value string
}

// ToolUpdate is a custody write. Source identifies the inbound event that
// caused it and is recorded in the custody log.
type ToolUpdate struct {
	Holder      string
	Location    string
	LastUpdated time.Time
	Source      string
}
