package model

import "time"

// CustodyChange is one entry of a tool's custody log.
type CustodyChange struct {
	ID         int64     `json:"id"`
	ToolID     int64     `json:"tool_id"`
	FromHolder string    `json:"from_holder"`
	ToHolder   string    `json:"to_holder"`
	Source     string    `json:"source,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`

	// Joined field (not always populated).
	ToolName string `json:"tool_name,omitempty"`
}
