// FILE: internal/entity/plugin_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type PluginStatus string

const (
	PluginStatusActive     PluginStatus = "active"
	PluginStatusInactive   PluginStatus = "inactive"
	PluginStatusDeprecated PluginStatus = "deprecated"
	PluginStatusArchived   PluginStatus = "archived"
)

// Plugin is a distributable marketplace unit. Plugins without a plan
// (HasPlan=false) are free and never gated by the access evaluator.
type Plugin struct {
	Id               uuid.UUID
	TenantId         uuid.UUID
	Name             string
	Slug             string
	Description      string
	Status           PluginStatus
	HasPlan          bool
	CurrentVersionId *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Relations
	Versions []PluginVersion
}

type PluginVersion struct {
	Id         uuid.UUID
	PluginId   uuid.UUID
	Number     string
	Changelog  string
	ReleasedAt time.Time
}
