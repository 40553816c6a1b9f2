package model

import (
	"time"

	"github.com/google/uuid"
)

type Plugin struct {
	Id               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name             string     `gorm:"type:varchar(255);not null"`
	Slug             string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description      string     `gorm:"type:text"`
	Status           string     `gorm:"type:plugin_status;not null;default:'active'"`
	HasPlan          bool       `gorm:"default:false"`
	CurrentVersionId *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`

	// Relations
	Versions []*PluginVersion `gorm:"foreignKey:PluginId"`
}

func (Plugin) TableName() string {
	return "plugins"
}

type PluginVersion struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PluginId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Number     string    `gorm:"type:varchar(50);not null"`
	Changelog  string    `gorm:"type:text"`
	ReleasedAt time.Time `gorm:"not null"`
}

func (PluginVersion) TableName() string {
	return "plugin_versions"
}
