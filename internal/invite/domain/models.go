// Package domain contains the invite entity and service contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invite grants the holder of its token the ability to join an organization.
// IsAccepted flips to true exactly once, at redemption; records are never
// deleted by this service.
type Invite struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Token      string       `gorm:"type:text;not null;uniqueIndex:ux_invites_token" json:"token"`
	OrgID      snowflake.ID `gorm:"not null;index;column:org_id" json:"organization_id"`
	Email      string       `gorm:"type:text" json:"email"`
	IsGeneric  bool         `gorm:"not null;default:false" json:"is_generic"`
	IsAccepted bool         `gorm:"not null;default:false" json:"is_accepted"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invite) TableName() string { return "invites" }
