// FILE: internal/dto/access_dto.go
package dto

import "github.com/google/uuid"

type AccessCheckRequest struct {
	PluginId       uuid.UUID  `json:"plugin_id" validate:"required"`
	TenantId       uuid.UUID  `json:"tenant_id" validate:"required"`
	OrganizationId *uuid.UUID `json:"organization_id,omitempty"`
	UserId         *uuid.UUID `json:"user_id,omitempty"`
}

// AccessDecisionResponse is a structured answer, never an error: a denied
// check carries SubscriptionRequired=true so callers can redirect to a
// payment flow instead of treating the condition as a failure.
type AccessDecisionResponse struct {
	Granted              bool       `json:"granted"`
	Scope                string     `json:"scope,omitempty"`
	SubscriptionId       *uuid.UUID `json:"subscription_id,omitempty"`
	SubscriptionRequired bool       `json:"subscription_required"`
}
