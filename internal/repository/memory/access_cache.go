package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"plugin-billing-be/internal/entity"
)

// AccessDecision is a cached answer from the access evaluator.
type AccessDecision struct {
	Granted        bool
	Scope          entity.SubscriptionScope
	SubscriptionId *uuid.UUID
}

// AccessCache keeps recent access decisions so the evaluator stays cheap
// enough to run per-request. Entries expire quickly; lifecycle mutations
// also invalidate by plugin+tenant prefix.
type AccessCache struct {
	cache *cache.Cache
}

func NewAccessCache(ttl time.Duration) *AccessCache {
	return &AccessCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func key(pluginId, tenantId uuid.UUID, orgId, userId *uuid.UUID) string {
	org, user := "", ""
	if orgId != nil {
		org = orgId.String()
	}
	if userId != nil {
		user = userId.String()
	}
	return fmt.Sprintf("%s:%s:%s:%s", pluginId, tenantId, org, user)
}

func (c *AccessCache) Get(pluginId, tenantId uuid.UUID, orgId, userId *uuid.UUID) (*AccessDecision, bool) {
	if x, found := c.cache.Get(key(pluginId, tenantId, orgId, userId)); found {
		return x.(*AccessDecision), true
	}
	return nil, false
}

func (c *AccessCache) Set(pluginId, tenantId uuid.UUID, orgId, userId *uuid.UUID, decision *AccessDecision) {
	c.cache.Set(key(pluginId, tenantId, orgId, userId), decision, cache.DefaultExpiration)
}

// InvalidatePlugin drops every cached decision for one plugin+tenant pair.
// go-cache has no prefix delete, so we scan; entry counts are small and TTLs
// short, this stays cheap.
func (c *AccessCache) InvalidatePlugin(pluginId, tenantId uuid.UUID) {
	prefix := fmt.Sprintf("%s:%s:", pluginId, tenantId)
	for k := range c.cache.Items() {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			c.cache.Delete(k)
		}
	}
}
