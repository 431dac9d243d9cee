package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache key builders and TTLs for the entities the read path serves hot.
// Writes must invalidate through the helpers below.

const (
	UserTTL       = 10 * time.Minute
	ResourceTTL   = 2 * time.Minute
	VolunteersTTL = 60 * time.Second
)

func UserKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func ResourceKey(id uint) string {
	return fmt.Sprintf("resource:%d", id)
}

// VolunteersKey caches the annotated volunteer listing as a whole.
func VolunteersKey() string {
	return "volunteers:all"
}

func InvalidateUser(ctx context.Context, id uint) {
	if client == nil {
		return
	}
	client.Del(ctx, UserKey(id), VolunteersKey())
}

func InvalidateResource(ctx context.Context, id uint) {
	if client == nil {
		return
	}
	client.Del(ctx, ResourceKey(id))
}

// InvalidateVolunteers drops the aggregated volunteer listing. Called when
// a request transition changes an approval count.
func InvalidateVolunteers(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, VolunteersKey())
}
