package cache

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	ProfileKeyPrefix   = "profile:%s"
	CommunityKeyPrefix = "community:%s"
	ChargemapKeyPrefix = "chargemap:%.2f:%.2f:%d:%d"
	RevokedTokenPrefix = "blacklist:%s"
)

const (
	ProfileTTL   = 5 * time.Minute
	CommunityTTL = 10 * time.Minute
	ChargemapTTL = 10 * time.Minute
)

func ProfileKey(userID string) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func CommunityKey(slug string) string {
	return fmt.Sprintf(CommunityKeyPrefix, slug)
}

// ChargemapKey rounds coordinates to roughly one kilometre so nearby lookups share an entry.
func ChargemapKey(lat, lng float64, distanceKm, maxResults int) string {
	return fmt.Sprintf(ChargemapKeyPrefix, round2(lat), round2(lng), distanceKm, maxResults)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenPrefix, jti)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateProfile(ctx context.Context, userID string) {
	Invalidate(ctx, ProfileKey(userID))
}

func InvalidateCommunity(ctx context.Context, slug string) {
	Invalidate(ctx, CommunityKey(slug))
}
