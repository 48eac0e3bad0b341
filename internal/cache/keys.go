package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PropertyKeyPrefix       = "property:%d"
	PublishedPostsKeyPrefix = "posts:published:%d"
	PublishedPostsPattern   = "posts:published:*"
	UserKeyPrefix           = "user:%d"
	SessionBlacklistPrefix  = "session_blacklist:%s"
)

const (
	PropertyTTL       = 10 * time.Minute
	PublishedPostsTTL = 2 * time.Minute
	UserTTL           = 5 * time.Minute
)

func PropertyKey(id uint) string {
	return fmt.Sprintf(PropertyKeyPrefix, id)
}

func PublishedPostsKey(limit int) string {
	return fmt.Sprintf(PublishedPostsKeyPrefix, limit)
}

func UserKey(id uint) string {
	return fmt.Sprintf(UserKeyPrefix, id)
}

func SessionBlacklistKey(jti string) string {
	return fmt.Sprintf(SessionBlacklistPrefix, jti)
}

// Invalidate deletes keys, ignoring errors.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateProperty(ctx context.Context, id uint) {
	Invalidate(ctx, PropertyKey(id))
}

func InvalidateUser(ctx context.Context, id uint) {
	Invalidate(ctx, UserKey(id))
}

// InvalidatePublishedPosts drops every cached page of the published feed.
func InvalidatePublishedPosts(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, PublishedPostsPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	Invalidate(ctx, keys...)
}
