package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	PostKeyPrefix       = "post:%d"
	ProfileKeyPrefix    = "profile:%d"
	ProfileByNamePrefix = "profile:name:%s"
	TagsKey             = "tags:all"
	postsListVersionKey = "posts:list:version"
	postsListKeyPrefix  = "posts:list:v%d:%s:%d:%d"
)

const (
	UserTTL      = 5 * time.Minute
	ProfileTTL   = 5 * time.Minute
	PostTTL      = 30 * time.Minute
	PostsListTTL = 1 * time.Minute
	TagsTTL      = 1 * time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func ProfileByNameKey(username string) string {
	return fmt.Sprintf(ProfileByNamePrefix, username)
}

// PostsListKey is versioned so any post write can drop every cached page at once.
func PostsListKey(ctx context.Context, tag string, limit, offset int) string {
	var version int64
	if client != nil {
		version, _ = client.Get(ctx, postsListVersionKey).Int64()
	}
	return fmt.Sprintf(postsListKeyPrefix, version, tag, limit, offset)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidatePostsList bumps the list version, orphaning every cached page.
func InvalidatePostsList(ctx context.Context) {
	if client != nil {
		client.Incr(ctx, postsListVersionKey)
	}
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	InvalidatePostsList(ctx)
}

// InvalidateAccount drops every key derived from a user's account and profile.
func InvalidateAccount(ctx context.Context, userID uint, username string) {
	keys := []string{UserKey(userID), ProfileKey(userID)}
	if username != "" {
		keys = append(keys, ProfileByNameKey(username))
	}
	Invalidate(ctx, keys...)
}
