package rbac

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRoleCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)

	_, ok, err := cache.Get(t.Context(), 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(t.Context(), 7, []Role{RoleUnionAdmin, RoleDeveloper}))

	roles, ok, err := cache.Get(t.Context(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []Role{RoleUnionAdmin, RoleDeveloper}, roles)

	require.NoError(t, cache.Invalidate(t.Context(), 7))
	_, ok, err = cache.Get(t.Context(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRoleCacheEmptySet(t *testing.T) {
	cache := newTestCache(t)

	// An empty role set is a valid cached value, not a miss.
	require.NoError(t, cache.Put(t.Context(), 7, nil))
	roles, ok, err := cache.Get(t.Context(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, roles)
}

func TestRedisRoleCacheClear(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisRoleCache(client, time.Minute)

	for id := int64(1); id <= 5; id++ {
		require.NoError(t, cache.Put(t.Context(), id, []Role{RoleClubMember}))
	}
	// An unrelated key must survive the clear.
	require.NoError(t, client.Set(t.Context(), "session:abc", "x", 0).Err())

	require.NoError(t, cache.Clear(t.Context()))

	for id := int64(1); id <= 5; id++ {
		_, ok, err := cache.Get(t.Context(), id)
		require.NoError(t, err)
		assert.False(t, ok, fmt.Sprintf("user %d", id))
	}
	assert.True(t, mr.Exists("session:abc"))
}

func TestRedisRoleCacheCorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisRoleCache(client, time.Minute)

	require.NoError(t, mr.Set(roleCacheKey(7), "{not json"))

	_, ok, err := cache.Get(t.Context(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(roleCacheKey(7)), "corrupt entry must be dropped")
}
