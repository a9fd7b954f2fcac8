package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// MembershipReader is the read contract the resolver needs from the
// membership store.
type MembershipReader interface {
	GlobalRoles(ctx context.Context, userID int64) ([]Role, error)
	ClubRoles(ctx context.Context, userID, clubID int64) ([]Role, error)
}

// Resolver computes the role sets a user holds. Global roles go through
// the cache; club roles are cheap, change often and are re-queried on
// every call.
type Resolver struct {
	store  MembershipReader
	cache  RoleCache
	logger *slog.Logger
	group  singleflight.Group
}

// NewResolver constructs a Resolver. cache may be nil to disable caching.
func NewResolver(store MembershipReader, cache RoleCache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, cache: cache, logger: logger}
}

// GlobalRoles returns the user's club-independent roles, cache-or-compute.
// Concurrent misses for the same user collapse into one store query.
func (r *Resolver) GlobalRoles(ctx context.Context, userID int64) ([]Role, error) {
	if r.cache != nil {
		roles, ok, err := r.cache.Get(ctx, userID)
		if err != nil {
			// A broken cache degrades to a store read.
			r.logger.Warn("role cache read failed", slog.Int64("user_id", userID), slog.Any("error", err))
		} else if ok {
			return roles, nil
		}
	}

	ch := r.group.DoChan(strconv.FormatInt(userID, 10), func() (any, error) {
		roles, err := r.store.GlobalRoles(ctx, userID)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			if err := r.cache.Put(ctx, userID, roles); err != nil {
				r.logger.Warn("role cache write failed", slog.Int64("user_id", userID), slog.Any("error", err))
			}
		}
		return roles, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("rbac: resolve global roles: %w", res.Err)
		}
		return res.Val.([]Role), nil
	}
}

// ClubRoles returns the roles the user holds within one club.
func (r *Resolver) ClubRoles(ctx context.Context, userID, clubID int64) ([]Role, error) {
	roles, err := r.store.ClubRoles(ctx, userID, clubID)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve club roles: %w", err)
	}
	return roles, nil
}

// EffectiveRoles returns the union of global and club roles. With a nil
// clubID it is exactly the global set; club roles never leak into the
// global-only view.
func (r *Resolver) EffectiveRoles(ctx context.Context, userID int64, clubID *int64) ([]Role, error) {
	global, err := r.GlobalRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if clubID == nil {
		return sortedRoles(global), nil
	}
	club, err := r.ClubRoles(ctx, userID, *clubID)
	if err != nil {
		return nil, err
	}
	return unionRoles(global, club), nil
}

// Invalidate drops the user's cached role set. Mutating services call
// this as part of every membership change.
func (r *Resolver) Invalidate(ctx context.Context, userID int64) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Invalidate(ctx, userID)
}

func unionRoles(a, b []Role) []Role {
	seen := make(map[Role]struct{}, len(a)+len(b))
	out := make([]Role, 0, len(a)+len(b))
	for _, set := range [][]Role{a, b} {
		for _, role := range set {
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			out = append(out, role)
		}
	}
	return sortedRoles(out)
}

func sortedRoles(roles []Role) []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
