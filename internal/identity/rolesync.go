package identity

import (
	"context"

	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/threading"
)

// RoleSync mirrors stored roles into the claim store in the background.
// Failures are logged; the database row stays authoritative.
type RoleSync struct {
	store  ClaimStore
	runner *threading.Threading
}

func NewRoleSync(store ClaimStore, runner *threading.Threading) *RoleSync {
	return &RoleSync{store: store, runner: runner}
}

func (r *RoleSync) Schedule(ctx context.Context, externalID, role string) {
	err := r.runner.Go(ctx, "role-claim-sync", func(ctx context.Context) {
		if err := SyncRole(ctx, r.store, externalID, role); err != nil {
			logger.Warn("role claim sync failed", "external_id", externalID, "role", role, "error", err)
			return
		}
		logger.Debug("role claim synced", "external_id", externalID, "role", role)
	})
	if err != nil {
		logger.Warn("role claim sync not scheduled", "external_id", externalID, "error", err)
	}
}
