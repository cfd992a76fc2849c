package domain

import "time"

// Status is the lifecycle state shared by all versioned entities. Entities
// are soft-destroyed by flipping to Inactive; hard deletes only happen
// through the bulk clear operation.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// VersionedEntity is the core embedded by Transaction, Position, and the
// result records. The authority owns the optimistic-concurrency counter:
// Version is zero until the first successful write and is only ever
// advanced by the authority. Any locally held copy is stale the moment a
// mutating call returns a newer version for the same identifier.
type VersionedEntity struct {
	AssetManagerID int64
	Status         Status
	Version        int64
	CreatedBy      string
	UpdatedBy      string
	CreatedTime    time.Time
	UpdatedTime    time.Time
}

// Persisted reports whether the entity has ever been accepted by the
// authority.
func (e VersionedEntity) Persisted() bool {
	return e.Version > 0
}
