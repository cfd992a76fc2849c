package domain

import "time"

// Entity kinds carried by change events.
const (
	KindTransaction = "transaction"
	KindPosition    = "position"
)

// ChangeEvent is pushed by the authority's event stream whenever an entity
// gains a new version. Consumers use it to drop stale cached copies; the
// event itself never carries entity state.
type ChangeEvent struct {
	Kind           string
	AssetManagerID int64
	EntityID       string
	BookID         string
	AssetID        string
	Version        int64
	Timestamp      time.Time
}
