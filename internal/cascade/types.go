// Package cascade defines the wire shapes of a cascade-augmented mutation
// response: the payload of entity changes, the cache-invalidation hints, and
// the structured errors. Field names here are the compatibility contract
// consumed by client caches and must not drift.
package cascade

import "time"

// Strategy tells a client what to do with a cached query.
type Strategy string

const (
	StrategyInvalidate Strategy = "INVALIDATE"
	StrategyRefetch    Strategy = "REFETCH"
	StrategyRemove     Strategy = "REMOVE"
)

// Scope describes the specificity of an invalidation hint.
type Scope string

const (
	ScopeExact   Scope = "EXACT"
	ScopePrefix  Scope = "PREFIX"
	ScopePattern Scope = "PATTERN"
	ScopeAll     Scope = "ALL"
)

// scopePriorities orders scopes from most to least specific.
var scopePriorities = map[Scope]int{
	ScopeExact:   4,
	ScopePrefix:  3,
	ScopePattern: 2,
	ScopeAll:     1,
}

// Priority returns the sort weight of a scope; higher sorts first.
func (s Scope) Priority() int {
	return scopePriorities[s]
}

// Hint instructs a client to invalidate, refetch, or remove cached queries.
// Exactly one of QueryName and QueryPattern is set.
type Hint struct {
	QueryName    string         `json:"query_name,omitempty"`
	QueryPattern string         `json:"query_pattern,omitempty"`
	Strategy     Strategy       `json:"strategy"`
	Scope        Scope          `json:"scope"`
	Arguments    map[string]any `json:"arguments,omitempty"`
}

// UpdatedRecord is one created or updated entity in the payload.
type UpdatedRecord struct {
	Typename  string         `json:"__typename"`
	ID        string         `json:"id"`
	Operation string         `json:"operation"`
	Entity    map[string]any `json:"entity"`
}

// DeletedRecord is one deleted entity in the payload.
type DeletedRecord struct {
	Typename  string `json:"__typename"`
	ID        string `json:"id"`
	DeletedAt string `json:"deleted_at"`
}

// Truncation flags recorded in metadata when caps were applied.
const (
	TruncatedUpdated       = "updated"
	TruncatedDeleted       = "deleted"
	TruncatedInvalidations = "invalidations"
	TruncatedSize          = "size"
)

// Metadata describes the transaction that produced a payload.
type Metadata struct {
	TransactionID       string   `json:"transaction_id"`
	Timestamp           string   `json:"timestamp"`
	Depth               int      `json:"depth"`
	AffectedCount       int      `json:"affected_count"`
	TrackingTimeSec     float64  `json:"tracking_time_sec"`
	ConstructionTimeSec float64  `json:"construction_time_sec"`
	Truncated           []string `json:"truncated,omitempty"`
}

// Payload carries every entity change and invalidation hint of one mutation.
type Payload struct {
	Updated       []UpdatedRecord `json:"updated"`
	Deleted       []DeletedRecord `json:"deleted"`
	Invalidations []Hint          `json:"invalidations"`
	Metadata      Metadata        `json:"metadata"`
}

// EmptyPayload returns a payload with empty (non-nil) collections and
// zeroed metadata, used on the error path.
func EmptyPayload() Payload {
	return Payload{
		Updated:       []UpdatedRecord{},
		Deleted:       []DeletedRecord{},
		Invalidations: []Hint{},
		Metadata: Metadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// Response is the full mutation response returned in place of the raw
// resolver result.
type Response struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Errors  []*Error `json:"errors"`
	Cascade Payload  `json:"cascade"`
}
