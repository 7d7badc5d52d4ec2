package cascade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopePriority(t *testing.T) {
	assert.Equal(t, 4, ScopeExact.Priority())
	assert.Equal(t, 3, ScopePrefix.Priority())
	assert.Equal(t, 2, ScopePattern.Priority())
	assert.Equal(t, 1, ScopeAll.Priority())
	assert.Equal(t, 0, Scope("BOGUS").Priority())
}

func TestPayload_WireShape(t *testing.T) {
	payload := Payload{
		Updated: []UpdatedRecord{{
			Typename:  "User",
			ID:        "1",
			Operation: "CREATED",
			Entity:    map[string]any{"id": "1", "name": "alice"},
		}},
		Deleted: []DeletedRecord{{
			Typename:  "Todo",
			ID:        "a",
			DeletedAt: "2024-01-01T00:00:00Z",
		}},
		Invalidations: []Hint{
			{QueryName: "getUser", Strategy: StrategyRefetch, Scope: ScopeExact, Arguments: map[string]any{"id": "1"}},
			{QueryPattern: "searchUser*", Strategy: StrategyInvalidate, Scope: ScopePattern},
		},
		Metadata: Metadata{
			TransactionID:   "cascade_x",
			Timestamp:       "2024-01-01T00:00:00Z",
			Depth:           1,
			AffectedCount:   2,
			TrackingTimeSec: 0.001,
			Truncated:       []string{"updated"},
		},
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	updated := decoded["updated"].([]any)[0].(map[string]any)
	assert.Equal(t, "User", updated["__typename"])
	assert.Equal(t, "CREATED", updated["operation"])

	deleted := decoded["deleted"].([]any)[0].(map[string]any)
	assert.Equal(t, "Todo", deleted["__typename"])
	assert.Equal(t, "2024-01-01T00:00:00Z", deleted["deleted_at"])

	hints := decoded["invalidations"].([]any)
	first := hints[0].(map[string]any)
	assert.Equal(t, "getUser", first["query_name"])
	assert.NotContains(t, first, "query_pattern")
	second := hints[1].(map[string]any)
	assert.Equal(t, "searchUser*", second["query_pattern"])
	assert.NotContains(t, second, "query_name")

	metadata := decoded["metadata"].(map[string]any)
	assert.Equal(t, "cascade_x", metadata["transaction_id"])
	assert.Equal(t, float64(2), metadata["affected_count"])
	assert.Contains(t, metadata, "tracking_time_sec")
	assert.Contains(t, metadata, "construction_time_sec")
	assert.Equal(t, []any{"updated"}, metadata["truncated"])
}

func TestEmptyPayload(t *testing.T) {
	payload := EmptyPayload()
	assert.NotNil(t, payload.Updated)
	assert.NotNil(t, payload.Deleted)
	assert.NotNil(t, payload.Invalidations)
	assert.Empty(t, payload.Updated)
	assert.Equal(t, 0, payload.Metadata.AffectedCount)
	assert.NotEmpty(t, payload.Metadata.Timestamp)
}

func TestError_Serialization(t *testing.T) {
	e := &Error{
		Message:    "todo not found",
		Code:       CodeNotFound,
		Field:      "id",
		Path:       []string{"completeTodo", "id"},
		Extensions: map[string]any{"hint": "check the id"},
	}

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "NOT_FOUND", decoded["code"])
	assert.Equal(t, "id", decoded["field"])
	assert.Equal(t, []any{"completeTodo", "id"}, decoded["path"])
}

func TestError_OptionalFieldsOmitted(t *testing.T) {
	raw, err := json.Marshal(NewError(CodeConflict, "version mismatch"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "field")
	assert.NotContains(t, decoded, "path")
	assert.NotContains(t, decoded, "extensions")
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, CodeValidation, ValidationError("bad", "name").Code)
	assert.Equal(t, "name", ValidationError("bad", "name").Field)
	assert.Equal(t, CodeNotFound, NotFoundError("gone").Code)
	assert.Equal(t, CodeTransactionFailed, TransactionError("nested").Code)
	assert.Equal(t, CodeInternal, InternalError("boom").Code)

	timeout := TimeoutError("slow", 5000)
	assert.Equal(t, CodeTimeout, timeout.Code)
	assert.Equal(t, true, timeout.Extensions["retryable"])
	assert.Equal(t, int64(5000), timeout.Extensions["timeoutMs"])

	limited := RateLimitedError("slow down", 30, 100, "1m")
	assert.Equal(t, CodeRateLimited, limited.Code)
	assert.Equal(t, 30, limited.Extensions["retryAfter"])
	assert.Equal(t, 0, limited.Extensions["remaining"])

	unavailable := ServiceUnavailableError("db down", "postgres", 10)
	assert.Equal(t, CodeServiceUnavailable, unavailable.Code)
	assert.Equal(t, "postgres", unavailable.Extensions["service"])
	assert.Equal(t, 10, unavailable.Extensions["retryAfter"])
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	ce := FromError(NotFoundError("gone"))
	assert.Equal(t, CodeNotFound, ce.Code)

	wrapped := FromError(fmt.Errorf("resolver: %w", ValidationError("bad", "x")))
	assert.Equal(t, CodeValidation, wrapped.Code)

	timeout := FromError(context.DeadlineExceeded)
	assert.Equal(t, CodeTimeout, timeout.Code)
	assert.Equal(t, true, timeout.Extensions["retryable"])

	cancelled := FromError(context.Canceled)
	assert.Equal(t, CodeTimeout, cancelled.Code)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Message)
}
