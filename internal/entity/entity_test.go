package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID    string
	Name  string
	Email string `json:"email_address"`
}

type todo struct {
	ID    string
	Title string
	Owner *user
	Tags  []string
	Done  bool
}

type customEntity struct {
	ref string
}

func (c customEntity) Typename() string { return "Custom" }
func (c customEntity) EntityID() string { return c.ref }
func (c customEntity) SerializeEntity() map[string]any {
	return map[string]any{"ref": c.ref}
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    Key
		wantErr bool
	}{
		{
			name:  "reflected struct",
			value: user{ID: "1", Name: "alice"},
			want:  Key{Typename: "user", ID: "1"},
		},
		{
			name:  "pointer to struct",
			value: &user{ID: "7"},
			want:  Key{Typename: "user", ID: "7"},
		},
		{
			name:  "explicit capability",
			value: customEntity{ref: "abc"},
			want:  Key{Typename: "Custom", ID: "abc"},
		},
		{
			name:    "missing id",
			value:   user{Name: "no id"},
			wantErr: true,
		},
		{
			name:    "nil",
			value:   nil,
			wantErr: true,
		},
		{
			name:    "scalar",
			value:   42,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Identify(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestIsEntity(t *testing.T) {
	assert.True(t, IsEntity(user{ID: "1"}))
	assert.True(t, IsEntity(&todo{ID: "5"}))
	assert.True(t, IsEntity(customEntity{ref: "x"}))

	assert.False(t, IsEntity(nil))
	assert.False(t, IsEntity("hello"))
	assert.False(t, IsEntity(12.5))
	assert.False(t, IsEntity(true))
	assert.False(t, IsEntity([]any{user{ID: "1"}}))
	assert.False(t, IsEntity(map[string]any{"id": "1"}))
	assert.False(t, IsEntity(time.Now()))
	assert.False(t, IsEntity(user{})) // id is empty
}

func TestSerialize(t *testing.T) {
	owner := &user{ID: "1", Name: "alice", Email: "a@example.com"}
	item := todo{ID: "5", Title: "write docs", Owner: owner, Tags: []string{"docs"}, Done: false}

	snap, err := Serialize(item)
	require.NoError(t, err)

	assert.Equal(t, "5", snap["id"])
	assert.Equal(t, "write docs", snap["title"])
	assert.Equal(t, []any{"docs"}, snap["tags"])
	assert.Equal(t, false, snap["done"])

	// Nested entities collapse to reference stubs.
	assert.Equal(t, map[string]any{"__typename": "user", "id": "1"}, snap["owner"])
}

func TestSerialize_JSONTagAndTime(t *testing.T) {
	type event struct {
		ID        string
		CreatedAt time.Time `json:"created_at"`
	}
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	snap, err := Serialize(event{ID: "e1", CreatedAt: ts})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01T11:30:00Z", snap["created_at"])
}

func TestSerialize_CustomSerializer(t *testing.T) {
	snap, err := Serialize(customEntity{ref: "abc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ref": "abc"}, snap)
}
