package walker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type author struct {
	ID   string
	Name string
}

type comment struct {
	ID   string
	Body string
}

type post struct {
	ID       string
	Title    string
	Author   *author
	Comments []*comment
	Views    int
	Labels   []string
}

type hooked struct {
	ID   string
	next *hooked
}

func (h *hooked) Typename() string { return "Hooked" }
func (h *hooked) EntityID() string { return h.ID }
func (h *hooked) RelatedEntities() []any {
	return []any{h.next, nil}
}

func TestNeighbors_Reflection(t *testing.T) {
	p := &post{
		ID:     "9",
		Title:  "hello",
		Author: &author{ID: "1", Name: "alice"},
		Comments: []*comment{
			{ID: "c1", Body: "first"},
			{ID: "c2", Body: "second"},
		},
		Views:  3,
		Labels: []string{"a", "b"},
	}

	neighbors := New().Neighbors(p)
	require.Len(t, neighbors, 3)
	assert.Equal(t, p.Author, neighbors[0])
	assert.Equal(t, p.Comments[0], neighbors[1])
	assert.Equal(t, p.Comments[1], neighbors[2])
}

func TestNeighbors_NilAndScalarFieldsIgnored(t *testing.T) {
	p := &post{ID: "9", Title: "no relations"}
	assert.Empty(t, New().Neighbors(p))
}

func TestNeighbors_ExplicitHookWins(t *testing.T) {
	b := &hooked{ID: "b"}
	a := &hooked{ID: "a", next: b}

	neighbors := New().Neighbors(a)
	require.Len(t, neighbors, 1)
	assert.Equal(t, b, neighbors[0])
}

func TestNeighbors_NonStruct(t *testing.T) {
	w := New()
	assert.Empty(t, w.Neighbors("str"))
	assert.Empty(t, w.Neighbors(nil))
	assert.Empty(t, w.Neighbors((*post)(nil)))
}
