package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect_Build(t *testing.T) {
	tests := []struct {
		name     string
		sel      *Select
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "bare",
			sel:      From("courses"),
			wantSQL:  "SELECT * FROM courses",
			wantArgs: nil,
		},
		{
			name:     "columns and eq",
			sel:      From("courses").Columns("id", "title").Where(Eq("category", "go")),
			wantSQL:  "SELECT id, title FROM courses WHERE category = $1",
			wantArgs: []any{"go"},
		},
		{
			name: "clauses are ANDed in order",
			sel: From("courses").
				Where(Eq("category", "go")).
				Where(Eq("instructor_id", "u1")).
				OrderBy("title", "id").
				Limit(10).
				Offset(20),
			wantSQL:  "SELECT * FROM courses WHERE category = $1 AND instructor_id = $2 ORDER BY title, id LIMIT 10 OFFSET 20",
			wantArgs: []any{"go", "u1"},
		},
		{
			name:     "in and or",
			sel:      From("t").Where(Or(In("a", 1, 2), Eq("b", true))),
			wantSQL:  "SELECT * FROM t WHERE (a IN ($1, $2) OR b = $3)",
			wantArgs: []any{1, 2, true},
		},
		{
			name:     "empty in",
			sel:      From("t").Where(In[string]("a")),
			wantSQL:  "SELECT * FROM t WHERE FALSE",
			wantArgs: nil,
		},
		{
			name:     "empty junctions",
			sel:      From("t").Where(And()).Where(Or()),
			wantSQL:  "SELECT * FROM t WHERE TRUE AND FALSE",
			wantArgs: nil,
		},
		{
			name:     "deny",
			sel:      From("t").Where(Eq("a", 1)).Deny(),
			wantSQL:  "SELECT * FROM t WHERE a = $1 AND FALSE",
			wantArgs: []any{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.sel.Build()
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPredicate_Eval(t *testing.T) {
	row := Row{"category": "go", "instructor_id": "u1", "published": true}

	assert.True(t, Eq("category", "go").Eval(row))
	assert.False(t, Eq("category", "rust").Eval(row))
	assert.False(t, Eq("missing", nil).Eval(row))
	assert.True(t, In("instructor_id", "u2", "u1").Eval(row))
	assert.False(t, In[string]("instructor_id").Eval(row))
	assert.True(t, And(Eq("category", "go"), Eq("published", true)).Eval(row))
	assert.False(t, And(Eq("category", "go"), False()).Eval(row))
	assert.True(t, Or(False(), Eq("instructor_id", "u1")).Eval(row))
	assert.True(t, And().Eval(row))
	assert.False(t, Or().Eval(row))
}

func TestSelect_Matches(t *testing.T) {
	row := Row{"category": "go"}
	assert.True(t, From("t").Matches(row))
	assert.True(t, From("t").Where(Eq("category", "go")).Matches(row))
	assert.False(t, From("t").Deny().Matches(row))
	assert.True(t, From("t").Deny().Denied())
}
