package query

import (
	"errors"
	"sync"
	"testing"

	"github.com/asaidimu/go-memtable/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleRows() []schema.Document {
	return []schema.Document{
		{"id": 1, "age": 25, "active": true},
		{"id": 2, "age": 30, "active": false},
		{"id": 3, "age": 35, "active": true},
	}
}

func ids(rows []schema.Document) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

func TestNewDataProcessor(t *testing.T) {
	p := NewDataProcessor(nil)
	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.Equal(t, ConnectorModeConjunction, p.Mode())

	p = NewDataProcessor(zap.NewNop(), WithConnectorMode(ConnectorModeGrouped))
	assert.Equal(t, ConnectorModeGrouped, p.Mode())

	p = NewDataProcessor(nil, WithConnectorMode(""))
	assert.Equal(t, ConnectorModeConjunction, p.Mode())
}

func TestDataProcessor_Compile(t *testing.T) {
	p := NewDataProcessor(nil)

	t.Run("Empty list matches everything", func(t *testing.T) {
		pred, err := p.Compile(nil)
		require.NoError(t, err)
		for _, row := range sampleRows() {
			assert.True(t, pred(row))
		}
		assert.True(t, pred(schema.Document{}))
	})

	t.Run("Conditions are conjoined", func(t *testing.T) {
		pred, err := p.Compile([]FilterCondition{
			{Field: "active", Operator: "eq", Value: true, Connector: ConnectorAnd},
			{Field: "age", Operator: "gt", Value: 30, Connector: ConnectorAnd},
		})
		require.NoError(t, err)
		rows := sampleRows()
		assert.False(t, pred(rows[0]))
		assert.False(t, pred(rows[1]))
		assert.True(t, pred(rows[2]))
	})

	t.Run("Unknown operator fails at compile time", func(t *testing.T) {
		_, err := p.Compile([]FilterCondition{
			{Field: "age", Operator: "eq", Value: 1, Connector: ConnectorAnd},
			{Field: "age", Operator: "bogus", Value: 1, Connector: ConnectorAnd},
		})
		var opErr *UnknownOperatorError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, "age", opErr.Field)
	})

	t.Run("Connector with empty operator is an unknown operator", func(t *testing.T) {
		_, err := p.Compile([]FilterCondition{{Field: "age", Value: 1, Connector: ConnectorOr}})
		assert.True(t, errors.Is(err, ErrUnknownOperator))
	})

	t.Run("No connector and no operator is unsupported", func(t *testing.T) {
		cond := FilterCondition{Field: "age", Value: 1}
		_, err := p.Compile([]FilterCondition{cond})
		var condErr *UnsupportedConditionError
		require.ErrorAs(t, err, &condErr)
		assert.Equal(t, cond, condErr.Condition)
		assert.True(t, errors.Is(err, ErrUnsupportedCondition))
	})

	t.Run("Predicate is independent of the input slice", func(t *testing.T) {
		conds := []FilterCondition{{Field: "age", Operator: "eq", Value: 25, Connector: ConnectorAnd}}
		pred, err := p.Compile(conds)
		require.NoError(t, err)
		conds[0].Value = 30
		assert.True(t, pred(sampleRows()[0]))
		assert.False(t, pred(sampleRows()[1]))
	})

	t.Run("Predicate is safe for concurrent use", func(t *testing.T) {
		pred, err := p.Compile([]FilterCondition{{Field: "active", Operator: "eq", Value: true, Connector: ConnectorAnd}})
		require.NoError(t, err)
		rows := sampleRows()
		var wg sync.WaitGroup
		results := make([]int, 8)
		for w := range results {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					for _, r := range rows {
						if pred(r) {
							results[w]++
						}
					}
				}
			}(w)
		}
		wg.Wait()
		for _, n := range results {
			assert.Equal(t, 200, n)
		}
	})
}

func TestDataProcessor_CompileConnectors(t *testing.T) {
	conds := []FilterCondition{
		{Field: "active", Operator: "eq", Value: true, Connector: ConnectorAnd},
		{Field: "id", Operator: "eq", Value: 1, Connector: ConnectorOr},
		{Field: "id", Operator: "eq", Value: 3, Connector: ConnectorOr},
	}

	t.Run("Conjunction mode folds OR into AND and warns", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		p := NewDataProcessor(zap.New(core))
		rows, err := p.Filter(sampleRows(), conds)
		require.NoError(t, err)
		assert.Empty(t, rows, "id cannot be both 1 and 3")
		assert.Equal(t, 2, logs.FilterMessage("OR connector folded into AND").Len())
	})

	t.Run("Grouped mode ORs the OR group", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		p := NewDataProcessor(zap.New(core), WithConnectorMode(ConnectorModeGrouped))
		rows, err := p.Filter(sampleRows(), conds)
		require.NoError(t, err)
		assert.Equal(t, []any{1, 3}, ids(rows))
		assert.Zero(t, logs.Len())
	})

	t.Run("Grouped mode with only OR conditions", func(t *testing.T) {
		p := NewDataProcessor(nil, WithConnectorMode(ConnectorModeGrouped))
		rows, err := p.Filter(sampleRows(), conds[1:])
		require.NoError(t, err)
		assert.Equal(t, []any{1, 3}, ids(rows))
	})

	t.Run("Operator-only conditions compile with a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		p := NewDataProcessor(zap.New(core))
		rows, err := p.Filter(sampleRows(), []FilterCondition{{Field: "age", Operator: "lt", Value: 30}})
		require.NoError(t, err)
		assert.Equal(t, []any{1}, ids(rows))
		assert.Equal(t, 1, logs.FilterMessage("Where clause with operator only").Len())
	})
}

func TestDataProcessor_Process(t *testing.T) {
	p := NewDataProcessor(zap.NewNop())

	t.Run("Empty options return every row in order", func(t *testing.T) {
		rows := sampleRows()
		out, err := p.Process(rows, nil)
		require.NoError(t, err)
		assert.Equal(t, rows, out)
	})

	t.Run("Filter keeps original order", func(t *testing.T) {
		out, err := p.Process(sampleRows(), &FindOptions{
			Where: []FilterCondition{{Field: "active", Operator: "eq", Value: true, Connector: ConnectorAnd}},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{1, 3}, ids(out))
	})

	t.Run("Filter then sort desc", func(t *testing.T) {
		out, err := p.Process(sampleRows(), &FindOptions{
			Where:  []FilterCondition{{Field: "age", Operator: "gt", Value: 30, Connector: ConnectorAnd}},
			SortBy: []SortConfiguration{{Field: "age", Direction: SortDirectionDesc}},
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, schema.Document{"id": 3, "age": 35, "active": true}, out[0])
	})

	t.Run("Only the first sort key is honored", func(t *testing.T) {
		out, err := p.Process(sampleRows(), &FindOptions{
			SortBy: []SortConfiguration{
				{Field: "age", Direction: SortDirectionDesc},
				{Field: "id", Direction: SortDirectionAsc},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{3, 2, 1}, ids(out))
	})

	t.Run("Sort is stable in both directions", func(t *testing.T) {
		rows := []schema.Document{
			{"id": "a", "rank": 2},
			{"id": "b", "rank": 1},
			{"id": "c", "rank": 2},
			{"id": "d", "rank": 1},
			{"id": "e"},
		}
		asc, err := p.Process(rows, &FindOptions{SortBy: []SortConfiguration{{Field: "rank", Direction: SortDirectionAsc}}})
		require.NoError(t, err)
		assert.Equal(t, []any{"e", "b", "d", "a", "c"}, ids(asc))

		desc, err := p.Process(rows, &FindOptions{SortBy: []SortConfiguration{{Field: "rank", Direction: SortDirectionDesc}}})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "c", "b", "d", "e"}, ids(desc))

		assert.Equal(t, []any{"a", "b", "c", "d", "e"}, ids(rows), "source order is untouched")
	})

	t.Run("Offset and limit", func(t *testing.T) {
		rows := make([]schema.Document, 10)
		for i := range rows {
			rows[i] = schema.Document{"id": i}
		}
		cases := []struct {
			name   string
			offset *int
			limit  *int
			want   []any
		}{
			{"limit only", nil, IntPtr(3), []any{0, 1, 2}},
			{"offset only", IntPtr(7), nil, []any{7, 8, 9}},
			{"offset then limit", IntPtr(2), IntPtr(3), []any{2, 3, 4}},
			{"zero offset", IntPtr(0), IntPtr(2), []any{0, 1}},
			{"limit larger than rest", IntPtr(8), IntPtr(5), []any{8, 9}},
			{"offset at length", IntPtr(10), nil, []any{}},
			{"offset beyond length", IntPtr(50), IntPtr(5), []any{}},
			{"zero limit", nil, IntPtr(0), []any{}},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				out, err := p.Process(rows, &FindOptions{Offset: c.offset, Limit: c.limit})
				require.NoError(t, err)
				assert.Equal(t, c.want, ids(out))
			})
		}
	})

	t.Run("Negative pagination is rejected", func(t *testing.T) {
		_, err := p.Process(sampleRows(), &FindOptions{Offset: IntPtr(-1)})
		assert.True(t, errors.Is(err, ErrInvalidPagination))
		_, err = p.Process(sampleRows(), &FindOptions{Limit: IntPtr(-1)})
		assert.True(t, errors.Is(err, ErrInvalidPagination))
	})

	t.Run("Select projects fields", func(t *testing.T) {
		out, err := p.Process(sampleRows(), &FindOptions{Select: []string{"id", "age"}, Limit: IntPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, []schema.Document{{"id": 1, "age": 25}}, out)
	})

	t.Run("Result never aliases the source", func(t *testing.T) {
		rows := sampleRows()
		out, err := p.Process(rows, nil)
		require.NoError(t, err)
		out[0]["age"] = 99
		out = append(out[:0], schema.Document{"id": 42})
		assert.Equal(t, 25, rows[0]["age"])
		assert.Equal(t, 1, rows[0]["id"])
	})

	t.Run("Unknown operator surfaces wrapped", func(t *testing.T) {
		_, err := p.Process(sampleRows(), &FindOptions{
			Where: []FilterCondition{{Field: "age", Operator: "bogus", Value: 1, Connector: ConnectorAnd}},
		})
		assert.True(t, errors.Is(err, ErrUnknownOperator))
	})
}

func TestDataProcessor_CountMatchesFilter(t *testing.T) {
	p := NewDataProcessor(nil)
	condSets := [][]FilterCondition{
		nil,
		{{Field: "active", Operator: "eq", Value: true, Connector: ConnectorAnd}},
		{{Field: "age", Operator: "gte", Value: 30, Connector: ConnectorAnd}},
		{{Field: "age", Operator: "in", Value: []int{1, 2}, Connector: ConnectorAnd}},
	}
	for _, conds := range condSets {
		n, err := p.Count(sampleRows(), conds)
		require.NoError(t, err)
		rows, err := p.Filter(sampleRows(), conds)
		require.NoError(t, err)
		assert.Equal(t, len(rows), n)
	}
}

func TestDataProcessor_Match(t *testing.T) {
	p := NewDataProcessor(nil)
	ok, err := p.Match(nil, schema.Document{"x": 1})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Match([]FilterCondition{{Field: "x", Operator: "eq", Value: 2, Connector: ConnectorAnd}}, schema.Document{"x": 1})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataProcessor_EqSelectsExactlyTheEqualRows(t *testing.T) {
	p := NewDataProcessor(nil)
	rows := append(sampleRows(),
		schema.Document{"id": 4, "age": "30"},
		schema.Document{"id": 5},
	)

	out, err := p.Filter(rows, []FilterCondition{{Field: "age", Operator: "eq", Value: 30, Connector: ConnectorAnd}})
	require.NoError(t, err)
	assert.Equal(t, []any{2}, ids(out))

	for _, row := range out {
		assert.True(t, row.Field("age").Equal(schema.Number(30)))
	}
}
