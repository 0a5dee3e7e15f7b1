package persistence

import (
	"errors"
	"sync"
	"testing"

	"github.com/asaidimu/go-memtable/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Defaults(t *testing.T) {
	r := NewRegistry(nil, nil)

	assert.Equal(t, []string{
		"accounts", "invitations", "jwks", "members", "organizations",
		"passkeys", "sessions", "teams", "users", "verifications",
	}, r.Tables())

	singular, err := r.Resolve("user")
	require.NoError(t, err)
	plural, err := r.Resolve("users")
	require.NoError(t, err)
	assert.Same(t, singular, plural)
	assert.Equal(t, "users", singular.Name())

	table, ok := r.TableName("verification")
	assert.True(t, ok)
	assert.Equal(t, "verifications", table)
}

func TestRegistry_Resolve_Unknown(t *testing.T) {
	r := NewRegistry(map[string]string{"user": "users"}, nil)

	_, err := r.Resolve("widget")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))

	var nf *TableNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "widget", nf.Model)
	assert.Contains(t, err.Error(), "widget")

	_, ok := r.TableName("widget")
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(map[string]string{}, nil)
	assert.Empty(t, r.Tables())

	c := r.Register("widget", "widgets")
	assert.Equal(t, "widgets", c.Name())
	assert.Same(t, c, r.Register("gadget", "widgets"), "existing table is reused")

	for _, model := range []string{"widget", "gadget", "widgets"} {
		got, err := r.Resolve(model)
		require.NoError(t, err)
		assert.Same(t, c, got)
	}
	assert.Equal(t, []string{"widgets"}, r.Tables())
}

func TestNewRegistry_CopiesNames(t *testing.T) {
	names := map[string]string{"user": "users"}
	r := NewRegistry(names, nil)
	names["session"] = "sessions"

	_, err := r.Resolve("session")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestRegistry_Exec_Serializes(t *testing.T) {
	r := NewRegistry(nil, nil)
	c, err := r.Resolve("users")
	require.NoError(t, err)
	m := NewTableMutator(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Exec(func() error {
				_, err := m.Create(c, schema.Document{"id": i})
				return err
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}

func TestRegistry_Exec_ReturnsError(t *testing.T) {
	r := NewRegistry(nil, nil)
	boom := errors.New("boom")
	assert.Same(t, boom, r.Exec(func() error { return boom }))
}
