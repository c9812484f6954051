package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relmap/schema"
)

type address struct {
	City string
	Zip  *string `relmap:"postcode"`
}

type user struct {
	ID      int `relmap:"id"`
	Name    string
	Version int
	Active  bool
	Address address
	Manager *user
	Secret  string `relmap:"-"`
	hidden  string
}

func TestRecord(t *testing.T) {
	r := schema.Record{"id": 1, "address": map[string]any{"city": "Oslo"}}

	v, ok := r.Value("id")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Value("address.city")
	require.True(t, ok)
	assert.Equal(t, "Oslo", v)

	_, ok = r.Value("address.zip")
	assert.False(t, ok)
	_, ok = r.Value("missing")
	assert.False(t, ok)

	require.NoError(t, r.SetValue("version", int64(2)))
	assert.Equal(t, int64(2), r["version"])
	require.NoError(t, r.SetValue("address.zip", "0150"))
	v, _ = r.Value("address.zip")
	assert.Equal(t, "0150", v)
	require.NoError(t, r.SetValue("meta.source", "api"))
	v, _ = r.Value("meta.source")
	assert.Equal(t, "api", v)

	assert.Error(t, r.SetValue("id.nested", 1))
}

func TestBind(t *testing.T) {
	u := &user{ID: 3, Name: "a", hidden: "h"}
	ent := schema.Bind(u)

	t.Run("Value", func(t *testing.T) {
		v, ok := ent.Value("id")
		require.True(t, ok)
		assert.Equal(t, 3, v)
		v, ok = ent.Value("name")
		require.True(t, ok)
		assert.Equal(t, "a", v)
		_, ok = ent.Value("secret")
		assert.False(t, ok)
		_, ok = ent.Value("hidden")
		assert.False(t, ok)
		_, ok = ent.Value("manager.name")
		assert.False(t, ok, "nil pointers are not traversed on read")
	})
	t.Run("Convert", func(t *testing.T) {
		require.NoError(t, ent.SetValue("version", int64(5)))
		assert.Equal(t, 5, u.Version)
		require.NoError(t, ent.SetValue("name", []byte("b")))
		assert.Equal(t, "b", u.Name)
		require.NoError(t, ent.SetValue("active", int64(1)))
		assert.True(t, u.Active)
		require.NoError(t, ent.SetValue("version", nil))
		assert.Zero(t, u.Version)
		assert.Error(t, ent.SetValue("name", 12))
	})
	t.Run("Nested", func(t *testing.T) {
		require.NoError(t, ent.SetValue("address.city", "Bergen"))
		assert.Equal(t, "Bergen", u.Address.City)
		require.NoError(t, ent.SetValue("address.postcode", "5003"))
		require.NotNil(t, u.Address.Zip)
		assert.Equal(t, "5003", *u.Address.Zip)
		require.NoError(t, ent.SetValue("manager.id", 9))
		require.NotNil(t, u.Manager)
		assert.Equal(t, 9, u.Manager.ID)
	})
	t.Run("Unknown", func(t *testing.T) {
		assert.Error(t, ent.SetValue("nope", 1))
	})
}
