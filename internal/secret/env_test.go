package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStore_VarName(t *testing.T) {
	s := NewEnvStore("")
	assert.Equal(t, "PPDMLOADER_SECRET_PPDM_PROD", s.VarName("ppdm-prod"))
	assert.Equal(t, "PPDMLOADER_SECRET_DB1", s.VarName("db1"))
	assert.Equal(t, "X_A_B", NewEnvStore("X_").VarName("a.b"))
}

func TestEnvStore_Get(t *testing.T) {
	s := NewEnvStore("TEST_SECRET_")
	t.Setenv("TEST_SECRET_PPDM", "hunter2")

	v, err := s.Get("ppdm")
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), v)

	v, err = s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEnvStore_SetDelete(t *testing.T) {
	s := NewEnvStore("TEST_SECRET_")
	t.Setenv("TEST_SECRET_TMP", "")

	require.NoError(t, s.Set("tmp", []byte("abc")))
	v, _ := s.Get("tmp")
	assert.Equal(t, []byte("abc"), v)

	require.NoError(t, s.Delete("tmp"))
	v, _ = s.Get("tmp")
	assert.Nil(t, v)
}

type mapStore map[string][]byte

func (m mapStore) Set(k string, v []byte) error { m[k] = v; return nil }
func (m mapStore) Get(k string) ([]byte, error) { return m[k], nil }
func (m mapStore) Delete(k string) error { delete(m, k); return nil }

func TestChain(t *testing.T) {
	first := mapStore{}
	second := mapStore{"ppdm": []byte("from-second")}
	c := Chain{first, second}

	v, err := c.Get("ppdm")
	require.NoError(t, err)
	assert.Equal(t, "from-second", string(v))

	require.NoError(t, c.Set("ppdm", []byte("from-first")))
	v, _ = c.Get("ppdm")
	assert.Equal(t, "from-first", string(v))

	v, _ = c.Get("none")
	assert.Nil(t, v)

	require.NoError(t, c.Delete("ppdm"))
	assert.NotContains(t, first, "ppdm")
	assert.Nil(t, Chain{}.Set("k", nil))
}
