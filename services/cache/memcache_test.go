package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheServiceAdd(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}
	mc.client.Delete("test_add_key")
	defer mc.client.Delete("test_add_key")

	added, err := mc.Add("test_add_key", []byte("1"), 5*time.Second)
	assert.NoError(t, err)
	assert.True(t, added)

	added, err = mc.Add("test_add_key", []byte("1"), 5*time.Second)
	assert.NoError(t, err)
	assert.False(t, added)
}

func TestMemcacheServiceUnreachable(t *testing.T) {
	mc := NewMemcacheService("127.0.0.1:1")

	assert.Error(t, mc.Ping())

	added, err := mc.Add("test_add_key", []byte("1"), time.Second)
	assert.Error(t, err)
	assert.False(t, added)
}
