package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-cache/internal/memcache"
	"catalog-cache/internal/redis"
)

func setupEngine(t *testing.T, enabled bool) (*Engine, *miniredis.Miniredis, *memcache.Store) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	remote, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)

	memory := memcache.New(100)
	engine := New(remote, memory, &Config{
		Enabled: enabled,
		TTLs: map[string]time.Duration{
			"category":     300 * time.Second,
			"addon-groups": 600 * time.Second,
		},
	})

	return engine, mr, memory
}

func TestEngine_ReadWrite(t *testing.T) {
	engine, mr, memory := setupEngine(t, true)
	defer mr.Close()
	defer engine.Close()

	ctx := context.Background()

	t.Run("write populates both tiers", func(t *testing.T) {
		engine.Write(ctx, "category:42:addons", []byte(`{"total_addons":7}`), 300*time.Second)

		value, ok := engine.Read(ctx, "category:42:addons")
		require.True(t, ok)
		assert.Equal(t, []byte(`{"total_addons":7}`), value)

		// Memory tier holds its own copy.
		memValue, ok := memory.Get("category:42:addons")
		require.True(t, ok)
		assert.Equal(t, []byte(`{"total_addons":7}`), memValue)

		// Remote tier holds the serialized form.
		remoteValue, err := mr.Get("category:42:addons")
		require.NoError(t, err)
		assert.Equal(t, `{"total_addons":7}`, remoteValue)
	})

	t.Run("unknown key is a miss", func(t *testing.T) {
		_, ok := engine.Read(ctx, "unknown")
		assert.False(t, ok)
	})

	t.Run("remote hit is authoritative", func(t *testing.T) {
		// Plant diverging values: remote wins while connected.
		require.NoError(t, mr.Set("diverged", "remote-value"))
		memory.Set("diverged", []byte("memory-value"), time.Minute)

		value, ok := engine.Read(ctx, "diverged")
		require.True(t, ok)
		assert.Equal(t, []byte("remote-value"), value)
	})
}

func TestEngine_FallbackToMemory(t *testing.T) {
	engine, mr, _ := setupEngine(t, true)
	defer engine.Close()

	ctx := context.Background()

	engine.Write(ctx, "category:42:addons", []byte("payload"), 300*time.Second)

	// Remote tier goes away; reads must still be served from memory.
	mr.Close()

	value, ok := engine.Read(ctx, "category:42:addons")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), value)

	t.Run("writes keep landing in memory", func(t *testing.T) {
		engine.Write(ctx, "category:7:addons", []byte("new"), 300*time.Second)

		value, ok := engine.Read(ctx, "category:7:addons")
		require.True(t, ok)
		assert.Equal(t, []byte("new"), value)
	})
}

func TestEngine_Delete(t *testing.T) {
	engine, mr, memory := setupEngine(t, true)
	defer mr.Close()
	defer engine.Close()

	ctx := context.Background()

	engine.Write(ctx, "key", []byte("value"), time.Minute)
	engine.Delete(ctx, "key")

	_, ok := engine.Read(ctx, "key")
	assert.False(t, ok)
	_, ok = memory.Get("key")
	assert.False(t, ok)
	assert.False(t, mr.Exists("key"))
}

func TestEngine_DeleteByPattern(t *testing.T) {
	t.Run("clears both tiers", func(t *testing.T) {
		engine, mr, _ := setupEngine(t, true)
		defer mr.Close()
		defer engine.Close()

		ctx := context.Background()

		engine.Write(ctx, "addon-groups:all", []byte("a"), time.Minute)
		engine.Write(ctx, "addon-groups:f:x", []byte("b"), time.Minute)
		engine.Write(ctx, "category:1:addons", []byte("c"), time.Minute)

		engine.DeleteByPattern(ctx, "addon-groups:*")

		_, ok := engine.Read(ctx, "addon-groups:all")
		assert.False(t, ok)
		_, ok = engine.Read(ctx, "addon-groups:f:x")
		assert.False(t, ok)
		_, ok = engine.Read(ctx, "category:1:addons")
		assert.True(t, ok)
	})

	t.Run("memory tier is scanned even with remote down", func(t *testing.T) {
		engine, mr, memory := setupEngine(t, true)
		defer engine.Close()

		ctx := context.Background()

		engine.Write(ctx, "addon-groups:all", []byte("stale"), time.Minute)
		mr.Close()

		engine.DeleteByPattern(ctx, "addon-groups:*")

		_, ok := memory.Get("addon-groups:all")
		assert.False(t, ok, "local data must not go stale while remote is down")
	})
}

func TestEngine_DisabledMode(t *testing.T) {
	engine, mr, memory := setupEngine(t, false)
	defer mr.Close()
	defer engine.Close()

	ctx := context.Background()

	assert.False(t, engine.Enabled())

	engine.Write(ctx, "key", []byte("value"), time.Minute)

	_, ok := engine.Read(ctx, "key")
	assert.False(t, ok, "disabled engine always reports a miss")
	assert.Equal(t, 0, memory.Len(), "disabled engine must not store anything")
	assert.False(t, mr.Exists("key"))

	engine.Delete(ctx, "key")
	engine.DeleteByPattern(ctx, "key*")
}

func TestEngine_NilRemote(t *testing.T) {
	memory := memcache.New(100)
	engine := New(nil, memory, &Config{Enabled: true})
	defer engine.Close()

	ctx := context.Background()

	engine.Write(ctx, "key", []byte("value"), time.Minute)

	value, ok := engine.Read(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), value)

	engine.DeleteByPattern(ctx, "key*")
	_, ok = engine.Read(ctx, "key")
	assert.False(t, ok)

	stats := engine.Stats(ctx)
	assert.False(t, stats.RemoteConfigured)
	assert.False(t, stats.RemoteConnected)
}

func TestEngine_TTLFor(t *testing.T) {
	engine, mr, _ := setupEngine(t, true)
	defer mr.Close()
	defer engine.Close()

	assert.Equal(t, 300*time.Second, engine.TTLFor("category"))
	assert.Equal(t, 600*time.Second, engine.TTLFor("addon-groups"))
	assert.Equal(t, engine.config.DefaultTTL, engine.TTLFor("unknown-namespace"))
}

func TestEngine_RemoteTTL(t *testing.T) {
	engine, mr, memory := setupEngine(t, true)
	defer mr.Close()
	defer engine.Close()

	ctx := context.Background()

	engine.Write(ctx, "expiring", []byte("v"), 10*time.Second)
	mr.FastForward(11 * time.Second)
	// Memory tier runs on wall time; drop its copy so the read exercises
	// the expired remote entry.
	memory.Delete("expiring")

	_, ok := engine.Read(ctx, "expiring")
	assert.False(t, ok)
}

func TestEngine_Stats(t *testing.T) {
	engine, mr, _ := setupEngine(t, true)
	defer mr.Close()
	defer engine.Close()

	ctx := context.Background()

	engine.Write(ctx, "a", []byte("1"), time.Minute)
	engine.Write(ctx, "b", []byte("2"), time.Minute)

	stats := engine.Stats(ctx)
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.MemoryEntries)
	assert.ElementsMatch(t, []string{"a", "b"}, stats.MemoryKeys)
	assert.True(t, stats.RemoteConfigured)
	assert.True(t, stats.RemoteConnected)
	assert.Equal(t, "connected", stats.RemoteState)
}

func TestEngine_Close(t *testing.T) {
	engine, mr, memory := setupEngine(t, true)
	defer mr.Close()

	engine.Write(context.Background(), "key", []byte("value"), time.Minute)

	require.NoError(t, engine.Close())
	assert.Equal(t, 0, memory.Len())

	// Idempotent.
	require.NoError(t, engine.Close())
}
