package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packfolio/concierge/pkg/domain"
)

// RunMemoryStoreContract runs a suite of tests to verify that a MemoryStore
// implementation adheres to the defined interface contract.
func RunMemoryStoreContract(t *testing.T, store MemoryStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		mem := domain.NewMemory(domain.FlowDirectSales, time.Now().UTC())
		mem.Step = domain.StepSelectPackage
		mem.Clipboard["product_description"] = "handmade candles"

		err := store.Save(ctx, sessionID, mem)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, mem.Flow, loaded.Flow)
		assert.Equal(t, mem.Step, loaded.Step)
		assert.Equal(t, "handmade candles", loaded.Clipboard["product_description"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Isolation", func(t *testing.T) {
		mem := domain.NewMemory(domain.FlowBrandLaunch, time.Now().UTC())
		require.NoError(t, store.Save(ctx, sessionID, mem))

		// Mutating the saved value must not leak into the store.
		mem.Clipboard["leak"] = "yes"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotContains(t, loaded.Clipboard, "leak")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewMemory(domain.FlowDirectSales, time.Now().UTC())))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewMemory(domain.FlowDirectSales, time.Now().UTC()))
		_ = store.Save(ctx, id2, domain.NewMemory(domain.FlowConsultation, time.Now().UTC()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
