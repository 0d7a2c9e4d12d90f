package store_test

import (
	"testing"

	"sla-service/internal/store"
	"sla-service/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}
