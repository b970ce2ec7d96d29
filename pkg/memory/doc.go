// Package memory partitions agent knowledge into named scopes backed by
// vector collections.
//
// Invariants:
// - Collection names are a pure function of (scope, project id).
// - Events are append-only and validated against their scope's schema
//   before any I/O happens.
// - The ensured-collection cache is a memoization, never a source of truth.
//
// Usage:
//
//	mgr, _ := memory.NewCollectionManager(memory.ManagerConfig{Client: client, VectorSize: 1536})
//	w, _ := memory.NewWriter(memory.WriterConfig{Manager: mgr, Client: client, Embedder: embedder})
//	id, _ := w.WriteEvent(ctx, memory.WriteRequest{
//		Content:  "decided to use RRF for ranking",
//		Scope:    memory.ScopeGlobal,
//		Metadata: map[string]interface{}{"category": "decisions"},
//	})
//	_ = id
package memory
