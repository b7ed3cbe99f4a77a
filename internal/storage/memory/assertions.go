package memory

import "github.com/tinoosan/microfin/internal/snapshot"

// Compile-time interface assertions documenting which interfaces Store satisfies.
var _ snapshot.Store = (*Store)(nil)
