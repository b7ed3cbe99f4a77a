package file

import "github.com/tinoosan/microfin/internal/snapshot"

var _ snapshot.Store = (*Store)(nil)
