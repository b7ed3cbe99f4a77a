package httpapi

import "github.com/tinoosan/microfin/internal/service/books"

// Compile-time interface assertions for the application context against HTTP API interfaces.
var (
	_ Sessions = (*books.Books)(nil)
	_ Queries  = (*books.Books)(nil)
	_ Commands = (*books.Books)(nil)
)
