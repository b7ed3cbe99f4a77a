// Package snapshot persists the whole record store as one versioned JSON document
// under a fixed key and restores it on start-up.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ledger"
)

// SchemaVersion is written into every document. Documents without a version are the
// browser-era layout and are migrated by decodeLegacy.
const SchemaVersion = 5

// DefaultKey is the storage identifier the record store lives under.
const DefaultKey = "MF_PRO_DB_v4"

// maxLoggedPayload caps how much of a discarded snapshot ends up in the log.
const maxLoggedPayload = 2048

// Store is the storage medium for snapshot documents. Load returns errs.ErrNotFound
// when nothing was ever saved under key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// Document is the persisted envelope.
type Document struct {
	SchemaVersion int          `json:"schema_version"`
	SavedAt       time.Time    `json:"saved_at"`
	State         ledger.State `json:"state"`
}

var ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")

// Encode serialises state into a current-version document.
func Encode(state ledger.State, now time.Time) ([]byte, error) {
	st := state.Clone()
	st.Normalize()
	b, err := json.Marshal(Document{SchemaVersion: SchemaVersion, SavedAt: now.UTC(), State: st})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses a stored payload of any known version.
func Decode(payload []byte) (ledger.State, error) {
	var head struct {
		SchemaVersion *int `json:"schema_version"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return ledger.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if head.SchemaVersion == nil {
		return decodeLegacy(payload)
	}
	if *head.SchemaVersion != SchemaVersion {
		return ledger.State{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *head.SchemaVersion)
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return ledger.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	doc.State.Normalize()
	return doc.State, nil
}

// Load restores the record store saved under key. A missing snapshot yields the seed.
// A snapshot that cannot be decoded is logged and also replaced by the seed; only
// failures to reach the store are returned.
func Load(ctx context.Context, store Store, key string, logger *slog.Logger) (ledger.State, error) {
	payload, err := store.Load(ctx, key)
	if errors.Is(err, errs.ErrNotFound) {
		logger.Info("no snapshot found; starting from seed", "key", key)
		return Seed()
	}
	if err != nil {
		return ledger.State{}, fmt.Errorf("load snapshot %q: %w", key, err)
	}
	st, err := Decode(payload)
	if err != nil {
		logger.Error("discarding malformed snapshot; starting from seed",
			"key", key,
			"err", err,
			"bytes", len(payload),
			"payload", truncate(payload, maxLoggedPayload),
		)
		return Seed()
	}
	if locked := LockedUsers(st); len(locked) > 0 {
		logger.Warn("users without a password hash cannot log in until an admin resets it",
			"key", key, "usernames", locked)
	}
	return st, nil
}

// LockedUsers lists the usernames that have no password hash.
func LockedUsers(st ledger.State) []string {
	var out []string
	for _, u := range st.Users {
		if u.PasswordHash == "" {
			out = append(out, u.Username)
		}
	}
	return out
}

// Save encodes state and writes it under key.
func Save(ctx context.Context, store Store, key string, state ledger.State, now time.Time) error {
	b, err := Encode(state, now)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, key, b); err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
