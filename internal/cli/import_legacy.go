package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinoosan/microfin/internal/config"
	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/snapshot"
	"github.com/tinoosan/microfin/internal/storage"
)

func newImportLegacyCmd(f *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import-legacy <file>",
		Short: "Migrate a browser-era snapshot into the configured store",
		Long: `Read a snapshot exported from the browser application (the MF_PRO_DB_v4
localStorage value, camelCase keys and plaintext passwords), migrate it to the
current schema with passwords hashed, and save it under storage.key.

An existing snapshot is only replaced with --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			st, err := snapshot.Decode(payload)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			store, err := storage.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			if !force {
				_, err := store.Load(ctx, cfg.Storage.Key)
				switch {
				case err == nil:
					return fmt.Errorf("a snapshot already exists under %q, use --force to replace it: %w", cfg.Storage.Key, errs.ErrConflict)
				case !errors.Is(err, errs.ErrNotFound):
					return err
				}
			}
			if err := snapshot.Save(ctx, store, cfg.Storage.Key, st, time.Now().UTC()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			plain := f.plain(out)
			fmt.Fprintln(out, paint(styleSuccess, plain, "✓ imported "+args[0]))
			fmt.Fprintln(out, keyValue(plain, "Backend", cfg.Storage.Backend))
			fmt.Fprintln(out, keyValue(plain, "Key", cfg.Storage.Key))
			fmt.Fprintln(out, keyValue(plain, "Branches", strconv.Itoa(len(st.Branches))))
			fmt.Fprintln(out, keyValue(plain, "Clients", strconv.Itoa(len(st.Clients))))
			fmt.Fprintln(out, keyValue(plain, "Transactions", strconv.Itoa(len(st.Transactions))))
			if locked := snapshot.LockedUsers(st); len(locked) > 0 {
				fmt.Fprintln(out, paint(styleWarning, plain, "! no usable password, reset before login: "+strings.Join(locked, ", ")))
			}
			if cfg.Storage.Backend == config.BackendMemory {
				fmt.Fprintln(out, paint(styleWarning, plain, "! memory backend: the import is discarded on exit"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing snapshot")
	return cmd
}
