package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/core/services"
)

func newExportCmd(open storeOpener) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Print a user's links as JSON",
		Example: `  sololink-cli export --user alice > alice.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := services.NewUserService(store).GetByName(ctx, username)
			if err != nil {
				return fmt.Errorf("find user %q: %w", username, err)
			}
			links, err := services.NewLinkService(store).List(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("list links: %w", err)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(links)
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username to export")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newImportCmd(open storeOpener, log *zerolog.Logger) *cobra.Command {
	var username, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Append links from a JSON export to a user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			var incoming []domain.Link
			if err := json.NewDecoder(f).Decode(&incoming); err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}

			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := services.NewUserService(store).GetByName(ctx, username)
			if err != nil {
				return fmt.Errorf("find user %q: %w", username, err)
			}

			count, err := importLinks(ctx, services.NewLinkService(store), user.ID, incoming, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d links\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username to import into")
	cmd.Flags().StringVar(&file, "file", "", "JSON file to import")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// importLinks appends incoming links in their exported order. URLs the
// user already has are skipped; invalid entries are logged and skipped.
func importLinks(ctx context.Context, svc *services.LinkService, userID string, incoming []domain.Link, log *zerolog.Logger) (int, error) {
	existing, err := svc.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, l := range existing {
		seen[l.URL] = true
	}

	sort.SliceStable(incoming, func(i, j int) bool { return incoming[i].Order < incoming[j].Order })

	count := 0
	for _, l := range incoming {
		if seen[l.URL] {
			log.Info().Str("url", l.URL).Msg("skipping existing link")
			continue
		}

		created, err := svc.Create(ctx, userID, l.Title, l.URL)
		if domain.IsValidation(err) {
			log.Warn().Err(err).Str("title", l.Title).Msg("skipping invalid link")
			continue
		}
		if err != nil {
			return count, fmt.Errorf("import %q: %w", l.Title, err)
		}
		if !l.IsEnabled {
			if _, err := svc.Toggle(ctx, userID, created.ID); err != nil {
				return count, fmt.Errorf("disable %q: %w", l.Title, err)
			}
		}
		seen[created.URL] = true
		count++
	}
	return count, nil
}
