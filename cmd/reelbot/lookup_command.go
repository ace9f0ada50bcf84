package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelbot/internal/catalog"
	"reelbot/internal/config"
	"reelbot/internal/tmdb"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup QUERY...",
		Short: "Search TMDB the way the bot does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateLookup(); err != nil {
				return err
			}
			resolver, err := newResolver(cfg)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			candidate, err := resolver.Resolve(cmd.Context(), query)
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("no TMDB match for %q", query)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, candidate)
			}
			out := cmd.OutOrStdout()
			if candidate.Year != "" {
				fmt.Fprintf(out, "%s (%s)\n", candidate.Title, candidate.Year)
			} else {
				fmt.Fprintln(out, candidate.Title)
			}
			if candidate.Overview != "" {
				fmt.Fprintln(out, candidate.Overview)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")
	return cmd
}

func newResolver(cfg *config.Config) (*catalog.Resolver, error) {
	client, err := tmdb.New(cfg.TMDB.APIToken, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDBTimeout()))
	if err != nil {
		return nil, fmt.Errorf("create tmdb client: %w", err)
	}
	return catalog.NewResolver(client, catalog.WithTimeout(cfg.TMDBTimeout())), nil
}
