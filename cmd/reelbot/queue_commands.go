package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelbot/internal/api"
	"reelbot/internal/catalog"
	"reelbot/internal/config"
	"reelbot/internal/notifications"
	"reelbot/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and edit the movie queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show queued movies, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), false, func(_ *config.Config, store *queue.Store) error {
				movies := store.List()
				if asJSON {
					return writeJSON(cmd, api.NewQueueListResponse(movies))
				}
				out := cmd.OutOrStdout()
				if len(movies) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprint(out, renderTable(queueColumns, queueRows(movies, time.Now()), shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the queue as JSON")
	return cmd
}

var queueColumns = []column{
	{header: "#", right: true},
	{header: "Title", maxWidth: 48},
	{header: "Requested by"},
	{header: "Planned"},
}

func queueRows(movies []queue.Movie, now time.Time) [][]string {
	rows := make([][]string, 0, len(movies))
	for i, movie := range movies {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			movie.Title,
			movie.Requestor,
			plannedLabel(movie.PlannedMovieNight, now),
		})
	}
	return rows
}

func plannedLabel(night *queue.MovieNight, now time.Time) string {
	if night == nil {
		return "-"
	}
	label := humanize.RelTime(night.Date, now, "ago", "from now")
	if night.Host != "" {
		label += " (host " + night.Host + ")"
	}
	return label
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var requestor string
	var resolve bool

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Append a movie to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(cmd.Context(), true, func(cfg *config.Config, store *queue.Store) error {
				if resolve {
					if err := cfg.ValidateLookup(); err != nil {
						return err
					}
					resolver, err := newResolver(cfg)
					if err != nil {
						return err
					}
					candidate, err := resolver.Resolve(cmd.Context(), title)
					if errors.Is(err, catalog.ErrNotFound) {
						return fmt.Errorf("no TMDB match for %q; omit --resolve to add the title as typed", title)
					}
					if err != nil {
						return err
					}
					title = candidate.Title
				}
				movie := queue.Movie{Title: title, Requestor: requestor}
				if err := store.Add(cmd.Context(), movie); err != nil {
					return err
				}
				notify(cmd, cfg, func(n notifications.Service) error {
					return n.NotifyMovieAdded(cmd.Context(), movie.Title, movie.Requestor)
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q at position %d\n", movie.Title, store.Len())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&requestor, "requestor", "cli", "Slack user ID recorded as the requester")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Replace the title with the best TMDB match")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove QUERY...",
		Short: "Remove the first movie whose title contains QUERY",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withStore(cmd.Context(), true, func(cfg *config.Config, store *queue.Store) error {
				removed, err := store.Remove(cmd.Context(), query)
				if errors.Is(err, queue.ErrNotFound) {
					return fmt.Errorf("no queued movie matches %q", query)
				}
				if err != nil {
					return err
				}
				notify(cmd, cfg, func(n notifications.Service) error {
					return n.NotifyMovieRemoved(cmd.Context(), removed.Title)
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", removed.Title)
				return nil
			})
		},
	}
}

// notify sends a best-effort notification; failures are reported but never
// fail the command.
func notify(cmd *cobra.Command, cfg *config.Config, send func(notifications.Service) error) {
	if err := send(notifications.NewService(cfg)); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: notification failed: %v\n", err)
	}
}
