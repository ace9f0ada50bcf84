package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelbot/internal/config"
	"reelbot/internal/preflight"
	"reelbot/internal/queue"
)

var errChecksFailed = errors.New("one or more checks failed")

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check credentials, paths and the queue before serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			failed := false
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed = true
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Queue", colorize)...)
			lines = append(lines, queueStatusLines(cmd, cfg, colorize)...)
			lines = append(lines, renderStatusLine("Notifications", statusInfo, notificationSummary(cfg), colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed {
				return errChecksFailed
			}
			return nil
		},
	}
}

func queueStatusLines(cmd *cobra.Command, cfg *config.Config, colorize bool) []string {
	lines := []string{renderStatusLine("Path", statusInfo, cfg.Queue.Path+" ("+cfg.Queue.Backend+")", colorize)}
	persister, err := queue.OpenPersister(cmd.Context(), cfg.Queue.Backend, cfg.Queue.Path)
	if err != nil {
		return append(lines, renderStatusLine("Movies", statusError, err.Error(), colorize))
	}
	store, err := queue.Open(cmd.Context(), persister)
	if err != nil {
		if closer, ok := persister.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return append(lines, renderStatusLine("Movies", statusError, err.Error(), colorize))
	}
	defer store.Close()
	return append(lines, renderStatusLine("Movies", statusOK, strconv.Itoa(store.Len())+" queued", colorize))
}

func notificationSummary(cfg *config.Config) string {
	if cfg.Notifications.NtfyTopic == "" {
		return "disabled"
	}
	return "ntfy " + cfg.Notifications.NtfyTopic
}
