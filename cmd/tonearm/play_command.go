package main

import (
	"context"
	"fmt"
	"math"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tonearm/internal/decoders"
	"tonearm/internal/logging"
	"tonearm/internal/media"
	"tonearm/internal/output"
	"tonearm/internal/playback"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Decode and render an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			backend := cfg.Playback.Output
			if strings.TrimSpace(outputFlag) != "" {
				backend = outputFlag
			}
			out, err := output.ForName(backend)
			if err != nil {
				return err
			}

			player := playback.New(
				decoders.NewRegistry(),
				out,
				playback.NewSystemClock(),
				logging.NewComponentLogger(logger, "player"),
				playback.WithFramesPerBuffer(cfg.Playback.FramesPerBuffer),
			)
			defer player.Close()

			location := args[0]
			track := media.Track{
				ID:       filepath.Base(location),
				Location: location,
			}
			if err := player.Load(track); err != nil {
				return err
			}

			printTrackSheet(cmd, player.Snapshot(), player.Tags())

			if err := player.Play(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watchPlayback(runCtx, cmd, player)
		},
	}

	cmd.Flags().StringVar(&outputFlag, "output", "", "Audio backend override (headless, oto, ...)")

	return cmd
}

// watchPlayback polls the published snapshot until the track finishes,
// fails, or the user interrupts.
func watchPlayback(ctx context.Context, cmd *cobra.Command, player *playback.Player) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cmd.Println()
			return player.Stop()
		case <-ticker.C:
			snap := player.Snapshot()
			switch snap.Status {
			case playback.StatusStopped:
				cmd.Println()
				return nil
			case playback.StatusError:
				cmd.Println()
				if snap.Err != nil {
					return snap.Err
				}
				return playback.Errorf(playback.KindIOError, "playback failed")
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "\r%s / %s ", formatSeconds(snap.Position), formatSeconds(snap.DurationSeconds))
			}
		}
	}
}

func printTrackSheet(cmd *cobra.Command, snap playback.Snapshot, tags media.TagBundle) {
	rows := [][]string{
		{"Track", snap.TrackID},
		{"Duration", formatSeconds(snap.DurationSeconds)},
	}
	for _, field := range []string{"title", "artist", "album", "genre", "year", "track_number"} {
		if value, ok := tags.Field(field); ok {
			rows = append(rows, []string{strings.ReplaceAll(field, "_", " "), value})
		}
	}
	cmd.Println(renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
}

func formatSeconds(seconds float64) string {
	if math.IsInf(seconds, 1) {
		return "live"
	}
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
