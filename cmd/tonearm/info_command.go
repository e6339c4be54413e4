package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tonearm/internal/decoders"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print stream parameters and tags without playing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			registry := decoders.NewRegistry()
			handle, err := registry.Open(args[0])
			if err != nil {
				return err
			}
			defer registry.Close(handle)

			info, err := registry.Info(handle)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Duration", formatSeconds(info.DurationSeconds)},
				{"Sample rate", fmt.Sprintf("%d Hz", info.SampleRate)},
				{"Channels", fmt.Sprintf("%d", info.Channels)},
				{"Bit depth", fmt.Sprintf("%d", info.BitDepth)},
			}
			cmd.Println(renderTable([]string{"Stream", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

			tags, err := registry.Tags(handle)
			if err != nil {
				cmd.Printf("tags unavailable: %v\n", err)
				return nil
			}
			if tags.IsZero() {
				cmd.Println("No tags.")
				return nil
			}

			var tagRows [][]string
			for _, field := range []string{"title", "artist", "album", "album_artist", "genre", "year", "track_number", "disc_number"} {
				if value, ok := tags.Field(field); ok {
					tagRows = append(tagRows, []string{field, value})
				}
			}
			if len(tags.Artwork) > 0 {
				tagRows = append(tagRows, []string{"artwork", fmt.Sprintf("%d bytes", len(tags.Artwork))})
			}
			cmd.Println(renderTable([]string{"Tag", "Value"}, tagRows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
