package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tonearm/internal/logging"
	"tonearm/internal/parity"
)

func newVectorsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectors",
		Short: "Run and inspect behavioral parity vectors",
	}
	cmd.AddCommand(newVectorsRunCommand(ctx))
	cmd.AddCommand(newVectorsListCommand(ctx))
	cmd.AddCommand(newVectorsHistoryCommand(ctx))
	return cmd
}

func newVectorsRunCommand(ctx *commandContext) *cobra.Command {
	var noArchive bool

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Execute every vector document and report case verdicts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			dir := cfg.Parity.VectorDir
			if len(args) == 1 {
				dir = args[0]
			}
			docs, err := parity.LoadDir(dir)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				cmd.Printf("No vector documents under %s\n", dir)
				return nil
			}

			var archive *parity.Archive
			if !noArchive {
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
				archive, err = parity.OpenArchive(cfg.Parity.ArchivePath)
				if err != nil {
					return err
				}
				defer archive.Close()
			}

			runner := parity.NewRunner(cfg.Parity.Platform, nil, logging.NewComponentLogger(logger, "parity"))

			var totalFailed int
			for _, doc := range docs {
				result := runner.Run(doc)
				printDocumentResult(cmd, result)
				_, failed, _ := result.Counts()
				totalFailed += failed

				if archive != nil {
					if _, err := archive.RecordRun(cmd.Context(), result); err != nil {
						return fmt.Errorf("record run for %s: %w", result.Document, err)
					}
				}
			}

			if totalFailed > 0 {
				return fmt.Errorf("%d case(s) failed", totalFailed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Skip recording results to the run archive")

	return cmd
}

func newVectorsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List vector documents and their cases without running them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dir := cfg.Parity.VectorDir
			if len(args) == 1 {
				dir = args[0]
			}
			docs, err := parity.LoadDir(dir)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				cmd.Printf("No vector documents under %s\n", dir)
				return nil
			}

			var rows [][]string
			for _, doc := range docs {
				for _, c := range doc.Cases {
					skip := ""
					if len(c.SkipPlatforms) > 0 {
						skip = strings.Join(c.SkipPlatforms, ", ")
					}
					rows = append(rows, []string{doc.Name, c.Name, strconv.Itoa(len(c.Steps)), strconv.Itoa(len(c.Checks)), skip})
				}
			}
			cmd.Println(renderTable(
				[]string{"Document", "Case", "Steps", "Checks", "Skipped On"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newVectorsHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs recorded in the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			archive, err := parity.OpenArchive(cfg.Parity.ArchivePath)
			if err != nil {
				return err
			}
			defer archive.Close()

			runs, err := archive.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("No recorded runs.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					run.Document,
					run.Platform,
					strconv.Itoa(run.Passed),
					strconv.Itoa(run.Failed),
					strconv.Itoa(run.Skipped),
					run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			cmd.Println(renderTable(
				[]string{"Run", "Document", "Platform", "Passed", "Failed", "Skipped", "Recorded"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}

func printDocumentResult(cmd *cobra.Command, result parity.DocumentResult) {
	rows := make([][]string, 0, len(result.Cases))
	for _, c := range result.Cases {
		detail := c.Reason
		if c.Outcome == parity.OutcomeFail {
			for _, check := range c.Checks {
				if check.Outcome == parity.OutcomeFail {
					detail = check.Diagnostic
					break
				}
			}
		}
		rows = append(rows, []string{c.Name, string(c.Outcome), detail})
	}
	cmd.Printf("%s (platform %s)\n", result.Document, result.Platform)
	cmd.Println(renderTable([]string{"Case", "Outcome", "Detail"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))

	passed, failed, skipped := result.Counts()
	cmd.Printf("%d passed, %d failed, %d skipped\n\n", passed, failed, skipped)
}
