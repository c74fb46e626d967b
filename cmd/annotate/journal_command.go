package main

import (
	"errors"
	"fmt"

	"github.com/kdimtricp/medannotate/internal/storage"
	"github.com/spf13/cobra"
)

func newJournalCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "journal [file]",
		Short: "List journal files or print the entries of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.journalDir == "" {
				return errors.New("no journal directory configured (set JOURNAL_DIR or --journal-dir)")
			}
			journal, err := storage.NewLocalJournal(opts.journalDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				files, err := journal.Files()
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(out, "No journal files yet")
					return nil
				}
				for _, name := range files {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			f, err := journal.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := storage.ReadEntries(f)
			if err != nil {
				return err
			}
			for _, e := range entries {
				outcome := "graduated"
				if e.Requeued {
					outcome = "requeued"
				}
				fmt.Fprintf(out, "%s  %-36s  %4ds  score %.1f  %s\n",
					e.RecordedAt.Format("15:04:05"), e.ItemID, e.AnnotateTime, e.Performance, outcome)
			}
			return nil
		},
	}
}
