package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/lanchat-server/internal/core"
	"github.com/vovakirdan/lanchat-server/internal/store/sqlite"
)

func newTranscriptCmd(configPath *string) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print messages from the transcript archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			if cfg.Archive.Path == "" {
				return errors.New("no archive configured; set archive.path or pass --archive")
			}

			st, err := sqlite.New(cfg.Archive.Path)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer st.Close()

			msgs, err := st.ListMessages(cmd.Context(), runID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range msgs {
				at := m.CreatedAt.Local()
				fmt.Fprintf(out, "[%s %s] %s: %s\n", at.Format(core.DateLayout), at.Format(core.TimeLayout), m.User, m.Body)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", core.DefaultHistoryWindow, "number of most recent messages to print")
	cmd.Flags().StringVar(&runID, "run", "", "only print messages from this server run")
	return cmd
}
