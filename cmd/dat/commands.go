package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"dat/internal/domain"
	"dat/internal/service"
	"dat/internal/tui"
)

func buildCmd(a *app) *cobra.Command {
	var (
		model      string
		dictionary string
		fromInput  string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Create the vector database from an embedding model and a dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model != "" {
				a.cfg.Build.Model = model
			}
			if dictionary != "" {
				a.cfg.Build.Dictionary = dictionary
			}
			var respondents []domain.Respondent
			if fromInput != "" {
				var err error
				if respondents, err = service.ReadInput(a.cfg, fromInput); err != nil {
					return err
				}
			}
			built, stats, err := service.Build(cmd.Context(), a.cfg, respondents, a.logger)
			if err != nil {
				return err
			}
			if !built {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", a.cfg.VectorStore.Path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d words (%d dimensions) in %s\n", stats.Stored, stats.Dimension, a.cfg.VectorStore.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Embedding model in text format (word v1 v2 ...)")
	cmd.Flags().StringVar(&dictionary, "dictionary", "", "Dictionary file, one word per line")
	cmd.Flags().StringVar(&fromInput, "dictionary-from-input", "", "Use the words of this dataset as the dictionary")
	a.inputFlags(cmd)
	return cmd
}

func scoreCmd(a *app) *cobra.Command {
	var invalid bool
	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score every respondent of a .csv, .tsv or .xlsx file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if invalid {
				a.cfg.Output.InvalidWords = true
			}
			respondents, err := service.ReadInput(a.cfg, path)
			if err != nil {
				return err
			}
			svc, err := service.NewDATService(cmd.Context(), a.cfg, respondents, a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.ScoreAll(respondents)
			if err != nil {
				return err
			}
			saved, err := svc.Save(res, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scored %d of %d respondents, results in %s\n", res.Scored(), len(res.Order), saved.Results)
			return nil
		},
	}
	cmd.Flags().StringVar(&a.outputDir, "output-dir", "", "Directory for result files")
	cmd.Flags().BoolVar(&invalid, "invalid-words", false, "Also write the invalid words of each respondent")
	a.inputFlags(cmd)
	return cmd
}

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check word1 word2 ...",
		Short: "Score a single answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service.NewDATService(cmd.Context(), a.cfg, []domain.Respondent{{ID: "check", Words: args}}, a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.Score(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "valid:   %v\n", res.Valid)
			fmt.Fprintf(out, "invalid: %v\n", res.Invalid)
			if !res.Scored {
				fmt.Fprintf(out, "not scored: %d of %d valid words\n", len(res.Valid), svc.MinimumWords())
				return nil
			}
			for i, label := range svc.PairLabels() {
				fmt.Fprintf(out, "%s\t%.4f\n", label, res.Distances[i])
			}
			fmt.Fprintf(out, "DAT\t%.2f\n", res.Score)
			return nil
		},
	}
}

func tuiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Score answers interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service.NewDATService(cmd.Context(), a.cfg, nil, a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			m := tui.New(svc, svc.Summary())
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}
