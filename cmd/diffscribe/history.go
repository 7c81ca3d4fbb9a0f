package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/agusespa/diffscribe/internal/git"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the recent commit history of a repository",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("repo", ".", "Repository URL or local path")
	historyCmd.Flags().String("branch", "", "Branch to read")
	historyCmd.Flags().IntP("limit", "n", 10, "Max commits to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoURL, _ := cmd.Flags().GetString("repo")
	branch, _ := cmd.Flags().GetString("branch")
	limit, _ := cmd.Flags().GetInt("limit")

	runner := git.NewRunner(cfg.Timeout, logger)
	repos := git.NewRepositoryService(runner, cfg.Repository.WorkDir, logger)

	repo, err := repos.Prepare(ctx, git.RepositoryConfig{URL: repoURL, Branch: branch})
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.Cleanup(repo); err != nil {
			logger.WithError(err).Warn("Failed to clean up repository clone")
		}
	}()

	commits, err := repos.CommitHistory(ctx, repo.Path, branch, limit)
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Commit", "Subject", "Author", "When"})
	for _, c := range commits {
		hash := c.Hash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		tbl.AppendRow(table.Row{hash, c.Subject, c.Author, humanize.Time(c.Date)})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d commits", len(commits)), "", "", ""})
	tbl.Render()
	return nil
}
