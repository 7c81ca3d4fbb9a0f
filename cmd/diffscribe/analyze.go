package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agusespa/diffscribe/internal/agent"
	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze recent changes and publish documentation",
	Long: `Analyze the changes of a repository and publish a change report.

Without --start-commit/--end-commit the last commit is compared to its parent.

Examples:
  # Document the last commit of the current repository in Confluence
  diffscribe analyze

  # Analyze a range of a remote repository and write MDX documents
  diffscribe analyze --repo https://github.com/acme/shop.git --start-commit v1.2.0 --end-commit v1.3.0 \
    --output mdx --output-dir docs/changes

  # Print the analysis only
  diffscribe analyze --skip-doc`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("repo", ".", "Repository URL or local path")
	analyzeCmd.Flags().String("branch", "", "Branch to analyze")
	analyzeCmd.Flags().String("start-commit", "", "Start of the revision range")
	analyzeCmd.Flags().String("end-commit", "", "End of the revision range")
	analyzeCmd.Flags().String("output", "", "Output target: confluence or mdx (default from config)")
	analyzeCmd.Flags().String("output-dir", "", "Directory for MDX documents (default from config)")
	analyzeCmd.Flags().Bool("skip-doc", false, "Skip publishing documentation")
	analyzeCmd.Flags().String("github", "", "Read changes through the GitHub API from owner/repo instead of git")
	analyzeCmd.Flags().Int("workers", 0, "Concurrent classifications (default from config)")
	analyzeCmd.Flags().Bool("keep-clone", false, "Keep the cloned repository after the run")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, _ := cmd.Flags().GetString("repo")
	branch, _ := cmd.Flags().GetString("branch")
	start, _ := cmd.Flags().GetString("start-commit")
	end, _ := cmd.Flags().GetString("end-commit")
	output, _ := cmd.Flags().GetString("output")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	skipDoc, _ := cmd.Flags().GetBool("skip-doc")
	github, _ := cmd.Flags().GetString("github")
	workers, _ := cmd.Flags().GetInt("workers")
	keepClone, _ := cmd.Flags().GetBool("keep-clone")

	selector := types.Selector{Branch: branch, From: start, To: end}
	if err := selector.Validate(); err != nil {
		return err
	}

	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	target, skipPublish, err := outputTarget(cfg, output, outputDir)
	if err != nil {
		return err
	}
	skipDoc = skipDoc || skipPublish

	grammars := syntax.NewRegistry()
	engine, err := newEngine(cfg, grammars, workers)
	if err != nil {
		return err
	}

	source, cleanup, err := newSource(ctx, cfg, grammars, sourceOptions{repo: repo, branch: branch, github: github, keepClone: keepClone})
	if err != nil {
		return err
	}
	defer cleanup()

	registry := newRegistry(cfg, outputDir)
	renderer, publisher, err := registry.Get(target)
	if err != nil && !skipDoc {
		return err
	}
	if renderer == nil {
		renderer = report.NewConfluenceRenderer()
	}

	docs := agent.NewDocumentationAgent(source, engine, renderer, publisher, logger)
	result, err := docs.Preview(ctx, selector)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analyzed %s\n", selector)
	report.WriteSummary(out, result.Changes)

	if skipDoc || len(result.Changes) == 0 {
		return nil
	}

	pageID, err := docs.Publish(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to publish documentation: %w", err)
	}
	fmt.Fprintf(out, "Documentation published: %s\n", pageID)
	return nil
}
