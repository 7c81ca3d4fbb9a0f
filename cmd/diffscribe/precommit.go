package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/agusespa/diffscribe/internal/agent"
	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
	"github.com/agusespa/diffscribe/pkg/spinner"
)

const cancelledMessage = "Documentation cancelled. Commit aborted."

var precommitCmd = &cobra.Command{
	Use:   "precommit",
	Short: "Preview the documentation of the last commit and confirm it",
	Long: `Preview the documentation generated for the last commit of the working tree
and ask for confirmation before publishing it. Declining exits with status 1 so
the command can gate a git hook.`,
	RunE: runPrecommit,
}

func init() {
	precommitCmd.Flags().BoolP("yes", "y", false, "Confirm without prompting")
	precommitCmd.Flags().Bool("show-body", false, "Print the rendered page body")
	precommitCmd.Flags().String("output", "", "Output target: confluence or mdx (default from config)")
	precommitCmd.Flags().String("output-dir", "", "Directory for MDX documents (default from config)")
}

func runPrecommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	yes, _ := cmd.Flags().GetBool("yes")
	showBody, _ := cmd.Flags().GetBool("show-body")
	output, _ := cmd.Flags().GetString("output")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}

	target, skipPublish, err := outputTarget(cfg, output, outputDir)
	if err != nil {
		return err
	}

	grammars := syntax.NewRegistry()
	engine, err := newEngine(cfg, grammars, 0)
	if err != nil {
		return err
	}
	source, cleanup, err := newSource(ctx, cfg, grammars, sourceOptions{repo: "."})
	if err != nil {
		return err
	}
	defer cleanup()

	renderer, publisher, err := newRegistry(cfg, outputDir).Get(target)
	if err != nil && !skipPublish {
		return err
	}
	if renderer == nil {
		renderer = report.NewConfluenceRenderer()
	}

	docs := agent.NewDocumentationAgent(source, engine, renderer, publisher, logger)
	result, err := docs.Preview(ctx, types.Selector{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Documentation Preview:")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out, result.Page.Title)
	report.WriteSummary(out, result.Changes)
	if showBody {
		fmt.Fprintln(out, result.Page.Body)
	}

	if len(result.Changes) == 0 {
		return nil
	}

	confirmed, err := confirm(yes)
	if err != nil {
		return err
	}
	if !confirmed {
		return exitError{code: 1, message: cancelledMessage}
	}

	if skipPublish {
		return nil
	}
	pageID, err := docs.Publish(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to publish documentation: %w", err)
	}
	fmt.Fprintf(out, "Documentation published: %s\n", pageID)
	return nil
}

// confirm asks on the terminal. Without one only --yes confirms.
func confirm(yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !spinner.IsTerminal(os.Stdin) {
		logger.Warn("No terminal to confirm on; pass --yes to publish non-interactively")
		return false, nil
	}

	var ok bool
	err := huh.NewConfirm().
		Title("Do you want to proceed with this documentation?").
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return ok, nil
}
