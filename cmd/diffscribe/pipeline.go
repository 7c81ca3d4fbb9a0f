package main

import (
	"context"
	"fmt"

	"github.com/agusespa/diffscribe/internal/classifier"
	"github.com/agusespa/diffscribe/internal/git"
	"github.com/agusespa/diffscribe/internal/publish"
	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/pkg/config"
)

type sourceOptions struct {
	repo      string
	branch    string
	github    string
	keepClone bool
}

// newEngine builds the classification engine from the configured rule table
func newEngine(c *config.Config, grammars *syntax.Registry, workers int) (*classifier.Engine, error) {
	rules := classifier.DefaultRules()
	if c.Classifier.RulesFile != "" {
		var err error
		if rules, err = classifier.LoadRules(c.Classifier.RulesFile); err != nil {
			return nil, err
		}
	}
	if workers <= 0 {
		workers = c.Classifier.Workers
	}

	return classifier.NewEngine(rules, grammars,
		classifier.WithLogger(logger),
		classifier.WithWorkers(workers),
	), nil
}

// newSource resolves the change source. The returned cleanup removes any clone
// made for the run.
func newSource(ctx context.Context, c *config.Config, grammars *syntax.Registry, opts sourceOptions) (git.ChangeSource, func(), error) {
	noop := func() {}

	if opts.github != "" {
		source, err := git.NewGitHubSource(git.NewGitHubClient(c.GitHub.Token), opts.github, c.GitHub.RequestsPerSecond, grammars, logger)
		if err != nil {
			return nil, noop, err
		}
		return source, noop, nil
	}

	runner := git.NewRunner(c.Timeout, logger)
	repos := git.NewRepositoryService(runner, c.Repository.WorkDir, logger)

	repo, err := repos.Prepare(ctx, git.RepositoryConfig{URL: opts.repo, Branch: opts.branch})
	if err != nil {
		return nil, noop, err
	}

	cleanup := func() {
		if opts.keepClone {
			return
		}
		if err := repos.Cleanup(repo); err != nil {
			logger.WithError(err).Warn("Failed to clean up repository clone")
		}
	}

	return git.NewSource(runner, repo.Path, grammars, logger), cleanup, nil
}

// newRegistry registers the MDX target, and the Confluence target when configured
func newRegistry(c *config.Config, outputDir string) *publish.Registry {
	registry := publish.NewRegistry()
	registry.Register(publish.TargetMDX, report.NewMDXRenderer(), publish.NewDocumentPublisher(outputDir, logger))

	if c.HasConfluence() {
		client := publish.NewConfluenceClient(publish.ConfluenceConfig{
			BaseURL:           c.Confluence.BaseURL,
			Token:             c.Confluence.Token,
			SpaceKey:          c.Confluence.SpaceKey,
			ParentPageID:      c.Confluence.ParentPageID,
			Timeout:           c.Timeout,
			RequestsPerSecond: c.Confluence.RequestsPerSecond,
		}, logger)
		registry.Register(publish.TargetConfluence, report.NewConfluenceRenderer(), client)
	}

	return registry
}

// outputTarget resolves the target and whether publishing has to be skipped
func outputTarget(c *config.Config, flagTarget, outputDir string) (publish.Target, bool, error) {
	target := publish.Target(c.Output.Target)
	if flagTarget != "" {
		target = publish.Target(flagTarget)
	}

	switch target {
	case publish.TargetMDX:
		if outputDir == "" {
			return "", false, fmt.Errorf("output directory is required for MDX output")
		}
		return target, false, nil
	case publish.TargetConfluence:
		if !c.HasConfluence() {
			logger.Warn("Confluence settings are missing (CONFLUENCE_BASE_URL, CONFLUENCE_TOKEN, CONFLUENCE_SPACE_KEY), skipping documentation")
			return target, true, nil
		}
		return target, false, nil
	default:
		return "", false, fmt.Errorf("unknown output target %q (use confluence or mdx)", target)
	}
}
