package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/oisplabs/registrar/internal/drift"
)

// publishPR commits the regenerated artifacts on a fresh branch and opens a
// pull request whose body is the drift report.
func (p *Pipeline) publishPR(ctx context.Context, rep *drift.Report) (int, error) {
	branchName := fmt.Sprintf("registrar/sync-%s", time.Now().Format("20060102-150405"))
	commitMsg := "chore(registry): sync model registry"

	gitOps, err := OpenRepo(p.cfg.RepoPath, p.cfg.GitHub.Token)
	if err != nil {
		return 0, err
	}

	if err := gitOps.CreateBranch(branchName); err != nil {
		return 0, fmt.Errorf("creating branch: %w", err)
	}

	if err := gitOps.AddAll(); err != nil {
		return 0, fmt.Errorf("staging changes: %w", err)
	}

	if err := gitOps.Commit(commitMsg); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}

	if err := gitOps.Push(); err != nil {
		return 0, fmt.Errorf("pushing: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.cfg.GitHub.Token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	title := commitMsg
	body := drift.RenderMarkdown(rep, time.Now())

	pr, _, err := client.PullRequests.Create(ctx, p.cfg.GitHub.Owner, p.cfg.GitHub.Repo, &github.NewPullRequest{
		Title: &title,
		Body:  &body,
		Head:  &branchName,
		Base:  &p.cfg.GitHub.BaseBranch,
	})
	if err != nil {
		return 0, fmt.Errorf("creating PR: %w", err)
	}

	slog.Info("PR created",
		"number", pr.GetNumber(),
		"url", pr.GetHTMLURL())

	return pr.GetNumber(), nil
}
