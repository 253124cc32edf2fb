// Package source fetches site content from a git repository.
package source

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// GitOptions configures a git content source.
type GitOptions struct {
	URL       string
	Branch    string
	Depth     int // 0 fetches full history
	Workspace string
	Username  string
	Token     string
}

// Checkout is the result of a fetch.
type Checkout struct {
	Dir    string
	Commit string
}

// Git keeps a working copy of a repository up to date.
type Git struct {
	opts GitOptions
}

// NewGit returns a git source cloning into opts.Workspace.
func NewGit(opts GitOptions) *Git {
	return &Git{opts: opts}
}

// Fetch clones the repository, or pulls when a clone already exists. A
// working copy that cannot be fast-forwarded is replaced by a fresh clone.
func (g *Git) Fetch(ctx context.Context) (Checkout, error) {
	if _, err := os.Stat(filepath.Join(g.opts.Workspace, ".git")); err == nil {
		checkout, err := g.pull(ctx)
		if err == nil {
			return checkout, nil
		}
		slog.Warn("Updating working copy failed, cloning again",
			logfields.URL(g.opts.URL), logfields.Path(g.opts.Workspace), logfields.Error(err))
	}
	return g.clone(ctx)
}

func (g *Git) clone(ctx context.Context) (Checkout, error) {
	slog.Debug("Cloning repository", logfields.URL(g.opts.URL), slog.String("branch", g.opts.Branch),
		logfields.Path(g.opts.Workspace))

	if err := os.RemoveAll(g.opts.Workspace); err != nil {
		return Checkout{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to remove existing workspace").
			WithPath(g.opts.Workspace).Build()
	}

	cloneOptions := &git.CloneOptions{URL: g.opts.URL, Depth: g.opts.Depth, Auth: g.auth()}
	if g.opts.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(g.opts.Branch)
		cloneOptions.SingleBranch = true
	}

	repository, err := git.PlainCloneContext(ctx, g.opts.Workspace, false, cloneOptions)
	if err != nil {
		return Checkout{}, errors.WrapError(err, errors.CategorySource, "failed to clone repository").
			WithContext("url", g.opts.URL).WithContext("branch", g.opts.Branch).Build()
	}
	return g.checkout(repository, "Repository cloned")
}

func (g *Git) pull(ctx context.Context) (Checkout, error) {
	repository, err := git.PlainOpen(g.opts.Workspace)
	if err != nil {
		return Checkout{}, err
	}
	worktree, err := repository.Worktree()
	if err != nil {
		return Checkout{}, err
	}

	pullOptions := &git.PullOptions{RemoteName: "origin", Depth: g.opts.Depth, Auth: g.auth()}
	if g.opts.Branch != "" {
		pullOptions.ReferenceName = plumbing.NewBranchReferenceName(g.opts.Branch)
		pullOptions.SingleBranch = true
	}
	err = worktree.PullContext(ctx, pullOptions)
	if stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return g.checkout(repository, "Repository already up to date")
	}
	if err != nil {
		return Checkout{}, err
	}
	return g.checkout(repository, "Repository updated")
}

func (g *Git) checkout(repository *git.Repository, msg string) (Checkout, error) {
	ref, err := repository.Head()
	if err != nil {
		return Checkout{}, errors.WrapError(err, errors.CategorySource, "failed to resolve HEAD").
			WithPath(g.opts.Workspace).Build()
	}
	commit := ref.Hash().String()
	slog.Info(msg, logfields.URL(g.opts.URL), slog.String("commit", commit[:8]), logfields.Path(g.opts.Workspace))
	return Checkout{Dir: g.opts.Workspace, Commit: commit}, nil
}

func (g *Git) auth() transport.AuthMethod {
	if g.opts.Token == "" {
		return nil
	}
	username := g.opts.Username
	if username == "" {
		username = "token"
	}
	return &http.BasicAuth{Username: username, Password: g.opts.Token}
}
