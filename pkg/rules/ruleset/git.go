package ruleset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"mercator-hq/rulekit/pkg/config"
)

// SyncResult describes what a sync changed.
type SyncResult struct {
	FromSHA string
	ToSHA   string

	// ChangedFiles are repository-relative paths that differ between the
	// two commits.
	ChangedFiles []string

	// RulesChanged is true when any changed file is a rule document under
	// the configured path, or when the repository was cloned.
	RulesChanged bool
}

// GitSource loads rules from a path inside a Git repository. The repository
// is cloned on first use and pulled on every later sync.
type GitSource struct {
	config *config.GitConfig
	loader *Loader
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewGitSource creates a git source. The repository is not touched until
// Load or Sync is called.
func NewGitSource(cfg *config.GitConfig, loader *Loader, logger *slog.Logger) (*GitSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("git config cannot be nil")
	}
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}
	if loader == nil {
		loader = NewLoader(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{
		config: cfg,
		loader: loader,
		logger: logger.With("component", "ruleset.git", "repository", cfg.Repository),
	}, nil
}

// Name returns "git".
func (s *GitSource) Name() string { return "git" }

// RulesPath returns the local path rules are loaded from.
func (s *GitSource) RulesPath() string {
	return filepath.Join(s.config.LocalPath, s.config.Path)
}

// Load syncs the repository and loads the rules at HEAD. The ruleset's
// Revision is the HEAD commit SHA.
func (s *GitSource) Load(ctx context.Context) (*Ruleset, error) {
	if _, err := s.Sync(ctx); err != nil {
		return nil, err
	}

	head, err := s.Head()
	if err != nil {
		return nil, err
	}

	rs, err := s.loader.Load(s.RulesPath())
	if err != nil {
		return nil, err
	}
	rs.Revision = head
	return rs, nil
}

// Head returns the SHA of the checked out commit.
func (s *GitSource) Head() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		return "", fmt.Errorf("repository not initialized")
	}
	ref, err := s.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Sync clones the repository if needed, otherwise pulls the tracked branch.
func (s *GitSource) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		if err := s.open(ctx); err != nil {
			return nil, err
		}
		head, err := s.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to get HEAD: %w", err)
		}
		return &SyncResult{ToSHA: head.Hash().String(), RulesChanged: true}, nil
	}
	return s.pull(ctx)
}

// open opens an existing clone at LocalPath or clones the repository there.
func (s *GitSource) open(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(s.config.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(s.config.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo: %w", err)
		}
		s.repo = repo
		_, err = s.pull(ctx)
		return err
	}

	if err := os.MkdirAll(s.config.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	cloneCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	repo, err := gogit.PlainCloneContext(cloneCtx, s.config.LocalPath, false, &gogit.CloneOptions{
		URL:           s.config.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
		Auth:          s.auth(),
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	s.repo = repo

	s.logger.InfoContext(ctx, "repository cloned",
		"branch", s.config.Branch,
		"local_path", s.config.LocalPath,
		"duration", time.Since(start),
	)
	return nil
}

func (s *GitSource) pull(ctx context.Context) (*SyncResult, error) {
	ref, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	fromSHA := ref.Hash().String()

	worktree, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
		Auth:          s.auth(),
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	newRef, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}
	result := &SyncResult{FromSHA: fromSHA, ToSHA: newRef.Hash().String()}
	if result.FromSHA == result.ToSHA {
		return result, nil
	}

	result.ChangedFiles, err = s.changedFiles(result.FromSHA, result.ToSHA)
	if err != nil {
		return nil, err
	}
	result.RulesChanged = s.hasRuleChanges(result.ChangedFiles)

	s.logger.InfoContext(ctx, "repository updated",
		"from_sha", shortSHA(result.FromSHA),
		"to_sha", shortSHA(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
		"rules_changed", result.RulesChanged,
	)
	return result, nil
}

func (s *GitSource) changedFiles(fromSHA, toSHA string) ([]string, error) {
	fromCommit, err := s.repo.CommitObject(plumbing.NewHash(fromSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get from commit: %w", err)
	}
	toCommit, err := s.repo.CommitObject(plumbing.NewHash(toSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get to commit: %w", err)
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get from tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get to tree: %w", err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else if change.From.Name != "" {
			files = append(files, change.From.Name)
		}
	}
	return files, nil
}

// hasRuleChanges reports whether any file is a rule document at or under
// the configured rules path.
func (s *GitSource) hasRuleChanges(files []string) bool {
	root := filepath.ToSlash(filepath.Clean(s.config.Path))
	for _, file := range files {
		if root != "." && file != root && !strings.HasPrefix(file, root+"/") {
			continue
		}
		if s.loader.hasExtension(file) {
			return true
		}
	}
	return false
}

// Poll syncs every interval and calls onChange when rule files changed.
// It blocks until ctx is done. Sync and reload errors are logged.
func (s *GitSource) Poll(ctx context.Context, interval time.Duration, onChange func(context.Context) error) {
	if interval <= 0 {
		interval = config.DefaultGitPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "polling repository", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.Sync(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "repository sync failed", "error", err)
				continue
			}
			if !result.RulesChanged {
				continue
			}
			if err := onChange(ctx); err != nil {
				s.logger.ErrorContext(ctx, "rules reload failed", "to_sha", shortSHA(result.ToSHA), "error", err)
			}
		}
	}
}

func (s *GitSource) auth() transport.AuthMethod {
	if s.config.Token == "" {
		return nil
	}
	username := s.config.Username
	if username == "" {
		username = "git"
	}
	return &http.BasicAuth{Username: username, Password: s.config.Token}
}

func (s *GitSource) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
