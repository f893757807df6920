package ruleset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/telemetry/logging"
)

// commitFiles writes files into the repository's worktree and commits them.
func commitFiles(t *testing.T, repo *gogit.Repository, dir, msg string, files map[string]string) string {
	t.Helper()

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
		_, err := worktree.Add(name)
		require.NoError(t, err)
	}

	hash, err := worktree.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}

// createRulesRepo creates a local repository on branch master holding one
// rule document under rules/.
func createRulesRepo(t *testing.T) (*gogit.Repository, string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	sha := commitFiles(t, repo, dir, "initial rules", map[string]string{
		"rules/launch.yaml": "name: launch\nrules:\n  - id: one\n",
		"README.md":         "rules",
	})
	return repo, dir, sha
}

func newTestGitSource(t *testing.T, remote string) *GitSource {
	t.Helper()
	src, err := NewGitSource(&config.GitConfig{
		Repository: remote,
		Branch:     "master",
		Path:       "rules",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
		Timeout:    10 * time.Second,
	}, nil, logging.Discard())
	require.NoError(t, err)
	return src
}

func TestGitSource_Load(t *testing.T) {
	repo, dir, sha := createRulesRepo(t)
	src := newTestGitSource(t, dir)

	rs, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "launch", rs.Name)
	assert.Equal(t, sha, rs.Revision)
	require.Len(t, rs.Rules, 1)

	head, err := src.Head()
	require.NoError(t, err)
	assert.Equal(t, sha, head)

	// Nothing new upstream.
	result, err := src.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sha, result.FromSHA)
	assert.Equal(t, sha, result.ToSHA)
	assert.False(t, result.RulesChanged)

	// Non-rule changes do not count as rule changes.
	docSHA := commitFiles(t, repo, dir, "docs", map[string]string{"README.md": "more rules"})
	result, err = src.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, docSHA, result.ToSHA)
	assert.Equal(t, []string{"README.md"}, result.ChangedFiles)
	assert.False(t, result.RulesChanged)

	ruleSHA := commitFiles(t, repo, dir, "add rule", map[string]string{
		"rules/launch.yaml": "name: launch\nrules:\n  - id: one\n  - id: two\n",
	})
	result, err = src.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, docSHA, result.FromSHA)
	assert.Equal(t, ruleSHA, result.ToSHA)
	assert.Equal(t, []string{"rules/launch.yaml"}, result.ChangedFiles)
	assert.True(t, result.RulesChanged)

	rs, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ruleSHA, rs.Revision)
	assert.Len(t, rs.Rules, 2)
}

func TestGitSource_ReopensExistingClone(t *testing.T) {
	_, dir, sha := createRulesRepo(t)
	src := newTestGitSource(t, dir)
	_, err := src.Load(context.Background())
	require.NoError(t, err)

	again, err := NewGitSource(src.config, nil, logging.Discard())
	require.NoError(t, err)
	rs, err := again.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sha, rs.Revision)
}

func TestGitSource_CloneFailure(t *testing.T) {
	src := newTestGitSource(t, filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := src.Load(context.Background())
	assert.Error(t, err)

	_, err = src.Head()
	assert.EqualError(t, err, "repository not initialized")
}

func TestGitSource_Poll(t *testing.T) {
	repo, dir, _ := createRulesRepo(t)
	src := newTestGitSource(t, dir)
	_, err := src.Load(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		src.Poll(ctx, 20*time.Millisecond, func(context.Context) error {
			select {
			case changed <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	commitFiles(t, repo, dir, "new rule file", map[string]string{"rules/extra.yml": "rules:\n  - id: extra\n"})

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("Poll did not report the rule change")
	}

	cancel()
	<-done
}

func TestNewGitSource(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.GitConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "git config cannot be nil"},
		{name: "empty repository", cfg: &config.GitConfig{Branch: "main"}, wantErr: "repository URL cannot be empty"},
		{name: "empty branch", cfg: &config.GitConfig{Repository: "https://example.com/r.git"}, wantErr: "branch cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGitSource(tt.cfg, nil, nil)
			assert.EqualError(t, err, tt.wantErr)
		})
	}

	src, err := NewGitSource(&config.GitConfig{Repository: "https://example.com/r.git", Branch: "main", Token: "t"}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, src.auth())
}

func TestHasRuleChanges(t *testing.T) {
	src := &GitSource{config: &config.GitConfig{Path: "rules"}, loader: NewLoader(nil)}

	assert.True(t, src.hasRuleChanges([]string{"rules/a.yaml"}))
	assert.True(t, src.hasRuleChanges([]string{"docs/x.md", "rules/nested/b.yml"}))
	assert.False(t, src.hasRuleChanges([]string{"rules/notes.txt"}))
	assert.False(t, src.hasRuleChanges([]string{"other/a.yaml"}))
	assert.False(t, src.hasRuleChanges([]string{"rules-old/a.yaml"}))

	single := &GitSource{config: &config.GitConfig{Path: "rules.yaml"}, loader: NewLoader(nil)}
	assert.True(t, single.hasRuleChanges([]string{"rules.yaml"}))
	assert.False(t, single.hasRuleChanges([]string{"other.yaml"}))
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abc", shortSHA("abc"))
	assert.Equal(t, "01234567", shortSHA("0123456789abcdef"))
}
