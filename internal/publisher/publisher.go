// Package publisher pushes generated apps to GitHub, one public repository
// per app.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Publisher creates GitHub repositories through the API and pushes app
// directories to them with the git CLI. Repositories are named
// <prefix><app-id>.
type Publisher struct {
	username string
	token    string
	prefix   string
	client   *github.Client
}

// New creates a Publisher. With an empty token the publisher stays in a
// degraded mode where Publish fails fast and apps remain local-only.
func New(username, token, prefix string) *Publisher {
	p := &Publisher{username: username, token: token, prefix: prefix}
	if token == "" {
		log.Println("publisher: GitHub PAT not set, apps will not be pushed")
		return p
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	p.client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	return p
}

// Configured reports whether pushing to GitHub is possible.
func (p *Publisher) Configured() bool {
	return p.token != "" && p.username != ""
}

// RepoName returns the repository name used for an app ID.
func (p *Publisher) RepoName(appID string) string {
	return p.prefix + appID
}

// Publish creates the app's repository and pushes appDir's contents to its
// main branch, returning the repository's browser URL.
func (p *Publisher) Publish(ctx context.Context, appDir, appID, description string) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("github credentials not configured")
	}

	repoName := p.RepoName(appID)
	repoURL := fmt.Sprintf("https://github.com/%s/%s", p.username, repoName)

	// A creation failure is not fatal: the repo may exist already, and the
	// push below surfaces real permission problems anyway.
	if err := p.createRepository(ctx, repoName); err != nil {
		log.Printf("publisher: could not create repository %s, attempting push anyway: %v", repoName, err)
	}

	if err := p.pushDir(ctx, appDir, repoName, commitMessage(description, appID)); err != nil {
		return "", err
	}

	log.Printf("publisher: pushed app %s to %s", appID, repoURL)
	return repoURL, nil
}

func (p *Publisher) createRepository(ctx context.Context, name string) error {
	repo := &github.Repository{
		Name:        github.String(name),
		Description: github.String("App generated by Vibe Coder on " + time.Now().Format("2006-01-02")),
		Private:     github.Bool(false),
		AutoInit:    github.Bool(false),
		HasIssues:   github.Bool(true),
		HasProjects: github.Bool(false),
		HasWiki:     github.Bool(false),
	}

	_, _, err := p.client.Repositories.Create(ctx, "", repo)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnprocessableEntity {
			log.Printf("publisher: repository %s already exists, pushing into it", name)
			return nil
		}
		return fmt.Errorf("failed to create repository %s: %w", name, err)
	}

	log.Printf("publisher: created repository https://github.com/%s/%s", p.username, name)
	return nil
}

// pushDir initializes a throwaway git repository inside dir, commits its
// contents and pushes them to the remote main branch. The .git directory is
// removed again afterwards so a retry starts clean.
func (p *Publisher) pushDir(ctx context.Context, dir, repoName, message string) error {
	gitDir := filepath.Join(dir, ".git")
	os.RemoveAll(gitDir)
	defer os.RemoveAll(gitDir)

	setup := [][]string{
		{"init"},
		{"config", "user.name", "Vibe Coder Bot"},
		{"config", "user.email", "noreply@vibe.coder"},
		{"add", "."},
	}
	for _, args := range setup {
		if out, err := p.git(ctx, dir, args...); err != nil {
			return fmt.Errorf("git %s failed: %w (%s)", args[0], err, out)
		}
	}

	if out, err := p.git(ctx, dir, "commit", "-m", message); err != nil {
		if !strings.Contains(strings.ToLower(out), "nothing to commit") {
			return fmt.Errorf("git commit failed: %w (%s)", err, out)
		}
		if err := p.forceCommit(ctx, dir, message); err != nil {
			return err
		}
	}

	if out, err := p.git(ctx, dir, "branch", "-M", "main"); err != nil {
		return fmt.Errorf("git branch failed: %w (%s)", err, out)
	}

	// May not exist yet, errors are fine.
	_, _ = p.git(ctx, dir, "remote", "remove", "origin")

	pushURL := fmt.Sprintf("https://%s:%s@github.com/%s/%s.git", p.username, p.token, p.username, repoName)
	if out, err := p.git(ctx, dir, "remote", "add", "origin", pushURL); err != nil {
		return fmt.Errorf("git remote add failed: %w (%s)", err, p.redact(out))
	}
	if out, err := p.git(ctx, dir, "push", "-u", "origin", "main"); err != nil {
		return fmt.Errorf("git push failed: %w (%s)", err, p.redact(out))
	}
	return nil
}

// forceCommit touches a README so there is always something to commit, then
// commits again.
func (p *Publisher) forceCommit(ctx context.Context, dir, message string) error {
	readme := filepath.Join(dir, "README.md")
	f, err := os.OpenFile(readme, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to update README: %w", err)
	}
	fmt.Fprintf(f, "\n\nGenerated at: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	f.Close()

	if out, err := p.git(ctx, dir, "add", "README.md"); err != nil {
		return fmt.Errorf("git add failed: %w (%s)", err, out)
	}
	if out, err := p.git(ctx, dir, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit failed after README update: %w (%s)", err, out)
	}
	return nil
}

func (p *Publisher) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// redact strips the access token from git output. Push failures echo the
// remote URL, which embeds the token.
func (p *Publisher) redact(s string) string {
	if p.token == "" {
		return s
	}
	return strings.ReplaceAll(s, p.token, "***")
}

func commitMessage(description, appID string) string {
	return fmt.Sprintf("Add %s app (%s) generated by Vibe Coder", description, appID)
}
