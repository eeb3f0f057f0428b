// Package git provides repository utilities for the release pipeline.
// It uses go-git for queries (branch detection, remote resolution, tag
// inspection) and falls back to the git CLI through the run package for
// mutations (checkout, commit, tag, push), which keeps the echoed
// command trail the pipeline's operators expect.
package git

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jovyan123-playground/release-helper/internal/run"
)

// ActionsBotEmail is the email address of the GitHub Actions bot.
// https://github.community/t/github-actions-bot-email-address/17204/6
const ActionsBotEmail = "41898282+github-actions[bot]@users.noreply.github.com"

// Client wraps git operations rooted at a repository directory.
type Client struct {
	Runner run.Runner
	Dir    string
}

// New returns a Client for the repository at dir.
func New(runner run.Runner, dir string) *Client {
	return &Client{Runner: runner, Dir: dir}
}

func (c *Client) open() (*gogit.Repository, error) {
	dir := c.Dir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return repo, nil
}

// CurrentBranch returns the branch to release from. On GitHub Actions
// the event refs take precedence: GITHUB_BASE_REF for PR events,
// GITHUB_REF for push events. Outside Actions the repository HEAD is
// used; detached HEAD returns an error.
func (c *Client) CurrentBranch() (string, error) {
	if base := os.Getenv("GITHUB_BASE_REF"); base != "" {
		return base, nil
	}
	if ref := os.Getenv("GITHUB_REF"); ref != "" {
		// e.g. refs/heads/feature-branch-1
		parts := strings.Split(ref, "/")
		return parts[len(parts)-1], nil
	}

	repo, err := c.open()
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("detached HEAD; pass an explicit branch")
	}
	return head.Name().Short(), nil
}

// ResolveRepo returns the "owner/name" slug for the given remote.
func (c *Client) ResolveRepo(remote string) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}

	r, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("getting remote %q: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", remote)
	}
	return ParseRepoURL(urls[0])
}

// ParseRepoURL extracts "owner/name" from an SSH or HTTPS remote URL.
func ParseRepoURL(url string) (string, error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")
	url = strings.TrimSuffix(url, "/")

	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("cannot parse remote URL %q", url)
	}

	owner := parts[len(parts)-2]
	name := parts[len(parts)-1]
	// SCP-style: git@github.com:owner/name
	if i := strings.LastIndex(owner, ":"); i >= 0 {
		owner = owner[i+1:]
	}
	if owner == "" || name == "" {
		return "", fmt.Errorf("cannot parse remote URL %q", url)
	}
	return owner + "/" + name, nil
}

// HasTag reports whether a tag with the given name exists.
func (c *Client) HasTag(name string) (bool, error) {
	repo, err := c.open()
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err == plumbing.ErrReferenceNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking tag %q: %w", name, err)
	}
	return true, nil
}

// MergedTags returns the tags reachable from ref, ordered by commit
// time ascending so the last element is the most recent release.
func (c *Client) MergedTags(ref string) ([]string, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}

	refCommit, err := resolveCommit(repo, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", ref, err)
	}

	type taggedCommit struct {
		name string
		when time.Time
	}
	var tags []taggedCommit

	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	err = iter.ForEach(func(r *plumbing.Reference) error {
		commit, err := resolveTagCommit(repo, r)
		if err != nil {
			// Tags pointing at trees or blobs are not releases.
			return nil
		}
		merged := commit.Hash == refCommit.Hash
		if !merged {
			merged, err = commit.IsAncestor(refCommit)
			if err != nil {
				return fmt.Errorf("checking ancestry of %s: %w", r.Name().Short(), err)
			}
		}
		if merged {
			tags = append(tags, taggedCommit{name: r.Name().Short(), when: commit.Committer.When})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].when.Equal(tags[j].when) {
			return tags[i].name < tags[j].name
		}
		return tags[i].when.Before(tags[j].when)
	})

	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.name
	}
	return names, nil
}

// LatestTag returns the most recent tag merged into ref.
func (c *Client) LatestTag(ref string) (string, error) {
	tags, err := c.MergedTags(ref)
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("no tags found on %s", ref)
	}
	return tags[len(tags)-1], nil
}

// CommitDate returns the committer timestamp for a revision.
func (c *Client) CommitDate(rev string) (time.Time, error) {
	repo, err := c.open()
	if err != nil {
		return time.Time{}, err
	}
	commit, err := resolveCommit(repo, rev)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolving %q: %w", rev, err)
	}
	return commit.Committer.When, nil
}

// CommitMessage returns the full message of a revision.
func (c *Client) CommitMessage(rev string) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	commit, err := resolveCommit(repo, rev)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", rev, err)
	}
	return commit.Message, nil
}

func resolveCommit(repo *gogit.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, err
	}
	return repo.CommitObject(*hash)
}

func resolveTagCommit(repo *gogit.Repository, ref *plumbing.Reference) (*object.Commit, error) {
	if tag, err := repo.TagObject(ref.Hash()); err == nil {
		return tag.Commit()
	}
	return repo.CommitObject(ref.Hash())
}

// ConfigureActionsUser sets the GitHub Actions bot identity in the
// global git config. Called only when running on Actions.
func (c *Client) ConfigureActionsUser() error {
	if _, err := c.Runner.Run(fmt.Sprintf("git config --global user.email %q", ActionsBotEmail)); err != nil {
		return err
	}
	_, err := c.Runner.Run(`git config --global user.name "GitHub Action"`)
	return err
}

// EnsureRemote adds the remote pointing at repo if it is missing,
// embedding credentials when auth is given.
func (c *Client) EnsureRemote(remote, repoSlug, username, auth string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}

	if _, err := repo.Remote(remote); err == nil {
		return nil
	}

	url := fmt.Sprintf("https://github.com/%s.git", repoSlug)
	if auth != "" {
		url = fmt.Sprintf("https://%s:%s@github.com/%s.git", username, auth, repoSlug)
	}
	_, err = c.Runner.Run(fmt.Sprintf("git remote add %s %s", remote, url))
	return err
}

// FetchTags fetches all tags from the remote.
func (c *Client) FetchTags(remote string) error {
	_, err := c.Runner.Run(fmt.Sprintf("git fetch %s --tags", remote), run.InDir(c.Dir))
	return err
}

// CheckoutBranch fetches branch from remote and checks it out,
// tracking the remote branch when it does not exist locally.
func (c *Client) CheckoutBranch(remote, branch string) error {
	if _, err := c.Runner.Run(fmt.Sprintf("git fetch %s %s --tags", remote, branch), run.InDir(c.Dir)); err != nil {
		return err
	}

	if c.hasLocalBranch(branch) {
		_, err := c.Runner.Run("git checkout "+branch, run.InDir(c.Dir))
		return err
	}
	_, err := c.Runner.Run(fmt.Sprintf("git checkout -B %s %s/%s", branch, remote, branch), run.InDir(c.Dir))
	return err
}

func (c *Client) hasLocalBranch(branch string) bool {
	repo, err := c.open()
	if err != nil {
		return false
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	return err == nil
}

// DefaultBranch returns the remote's HEAD branch name.
func (c *Client) DefaultBranch(remote string) (string, error) {
	out, err := c.Runner.Run("git remote show "+remote, run.InDir(c.Dir))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "HEAD branch") {
			fields := strings.Fields(line)
			name := fields[len(fields)-1]
			parts := strings.Split(name, "/")
			return parts[len(parts)-1], nil
		}
	}
	return "", fmt.Errorf("could not determine default branch of %s", remote)
}

// CreateAnnotatedTag creates the annotated release tag.
func (c *Client) CreateAnnotatedTag(name string) error {
	_, err := c.Runner.Run(fmt.Sprintf("git tag %s -a -m %q", name, "Release "+name), run.InDir(c.Dir))
	return err
}

// CreateReleaseCommit commits all changes with a message embedding the
// sha256 digest of every dist file, so published assets can later be
// verified against the tagged commit. Returns path -> digest.
func (c *Client) CreateReleaseCommit(version, distDir string) (map[string]string, error) {
	pattern := filepath.Join(distDir, "*")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("missing distribution files in %s", distDir)
	}
	sort.Strings(files)

	cmd := fmt.Sprintf("git commit -am %q -m %q", "Publish "+version, "SHA256 hashes:")
	shas := make(map[string]string, len(files))
	for _, path := range files {
		digest, err := ComputeSHA256(path)
		if err != nil {
			return nil, err
		}
		normalized := filepath.ToSlash(path)
		shas[normalized] = digest
		cmd += fmt.Sprintf(" -m %q", normalized+": "+digest)
	}

	if _, err := c.Runner.Run(cmd, run.InDir(c.Dir)); err != nil {
		return nil, err
	}
	return shas, nil
}

// ComputeSHA256 returns the hex sha256 digest of a file.
func ComputeSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
