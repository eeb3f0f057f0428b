// Package gh wraps the GitHub REST API for the release pipeline:
// merged-PR queries for changelog generation, changelog pull requests,
// and the draft-release lifecycle (create, upload assets, download,
// publish, delete).
package gh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// Release URL forms accepted by commands that take --release-url.
var (
	// https://github.com/{owner}/{repo}/releases/tag/{tag}
	releaseHTMLPattern = regexp.MustCompile(`^https://github\.com/(?P<owner>[^/]+)/(?P<repo>[^/]+)/releases/tag/(?P<tag>.+)$`)

	// https://api.github.com/repos/{owner}/{repo}/releases/tags/{tag}
	releaseAPIPattern = regexp.MustCompile(`^https://api\.github\.com/repos/(?P<owner>[^/]+)/(?P<repo>[^/]+)/releases/tags/(?P<tag>.+)$`)
)

// ParseReleaseURL extracts owner, repo, and tag from a release page or
// API URL.
func ParseReleaseURL(url string) (owner, repo, tag string, err error) {
	for _, pattern := range []*regexp.Regexp{releaseHTMLPattern, releaseAPIPattern} {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1], m[2], m[3], nil
		}
	}
	return "", "", "", fmt.Errorf("release url is not valid: %s", url)
}

// PullRequest is the subset of PR data the changelog needs.
type PullRequest struct {
	Number    int
	Title     string
	HTMLURL   string
	UserLogin string
	UserURL   string
}

// Release is the subset of GitHub release data the pipeline needs.
type Release struct {
	ID         int64
	TagName    string
	Target     string
	Name       string
	Body       string
	Draft      bool
	Prerelease bool
	HTMLURL    string
	APIURL     string
	CreatedAt  time.Time
	Assets     []Asset
}

// Asset is a release asset.
type Asset struct {
	ID   int64
	Name string
}

// Client talks to the GitHub API for a single repository.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// New returns a Client for the "owner/name" slug, authenticated when a
// token is given.
func New(slug, token string) (*Client, error) {
	ghc := github.NewClient(nil)
	if token != "" {
		ghc = ghc.WithAuthToken(token)
	}
	return NewWithClient(ghc, slug)
}

// NewWithClient wraps an existing go-github client; used by tests to
// point at a local server.
func NewWithClient(ghc *github.Client, slug string) (*Client, error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q; want owner/name", slug)
	}
	return &Client{gh: ghc, owner: owner, repo: repo}, nil
}

// Slug returns the owner/name this client is bound to.
func (c *Client) Slug() string {
	return c.owner + "/" + c.repo
}

// MergedPullsSince returns PRs merged into branch since the given time,
// oldest first.
func (c *Client) MergedPullsSince(ctx context.Context, branch string, since time.Time) ([]PullRequest, error) {
	query := fmt.Sprintf("repo:%s/%s is:pr is:merged base:%s merged:>=%s",
		c.owner, c.repo, branch, since.UTC().Format("2006-01-02T15:04:05Z"))

	opts := &github.SearchOptions{
		Sort:        "created",
		Order:       "asc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var pulls []PullRequest
	for {
		result, resp, err := c.gh.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("searching merged PRs: %w", err)
		}
		for _, issue := range result.Issues {
			pulls = append(pulls, PullRequest{
				Number:    issue.GetNumber(),
				Title:     issue.GetTitle(),
				HTMLURL:   issue.GetHTMLURL(),
				UserLogin: issue.GetUser().GetLogin(),
				UserURL:   issue.GetUser().GetHTMLURL(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return pulls, nil
}

// PullRequestByNumber fetches a single PR, used to resolve backports to
// their original PR.
func (c *Client) PullRequestByNumber(ctx context.Context, number int) (PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("getting PR #%d: %w", number, err)
	}
	return PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		HTMLURL:   pr.GetHTMLURL(),
		UserLogin: pr.GetUser().GetLogin(),
		UserURL:   pr.GetUser().GetHTMLURL(),
	}, nil
}

// CreatePull opens a pull request and returns its HTML URL.
func (c *Client) CreatePull(ctx context.Context, title, head, base, body string) (string, error) {
	pull, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title:               github.String(title),
		Head:                github.String(head),
		Base:                github.String(base),
		Body:                github.String(body),
		MaintainerCanModify: github.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("creating pull request: %w", err)
	}
	return pull.GetHTMLURL(), nil
}

// ListReleases returns all releases, drafts included.
func (c *Client) ListReleases(ctx context.Context) ([]Release, error) {
	opts := &github.ListOptions{PerPage: 100}

	var releases []Release
	for {
		page, resp, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing releases: %w", err)
		}
		for _, r := range page {
			releases = append(releases, convertRelease(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return releases, nil
}

// ReleaseForURL finds the release whose HTML or API URL matches.
func (c *Client) ReleaseForURL(ctx context.Context, url string) (Release, error) {
	releases, err := c.ListReleases(ctx)
	if err != nil {
		return Release{}, err
	}
	for _, r := range releases {
		if r.HTMLURL == url || r.APIURL == url {
			return r, nil
		}
	}
	return Release{}, fmt.Errorf("no release found for url %s", url)
}

// CreateRelease creates a release (draft or not) and uploads the given
// asset files.
func (c *Client) CreateRelease(ctx context.Context, tag, target, name, body string, draft, prerelease bool, assets []string) (Release, error) {
	rel, _, err := c.gh.Repositories.CreateRelease(ctx, c.owner, c.repo, &github.RepositoryRelease{
		TagName:         github.String(tag),
		TargetCommitish: github.String(target),
		Name:            github.String(name),
		Body:            github.String(body),
		Draft:           github.Bool(draft),
		Prerelease:      github.Bool(prerelease),
	})
	if err != nil {
		return Release{}, fmt.Errorf("creating release: %w", err)
	}

	for _, path := range assets {
		if err := c.uploadAsset(ctx, rel.GetID(), path); err != nil {
			return Release{}, err
		}
	}
	return convertRelease(rel), nil
}

func (c *Client) uploadAsset(ctx context.Context, releaseID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening asset %s: %w", path, err)
	}
	defer f.Close()

	opts := &github.UploadOptions{Name: filepath.Base(path)}
	if _, _, err := c.gh.Repositories.UploadReleaseAsset(ctx, c.owner, c.repo, releaseID, opts, f); err != nil {
		return fmt.Errorf("uploading asset %s: %w", path, err)
	}
	return nil
}

// SetReleaseDraft flips the draft flag on a release, preserving its
// other fields. Returns the updated release.
func (c *Client) SetReleaseDraft(ctx context.Context, rel Release, draft bool) (Release, error) {
	updated, _, err := c.gh.Repositories.EditRelease(ctx, c.owner, c.repo, rel.ID, &github.RepositoryRelease{
		TagName:         github.String(rel.TagName),
		TargetCommitish: github.String(rel.Target),
		Name:            github.String(rel.Name),
		Body:            github.String(rel.Body),
		Draft:           github.Bool(draft),
		Prerelease:      github.Bool(rel.Prerelease),
	})
	if err != nil {
		return Release{}, fmt.Errorf("updating release %s: %w", rel.TagName, err)
	}
	return convertRelease(updated), nil
}

// DeleteRelease removes a release and all of its assets.
func (c *Client) DeleteRelease(ctx context.Context, rel Release) error {
	for _, asset := range rel.Assets {
		if _, err := c.gh.Repositories.DeleteReleaseAsset(ctx, c.owner, c.repo, asset.ID); err != nil {
			return fmt.Errorf("deleting asset %s: %w", asset.Name, err)
		}
	}
	if _, err := c.gh.Repositories.DeleteRelease(ctx, c.owner, c.repo, rel.ID); err != nil {
		return fmt.Errorf("deleting release %s: %w", rel.TagName, err)
	}
	return nil
}

// DownloadAsset writes a release asset to destPath.
func (c *Client) DownloadAsset(ctx context.Context, asset Asset, destPath string) error {
	rc, redirect, err := c.gh.Repositories.DownloadReleaseAsset(ctx, c.owner, c.repo, asset.ID, http.DefaultClient)
	if err != nil {
		return fmt.Errorf("downloading asset %s: %w", asset.Name, err)
	}
	if rc == nil && redirect != "" {
		resp, err := http.Get(redirect)
		if err != nil {
			return fmt.Errorf("downloading asset %s: %w", asset.Name, err)
		}
		rc = resp.Body
	}
	defer rc.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}

// TagCommitMessage returns the message of the commit a tag points at.
func (c *Client) TagCommitMessage(ctx context.Context, tag string) (string, error) {
	commit, _, err := c.gh.Repositories.GetCommit(ctx, c.owner, c.repo, tag, nil)
	if err != nil {
		return "", fmt.Errorf("getting commit for tag %s: %w", tag, err)
	}
	return commit.GetCommit().GetMessage(), nil
}

func convertRelease(r *github.RepositoryRelease) Release {
	rel := Release{
		ID:         r.GetID(),
		TagName:    r.GetTagName(),
		Target:     r.GetTargetCommitish(),
		Name:       r.GetName(),
		Body:       r.GetBody(),
		Draft:      r.GetDraft(),
		Prerelease: r.GetPrerelease(),
		HTMLURL:    r.GetHTMLURL(),
		APIURL:     r.GetURL(),
		CreatedAt:  r.GetCreatedAt().Time,
	}
	for _, a := range r.Assets {
		rel.Assets = append(rel.Assets, Asset{ID: a.GetID(), Name: a.GetName()})
	}
	return rel
}
