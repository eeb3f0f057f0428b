// Package release orchestrates the release pipeline: git prep, version
// bumps, changelog maintenance, dist builds, and the GitHub release
// lifecycle.
package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jovyan123-playground/release-helper/internal/bump"
	"github.com/jovyan123-playground/release-helper/internal/changelog"
	"github.com/jovyan123-playground/release-helper/internal/config"
	"github.com/jovyan123-playground/release-helper/internal/errors"
	"github.com/jovyan123-playground/release-helper/internal/gh"
	"github.com/jovyan123-playground/release-helper/internal/git"
	"github.com/jovyan123-playground/release-helper/internal/links"
	"github.com/jovyan123-playground/release-helper/internal/npm"
	"github.com/jovyan123-playground/release-helper/internal/output"
	"github.com/jovyan123-playground/release-helper/internal/python"
	"github.com/jovyan123-playground/release-helper/internal/run"
)

// staleDraftAge is how old a draft release must be before a new draft
// run prunes it.
const staleDraftAge = 24 * time.Hour

// Hub is the GitHub API surface the pipeline needs. *gh.Client
// implements it.
type Hub interface {
	MergedPullsSince(ctx context.Context, branch string, since time.Time) ([]gh.PullRequest, error)
	PullRequestByNumber(ctx context.Context, number int) (gh.PullRequest, error)
	CreatePull(ctx context.Context, title, head, base, body string) (string, error)
	ListReleases(ctx context.Context) ([]gh.Release, error)
	ReleaseForURL(ctx context.Context, url string) (gh.Release, error)
	CreateRelease(ctx context.Context, tag, target, name, body string, draft, prerelease bool, assets []string) (gh.Release, error)
	SetReleaseDraft(ctx context.Context, rel gh.Release, draft bool) (gh.Release, error)
	DeleteRelease(ctx context.Context, rel gh.Release) error
	DownloadAsset(ctx context.Context, asset gh.Asset, destPath string) error
	TagCommitMessage(ctx context.Context, tag string) (string, error)
}

// Pipeline wires the release operations to their dependencies. Dir is
// the repository checkout the pipeline operates on.
type Pipeline struct {
	Cfg    *config.Config
	Runner run.Runner
	Git    *git.Client
	Hub    Hub
	Bumper *bump.Bumper
	Dir    string
	Out    io.Writer
}

// New builds a Pipeline rooted at dir.
func New(cfg *config.Config, runner run.Runner, hub Hub, dir string) *Pipeline {
	return &Pipeline{
		Cfg:    cfg,
		Runner: runner,
		Git:    git.New(runner, dir),
		Hub:    hub,
		Bumper: bump.New(runner, dir),
		Dir:    dir,
		Out:    os.Stdout,
	}
}

func (p *Pipeline) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out(), format+"\n", args...)
}

// result emits a name=value line consumed by workflow steps.
func (p *Pipeline) result(name, value string) {
	output.PrintKeyValue(p.out(), name, value)
}

// Branch returns the configured branch or detects it from the
// environment and repository.
func (p *Pipeline) Branch() (string, error) {
	if p.Cfg.Branch != "" {
		return p.Cfg.Branch, nil
	}
	return p.Git.CurrentBranch()
}

// Repo returns the configured repository slug or resolves it from the
// remote URL.
func (p *Pipeline) Repo() (string, error) {
	if p.Cfg.Repository != "" {
		return p.Cfg.Repository, nil
	}
	return p.Git.ResolveRepo(p.Cfg.Remote)
}

func (p *Pipeline) changelogPath() string {
	path := p.Cfg.ChangelogPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Dir, path)
	}
	return path
}

func (p *Pipeline) distDir() string {
	dir := p.Cfg.DistDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.Dir, dir)
	}
	return dir
}

// PrepGit configures the git identity and remote on CI, fetches tags,
// and checks out the target branch.
func (p *Pipeline) PrepGit(ctx context.Context) error {
	if os.Getenv("GITHUB_ACTIONS") != "" {
		if err := p.Git.ConfigureActionsUser(); err != nil {
			return err
		}
		repo, err := p.Repo()
		if err != nil {
			return err
		}
		if err := p.Git.EnsureRemote(p.Cfg.Remote, repo, p.Cfg.Username, p.Cfg.Auth); err != nil {
			return err
		}
	}

	if err := p.Git.FetchTags(p.Cfg.Remote); err != nil {
		return err
	}

	if p.Cfg.Branch == "" {
		return nil
	}
	return p.Git.CheckoutBranch(p.Cfg.Remote, p.Cfg.Branch)
}

// BumpVersion applies the version spec, validates the result, and
// records branch, version, repository, and prerelease status in the
// output env file when configured.
func (p *Pipeline) BumpVersion(ctx context.Context, versionSpec string) error {
	// Clear stale dist assets from any previous release attempt.
	if err := os.RemoveAll(p.distDir()); err != nil {
		return fmt.Errorf("clearing %s: %w", p.distDir(), err)
	}

	branch, err := p.Branch()
	if err != nil {
		return err
	}
	p.result("branch", branch)

	repo, err := p.Repo()
	if err != nil {
		return err
	}
	p.result("repository", repo)

	if err := p.Bumper.Bump(versionSpec, p.Cfg.VersionCmd); err != nil {
		return err
	}

	version, err := p.Bumper.GetVersion()
	if err != nil {
		return err
	}

	if fileExists(filepath.Join(p.Dir, "setup.py")) && !bump.IsCanonical(version) {
		return fmt.Errorf("invalid version %s", version)
	}

	tagName := "v" + version
	exists, err := p.Git.HasTag(tagName)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("tag %s already exists; to delete run: git push --delete %s %s",
			tagName, p.Cfg.Remote, tagName)
	}

	prerelease, err := bump.IsPrerelease(version)
	if err != nil {
		return err
	}

	p.result("version", version)
	p.result("is_prerelease", fmt.Sprintf("%t", prerelease))

	if p.Cfg.Output != "" {
		p.printf("Writing env variables to %s file", p.Cfg.Output)
		content := fmt.Sprintf("BRANCH=%s\nVERSION=%s\nREPOSITORY=%s\nIS_PRERELEASE=%t",
			branch, version, repo, prerelease)
		if err := os.WriteFile(p.Cfg.Output, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p.Cfg.Output, err)
		}
	}
	return nil
}

// buildEntry generates a fresh changelog entry for the merged PRs
// since the last tag on the target branch.
func (p *Pipeline) buildEntry(ctx context.Context, branch, version string) (string, error) {
	repo, err := p.Repo()
	if err != nil {
		return "", err
	}

	ref := p.Cfg.Remote + "/" + branch
	since, err := p.Git.LatestTag(ref)
	if err != nil {
		// Fall back to the local branch for fresh clones without the
		// remote ref.
		since, err = p.Git.LatestTag(branch)
		if err != nil {
			return "", fmt.Errorf("no tags found on branch %s: %w", branch, err)
		}
		ref = branch
	}
	p.printf("Getting changes to %s since %s...", repo, since)

	sinceDate, err := p.Git.CommitDate(since)
	if err != nil {
		return "", err
	}

	return changelog.BuildEntry(ctx, p.Hub, changelog.EntryOptions{
		Repo:             repo,
		Branch:           branch,
		Version:          version,
		SinceTag:         since,
		SinceDate:        sinceDate,
		ResolveBackports: p.Cfg.ResolveBackports,
	})
}

// BuildChangelog generates the changelog entry for the pending version
// and splices it into the changelog file, preserving any hand edits
// from previous runs.
func (p *Pipeline) BuildChangelog(ctx context.Context) error {
	branch, err := p.Branch()
	if err != nil {
		return err
	}

	version, err := p.Bumper.GetVersion()
	if err != nil {
		return err
	}

	path := p.changelogPath()
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	entry, err := p.buildEntry(ctx, branch, version)
	if err != nil {
		return err
	}

	updated, err := changelog.InsertEntry(string(content), entry, version)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, err = p.Runner.Run("git add "+filepath.ToSlash(p.Cfg.ChangelogPath), run.InDir(p.Dir))
	return err
}

// DraftChangelog opens a pull request with the pending changelog entry.
func (p *Pipeline) DraftChangelog(ctx context.Context, versionSpec string) error {
	branch, err := p.Branch()
	if err != nil {
		return err
	}

	version, err := p.Bumper.GetVersion()
	if err != nil {
		return err
	}

	exists, err := p.Git.HasTag("v" + version)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("tag v%s already exists", version)
	}

	// Drop unstaged changes from the version bump; only the changelog
	// travels in the PR.
	if _, err := p.Runner.Run("git checkout -- .", run.InDir(p.Dir)); err != nil {
		return err
	}

	title := fmt.Sprintf("%s for %s on %s", changelog.PRPrefix, version, branch)
	body := title

	if fileExists(filepath.Join(p.Dir, "package.json")) {
		summary, err := npm.VersionMismatchSummary(p.Dir, version)
		if err != nil {
			return err
		}
		body += summary
	}

	body += "\n\nAfter merging this PR run the \"Draft Release\" Workflow"
	body += fmt.Sprintf("\non Branch: %s", branch)
	body += fmt.Sprintf("\nwith Version Spec: %s", versionSpec)

	commitMessage := fmt.Sprintf("git commit -a -m %q", "Generate changelog for "+version)
	return p.makeChangelogPR(ctx, branch, title, commitMessage, body)
}

// makeChangelogPR commits the working tree changes on a fresh branch
// and opens a pull request against the target branch.
func (p *Pipeline) makeChangelogPR(ctx context.Context, branch, title, commitMessage, body string) error {
	prBranch := "changelog-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	if !p.Cfg.DryRun {
		steps := []string{
			"git --no-pager diff",
			"git stash",
			fmt.Sprintf("git fetch %s %s", p.Cfg.Remote, branch),
			fmt.Sprintf("git checkout -b %s %s/%s", prBranch, p.Cfg.Remote, branch),
			"git stash apply",
		}
		for _, step := range steps {
			if _, err := p.Runner.Run(step, run.InDir(p.Dir)); err != nil {
				return err
			}
		}
	}

	if _, err := p.Runner.Run(commitMessage, run.InDir(p.Dir)); err != nil {
		return err
	}

	if p.Cfg.DryRun {
		p.printf("Skipping pull request due to dry run")
		return nil
	}

	if _, err := p.Runner.Run(fmt.Sprintf("git push %s %s", p.Cfg.Remote, prBranch), run.InDir(p.Dir)); err != nil {
		return err
	}

	url, err := p.Hub.CreatePull(ctx, title, prBranch, branch, body)
	if err != nil {
		return err
	}
	p.result("pr_url", url)
	return nil
}

// CheckChangelog verifies the pending entry against a freshly
// generated one and optionally writes the entry to an output file.
func (p *Pipeline) CheckChangelog(ctx context.Context, output string) error {
	branch, err := p.Branch()
	if err != nil {
		return err
	}

	version, err := p.Bumper.GetVersion()
	if err != nil {
		return err
	}

	path := p.changelogPath()
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	current, err := changelog.ExtractCurrent(string(content))
	if err != nil {
		return err
	}

	generated, err := p.buildEntry(ctx, branch, version)
	if err != nil {
		return err
	}

	if err := changelog.CheckEntry(current, generated, version); err != nil {
		return err
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(current), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
	}
	return nil
}

// TagRelease creates the release commit with asset digests and the
// annotated release tag, plus workspace package tags when present.
func (p *Pipeline) TagRelease(ctx context.Context, noGitTagWorkspace bool) error {
	version, err := p.Bumper.GetVersion()
	if err != nil {
		return err
	}

	if _, err := p.Git.CreateReleaseCommit(version, p.distDir()); err != nil {
		return err
	}

	if err := p.Git.CreateAnnotatedTag("v" + version); err != nil {
		return err
	}

	if noGitTagWorkspace {
		return nil
	}
	return npm.TagWorkspacePackages(p.Runner, p.Dir)
}

// DraftRelease pushes the release branch and creates a draft GitHub
// release carrying the dist assets and the changelog entry as its body.
// Stale draft releases are pruned first.
func (p *Pipeline) DraftRelease(ctx context.Context, assets []string) error {
	branch, err := p.Branch()
	if err != nil {
		return err
	}

	if len(assets) == 0 {
		assets, err = filepath.Glob(filepath.Join(p.distDir(), "*"))
		if err != nil {
			return err
		}
	}
	sort.Strings(assets)

	version, err := p.Bumper.GetVersion()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(p.changelogPath())
	if err != nil {
		return fmt.Errorf("reading %s: %w", p.changelogPath(), err)
	}
	body, err := changelog.ExtractCurrent(string(content))
	if err != nil {
		return err
	}

	if err := p.pruneStaleDrafts(ctx); err != nil {
		return err
	}

	prerelease, err := bump.IsPrerelease(version)
	if err != nil {
		return err
	}

	if p.Cfg.PostVersionSpec != "" {
		if err := p.Bumper.Bump(p.Cfg.PostVersionSpec, p.Cfg.VersionCmd); err != nil {
			return err
		}
		postVersion, err := p.Bumper.GetVersion()
		if err != nil {
			return err
		}
		if fileExists(filepath.Join(p.Dir, "setup.py")) && !bump.IsCanonical(postVersion) {
			return fmt.Errorf("invalid post version %s", postVersion)
		}
		p.printf("Bumped version to %s", postVersion)
		if _, err := p.Runner.Run(fmt.Sprintf("git commit -a -m %q", "Bump to "+postVersion), run.InDir(p.Dir)); err != nil {
			return err
		}
	}

	if !p.Cfg.DryRun {
		cmd := fmt.Sprintf("git push %s HEAD:%s --follow-tags --tags", p.Cfg.Remote, branch)
		if _, err := p.Runner.Run(cmd, run.InDir(p.Dir)); err != nil {
			return err
		}
	}

	p.printf("Creating release for %s", version)
	p.printf("With assets: %s", strings.Join(assets, ", "))

	rel, err := p.Hub.CreateRelease(ctx, "v"+version, branch, "Release v"+version, body, true, prerelease, assets)
	if err != nil {
		return err
	}
	p.result("release_url", rel.HTMLURL)
	return nil
}

func (p *Pipeline) pruneStaleDrafts(ctx context.Context) error {
	releases, err := p.Hub.ListReleases(ctx)
	if err != nil {
		return err
	}
	for _, rel := range releases {
		if !rel.Draft {
			continue
		}
		if time.Since(rel.CreatedAt) < staleDraftAge {
			continue
		}
		output.PrintWarning(p.out(), "Deleting stale draft release for "+rel.TagName)
		if err := p.Hub.DeleteRelease(ctx, rel); err != nil {
			return err
		}
	}
	return nil
}

// ExtractRelease downloads the draft release assets into the dist
// directory, smoke-tests them, and verifies their digests against the
// release commit message.
func (p *Pipeline) ExtractRelease(ctx context.Context, releaseURL string) error {
	rel, err := p.Hub.ReleaseForURL(ctx, releaseURL)
	if err != nil {
		return err
	}

	dist := p.distDir()
	if err := os.RemoveAll(dist); err != nil {
		return fmt.Errorf("clearing %s: %w", dist, err)
	}
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dist, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, asset := range rel.Assets {
		asset := asset
		g.Go(func() error {
			p.printf("Fetching %s...", asset.Name)
			return p.Hub.DownloadAsset(gctx, asset, filepath.Join(dist, asset.Name))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pyBuilder := &python.Builder{Runner: p.Runner, Dir: p.Dir}
	npmBuilder := &npm.Builder{Runner: p.Runner, Dir: p.Dir}

	hasNpm := false
	for _, asset := range rel.Assets {
		path := filepath.Join(dist, asset.Name)
		switch filepath.Ext(asset.Name) {
		case ".gz", ".whl":
			if err := pyBuilder.CheckDist(path, ""); err != nil {
				return err
			}
		case ".tgz":
			hasNpm = true
		default:
			p.printf("Nothing to check for %s", asset.Name)
		}
	}
	if hasNpm {
		if err := npmBuilder.CheckDist(dist, ""); err != nil {
			return err
		}
	}

	// The remote tag does not exist on a dry run, so digests cannot be
	// compared.
	if p.Cfg.DryRun {
		return nil
	}

	message, err := p.Hub.TagCommitMessage(ctx, rel.TagName)
	if err != nil {
		return err
	}

	for _, asset := range rel.Assets {
		digest, err := git.ComputeSHA256(filepath.Join(dist, asset.Name))
		if err != nil {
			return err
		}
		valid := false
		for _, line := range strings.Split(message, "\n") {
			if strings.Contains(line, asset.Name) {
				if strings.Contains(line, digest) {
					valid = true
				} else {
					p.printf("Mismatched sha for %s!", asset.Name)
				}
			}
		}
		if !valid {
			return fmt.Errorf("invalid file %s: digest not in release commit", asset.Name)
		}
	}
	return nil
}

// PublishRelease uploads the extracted assets to their registries and
// takes the GitHub release out of draft.
func (p *Pipeline) PublishRelease(ctx context.Context, releaseURL string) error {
	rel, err := p.Hub.ReleaseForURL(ctx, releaseURL)
	if err != nil {
		return err
	}

	if p.Cfg.NpmToken != "" {
		if err := npm.WriteAuthToken(p.Dir, p.Cfg.NpmToken); err != nil {
			return err
		}
	}

	dist := p.distDir()
	files, err := filepath.Glob(filepath.Join(dist, "*.*"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	found := false
	for _, path := range files {
		name := filepath.Base(path)
		var cmd string
		switch filepath.Ext(name) {
		case ".gz", ".whl":
			cmd = p.Cfg.TwineCommand + " " + name
		case ".tgz":
			cmd = p.Cfg.NpmCommand + " " + name
		default:
			p.printf("Nothing to upload for %s", name)
			continue
		}
		found = true
		if p.Cfg.DryRun {
			p.printf("Skipping %q due to dry run", cmd)
			continue
		}
		if _, err := p.Runner.Run(cmd, run.InDir(dist)); err != nil {
			return err
		}
	}
	if !found {
		return errors.NewRuntimeError(
			"no assets published, refusing to finalize release",
			"Run extract-release first so the dist directory holds the release assets.")
	}

	if p.Cfg.DryRun {
		return nil
	}

	updated, err := p.Hub.SetReleaseDraft(ctx, rel, false)
	if err != nil {
		return err
	}
	output.PrintSuccess(p.out(), "Published release "+updated.TagName)
	p.result("release_url", updated.HTMLURL)
	return nil
}

// DeleteRelease removes a draft release and its assets.
func (p *Pipeline) DeleteRelease(ctx context.Context, releaseURL string) error {
	rel, err := p.Hub.ReleaseForURL(ctx, releaseURL)
	if err != nil {
		return err
	}
	return p.Hub.DeleteRelease(ctx, rel)
}

// ForwardportChangelog ports the changelog entry of a released tag to
// the default branch and opens a pull request with it.
func (p *Pipeline) ForwardportChangelog(ctx context.Context, releaseURL string) error {
	if err := p.PrepGit(ctx); err != nil {
		return err
	}

	rel, err := p.Hub.ReleaseForURL(ctx, releaseURL)
	if err != nil {
		return err
	}
	tag := rel.TagName

	defaultBranch, err := p.Git.DefaultBranch(p.Cfg.Remote)
	if err != nil {
		return err
	}

	checkoutDefault := fmt.Sprintf("git checkout -B %s %s/%s", defaultBranch, p.Cfg.Remote, defaultBranch)
	if _, err := p.Runner.Run(checkoutDefault, run.InDir(p.Dir)); err != nil {
		return err
	}

	merged, err := p.Git.MergedTags(defaultBranch)
	if err != nil {
		return err
	}
	for _, name := range merged {
		if name == tag {
			p.printf("Skipping since tag is already merged into %s", defaultBranch)
			return nil
		}
	}

	// Read the ported entry and its anchor from the tagged changelog.
	if _, err := p.Runner.Run("git checkout "+tag, run.InDir(p.Dir)); err != nil {
		return err
	}
	taggedLog, err := os.ReadFile(p.changelogPath())
	if err != nil {
		return fmt.Errorf("reading %s: %w", p.changelogPath(), err)
	}
	entry, err := changelog.ExtractCurrent(string(taggedLog))
	if err != nil {
		return err
	}
	prevHeader, err := changelog.PreviousHeader(string(taggedLog))
	if err != nil {
		return err
	}

	if _, err := p.Runner.Run(checkoutDefault, run.InDir(p.Dir)); err != nil {
		return err
	}
	defaultLog, err := os.ReadFile(p.changelogPath())
	if err != nil {
		return fmt.Errorf("reading %s: %w", p.changelogPath(), err)
	}

	updated, err := changelog.ForwardportEntry(string(defaultLog), entry, prevHeader)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.changelogPath(), []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p.changelogPath(), err)
	}

	title := fmt.Sprintf("%s Forward Ported from %s", changelog.PRPrefix, tag)
	commitMessage := fmt.Sprintf("git commit -a -m %q", "Forward port changelog entry from "+tag)
	return p.makeChangelogPR(ctx, defaultBranch, title, commitMessage, title)
}

// CheckManifest validates the Python source manifest when the project
// uses one.
func (p *Pipeline) CheckManifest(ctx context.Context) error {
	if fileExists(filepath.Join(p.Dir, "setup.py")) || fileExists(filepath.Join(p.Dir, "MANIFEST.in")) {
		_, err := p.Runner.Run("check-manifest -v", run.InDir(p.Dir))
		return err
	}
	p.printf("Skipping check-manifest: no setup.py or MANIFEST.in")
	return nil
}

// CheckLinks verifies the HTTP links in the repository's markdown
// files, caching results under ~/.cache/release-helper.
func (p *Pipeline) CheckLinks(ctx context.Context) error {
	files, err := links.CollectFiles(p.Dir, p.Cfg.LinksIgnore)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		p.printf("No markdown files to check")
		return nil
	}

	cachePath := ""
	if home, err := os.UserHomeDir(); err == nil {
		cachePath = filepath.Join(home, ".cache", "release-helper", "links.json")
	}

	checker := &links.Checker{
		Client:    &http.Client{Timeout: 10 * time.Second},
		CachePath: cachePath,
		Expiry:    time.Duration(p.Cfg.LinksExpire) * time.Second,
		Out:       p.out(),
	}
	return checker.Check(ctx, files)
}

// BuildPython builds the Python dist files.
func (p *Pipeline) BuildPython(ctx context.Context) error {
	b := &python.Builder{Runner: p.Runner, Dir: p.Dir}
	return b.BuildDist(p.distDir())
}

// CheckPython checks the given Python dist files, or everything in the
// dist dir when none are named.
func (p *Pipeline) CheckPython(ctx context.Context, distFiles []string, testCmd string) error {
	if len(distFiles) == 0 {
		var err error
		distFiles, err = filepath.Glob(filepath.Join(p.distDir(), "*"))
		if err != nil {
			return err
		}
	}
	b := &python.Builder{Runner: p.Runner, Dir: p.Dir}
	for _, path := range distFiles {
		switch filepath.Ext(path) {
		case ".gz", ".whl":
			if err := b.CheckDist(path, testCmd); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildNpm packs the npm package (and workspaces) into the dist dir.
func (p *Pipeline) BuildNpm(ctx context.Context, pkg string) error {
	if pkg == "" {
		pkg = p.Dir
	}
	b := &npm.Builder{Runner: p.Runner, Dir: p.Dir}
	return b.BuildDist(pkg, p.distDir())
}

// CheckNpm installs the packed tarballs into a scratch project and
// requires each package.
func (p *Pipeline) CheckNpm(ctx context.Context, testCmd string) error {
	tarballs, err := filepath.Glob(filepath.Join(p.distDir(), "*.tgz"))
	if err != nil {
		return err
	}
	if len(tarballs) == 0 {
		p.printf("No npm tarballs to check")
		return nil
	}
	b := &npm.Builder{Runner: p.Runner, Dir: p.Dir}
	return b.CheckDist(p.distDir(), testCmd)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
