// Package changelog implements the changelog entry state machine.
//
// A changelog file carries a pair of HTML comment markers that bracket
// the entry under construction. Entry generation is additive: when the
// pending entry already covers the target version, newly generated
// lines only fill in PRs that were not there before, and lines carrying
// a PR reference that is already present are kept verbatim so hand
// edits survive regeneration.
package changelog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jovyan123-playground/release-helper/internal/gh"
)

const (
	// StartMarker and EndMarker delimit the pending changelog entry.
	StartMarker = "<!-- <START NEW CHANGELOG ENTRY> -->"
	EndMarker   = "<!-- <END NEW CHANGELOG ENTRY> -->"

	// PRPrefix starts the title of every automated changelog PR.
	PRPrefix = "Automated Changelog Entry"
)

var (
	// prRefPattern matches a markdown PR reference like "[#123]".
	prRefPattern = regexp.MustCompile(`\[#\d+\]`)

	// prNumberPattern captures the PR number from a reference.
	prNumberPattern = regexp.MustCompile(`\[#(\d+)\]`)

	// backportPattern captures the original PR number of a backport.
	backportPattern = regexp.MustCompile(`Backport PR #(\d+)`)
)

// backportBot is the account that opens automated backport PRs.
const backportBot = "meeseeksmachine"

// Validate checks that content carries exactly one marker pair.
func Validate(content string) error {
	start := strings.Index(content, StartMarker)
	end := strings.Index(content, EndMarker)

	if start == -1 || end == -1 {
		return fmt.Errorf("missing new changelog entry delimiter(s)")
	}
	if start != strings.LastIndex(content, StartMarker) {
		return fmt.Errorf("start marker appears more than once in changelog")
	}
	if end != strings.LastIndex(content, EndMarker) {
		return fmt.Errorf("end marker appears more than once in changelog")
	}
	if end < start {
		return fmt.Errorf("end marker appears before start marker")
	}
	return nil
}

// ExtractCurrent returns the pending entry between the markers, with
// surrounding whitespace trimmed.
func ExtractCurrent(content string) (string, error) {
	if err := Validate(content); err != nil {
		return "", err
	}
	start := strings.Index(content, StartMarker) + len(StartMarker)
	end := strings.Index(content, EndMarker)
	return strings.TrimSpace(content[start:end]), nil
}

// FormatPR renders a single PR bullet in changelog style.
func FormatPR(pr gh.PullRequest) string {
	return fmt.Sprintf("- %s [#%d](%s) ([@%s](%s))",
		pr.Title, pr.Number, pr.HTMLURL, pr.UserLogin, pr.UserURL)
}

// PullSource supplies the PR data an entry is generated from.
type PullSource interface {
	MergedPullsSince(ctx context.Context, branch string, since time.Time) ([]gh.PullRequest, error)
	PullRequestByNumber(ctx context.Context, number int) (gh.PullRequest, error)
}

// EntryOptions configure entry generation.
type EntryOptions struct {
	// Repo is the owner/name slug.
	Repo string
	// Branch is the target branch.
	Branch string
	// Version is the new version the entry describes.
	Version string
	// SinceTag is the most recent tag merged into the branch.
	SinceTag string
	// SinceDate is the commit date of SinceTag.
	SinceDate time.Time
	// ResolveBackports swaps backport PRs for their originals.
	ResolveBackports bool
}

// BuildEntry generates a fresh changelog entry for the merged PRs since
// the last tag.
func BuildEntry(ctx context.Context, source PullSource, opts EntryOptions) (string, error) {
	pulls, err := source.MergedPullsSince(ctx, opts.Branch, opts.SinceDate)
	if err != nil {
		return "", err
	}

	if len(pulls) == 0 {
		return fmt.Sprintf("## %s\nNo merged PRs", opts.Version), nil
	}

	if opts.ResolveBackports {
		for i, pr := range pulls {
			if pr.UserLogin != backportBot {
				continue
			}
			m := backportPattern.FindStringSubmatch(pr.Title)
			if m == nil {
				continue
			}
			number, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			original, err := source.PullRequestByNumber(ctx, number)
			if err != nil {
				return "", fmt.Errorf("resolving backport PR #%d: %w", pr.Number, err)
			}
			pulls[i] = original
		}
	}

	compare := fmt.Sprintf("([Full Changelog](https://github.com/%s/compare/%s...%s))",
		opts.Repo, opts.SinceTag, opts.Branch)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", opts.Version, compare)
	for _, pr := range pulls {
		b.WriteString(FormatPR(pr))
		b.WriteByte('\n')
	}
	b.WriteString("\n### Contributors\n\n")
	for _, line := range contributorLines(pulls) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}

func contributorLines(pulls []gh.PullRequest) []string {
	seen := map[string]string{}
	for _, pr := range pulls {
		if pr.UserLogin != "" {
			seen[pr.UserLogin] = pr.UserURL
		}
	}
	logins := make([]string, 0, len(seen))
	for login := range seen {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	lines := make([]string, 0, len(logins))
	for _, login := range logins {
		lines = append(lines, fmt.Sprintf("- [@%s](%s)", login, seen[login]))
	}
	return lines
}

// InsertEntry splices the entry into the changelog at the markers.
//
// If the pending entry already covers the same version the merge is
// additive: generated lines whose PR reference already appears in the
// pending entry are replaced with the existing line, so hand edits are
// preserved while new PRs are picked up.
func InsertEntry(content, entry, version string) (string, error) {
	if err := Validate(content); err != nil {
		return "", err
	}

	newEntry := StartMarker + "\n\n" + strings.TrimSpace(entry) + "\n\n" + EndMarker
	prev := content[strings.Index(content, StartMarker) : strings.Index(content, EndMarker)+len(EndMarker)]

	if version != "" && strings.Contains(prev, "# "+version) {
		oldLines := strings.Split(prev, "\n")
		lines := strings.Split(newEntry, "\n")
		for i, line := range lines {
			ref := prRefPattern.FindString(line)
			if ref == "" {
				continue
			}
			for _, old := range oldLines {
				if strings.Contains(old, ref) {
					lines[i] = old
				}
			}
		}
		return strings.Replace(content, prev, strings.Join(lines, "\n"), 1), nil
	}

	// The pending entry covers an older version; close it out and
	// open a fresh one above it.
	content = strings.ReplaceAll(content, EndMarker+"\n\n", "")
	content = strings.ReplaceAll(content, EndMarker+"\n", "")
	content = strings.ReplaceAll(content, EndMarker, "")
	return strings.Replace(content, StartMarker, newEntry, 1), nil
}

// PRNumbers returns the PR numbers referenced by an entry, in order of
// first appearance.
func PRNumbers(entry string) []string {
	var numbers []string
	for _, m := range prNumberPattern.FindAllStringSubmatch(entry, -1) {
		numbers = append(numbers, m[1])
	}
	return numbers
}

// CheckEntry verifies the pending entry against a freshly generated
// one: it must cover the version, include every generated PR, and
// reference no PR that does not belong. A PR whose generated line
// mentions the changelog itself may be absent, since the changelog PR
// often lands after the entry was written.
func CheckEntry(current, generated, version string) error {
	if !strings.Contains(current, "# "+version) {
		return fmt.Errorf("did not find entry for %s", version)
	}

	currentPRs := PRNumbers(current)
	generatedPRs := PRNumbers(generated)

	currentSet := map[string]bool{}
	for _, pr := range currentPRs {
		currentSet[pr] = true
	}
	generatedSet := map[string]bool{}
	for _, pr := range generatedPRs {
		generatedSet[pr] = true
	}

	for _, pr := range generatedPRs {
		if currentSet[pr] {
			continue
		}
		if isChangelogPR(generated, pr) {
			continue
		}
		return fmt.Errorf("missing PR #%s in changelog", pr)
	}
	for _, pr := range currentPRs {
		if !generatedSet[pr] {
			return fmt.Errorf("PR #%s does not belong in changelog for %s", pr, version)
		}
	}
	return nil
}

func isChangelogPR(generated, pr string) bool {
	ref := "[#" + pr + "]"
	for _, line := range strings.Split(generated, "\n") {
		if strings.Contains(line, ref) && strings.Contains(strings.ToLower(line), "changelog") {
			return true
		}
	}
	return false
}

// PreviousHeader returns the first markdown header after the end
// marker. It anchors where a forward-ported entry belongs in the
// default branch changelog.
func PreviousHeader(content string) (string, error) {
	start := strings.Index(content, EndMarker)
	if start == -1 {
		return "", fmt.Errorf("missing end marker in changelog")
	}
	for _, line := range strings.Split(content[start:], "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			return line, nil
		}
	}
	return "", fmt.Errorf("no anchor for previous entry")
}

// ForwardportEntry places an entry from a release branch into the
// default branch changelog, anchored by the header that preceded it on
// the release branch. When that header is still the pending entry on
// the default branch the markers move above the new entry; otherwise
// the entry lands directly ahead of the header.
func ForwardportEntry(content, entry, prevHeader string) (string, error) {
	if !strings.Contains(content, prevHeader) {
		return "", fmt.Errorf("could not find previous header %q in changelog", prevHeader)
	}

	currentEntry, err := ExtractCurrent(content)
	if err != nil {
		return "", err
	}

	if strings.Contains(currentEntry, prevHeader) {
		return InsertEntry(content, entry, "")
	}

	point := strings.Index(content, prevHeader)
	return content[:point] + strings.TrimSpace(entry) + "\n\n" + content[point:], nil
}
