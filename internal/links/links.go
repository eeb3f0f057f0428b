// Package links checks that HTTP links in markdown files resolve.
//
// Successful checks are cached on disk with an expiry so repeated runs
// in CI do not hammer external sites. Failures get one retry pass
// before the check is considered broken.
package links

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/sync/errgroup"
)

// skipDirs are never descended into when collecting markdown files.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".ipynb_checkpoints": true,
}

// CollectFiles walks root for markdown files, skipping any whose base
// name or relative path matches an ignore glob.
func CollectFiles(root string, ignore []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		for _, pattern := range ignore {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				return nil
			}
			if ok, _ := filepath.Match(pattern, rel); ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// ExtractLinks returns the unique http(s) destinations referenced by a
// markdown document, in order of first appearance.
func ExtractLinks(source []byte) []string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))

	var links []string
	seen := map[string]bool{}
	add := func(dest string) {
		if !strings.HasPrefix(dest, "http://") && !strings.HasPrefix(dest, "https://") {
			return
		}
		if !seen[dest] {
			seen[dest] = true
			links = append(links, dest)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			add(string(v.Destination))
		case *ast.Image:
			add(string(v.Destination))
		case *ast.AutoLink:
			add(string(v.URL(source)))
		}
		return ast.WalkContinue, nil
	})
	return links
}

// cache maps a URL to the unix time it last checked out.
type cache map[string]int64

func loadCache(path string) cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return cache{}
	}
	var c cache
	if err := json.Unmarshal(data, &c); err != nil {
		return cache{}
	}
	return c
}

func (c cache) save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Checker verifies links with a shared HTTP client and an on-disk
// result cache.
type Checker struct {
	// Client defaults to a client with a 10 second timeout.
	Client *http.Client

	// CachePath holds successful checks between runs. Empty disables
	// the cache.
	CachePath string

	// Expiry is how long a cached success stays valid.
	Expiry time.Duration

	// Concurrency bounds parallel requests. Defaults to 8.
	Concurrency int

	// Out receives progress lines. Defaults to os.Stdout.
	Out io.Writer
}

func (c *Checker) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Checker) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// Check verifies every link in the given markdown files. Broken links
// are retried once; any that still fail produce an error naming each
// link and the files that reference it.
func (c *Checker) Check(ctx context.Context, files []string) error {
	linkFiles := map[string][]string{}
	for _, file := range files {
		source, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		for _, link := range ExtractLinks(source) {
			linkFiles[link] = append(linkFiles[link], file)
		}
	}

	results := loadCache(c.CachePath)
	now := time.Now().Unix()
	expiry := int64(c.Expiry / time.Second)

	var pending []string
	for link := range linkFiles {
		if checked, ok := results[link]; ok && expiry > 0 && now-checked < expiry {
			continue
		}
		pending = append(pending, link)
	}
	sort.Strings(pending)

	failed := c.checkAll(ctx, pending, results)
	if len(failed) > 0 {
		// One retry pass for transient failures.
		fmt.Fprintf(c.out(), "Retrying %d failed link(s)...\n", len(failed))
		failed = c.checkAll(ctx, failed, results)
	}

	if err := results.save(c.CachePath); err != nil {
		return fmt.Errorf("saving link cache: %w", err)
	}

	if len(failed) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("broken links:")
	for _, link := range failed {
		refs := linkFiles[link]
		sort.Strings(refs)
		fmt.Fprintf(&b, "\n  %s (in %s)", link, strings.Join(refs, ", "))
	}
	return fmt.Errorf("%s", b.String())
}

func (c *Checker) checkAll(ctx context.Context, links []string, results cache) []string {
	limit := c.Concurrency
	if limit <= 0 {
		limit = 8
	}

	var mu sync.Mutex
	var failed []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, link := range links {
		link := link
		g.Go(func() error {
			if err := c.checkOne(ctx, link); err != nil {
				fmt.Fprintf(c.out(), "FAIL %s: %v\n", link, err)
				mu.Lock()
				failed = append(failed, link)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			results[link] = time.Now().Unix()
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	return failed
}

// checkOne tries HEAD first and falls back to GET, since some servers
// reject HEAD requests.
func (c *Checker) checkOne(ctx context.Context, link string) error {
	if err := c.request(ctx, http.MethodHead, link); err == nil {
		return nil
	}
	return c.request(ctx, http.MethodGet, link)
}

func (c *Checker) request(ctx context.Context, method, link string) error {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
