// Package gitdiff computes and sanitizes git diffs for patch validation
// and persistence (spec §4.7, §8): GetDiff shells out to git, and
// RemovePatchesToTests strips test-only hunks before a diff is judged
// non-empty.
package gitdiff

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Default shells out to the system git binary. It is the GitDiffer the
// Task Agent uses unless a caller substitutes a test double.
type Default struct{}

// GetDiff runs `git --no-pager diff` in projectPath. When baseCommit is
// non-empty it diffs baseCommit against HEAD; otherwise it diffs the
// working tree against the index.
func (Default) GetDiff(ctx context.Context, projectPath, baseCommit string) (string, error) {
	args := []string{"--no-pager", "diff"}
	if strings.TrimSpace(baseCommit) != "" {
		args = append(args, baseCommit, "HEAD")
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = projectPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git diff: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// testPathSuffixes are file endings that mark a path as test-only.
var testPathSuffixes = []string{
	"_test.py",
	"_tests.py",
	".spec.js",
	".test.js",
	".spec.ts",
	".test.ts",
}

// isTestPath reports whether path (a diff's b/ side, with the b/ prefix
// already stripped) belongs to a test file, by the same heuristics as
// the original implementation.
func isTestPath(path string) bool {
	if strings.Contains(path, "/test/") || strings.Contains(path, "/tests/") || strings.Contains(path, "/testing/") {
		return true
	}
	if strings.Contains(path, "test/") || strings.Contains(path, "tests/") || strings.Contains(path, "testing/") {
		return true
	}
	if strings.HasPrefix(path, "test_") {
		return true
	}
	for _, suffix := range testPathSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	base := path
	if idx := strings.LastIndex(base, "/"); idx != -1 {
		base = base[idx+1:]
	}
	if strings.HasPrefix(base, "test_") {
		return true
	}
	if strings.HasSuffix(path, "/tox.ini") || strings.HasSuffix(path, "/pytest.ini") {
		return true
	}

	return false
}

// RemovePatchesToTests strips every "diff --git" chunk whose b/ path is
// a test file, leaving the rest of the diff untouched. A "diff --git"
// line with fewer than 4 whitespace-separated fields is malformed and
// is conservatively treated as not belonging to a test file.
func RemovePatchesToTests(diffText string) string {
	lines := strings.Split(diffText, "\n")
	kept := make([]string, 0, len(lines))

	isTestChunk := false
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git a/") {
			parts := strings.Fields(line)
			if len(parts) < 4 {
				isTestChunk = false
			} else {
				path := strings.TrimPrefix(parts[3], "b/")
				isTestChunk = isTestPath(path)
			}
		}

		if !isTestChunk {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}

// ValidateStructure parses diffText as a multi-file unified diff and
// reports a structural error if it is malformed. It never mutates
// diffText; RemovePatchesToTests's line-based filter is the source of
// truth for what gets persisted.
func ValidateStructure(diffText string) error {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}
	_, err := diff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return fmt.Errorf("malformed diff: %w", err)
	}
	return nil
}
