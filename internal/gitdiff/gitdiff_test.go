package gitdiff

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "test")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestGetDiff_NoChanges(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "a.txt", "hello\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	out, err := (Default{}).GetDiff(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("GetDiff: %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Errorf("expected empty diff, got %q", out)
	}
}

func TestGetDiff_WithUnstagedChanges(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "a.txt", "hello\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	writeFile(t, dir, "a.txt", "hello\nworld\n")

	out, err := (Default{}).GetDiff(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("GetDiff: %v", err)
	}
	if !strings.Contains(out, "a.txt") || !strings.Contains(out, "+world") {
		t.Errorf("expected diff to mention a.txt and +world, got %q", out)
	}
}

func TestGetDiff_BetweenCommits(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "a.txt", "hello\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")

	base, err := exec.Command("git", "-C", dir, "rev-parse", "HEAD").Output()
	if err != nil {
		t.Fatalf("rev-parse: %v", err)
	}
	baseCommit := strings.TrimSpace(string(base))

	writeFile(t, dir, "a.txt", "hello\nworld\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "second")

	out, err := (Default{}).GetDiff(context.Background(), dir, baseCommit)
	if err != nil {
		t.Fatalf("GetDiff: %v", err)
	}
	if !strings.Contains(out, "+world") {
		t.Errorf("expected diff between commits to include +world, got %q", out)
	}
}

const sampleDiff = `diff --git a/src/main.go b/src/main.go
index 1111111..2222222 100644
--- a/src/main.go
+++ b/src/main.go
@@ -1,3 +1,4 @@
 package main
+// change
 func main() {}
diff --git a/src/main_test.go b/src/main_test.go
index 3333333..4444444 100644
--- a/src/main_test.go
+++ b/src/main_test.go
@@ -1,3 +1,4 @@
 package main
+// test change
 func TestMain(t *testing.T) {}
`

func TestRemovePatchesToTests_Simple(t *testing.T) {
	got := RemovePatchesToTests(sampleDiff)
	if strings.Contains(got, "main_test.go") {
		t.Errorf("expected test chunk removed, got %q", got)
	}
	if !strings.Contains(got, "src/main.go") {
		t.Errorf("expected non-test chunk kept, got %q", got)
	}
}

func TestRemovePatchesToTests_VariousPaths(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		isTest bool
	}{
		{"unit test dir", "tests/unit/foo.py", true},
		{"plural tests dir", "pkg/tests/bar.go", true},
		{"testing dir", "internal/testing/helpers.go", true},
		{"go test suffix", "pkg/foo_test.go", true},
		{"python test prefix file", "scripts/test_runner.py", true},
		{"tox ini", "project/tox.ini", true},
		{"pytest ini", "project/pytest.ini", true},
		{"regular source file", "pkg/foo.go", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := "diff --git a/" + c.path + " b/" + c.path + "\nindex 1..2 100644\n--- a/" + c.path + "\n+++ b/" + c.path + "\n@@ -1 +1 @@\n-old\n+new\n"
			got := RemovePatchesToTests(d)
			if c.isTest && strings.Contains(got, c.path) {
				t.Errorf("%s: expected test path removed, got %q", c.path, got)
			}
			if !c.isTest && !strings.Contains(got, c.path) {
				t.Errorf("%s: expected non-test path kept, got %q", c.path, got)
			}
		})
	}
}

func TestRemovePatchesToTests_NoTestFiles(t *testing.T) {
	d := "diff --git a/src/foo.go b/src/foo.go\nindex 1..2 100644\n--- a/src/foo.go\n+++ b/src/foo.go\n@@ -1 +1 @@\n-old\n+new\n"
	got := RemovePatchesToTests(d)
	if got != d {
		t.Errorf("expected diff unchanged, got %q", got)
	}
}

func TestRemovePatchesToTests_OnlyTestFiles(t *testing.T) {
	d := "diff --git a/src/foo_test.go b/src/foo_test.go\nindex 1..2 100644\n--- a/src/foo_test.go\n+++ b/src/foo_test.go\n@@ -1 +1 @@\n-old\n+new\n"
	got := RemovePatchesToTests(d)
	if strings.TrimSpace(got) != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestRemovePatchesToTests_MalformedDiffLine(t *testing.T) {
	d := "diff --git a/weird\nsome content\n"
	got := RemovePatchesToTests(d)
	if !strings.Contains(got, "some content") {
		t.Errorf("malformed diff --git line should not suppress following content, got %q", got)
	}
}

func TestValidateStructure(t *testing.T) {
	if err := ValidateStructure(""); err != nil {
		t.Errorf("empty diff should be valid, got %v", err)
	}
	if err := ValidateStructure(sampleDiff); err != nil {
		t.Errorf("sample diff should be valid, got %v", err)
	}
	if err := ValidateStructure("not a diff at all"); err != nil {
		t.Logf("non-diff text rejected as expected: %v", err)
	}
}
