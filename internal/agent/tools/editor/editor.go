// Package editor implements the "str_replace_based_edit_tool": a
// file-editing tool supporting view, create, str_replace, and insert
// commands, with 8-space tab expansion applied for matching and for
// writes.
package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/traeagent/trae-agent-go/internal/agent/tools"
)

const tabWidth = 8

const snippetContext = 4

// Tool implements tools.Tool for viewing and editing text files.
type Tool struct{}

// New returns the file-edit tool.
func New() *Tool { return &Tool{} }

func (*Tool) Name() string { return "str_replace_based_edit_tool" }

func (*Tool) Description() string {
	return "View, create, and edit files. Supports viewing file contents or directory " +
		"listings, creating new files, replacing a unique string occurrence, and " +
		"inserting text after a given line."
}

func (*Tool) Parameters() map[string]tools.ParamDef {
	return map[string]tools.ParamDef{
		"command": {
			Type:        tools.TypeString,
			Description: "The operation to perform.",
			Required:    true,
			Enum:        []string{"view", "create", "str_replace", "insert"},
		},
		"path": {
			Type:        tools.TypeString,
			Description: "Absolute path to the file or directory.",
			Required:    true,
		},
		"view_range": {
			Type:        tools.TypeArray,
			Description: "Optional [start, end] 1-indexed inclusive line range for view; end=-1 means through EOF.",
		},
		"file_text": {
			Type:        tools.TypeString,
			Description: "File content for create.",
		},
		"old_str": {
			Type:        tools.TypeString,
			Description: "The exact text to replace for str_replace; must occur exactly once.",
		},
		"new_str": {
			Type:        tools.TypeString,
			Description: "The replacement text for str_replace, or the text to insert.",
		},
		"insert_line": {
			Type:        tools.TypeInteger,
			Description: "1-indexed line after which to insert; 0 means at the beginning.",
		},
	}
}

func (*Tool) Required() []string { return []string{"command", "path"} }

func (t *Tool) Execute(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	cmd, _ := args["command"].(string)
	path, _ := args["path"].(string)

	if !filepath.IsAbs(path) {
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("path must be absolute: %s", path))
	}

	switch cmd {
	case "view":
		return t.view(path, args)
	case "create":
		return t.create(path, args)
	case "str_replace":
		return t.strReplace(path, args)
	case "insert":
		return t.insert(path, args)
	default:
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("unknown command %q", cmd))
	}
}

func (t *Tool) view(path string, args map[string]any) (*tools.ExecResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, tools.NotFound(path)
	}

	if info.IsDir() {
		if _, ok := args["view_range"]; ok {
			return nil, tools.InvalidArguments(t.Name(), "view_range is not valid for directories")
		}
		return t.viewDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tools.ExecutionFailed(t.Name(), err.Error())
	}
	content := expandTabs(string(data))
	lines := splitLines(content)

	start, end := 1, len(lines)
	if rng, ok := args["view_range"]; ok {
		s, e, err := parseViewRange(rng, len(lines))
		if err != nil {
			return nil, tools.InvalidArguments(t.Name(), err.Error())
		}
		start, end = s, e
	}

	out := renderNumbered(lines, start, end)
	return &tools.ExecResult{Output: &out}, nil
}

// viewDir lists path non-recursively, but one level deeper for each
// subdirectory found: a subdirectory's own entries are listed indented
// beneath it, without descending further.
func (t *Tool) viewDir(path string) (*tools.ExecResult, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, tools.ExecutionFailed(t.Name(), err.Error())
	}

	var lines []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			lines = append(lines, fmt.Sprintf("%s/ (dir)", e.Name()))

			subEntries, err := os.ReadDir(filepath.Join(path, e.Name()))
			if err != nil {
				return nil, tools.ExecutionFailed(t.Name(), err.Error())
			}
			for _, sub := range subEntries {
				if strings.HasPrefix(sub.Name(), ".") {
					continue
				}
				if sub.IsDir() {
					lines = append(lines, fmt.Sprintf("  %s/ (dir)", sub.Name()))
				} else {
					lines = append(lines, fmt.Sprintf("  %s (file)", sub.Name()))
				}
			}
		} else {
			lines = append(lines, fmt.Sprintf("%s (file)", e.Name()))
		}
	}

	out := fmt.Sprintf("Contents of directory %s:\n%s", path, strings.Join(lines, "\n"))
	return &tools.ExecResult{Output: &out}, nil
}

func (t *Tool) create(path string, args map[string]any) (*tools.ExecResult, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("file already exists: %s", path))
	}
	fileText, ok := args["file_text"].(string)
	if !ok {
		return nil, tools.InvalidArguments(t.Name(), "file_text is required for create")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, tools.ExecutionFailed(t.Name(), err.Error())
	}
	if err := os.WriteFile(path, []byte(fileText), 0o644); err != nil {
		return nil, tools.ExecutionFailed(t.Name(), err.Error())
	}
	out := fmt.Sprintf("File created successfully at: %s", path)
	return &tools.ExecResult{Output: &out}, nil
}

func (t *Tool) strReplace(path string, args map[string]any) (*tools.ExecResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tools.NotFound(path)
	}
	content := expandTabs(string(data))
	oldStr := expandTabs(mustString(args["old_str"]))
	newStr := expandTabs(mustString(args["new_str"]))

	count := strings.Count(content, oldStr)
	if count == 0 {
		return nil, tools.ExecutionFailed(t.Name(), fmt.Sprintf("no occurrence of old_str found in %s", path))
	}
	if count > 1 {
		return nil, tools.ExecutionFailed(t.Name(), fmt.Sprintf("old_str found %d times in %s; must be unique", count, path))
	}

	idx := strings.Index(content, oldStr)
	replaced := content[:idx] + newStr + content[idx+len(oldStr):]

	if err := os.WriteFile(path, []byte(replaced), 0o644); err != nil {
		return nil, tools.ExecutionFailed(t.Name(), err.Error())
	}

	lineOfReplacement := strings.Count(content[:idx], "\n") + 1
	lines := splitLines(replaced)
	start := max(1, lineOfReplacement-snippetContext)
	end := min(len(lines), lineOfReplacement+strings.Count(newStr, "\n")+snippetContext)
	snippet := renderNumbered(lines, start, end)
	out := fmt.Sprintf("Replacement successful. Snippet of edited file:\n%s", snippet)
	return &tools.ExecResult{Output: &out}, nil
}

func (t *Tool) insert(path string, args map[string]any) (*tools.ExecResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tools.NotFound(path)
	}
	content := expandTabs(string(data))
	newStr := expandTabs(mustString(args["new_str"]))

	lines := splitLines(content)
	lineCount := len(lines)

	insertLine, err := intArg(args["insert_line"])
	if err != nil {
		return nil, tools.InvalidArguments(t.Name(), err.Error())
	}
	if insertLine < 0 || insertLine > lineCount {
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("insert_line %d out of range [0, %d]", insertLine, lineCount))
	}

	newLines := splitLines(newStr)
	result := make([]string, 0, len(lines)+len(newLines))
	result = append(result, lines[:insertLine]...)
	result = append(result, newLines...)
	result = append(result, lines[insertLine:]...)

	if err := os.WriteFile(path, []byte(strings.Join(result, "\n")), 0o644); err != nil {
		return nil, tools.ExecutionFailed(t.Name(), err.Error())
	}

	start := max(1, insertLine-snippetContext+1)
	end := min(len(result), insertLine+len(newLines)+snippetContext)
	snippet := renderNumbered(result, start, end)
	out := fmt.Sprintf("Insertion successful. Snippet of edited file:\n%s", snippet)
	return &tools.ExecResult{Output: &out}, nil
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// splitLines mirrors Rust's str::lines(): unlike strings.Split, a
// trailing newline does not produce a spurious trailing empty element.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func renderNumbered(lines []string, start, end int) string {
	var b strings.Builder
	for i := start; i <= end && i <= len(lines); i++ {
		fmt.Fprintf(&b, "%6d\t%s\n", i, lines[i-1])
	}
	return b.String()
}

func parseViewRange(raw any, lineCount int) (int, int, error) {
	arr, ok := raw.([]any)
	if !ok || len(arr) != 2 {
		return 0, 0, fmt.Errorf("view_range must be an array of two integers")
	}
	start, err1 := intArg(arr[0])
	end, err2 := intArg(arr[1])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("view_range values must be integers")
	}
	if end == -1 {
		end = lineCount
	}
	if start < 1 || start > lineCount || end < start || end > lineCount {
		return 0, 0, fmt.Errorf("view_range [%d, %d] out of bounds for file with %d lines", start, end, lineCount)
	}
	return start, end, nil
}

func intArg(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func mustString(v any) string {
	s, _ := v.(string)
	return s
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
