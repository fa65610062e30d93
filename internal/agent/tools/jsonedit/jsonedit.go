// Package jsonedit implements the "json_edit_tool": view, set, add and
// remove operations against a JSON file addressed by JSONPath
// expressions.
package jsonedit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pb33f/jsonpath"

	"github.com/traeagent/trae-agent-go/internal/agent/tools"
)

// Tool implements tools.Tool for JSON file surgery.
type Tool struct{}

// New returns the json_edit_tool.
func New() *Tool { return &Tool{} }

func (*Tool) Name() string { return "json_edit_tool" }

func (*Tool) Description() string {
	return "Tool for editing JSON files with JSONPath expressions. Supports view, set, add, remove operations."
}

func (*Tool) Parameters() map[string]tools.ParamDef {
	return map[string]tools.ParamDef{
		"operation": {
			Type:        tools.TypeString,
			Description: "The operation to perform on the JSON file.",
			Required:    true,
			Enum:        []string{"view", "set", "add", "remove"},
		},
		"file_path": {
			Type:        tools.TypeString,
			Description: "Absolute path to the JSON file to edit.",
			Required:    true,
		},
		"json_path": {
			Type:        tools.TypeString,
			Description: "JSONPath expression (e.g., '$.users[0].name'). Required for set, add, remove. Optional for view.",
		},
		"value": {
			Type:        tools.TypeObject,
			Description: "The JSON value to set or add. Required for set and add operations.",
		},
		"pretty_print": {
			Type:        tools.TypeBoolean,
			Description: "Whether to format the JSON output with indentation. Defaults to true.",
		},
	}
}

func (*Tool) Required() []string { return []string{"operation", "file_path"} }

func (t *Tool) Execute(_ context.Context, args map[string]any) (*tools.ExecResult, error) {
	op, _ := args["operation"].(string)
	filePath, _ := args["file_path"].(string)

	if !filepath.IsAbs(filePath) {
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("file_path must be absolute: %s", filePath))
	}

	pretty := true
	if v, ok := args["pretty_print"].(bool); ok {
		pretty = v
	}

	switch strings.ToLower(op) {
	case "view":
		return t.view(filePath, args, pretty)
	case "set", "add":
		return t.setOrAdd(filePath, args, pretty)
	case "remove":
		return t.remove(filePath, args, pretty)
	default:
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("unknown operation %q", op))
	}
}

func (t *Tool) view(filePath string, args map[string]any, pretty bool) (*tools.ExecResult, error) {
	data, err := t.load(filePath)
	if err != nil {
		return nil, err
	}

	jsonPath, hasPath := args["json_path"].(string)
	if !hasPath || jsonPath == "" {
		out := fmt.Sprintf("JSON content of %s:\n%s", filePath, format(data, pretty))
		return &tools.ExecResult{Output: &out}, nil
	}

	results, qerr := queryPath(data, jsonPath)
	if qerr != nil {
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("error selecting with JSONPath '%s': %v", jsonPath, qerr))
	}
	if len(results) == 0 {
		out := fmt.Sprintf("No matches found for JSONPath: %s", jsonPath)
		return &tools.ExecResult{Output: &out}, nil
	}

	var toSerialize any
	if len(results) == 1 {
		toSerialize = results[0]
	} else {
		toSerialize = results
	}
	out := fmt.Sprintf("JSONPath '%s' matches:\n%s", jsonPath, format(toSerialize, pretty))
	return &tools.ExecResult{Output: &out}, nil
}

func (t *Tool) setOrAdd(filePath string, args map[string]any, pretty bool) (*tools.ExecResult, error) {
	jsonPath, ok := args["json_path"].(string)
	if !ok || jsonPath == "" {
		return nil, tools.InvalidArguments(t.Name(), "'json_path' is required for 'set'/'add' operations.")
	}
	value, hasValue := args["value"]
	if !hasValue {
		return nil, tools.InvalidArguments(t.Name(), "'value' is required for 'set'/'add' operations.")
	}

	data, err := t.load(filePath)
	if err != nil {
		return nil, err
	}

	segs, perr := parsePath(jsonPath)
	if perr != nil {
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("invalid JSONPath for 'set': %s: %v", jsonPath, perr))
	}
	newRoot, _ := mutate(data, segs, func(any) (any, bool) { return value, true })

	if err := t.save(filePath, newRoot, pretty); err != nil {
		return nil, err
	}
	out := fmt.Sprintf("Successfully set value at JSONPath '%s' in file '%s'", jsonPath, filePath)
	return &tools.ExecResult{Output: &out}, nil
}

func (t *Tool) remove(filePath string, args map[string]any, pretty bool) (*tools.ExecResult, error) {
	jsonPath, ok := args["json_path"].(string)
	if !ok || jsonPath == "" {
		return nil, tools.InvalidArguments(t.Name(), "'json_path' is required for 'remove' operation.")
	}

	data, err := t.load(filePath)
	if err != nil {
		return nil, err
	}

	segs, perr := parsePath(jsonPath)
	if perr != nil {
		return nil, tools.InvalidArguments(t.Name(), fmt.Sprintf("invalid JSONPath for 'remove': %s: %v", jsonPath, perr))
	}
	newRoot, _ := mutate(data, segs, func(any) (any, bool) { return nil, true })

	if err := t.save(filePath, newRoot, pretty); err != nil {
		return nil, err
	}
	out := fmt.Sprintf("Successfully removed value(s) at JSONPath '%s' in file '%s'", jsonPath, filePath)
	return &tools.ExecResult{Output: &out}, nil
}

func (t *Tool) load(filePath string) (any, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, tools.NotFound(filePath)
	}
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, tools.ExecutionFailed(t.Name(), fmt.Sprintf("failed to read file %s: %v", filePath, err))
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, tools.ExecutionFailed(t.Name(), fmt.Sprintf("file is empty: %s", filePath))
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, tools.ExecutionFailed(t.Name(), fmt.Sprintf("invalid JSON in file %s: %v", filePath, err))
	}
	return data, nil
}

func (t *Tool) save(filePath string, data any, pretty bool) error {
	out := []byte(format(data, pretty))
	if werr := os.WriteFile(filePath, out, 0o644); werr != nil {
		return tools.ExecutionFailed(t.Name(), fmt.Sprintf("failed to write to file %s: %v", filePath, werr))
	}
	return nil
}

func format(v any, pretty bool) string {
	var out []byte
	if pretty {
		out, _ = json.MarshalIndent(v, "", "  ")
	} else {
		out, _ = json.Marshal(v)
	}
	return string(out)
}

// queryPath uses the real JSONPath implementation to select matching
// values for the read-only "view" operation.
func queryPath(data any, path string) ([]any, error) {
	compiled, err := jsonpath.NewPath(path)
	if err != nil {
		return nil, err
	}
	return compiled.Query(data), nil
}

// --- minimal JSONPath subset used for in-place mutation (set/add/remove) ---
//
// The query library above has no mutate-in-place primitive (none of the
// pack's JSONPath libraries expose one), so set/add/remove walk the
// decoded document themselves using the same dotted/bracket path
// grammar, mirroring the original's SelectorMut replace-at-matched-path
// behavior: a path that matches nothing leaves the document unchanged.

type segment struct {
	key      string
	index    int
	wildcard bool
	isIndex  bool
}

func parsePath(path string) ([]segment, error) {
	s := strings.TrimPrefix(path, "$")
	var segs []segment
	for len(s) > 0 {
		switch {
		case s[0] == '.':
			s = s[1:]
		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end == -1 {
				return nil, fmt.Errorf("unterminated bracket in path %q", path)
			}
			inner := s[1:end]
			s = s[end+1:]
			switch {
			case inner == "*":
				segs = append(segs, segment{wildcard: true})
			default:
				if idx, err := strconv.Atoi(inner); err == nil {
					segs = append(segs, segment{isIndex: true, index: idx})
				} else {
					segs = append(segs, segment{key: strings.Trim(inner, `'"`)})
				}
			}
		default:
			j := 0
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			key := s[:j]
			s = s[j:]
			if key == "*" {
				segs = append(segs, segment{wildcard: true})
			} else if key != "" {
				segs = append(segs, segment{key: key})
			}
		}
	}
	return segs, nil
}

// mutate applies fn at every node matched by segs, replacing it with
// fn's return value. It returns the (possibly same, mutated in place)
// root and the number of matches found.
func mutate(current any, segs []segment, fn func(any) (any, bool)) (any, int) {
	if len(segs) == 0 {
		nv, _ := fn(current)
		return nv, 1
	}
	seg := segs[0]
	rest := segs[1:]

	switch {
	case seg.wildcard:
		switch v := current.(type) {
		case []any:
			count := 0
			for i := range v {
				nv, c := mutate(v[i], rest, fn)
				v[i] = nv
				count += c
			}
			return v, count
		case map[string]any:
			count := 0
			for k, child := range v {
				nv, c := mutate(child, rest, fn)
				v[k] = nv
				count += c
			}
			return v, count
		default:
			return current, 0
		}
	case seg.isIndex:
		arr, ok := current.([]any)
		if !ok || seg.index < 0 || seg.index >= len(arr) {
			return current, 0
		}
		nv, c := mutate(arr[seg.index], rest, fn)
		arr[seg.index] = nv
		return arr, c
	default:
		m, ok := current.(map[string]any)
		if !ok {
			return current, 0
		}
		child, exists := m[seg.key]
		if !exists {
			return current, 0
		}
		nv, c := mutate(child, rest, fn)
		m[seg.key] = nv
		return m, c
	}
}
