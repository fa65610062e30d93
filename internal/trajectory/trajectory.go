// Package trajectory records a task execution as a single pretty-printed
// JSON document (spec §6): a header, the ordered list of steps, and a
// summary outcome. It implements the agent.TrajectorySink contract.
package trajectory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/traeagent/trae-agent-go/internal/agent"
	"github.com/traeagent/trae-agent-go/internal/agent/llm"
)

const schemaVersion = "1.0"

// Header is the trajectory file's fixed metadata block.
type Header struct {
	Version   string            `json:"version"`
	Task      string            `json:"task"`
	Provider  string            `json:"provider"`
	Model     string            `json:"model"`
	MaxSteps  int               `json:"max_steps"`
	Timestamp int64             `json:"timestamp"`
	ExtraArgs map[string]string `json:"extra_args,omitempty"`
}

// Document is the full on-disk shape written at finalization.
type Document struct {
	Header      Header             `json:"header"`
	Steps       []agent.StepRecord `json:"steps"`
	Success     bool               `json:"success"`
	FinalResult string             `json:"final_result,omitempty"`
	TotalTokens *llm.TokenUsage    `json:"total_tokens,omitempty"`
}

// Recorder implements agent.TrajectorySink, buffering steps in memory
// and writing the full document to path on Finalize.
type Recorder struct {
	path string

	mu  sync.Mutex
	doc Document
}

// New constructs a Recorder seeded with the header fields new_task
// captures (spec §4.7), ready to accept RecordStep calls. path's parent
// directories are created eagerly so a late write failure is visible at
// task-setup time rather than silently at the end.
func New(path, task, provider, model string, maxSteps int, extraArgs map[string]string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating trajectory directory: %w", err)
	}

	return &Recorder{
		path: path,
		doc: Document{
			Header: Header{
				Version:   schemaVersion,
				Task:      task,
				Provider:  provider,
				Model:     model,
				MaxSteps:  maxSteps,
				Timestamp: time.Now().Unix(),
				ExtraArgs: extraArgs,
			},
		},
	}, nil
}

// RecordStep appends step to the in-memory document. It never errors;
// the return type matches agent.TrajectorySink's interface but this
// implementation only fails at Finalize's write.
func (r *Recorder) RecordStep(step agent.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc.Steps = append(r.doc.Steps, step)
	return nil
}

// Finalize sets the outcome fields and writes the full document,
// pretty-printed, truncating any existing file at path.
func (r *Recorder) Finalize(success bool, finalResult string, totalTokens llm.TokenUsage) error {
	r.mu.Lock()
	r.doc.Success = success
	r.doc.FinalResult = finalResult
	if totalTokens.TotalTokens > 0 || totalTokens.PromptTokens > 0 {
		tokens := totalTokens
		r.doc.TotalTokens = &tokens
	}
	data, err := json.MarshalIndent(r.doc, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling trajectory: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing trajectory file %s: %w", r.path, err)
	}
	return nil
}

// Load reads and parses a trajectory file previously written by Finalize.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trajectory file %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing trajectory file %s: %w", path, err)
	}
	return &doc, nil
}
