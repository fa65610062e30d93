package agent

import "errors"

// Sentinel errors for the agent package.
var (
	// ErrMaxStepsExceeded indicates the loop reached max_steps without completion.
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")

	// ErrNoProjectPath indicates must_patch validation requires a project_path that was never set.
	ErrNoProjectPath = errors.New("must_patch requires project_path")

	// ErrEmptyTask indicates the task text is empty.
	ErrEmptyTask = errors.New("task must not be empty")

	// ErrPatchEmpty indicates the post-completion diff was empty or whitespace-only.
	ErrPatchEmpty = errors.New("patch is empty")

	// ErrPatchDiffFailed indicates the git-diff helper returned an error during validation.
	ErrPatchDiffFailed = errors.New("could not verify patch due to git diff error")
)
