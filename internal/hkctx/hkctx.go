// Package hkctx implements HookContext (spec §4.2): the state shared by
// every step and job within a single hook run. Each logically
// independent field is guarded by its own mutex rather than one global
// lock, so that, e.g., appending step output never blocks a counter
// increment on another goroutine.
package hkctx

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/gitwt"
	"github.com/jdx/hk/internal/skipreason"
)

// StepOutput is one step's aggregated captured output, split by stream
// per spec §4.6 step 10. All three are always kept; a step's
// output_summary setting is not consulted here.
type StepOutput struct {
	Stdout   string
	Stderr   string
	Combined string
}

// Context is the shared, reference-counted state object threaded through
// a hook run. Construct one per `hk check`/`hk fix`/`hk run` invocation.
type Context struct {
	Hook     *config.Hook
	RunType  config.RunType
	Settings config.Settings
	Worktree *gitwt.Worktree

	sem *semaphore.Weighted

	filesMu sync.RWMutex
	files   []string

	cancelled atomic.Bool

	countersMu   sync.Mutex
	totalJobs    int
	completedJob int

	skipsMu sync.Mutex
	skips   map[string]skipreason.Reason

	outputsMu sync.Mutex
	outputs   map[string]*StepOutput

	suggestionsMu sync.Mutex
	suggestions   []string

	exprVarsMu sync.RWMutex
	exprVars   map[string]string
}

// New builds a Context for a hook run over the given initial file set.
func New(hook *config.Hook, runType config.RunType, settings config.Settings, wt *gitwt.Worktree, files []string) *Context {
	jobs := settings.Jobs
	if jobs < 1 {
		jobs = 1
	}
	return &Context{
		Hook:        hook,
		RunType:     runType,
		Settings:    settings,
		Worktree:    wt,
		sem:         semaphore.NewWeighted(int64(jobs)),
		files:       append([]string(nil), files...),
		skips:       map[string]skipreason.Reason{},
		outputs:     map[string]*StepOutput{},
		exprVars:    map[string]string{},
	}
}

// Files returns a snapshot of the current file set.
func (c *Context) Files() []string {
	c.filesMu.RLock()
	defer c.filesMu.RUnlock()
	out := make([]string, len(c.files))
	copy(out, c.files)
	return out
}

// AddFiles appends newly-created paths (e.g. a fix command creating a
// generated file) to the shared file set.
func (c *Context) AddFiles(paths []string) {
	if len(paths) == 0 {
		return
	}
	c.filesMu.Lock()
	defer c.filesMu.Unlock()
	c.files = append(c.files, paths...)
}

// AcquirePermit blocks until a semaphore slot is free.
func (c *Context) AcquirePermit(ctx context.Context) error {
	return c.sem.Acquire(ctx, 1)
}

// ReleasePermit returns a semaphore slot.
func (c *Context) ReleasePermit() {
	c.sem.Release(1)
}

// Cancel sets the shared cancellation flag (spec §5: first failure sets
// it only when fail_fast is enabled; interrupts always set it).
func (c *Context) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether cancellation has fired.
func (c *Context) Cancelled() bool {
	return c.cancelled.Load()
}

// IncTotalJobs adds n to the total-jobs counter. The scheduler calls it
// once per step with the number of jobs it built for that step; no slot
// is reserved for a step before its jobs are built.
func (c *Context) IncTotalJobs(n int) {
	c.countersMu.Lock()
	defer c.countersMu.Unlock()
	c.totalJobs += n
}

// IncCompletedJobs records n more completed jobs.
func (c *Context) IncCompletedJobs(n int) {
	c.countersMu.Lock()
	defer c.countersMu.Unlock()
	c.completedJob += n
}

// JobCounts returns (completed, total) for progress reporting.
func (c *Context) JobCounts() (int, int) {
	c.countersMu.Lock()
	defer c.countersMu.Unlock()
	return c.completedJob, c.totalJobs
}

// TrackSkip records why a step or job was skipped.
func (c *Context) TrackSkip(name string, reason skipreason.Reason) {
	c.skipsMu.Lock()
	defer c.skipsMu.Unlock()
	c.skips[name] = reason
}

// SkipReason looks up a previously tracked skip, if any.
func (c *Context) SkipReason(name string) (skipreason.Reason, bool) {
	c.skipsMu.Lock()
	defer c.skipsMu.Unlock()
	r, ok := c.skips[name]
	return r, ok
}

// AppendStepOutput records a chunk of output for a step, bucketed by
// stream; combined always accumulates regardless of mode.
func (c *Context) AppendStepOutput(step, stream, text string) {
	c.outputsMu.Lock()
	defer c.outputsMu.Unlock()
	out, ok := c.outputs[step]
	if !ok {
		out = &StepOutput{}
		c.outputs[step] = out
	}
	switch stream {
	case "stdout":
		out.Stdout += text
	case "stderr":
		out.Stderr += text
	}
	out.Combined += text
}

// StepOutput returns the recorded output for a step, if any.
func (c *Context) StepOutput(step string) (StepOutput, bool) {
	c.outputsMu.Lock()
	defer c.outputsMu.Unlock()
	out, ok := c.outputs[step]
	if !ok {
		return StepOutput{}, false
	}
	return *out, true
}

// AddFixSuggestion records a suggested follow-up command for the
// end-of-run summary (spec §4.6 step 11).
func (c *Context) AddFixSuggestion(s string) {
	c.suggestionsMu.Lock()
	defer c.suggestionsMu.Unlock()
	c.suggestions = append(c.suggestions, s)
}

// FixSuggestions returns every suggestion recorded so far.
func (c *Context) FixSuggestions() []string {
	c.suggestionsMu.Lock()
	defer c.suggestionsMu.Unlock()
	out := make([]string, len(c.suggestions))
	copy(out, c.suggestions)
	return out
}

// SetExprVar registers a user-provided variable exposed to condition and
// template evaluation alongside `files`.
func (c *Context) SetExprVar(name, value string) {
	c.exprVarsMu.Lock()
	defer c.exprVarsMu.Unlock()
	c.exprVars[name] = value
}

// ExprContext returns the condition-evaluation context: the current
// files snapshot plus every registered expression variable (spec §4.2
// expr_ctx()).
func (c *Context) ExprContext() (files []string, vars map[string]string) {
	c.exprVarsMu.RLock()
	vars = make(map[string]string, len(c.exprVars))
	for k, v := range c.exprVars {
		vars[k] = v
	}
	c.exprVarsMu.RUnlock()
	return c.Files(), vars
}
