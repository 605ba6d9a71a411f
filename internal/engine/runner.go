package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jdx/hk/internal/condition"
	"github.com/jdx/hk/internal/config"
	"github.com/jdx/hk/internal/diffapply"
	"github.com/jdx/hk/internal/hkctx"
	"github.com/jdx/hk/internal/render"
	"github.com/jdx/hk/internal/skipreason"
)

// CheckListFailedError carries the captured output of a check_list_files
// or check_diff command that exited non-zero (spec §7 kind 3). The
// check-first handler consumes it; if nothing consumes it, it surfaces
// as an ordinary step failure.
type CheckListFailedError struct {
	Stdout string
	Stderr string
}

func (e *CheckListFailedError) Error() string {
	return fmt.Sprintf("check command reported issues:\n%s", e.Stdout)
}

// runJob executes job directly or via the check-first protocol,
// depending on job.CheckFirst and the run type (spec §4.6).
func runJob(ctx context.Context, hctx *hkctx.Context, condEnv *condition.Env, job *Job) Result {
	if hctx.Cancelled() {
		return Result{Job: job}
	}
	if job.SkipReason != nil {
		hctx.TrackSkip(job.Step.Name, *job.SkipReason)
		return Result{Job: job}
	}

	if job.Step.JobCondition != "" {
		_, vars := hctx.ExprContext()
		ok, err := condEnv.Eval(ctx, job.Step.JobCondition, job.Files, vars)
		if err != nil {
			return Result{Job: job, Err: err}
		}
		if !ok {
			hctx.TrackSkip(job.Step.Name, skipreason.Reason{Kind: skipreason.ConditionFalse})
			return Result{Job: job}
		}
	}

	job.Files = refilterExisting(job.Files)
	if len(job.Files) == 0 && stepHasFilters(job.Step) {
		hctx.TrackSkip(job.Step.Name, skipreason.Reason{Kind: skipreason.NoFilesToProcess})
		return Result{Job: job}
	}

	if job.CheckFirst && job.RunType == config.RunFix {
		return runCheckFirst(ctx, hctx, job)
	}
	return runDirect(ctx, hctx, job, job.RunType)
}

func refilterExisting(files []string) []string {
	var out []string
	for _, f := range files {
		if fileExists(f) {
			out = append(out, f)
		}
	}
	return out
}

func stepHasFilters(step *config.Step) bool {
	return step.Glob != nil || step.Exclude != nil || step.Dir != "" || len(step.Types) > 0
}

// runCheckFirst implements spec §4.6's check-first protocol.
func runCheckFirst(ctx context.Context, hctx *hkctx.Context, job *Job) Result {
	checkJob := *job
	checkJob.RunType = config.RunCheck
	checkJob.CheckFirst = false

	res := runDirect(ctx, hctx, &checkJob, config.RunCheck)
	if res.Err == nil {
		job.ActuallyProcessed = nil
		return Result{Job: job, Processed: false}
	}

	cl, ok := res.Err.(*CheckListFailedError)
	if !ok {
		job.CheckFirst = false
		fixRes := runDirect(ctx, hctx, job, config.RunFix)
		fixRes.Warned = true
		return fixRes
	}

	checkType := job.Step.CheckType()
	var matched, extras []string
	switch checkType {
	case config.CheckListFiles:
		matched, extras = diffapply.FilterFilesFromCheckList(job.Files, cl.Stdout)
	case config.CheckDiff:
		matched, extras = diffapply.FilterFilesFromCheckDiff(job.Files, cl.Stdout)
	}
	if len(extras) > 0 {
		log.Warn().Strs("extras", extras).Str("step", job.Step.Name).Msg("check command reported files outside the job's candidate set")
	}

	if len(matched) == 0 {
		if checkType == config.CheckListFiles {
			return Result{Job: job, Err: fmt.Errorf("%s: check_list_files reported no matching files", job.Step.Name)}
		}
		matched = job.Files
	}
	job.Files = matched

	if checkType == config.CheckDiff {
		applied, err := diffapply.ApplyDiff(ctx, job.Step.Dir, cl.Stdout)
		if err == nil && applied {
			job.ActuallyProcessed = matched
			return Result{Job: job, Processed: true}
		}
	}

	job.CheckFirst = false
	fixRes := runDirect(ctx, hctx, job, config.RunFix)
	fixRes.Warned = true
	return fixRes
}

// runDirect executes the single command selected for runType against
// job.Files, handling template rendering, shell invocation, stdin,
// env vars, and output capture (spec §4.6 steps 5-12).
func runDirect(ctx context.Context, hctx *hkctx.Context, job *Job, runType config.RunType) Result {
	step := job.Step
	script := step.RunCmd(runType)
	if script == nil {
		return Result{Job: job}
	}
	cmdText := script.ResolveHost()

	renderCtx := render.Context{
		Files:              render.QuoteJoin(job.Files),
		WorkspaceIndicator: job.WorkspaceIndicator,
		Globs:              globString(step.Glob),
		Vars:               renderVars(step.Env, hctx),
	}

	rendered, err := render.Render(cmdText, renderCtx)
	if err != nil {
		return Result{Job: job, Err: err}
	}

	name, args := shellInvocation(step, rendered)
	cmd := exec.CommandContext(ctx, name, args...)
	if step.Dir != "" {
		cmd.Dir = step.Dir
	}
	cmd.Env = os.Environ()
	for k, v := range step.Env {
		rv, err := render.Render(v, renderCtx)
		if err != nil {
			return Result{Job: job, Err: err}
		}
		cmd.Env = append(cmd.Env, k+"="+rv)
	}

	if step.Stdin != nil {
		stdinText, err := render.Render(step.Stdin.ResolveHost(), renderCtx)
		if err != nil {
			return Result{Job: job, Err: err}
		}
		cmd.Stdin = strings.NewReader(stdinText)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	hctx.AppendStepOutput(step.Name, "stdout", stdout.String())
	hctx.AppendStepOutput(step.Name, "stderr", stderr.String())

	checkType := step.CheckType()
	isCheckShaped := runType == config.RunCheck && (checkType == config.CheckListFiles || checkType == config.CheckDiff)

	if runErr == nil {
		if checkType == config.CheckListFiles && runType == config.RunCheck && strings.TrimSpace(stdout.String()) != "" {
			log.Warn().Str("step", step.Name).Msg("check_list_files exited 0 with non-empty stdout; tool should exit non-zero when files need fixing")
		}
		job.ActuallyProcessed = job.Files
		return Result{Job: job, Processed: true}
	}

	if isCheckShaped {
		return Result{Job: job, Err: &CheckListFailedError{Stdout: stdout.String(), Stderr: stderr.String()}}
	}

	if runType == config.RunCheck {
		suggestFix(hctx, job)
	}
	return Result{Job: job, Err: fmt.Errorf("%s: %w", step.Name, runErr)}
}

func suggestFix(hctx *hkctx.Context, job *Job) {
	fix := job.Step.RunCmd(config.RunFix)
	if fix == nil {
		return
	}
	rendered, err := render.Render(fix.ResolveHost(), render.Context{Files: render.QuoteJoin(job.Files)})
	if err != nil {
		return
	}
	if strings.Contains(rendered, "\n") {
		hctx.AddFixSuggestion(fmt.Sprintf("hk fix -S %s", job.Step.Name))
		return
	}
	hctx.AddFixSuggestion(rendered)
}

func renderVars(env map[string]string, hctx *hkctx.Context) map[string]string {
	_, vars := hctx.ExprContext()
	if len(env) == 0 {
		return vars
	}
	out := make(map[string]string, len(vars)+len(env))
	for k, v := range vars {
		out[k] = v
	}
	for k := range env {
		out[k] = env[k]
	}
	return out
}

func globString(p *config.Pattern) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// shellInvocation builds the program+args to exec, per spec §4.6 step 6:
// the step's configured `shell` split on whitespace (first token is the
// program), or the platform default (`sh -o errexit -c` on Unix,
// `cmd.exe /c` on Windows).
func shellInvocation(step *config.Step, rendered string) (string, []string) {
	if step.Shell != nil && step.Shell.ResolveHost() != "" {
		fields := strings.Fields(step.Shell.ResolveHost())
		return fields[0], append(fields[1:], rendered)
	}
	if runtime.GOOS == "windows" {
		return "cmd.exe", []string{"/c", rendered}
	}
	return "sh", []string{"-o", "errexit", "-c", rendered}
}
