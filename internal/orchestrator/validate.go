package orchestrator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/config"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/tools"
)

// 校验周期的状态机。宿主侧（git、校验命令本身起不来）的故障降级为
// skipped 并继续运行；模型侧的构建失败作为修复指令反馈，连续失败
// 到上限后进入 exhausted，运行不中止。
// State machine of the validation cycle. Host-side faults (git, the
// validation command failing to start) degrade to skipped and the run goes
// on; model-side build failures are fed back as repair instructions, and
// hitting the consecutive-failure ceiling moves to exhausted without
// aborting the run.
type cycleState int

const (
	cycleIdle cycleState = iota
	cycleSucceeded
	cycleExhausted
	cycleSkipped
)

func (s cycleState) String() string {
	switch s {
	case cycleSucceeded:
		return "succeeded"
	case cycleExhausted:
		return "exhausted"
	case cycleSkipped:
		return "skipped"
	default:
		return "idle"
	}
}

// ValidationCycle commits after every successful mutation and runs the
// operator's validation command over the result.
type ValidationCycle struct {
	cfg      config.ValidationConfig
	tb       *tools.Toolbox
	git      *tools.GitManager
	logger   *slog.Logger
	maxBytes int

	state    cycleState
	attempts int
}

func NewValidationCycle(cfg config.ValidationConfig, tb *tools.Toolbox, logger *slog.Logger, maxBytes int) *ValidationCycle {
	if maxBytes <= 0 {
		maxBytes = 8192
	}
	return &ValidationCycle{
		cfg:      cfg,
		tb:       tb,
		git:      tb.Git(),
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// Enabled reports whether a validation command is configured at all.
func (v *ValidationCycle) Enabled() bool {
	return strings.TrimSpace(v.cfg.Command) != ""
}

// State exposes the terminal state for the run summary.
func (v *ValidationCycle) State() string {
	return v.state.String()
}

// AfterMutation 提交并校验一次成功落盘的修改。返回要注入转写的反馈
// 回合（空串表示无需反馈）。
// AfterMutation commits and validates one successfully applied mutation.
// It returns the feedback turn to inject into the transcript (empty means
// nothing to say).
func (v *ValidationCycle) AfterMutation(step int) string {
	if !v.Enabled() || v.state == cycleExhausted || v.state == cycleSkipped {
		return ""
	}

	message := fmt.Sprintf("agent: step %d changes", step)
	out, nothingToCommit, err := v.git.CommitAll(message)
	if err != nil {
		// Host-side fault: warn and stop validating, never abort the run.
		v.logger.Warn("commit failed; validation disabled for this run",
			"step", step, "error", err, "output", strings.TrimSpace(out))
		v.state = cycleSkipped
		return ""
	}
	if nothingToCommit {
		return ""
	}

	res := v.tb.RunValidation(v.cfg.Command, v.cfg.TimeoutMS)
	if res.OK {
		v.attempts = 0
		v.state = cycleSucceeded
		if v.cfg.Push {
			if pushOut, pushErr := v.git.Push(); pushErr != nil {
				v.logger.Warn("push failed", "error", pushErr,
					"output", strings.TrimSpace(pushOut))
			}
		}
		return "VALIDATION_RESULT: validation passed for the committed changes."
	}

	if res.TimedOut {
		v.logger.Warn("validation command timed out; validation disabled for this run",
			"step", step)
		v.state = cycleSkipped
		return ""
	}

	v.attempts++
	output := capBytes(res.Message, v.maxBytes)
	if v.attempts >= v.cfg.MaxAttempts {
		v.state = cycleExhausted
		v.logger.Warn("validation attempts exhausted",
			"attempts", v.attempts, "max", v.cfg.MaxAttempts)
		return fmt.Sprintf(
			"VALIDATION_FAILED (attempt %d/%d): validation is now disabled for the rest of this run.\n"+
				"The tree is left in its current committed state. Last failure output:\n%s",
			v.attempts, v.cfg.MaxAttempts, output)
	}

	return fmt.Sprintf(
		"VALIDATION_FAILED (attempt %d/%d): the validation command failed after your last change.\n"+
			"You MUST repair the tree before doing anything else. Failure output:\n%s",
		v.attempts, v.cfg.MaxAttempts, output)
}

// capBytes truncates at a line boundary near the byte ceiling.
func capBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + "\n[... output truncated ...]"
}
