package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/chat"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/config"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/contextmgr"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/directive"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/provider"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/storage"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/tools"
)

// ApproveFunc decides interactively whether a non-allowlisted command may
// run once. A nil func means non-interactive: always refuse.
type ApproveFunc func(command string) bool

// Callbacks let the CLI render the conversation as it happens.
type Callbacks struct {
	OnAssistant func(text string)
	OnResult    func(label, message string)
}

// Summary 一次运行的收尾统计 / Closing statistics for one run.
type Summary struct {
	Steps       int
	Mutations   int
	Corrections int
	Halted      bool
	Validation  string
}

// Orchestrator 驱动控制回路：裁剪上下文、请求模型、解析指令、调度工具、
// 把结果作为下一回合喂回去。
// Orchestrator drives the control loop: prune context, query the model,
// parse the directive, dispatch the tool, and feed the result back as the
// next turn.
type Orchestrator struct {
	cfg       config.Config
	provider  provider.Provider
	tools     *tools.Toolbox
	artifacts *storage.Manager
	store     *storage.SQLiteStore
	tokenizer *contextmgr.Tokenizer
	cycle     *ValidationCycle
	logger    *slog.Logger
	approve   ApproveFunc
	callbacks Callbacks
}

func New(
	cfg config.Config,
	prov provider.Provider,
	tb *tools.Toolbox,
	artifacts *storage.Manager,
	store *storage.SQLiteStore,
	logger *slog.Logger,
	approve ApproveFunc,
	callbacks Callbacks,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		provider:  prov,
		tools:     tb,
		artifacts: artifacts,
		store:     store,
		tokenizer: contextmgr.NewTokenizerForModel(cfg.Provider.Model),
		cycle:     NewValidationCycle(cfg.Validation, tb, logger, cfg.Safety.DiffMaxBytes),
		logger:    logger,
		approve:   approve,
		callbacks: callbacks,
	}
}

const (
	emptyReplyInstruction = "ERROR: Your last reply was empty. You must respond with a valid ACTION line.\n" +
		"Remember: your FINAL line must be exactly one ACTION: ... line."

	noDirectivePreamble = "Your last reply contained analysis but no valid ACTION line. " +
		"That analysis is fine and has been recorded.\n\n" +
		"Now you MUST choose your next concrete step and reply in the following strict format:\n" +
		"1. Optionally one very short sentence describing what you are about to do next.\n" +
		"2. On the FINAL line, a single ACTION line.\n"

	noDirectiveEpilogue = "\nDo not omit the ACTION line. Do not send another analysis-only reply.\n"
)

// Run executes the control loop until HALT or the step budget runs out.
func (o *Orchestrator) Run(ctx context.Context, bootstrapText string) (Summary, error) {
	history := []chat.Message{
		chat.System(BuildSystemPrompt(o.cfg.Safety.CommandAllowlist, o.cycle.Enabled())),
		chat.User(BuildBootstrapTurn(bootstrapText)),
	}

	var runID int64
	if o.store != nil {
		id, err := o.store.BeginRun(o.cfg.Runtime.WorkspaceRoot, o.provider.CurrentModel())
		if err != nil {
			o.logger.Warn("run archive unavailable", "error", err)
		} else {
			runID = id
		}
	}

	summary := Summary{}
	outcome := "budget_exhausted"

	for step := 1; step <= o.cfg.Runtime.MaxSteps; step++ {
		summary.Steps = step
		history = contextmgr.Prune(history, o.cfg.Runtime.MaxRecentTurns)
		o.logger.Debug("querying model", "step", step,
			"turns", len(history), "tokens", o.tokenizer.Count(history))

		resp, err := o.provider.Chat(ctx, history, nil)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				outcome = "canceled"
				o.finishRun(runID, outcome)
				return summary, err
			}
			outcome = "provider_error"
			o.finishRun(runID, outcome)
			return summary, fmt.Errorf("model query at step %d: %w", step, err)
		}
		reply := resp.Content

		logPath := ""
		if o.artifacts != nil {
			if p, logErr := o.artifacts.WriteStepLog(step, reply); logErr != nil {
				o.logger.Warn("step log not written", "step", step, "error", logErr)
			} else {
				logPath = p
			}
		}
		if o.callbacks.OnAssistant != nil {
			o.callbacks.OnAssistant(reply)
		}

		if strings.TrimSpace(reply) == "" {
			o.logger.Warn("empty model reply", "step", step)
			summary.Corrections++
			history = append(history, chat.Assistant(reply), chat.User(emptyReplyInstruction))
			o.recordStep(runID, step, "", false, "empty reply", logPath)
			continue
		}

		d, err := directive.Parse(reply)
		if err != nil {
			summary.Corrections++
			history = append(history, chat.Assistant(reply),
				chat.User(o.correctiveTurn(err)))
			o.recordStep(runID, step, "", false, err.Error(), logPath)
			continue
		}

		history = append(history, chat.Assistant(reply))

		if d.Kind == directive.KindHalt {
			o.logger.Info("received HALT", "step", step)
			summary.Halted = true
			outcome = "halted"
			o.recordStep(runID, step, "HALT", true, "run complete", logPath)
			break
		}

		label, res := o.dispatch(d)
		o.logger.Info("dispatched directive", "step", step,
			"directive", d.Kind.String(), "ok", res.OK, "truncated", res.Truncated)

		resultTurn := label + ":\n" + res.Message
		if len(d.Warnings) > 0 {
			for _, w := range d.Warnings {
				o.logger.Warn("lenient parse", "step", step, "warning", w)
			}
			resultTurn = "WARNING: " + strings.Join(d.Warnings, "\nWARNING: ") + "\n" + resultTurn
		}
		if o.callbacks.OnResult != nil {
			o.callbacks.OnResult(label, res.Message)
		}
		history = append(history, chat.User(resultTurn))
		o.recordStep(runID, step, d.Kind.String(), res.OK, firstLine(res.Message), logPath)

		if d.Kind.Mutating() && res.OK {
			summary.Mutations++
			if feedback := o.cycle.AfterMutation(step); feedback != "" {
				history = append(history, chat.User(feedback))
			}
		}
	}

	summary.Validation = o.cycle.State()
	o.finishRun(runID, outcome)
	return summary, nil
}

// correctiveTurn 把协议层错误转成下一回合的纠正指令。
// correctiveTurn converts a protocol-layer error into the next corrective
// instruction turn.
func (o *Orchestrator) correctiveTurn(err error) string {
	var malformed *directive.MalformedPayloadError
	if errors.As(err, &malformed) {
		return "ERROR: " + malformed.Error() +
			"\n\nResend the directive with a complete payload block.\n" + directive.Grammar
	}
	return noDirectivePreamble + directive.Grammar + noDirectiveEpilogue
}

func (o *Orchestrator) recordStep(runID int64, step int, name string, ok bool, summary, logPath string) {
	if o.store == nil || runID == 0 {
		return
	}
	err := o.store.RecordStep(storage.StepRecord{
		RunID:     runID,
		Step:      step,
		Directive: name,
		OK:        ok,
		Summary:   summary,
		LogPath:   logPath,
	})
	if err != nil {
		o.logger.Warn("step not archived", "step", step, "error", err)
	}
}

func (o *Orchestrator) finishRun(runID int64, outcome string) {
	if o.store == nil || runID == 0 {
		return
	}
	if err := o.store.FinishRun(runID, outcome); err != nil {
		o.logger.Warn("run not finalized", "error", err)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 200
	if len(s) > max {
		s = s[:max]
	}
	return s
}
