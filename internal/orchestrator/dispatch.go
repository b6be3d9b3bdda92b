package orchestrator

import (
	"fmt"
	"strings"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/directive"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/tools"
)

// dispatch 按指令种类路由到工具层。沙箱检查发生在每个工具内部的路径
// 解析处，不在这里。返回结果标签（<NAME>_RESULT / <NAME>_ERROR）与结果。
// dispatch routes one directive to the tool layer. Sandbox checks happen at
// path resolution inside each tool, not here. It returns the transcript
// label (<NAME>_RESULT / <NAME>_ERROR) and the result.
func (o *Orchestrator) dispatch(d directive.Directive) (string, tools.Result) {
	var res tools.Result

	switch d.Kind {
	case directive.KindReadFile:
		res = o.tools.ReadFile(d.Argument)

	case directive.KindReadLines:
		path, start, end, err := tools.ParseLineRange(d.Argument)
		if err != nil {
			res = tools.Result{Message: fmt.Sprintf("READ_LINES: %v", err)}
		} else {
			res = o.tools.ReadLines(path, start, end)
		}

	case directive.KindScanFile:
		res = o.tools.ScanFile(d.Argument)

	case directive.KindListDir:
		path, showIgnored := parseListArgument(d.Argument)
		res = o.tools.ListDir(path, showIgnored)

	case directive.KindSearchText:
		pattern, path := splitPatternPath(d.Argument)
		if pattern == "" {
			res = tools.Result{Message: "SEARCH: pattern is empty; expected: SEARCH <pattern> [path]"}
		} else {
			res = o.tools.SearchText(pattern, path)
		}

	case directive.KindFindFiles:
		pattern, path := splitPatternPath(d.Argument)
		if pattern == "" {
			res = tools.Result{Message: "FIND_FILES: pattern is empty; expected: FIND_FILES <glob> [path]"}
		} else {
			res = o.tools.FindFiles(pattern, path)
		}

	case directive.KindFindDefinition:
		res = o.tools.FindDefinition(d.Argument)

	case directive.KindFindReferences:
		res = o.tools.FindReferences(d.Argument)

	case directive.KindEditFile:
		res = o.tools.EditFile(d.Argument, d.OldText, d.NewText)

	case directive.KindEditMultiple:
		res = o.tools.EditMultiple(d.Edits)

	case directive.KindWriteFile:
		res = o.tools.WriteFile(d.Argument, d.Content)

	case directive.KindApplyPatch:
		res = o.tools.ApplyPatch(d.Patch)

	case directive.KindRunCommand:
		res = o.runCommand(d.Argument)

	case directive.KindCheckSyntax:
		res = o.tools.CheckSyntax(d.Argument)

	case directive.KindShowDiff, directive.KindGitDiff:
		res = o.tools.GitDiff(d.Argument)

	case directive.KindGitStatus:
		res = o.tools.GitStatus()

	case directive.KindGitCommit:
		res = o.tools.GitCommit(d.Argument)

	case directive.KindUndo:
		res = o.tools.RevertAll()

	case directive.KindRestoreFile:
		res = o.tools.RevertOne(d.Argument)

	default:
		res = tools.Result{Message: fmt.Sprintf(
			"unrecognized directive %q. Valid directives: %s",
			d.Name, strings.Join(directive.ValidNames(), ", "))}
	}

	label := d.Kind.String() + "_RESULT"
	if !res.OK {
		label = d.Kind.String() + "_ERROR"
		if d.Kind == directive.KindUnknown {
			label = "UNKNOWN_ACTION_ERROR"
		}
	}
	return label, res
}

// runCommand 白名单拒绝后给交互审批一次放行机会。
// runCommand gives interactive approval one chance after an allowlist refusal.
func (o *Orchestrator) runCommand(command string) tools.Result {
	permitted, _ := o.tools.CommandPermitted(command)
	if !permitted && o.approve != nil && o.approve(command) {
		o.logger.Info("command approved interactively", "command", command)
		return o.tools.RunApproved(command)
	}
	// On refusal this produces the error Result with the allowlist listing.
	return o.tools.RunCommand(command)
}

// parseListArgument strips a trailing --all token, which disables the
// ignore filter.
func parseListArgument(argument string) (string, bool) {
	fields := strings.Fields(argument)
	if len(fields) > 0 && fields[len(fields)-1] == "--all" {
		return strings.Join(fields[:len(fields)-1], " "), true
	}
	return strings.TrimSpace(argument), false
}

// splitPatternPath splits "<pattern> [path]"; the pattern is the first
// whitespace-delimited token.
func splitPatternPath(argument string) (string, string) {
	fields := strings.Fields(argument)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
