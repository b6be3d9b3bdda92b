package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/orchestrator"
)

// approvalPrompt 把白名单外的 RUN_COMMAND 交给人工决断；非交互模式下
// 一律拒绝（fail closed）。
// approvalPrompt hands non-allowlisted RUN_COMMAND directives to the
// operator; in non-interactive mode everything is refused (fail closed).
func approvalPrompt(reader lineInput) orchestrator.ApproveFunc {
	if reader == nil {
		return nil
	}
	return func(command string) bool {
		fmt.Println()
		fmt.Println("The model wants to run a command outside the allowlist:")
		fmt.Printf("  %s\n", command)
		line, err := reader.ReadLine("Allow once? [y/N]: ")
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return false
			}
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
