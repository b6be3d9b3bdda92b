package contextmgr

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/chat"
)

// pinnedTurns 前两条（system 指令 + bootstrap 文档）永不被裁剪。
// pinnedTurns: the first two turns (system instructions + bootstrap
// document) are always retained untouched.
const pinnedTurns = 2

var noticePattern = regexp.MustCompile(`^\[CONTEXT NOTICE\] (\d+) older turns were dropped`)

func noticeTurn(dropped int) chat.Message {
	return chat.User(fmt.Sprintf(
		"[CONTEXT NOTICE] %d older turns were dropped to fit the context budget. The initial instructions above remain in effect.",
		dropped))
}

func parseNotice(m chat.Message) (int, bool) {
	if m.Role != chat.RoleUser {
		return 0, false
	}
	match := noticePattern.FindStringSubmatch(m.Content)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Prune bounds the transcript to the most recent 2×maxRecentTurns turns
// after the pinned prefix (each logical turn is one assistant reply plus one
// tool result). When turns are dropped, one synthetic notice turn stating
// the cumulative dropped count is inserted immediately before the retained
// tail. Deterministic and idempotent: pruning an already-pruned transcript
// with the same budget is a no-op.
func Prune(turns []chat.Message, maxRecentTurns int) []chat.Message {
	if maxRecentTurns <= 0 || len(turns) <= pinnedTurns {
		return turns
	}
	budget := 2 * maxRecentTurns
	rest := turns[pinnedTurns:]

	// Fold any previous notice turn into the running dropped count so
	// repeated pruning accumulates instead of stacking notices.
	prior := 0
	clean := make([]chat.Message, 0, len(rest))
	for _, m := range rest {
		if n, isNotice := parseNotice(m); isNotice {
			prior += n
			continue
		}
		clean = append(clean, m)
	}

	if len(clean) <= budget {
		if prior == 0 {
			return turns
		}
		out := make([]chat.Message, 0, pinnedTurns+1+len(clean))
		out = append(out, turns[:pinnedTurns]...)
		out = append(out, noticeTurn(prior))
		out = append(out, clean...)
		return out
	}

	dropped := len(clean) - budget
	out := make([]chat.Message, 0, pinnedTurns+1+budget)
	out = append(out, turns[:pinnedTurns]...)
	out = append(out, noticeTurn(prior+dropped))
	out = append(out, clean[dropped:]...)
	return out
}
