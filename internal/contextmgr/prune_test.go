package contextmgr

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/chat"
)

func transcript(turns int) []chat.Message {
	out := []chat.Message{
		chat.System("wrapper instructions"),
		chat.User("bootstrap document"),
	}
	for i := 0; i < turns; i++ {
		out = append(out, chat.Assistant(fmt.Sprintf("reply %d", i)))
	}
	return out
}

func TestPrune_WithinBudgetIsUntouched(t *testing.T) {
	turns := transcript(6)
	got := Prune(turns, 3) // budget 6
	if !reflect.DeepEqual(got, turns) {
		t.Error("transcript within budget was modified")
	}
}

func TestPrune_KeepsPinnedPrefixAndRecentTail(t *testing.T) {
	turns := transcript(10)
	got := Prune(turns, 3) // budget 6, so 4 dropped

	if got[0].Content != "wrapper instructions" || got[1].Content != "bootstrap document" {
		t.Fatal("pinned prefix was not preserved")
	}
	if len(got) != 2+1+6 {
		t.Fatalf("len = %d, want pinned(2) + notice(1) + budget(6)", len(got))
	}
	if n, isNotice := parseNotice(got[2]); !isNotice || n != 4 {
		t.Errorf("notice turn = %q, want dropped count 4", got[2].Content)
	}
	if got[3].Content != "reply 4" || got[len(got)-1].Content != "reply 9" {
		t.Errorf("tail is wrong: first=%q last=%q", got[3].Content, got[len(got)-1].Content)
	}
}

func TestPrune_Idempotent(t *testing.T) {
	turns := transcript(25)
	once := Prune(turns, 5)
	twice := Prune(once, 5)
	if !reflect.DeepEqual(once, twice) {
		t.Error("pruning an already-pruned transcript changed it")
	}
}

func TestPrune_AccumulatesDroppedCountAcrossRounds(t *testing.T) {
	turns := transcript(10)
	pruned := Prune(turns, 3) // drops 4

	// The run continues and more turns arrive.
	for i := 10; i < 16; i++ {
		pruned = append(pruned, chat.Assistant(fmt.Sprintf("reply %d", i)))
	}
	again := Prune(pruned, 3)

	notices := 0
	total := 0
	for _, m := range again {
		if n, isNotice := parseNotice(m); isNotice {
			notices++
			total = n
		}
	}
	if notices != 1 {
		t.Fatalf("got %d notice turns, want exactly 1", notices)
	}
	if total != 10 {
		t.Errorf("cumulative dropped count = %d, want 10 (4 then 6 more)", total)
	}
}

func TestPrune_DisabledWithoutBudget(t *testing.T) {
	turns := transcript(50)
	if got := Prune(turns, 0); len(got) != len(turns) {
		t.Error("maxRecentTurns <= 0 must disable pruning")
	}
}

func TestTokenizer_HeuristicFallback(t *testing.T) {
	tok := NewTokenizer("no-such-encoding")
	if tok.IsPrecise() {
		t.Fatal("unknown encoding should fall back to the heuristic")
	}
	if n := tok.CountText("hello world, this is a test sentence"); n < 5 {
		t.Errorf("heuristic count = %d, unreasonably low", n)
	}
	if tok.CountText("") != 0 {
		t.Error("empty text should count zero")
	}
	mixed := tok.CountText("读取文件内容")
	if mixed < 6 {
		t.Errorf("CJK heuristic count = %d, want >= 1.5/char", mixed)
	}
}

func TestTokenizer_CountIncludesOverhead(t *testing.T) {
	tok := NewTokenizer("no-such-encoding")
	msgs := []chat.Message{chat.User(strings.Repeat("word ", 10))}
	if n := tok.Count(msgs); n <= tok.CountText(msgs[0].Content) {
		t.Error("message count should include per-message overhead")
	}
}
