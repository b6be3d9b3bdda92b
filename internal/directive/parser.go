package directive

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoDirective 模型回复中没有任何 ACTION 行 / no ACTION line in the reply.
var ErrNoDirective = errors.New("no ACTION line found in model output")

// MalformedPayloadError 指令已识别但载荷块缺失或损坏。Preview 带回未解析
// 正文的开头，便于模型在下一回合自我纠正。
// MalformedPayloadError means the directive was recognized but a payload
// block is missing or broken. Preview carries the head of the unparsed body
// so the model can self-correct on its next turn.
type MalformedPayloadError struct {
	Directive string
	Block     string
	Detail    string
	Preview   string
}

func (e *MalformedPayloadError) Error() string {
	msg := fmt.Sprintf("%s: could not find %s block.\nExpected format:\n  %s:\n  <<<\n  %s text here\n  >>>",
		e.Directive, e.Block, e.Block, strings.ToLower(e.Block))
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", e.Directive, e.Detail)
	}
	if e.Preview != "" {
		msg += "\nBody preview: " + e.Preview + "..."
	}
	return msg
}

// markerPattern 匹配指令行；名字是大写加下划线的记号。
// markerPattern matches directive lines; the name is an uppercase-and-underscore token.
var markerPattern = regexp.MustCompile(`(?m)^ACTION:\s*([A-Z_]+)(.*)$`)

// Parse extracts exactly one Directive from free-form model text. All ACTION
// lines are located and the LAST one wins: earlier ones are the model
// thinking out loud (quoted examples in its analysis), not commands.
func Parse(modelText string) (Directive, error) {
	matches := markerPattern.FindAllStringSubmatchIndex(modelText, -1)
	if len(matches) == 0 {
		return Directive{}, ErrNoDirective
	}
	m := matches[len(matches)-1]

	name := modelText[m[2]:m[3]]
	rest := strings.TrimSpace(modelText[m[4]:m[5]])
	body := strings.TrimSpace(modelText[m[1]:])

	d := Directive{Kind: KindFromName(name), Name: name, Argument: rest}

	switch d.Kind {
	case KindEditFile:
		oldText, warn, err := extractBlock(body, "OLD", name)
		if err != nil {
			return Directive{}, err
		}
		if warn != "" {
			d.Warnings = append(d.Warnings, warn)
		}
		newText, warn, err := extractBlock(body, "NEW", name)
		if err != nil {
			return Directive{}, err
		}
		if warn != "" {
			d.Warnings = append(d.Warnings, warn)
		}
		d.OldText = stripMarkdownFences(oldText)
		d.NewText = stripMarkdownFences(newText)

	case KindWriteFile:
		content, warn, err := extractBlock(body, "CONTENT", name)
		if err != nil {
			return Directive{}, err
		}
		if warn != "" {
			d.Warnings = append(d.Warnings, warn)
		}
		d.Content = stripMarkdownFences(content)

	case KindApplyPatch:
		// Patch text is inherently multi-line and untyped: everything after
		// the marker line is the payload.
		d.Patch = body

	case KindEditMultiple:
		raw, warn, err := extractBareBlock(body, name)
		if err != nil {
			return Directive{}, err
		}
		if warn != "" {
			d.Warnings = append(d.Warnings, warn)
		}
		raw = stripMarkdownFences(raw)
		var edits []FileEdit
		if jerr := json.Unmarshal([]byte(raw), &edits); jerr != nil {
			return Directive{}, &MalformedPayloadError{
				Directive: name,
				Block:     "JSON",
				Detail:    fmt.Sprintf("payload is not a valid JSON array of {file, old, new} objects: %v", jerr),
				Preview:   previewBody(raw),
			}
		}
		d.Edits = edits
	}

	return d, nil
}

// 块文法：非贪婪匹配到第一个闭定界符，闭定界符可以是 '>>>' 也可以是
// '<<<'。后者是模型把开定界符写成闭定界符的已知失败模式，命中时必须
// 记录警告而不是默默接受。先闭先得：否则一个写错的块会让严格匹配
// 吞掉后面的块。
// Block grammar: non-greedy up to the FIRST closing delimiter, which may be
// '>>>' or '<<<'. The latter is the known failure mode of the model writing
// the open delimiter where the close belongs; any such hit must be flagged
// as a warning, never silently accepted. First closer wins: otherwise one
// mis-closed block would make a strict match swallow the blocks after it.
var (
	blockPatterns = map[string]*regexp.Regexp{}
	barePattern   = regexp.MustCompile(`(?s)<<<[ \t]*\n(.*?)\n[ \t]*(>>>|<<<)`)
)

func init() {
	for _, label := range []string{"OLD", "NEW", "CONTENT"} {
		blockPatterns[label] = regexp.MustCompile(
			`(?s)` + label + `:\s*\n?[ \t]*<<<[ \t]*\n(.*?)\n[ \t]*(>>>|<<<)`)
	}
}

func extractBlock(body, label, directiveName string) (string, string, error) {
	m := blockPatterns[label].FindStringSubmatch(body)
	if m == nil {
		return "", "", &MalformedPayloadError{
			Directive: directiveName,
			Block:     label,
			Preview:   previewBody(body),
		}
	}
	if m[2] == "<<<" {
		warn := fmt.Sprintf("%s block for %s was closed with '<<<' instead of '>>>'; accepted leniently", label, directiveName)
		return m[1], warn, nil
	}
	return m[1], "", nil
}

func extractBareBlock(body, directiveName string) (string, string, error) {
	m := barePattern.FindStringSubmatch(body)
	if m == nil {
		return "", "", &MalformedPayloadError{
			Directive: directiveName,
			Block:     "payload",
			Preview:   previewBody(body),
		}
	}
	if m[2] == "<<<" {
		warn := fmt.Sprintf("payload block for %s was closed with '<<<' instead of '>>>'; accepted leniently", directiveName)
		return m[1], warn, nil
	}
	return m[1], "", nil
}

// previewBody shows the first ~300 characters with newlines visualized.
func previewBody(body string) string {
	const max = 300
	r := []rune(body)
	if len(r) > max {
		r = r[:max]
	}
	return strings.ReplaceAll(string(r), "\n", `\n`)
}

// stripMarkdownFences drops a leading and a trailing code-fence line without
// touching interior content. Models habitually wrap payload blocks this way.
func stripMarkdownFences(text string) string {
	trimmed := strings.TrimSpace(text)
	lines := strings.Split(trimmed, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == len(strings.Split(trimmed, "\n")) {
		// No fences found: return the original text untouched so interior
		// whitespace (leading blank lines and indentation) is preserved.
		return text
	}
	return strings.Join(lines, "\n")
}

// Grammar is the concrete expected grammar, embedded in corrective
// instructions when a reply contains no parseable directive.
const Grammar = `Your reply must end with exactly one ACTION line, for example:
   ACTION: READ_FILE bin/pkill/pkill.c
   or
   ACTION: EDIT_FILE bin/pkill/pkill.c
   OLD:
   <<<
   exact old text
   >>>
   NEW:
   <<<
   replacement text
   >>>
   or
   ACTION: HALT`
