package directive

// Kind 指令种类的封闭枚举。调度时穷尽匹配，default 分支产生
// “未知指令”纠正回合，新增种类是编译期可检查的改动。
// Kind is the closed enum of directive kinds. Dispatch matches exhaustively
// with a default arm producing the "unknown directive" corrective turn, so
// adding a kind is a compile-time-checked change.
type Kind int

const (
	KindUnknown Kind = iota
	KindReadFile
	KindListDir
	KindEditFile
	KindWriteFile
	KindSearchText
	KindFindFiles
	KindReadLines
	KindScanFile
	KindRunCommand
	KindShowDiff
	KindGitStatus
	KindGitDiff
	KindGitCommit
	KindEditMultiple
	KindUndo
	KindRestoreFile
	KindFindDefinition
	KindFindReferences
	KindCheckSyntax
	KindApplyPatch
	KindHalt
)

var kindNames = map[Kind]string{
	KindReadFile:       "READ_FILE",
	KindListDir:        "LIST_DIR",
	KindEditFile:       "EDIT_FILE",
	KindWriteFile:      "WRITE_FILE",
	KindSearchText:     "SEARCH",
	KindFindFiles:      "FIND_FILES",
	KindReadLines:      "READ_LINES",
	KindScanFile:       "SCAN_FILE",
	KindRunCommand:     "RUN_COMMAND",
	KindShowDiff:       "SHOW_DIFF",
	KindGitStatus:      "GIT_STATUS",
	KindGitDiff:        "GIT_DIFF",
	KindGitCommit:      "GIT_COMMIT",
	KindEditMultiple:   "EDIT_MULTIPLE",
	KindUndo:           "UNDO",
	KindRestoreFile:    "RESTORE_FILE",
	KindFindDefinition: "FIND_DEFINITION",
	KindFindReferences: "FIND_REFERENCES",
	KindCheckSyntax:    "CHECK_SYNTAX",
	KindApplyPatch:     "APPLY_PATCH",
	KindHalt:           "HALT",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// orderedNames keeps ValidNames deterministic for corrective messages.
var orderedNames = []string{
	"READ_FILE", "READ_LINES", "LIST_DIR", "SCAN_FILE", "SEARCH",
	"FIND_FILES", "FIND_DEFINITION", "FIND_REFERENCES", "EDIT_FILE",
	"EDIT_MULTIPLE", "WRITE_FILE", "APPLY_PATCH", "RUN_COMMAND",
	"CHECK_SYNTAX", "SHOW_DIFF", "GIT_STATUS", "GIT_DIFF", "GIT_COMMIT",
	"UNDO", "RESTORE_FILE", "HALT",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "UNKNOWN"
}

// Mutating reports whether the kind changes on-disk state and therefore
// triggers the validation cycle after a successful dispatch.
func (k Kind) Mutating() bool {
	switch k {
	case KindEditFile, KindWriteFile, KindEditMultiple, KindApplyPatch:
		return true
	default:
		return false
	}
}

// KindFromName maps an uppercase marker name to its Kind; unrecognized
// names map to KindUnknown.
func KindFromName(name string) Kind {
	if k, ok := namesToKind[name]; ok {
		return k
	}
	return KindUnknown
}

// ValidNames lists every recognized directive name in presentation order.
func ValidNames() []string {
	return append([]string(nil), orderedNames...)
}

// FileEdit 是 EDIT_MULTIPLE 载荷中的一项 / One entry of an EDIT_MULTIPLE payload.
type FileEdit struct {
	File string `json:"file"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// Directive 从一条模型回复中提取出的唯一结构化命令。每个种类只携带
// 自己需要的字段；Warnings 记录宽松解析吞掉的协议偏差。
// Directive is the single structured command extracted from one model reply.
// Each kind carries only the fields it needs; Warnings records protocol
// drift that lenient parsing tolerated.
type Directive struct {
	Kind     Kind
	Name     string // raw marker name, kept for unknown kinds
	Argument string // single-line argument (path, pattern, command, message)
	OldText  string
	NewText  string
	Content  string
	Patch    string
	Edits    []FileEdit
	Warnings []string
}
