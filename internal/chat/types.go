package chat

// 会话轮次角色 / Conversation turn roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 一条会话轮次：角色加文本内容。前两条（system 指令 + bootstrap 文档）
// 在整个运行期间固定不变，永不被裁剪。
// Message is one conversation turn: a role plus text content. The first two
// turns (system instructions + bootstrap document) are pinned for the whole
// run and are never evicted.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System returns a system-role turn.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User returns a user-role turn. Tool results re-enter the transcript as
// user turns, the same channel the original protocol used.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant returns an assistant-role turn.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
