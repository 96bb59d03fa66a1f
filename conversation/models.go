// Package conversation implements Conversation Memory: sessions,
// messages, files, and per-session budgets, with the 70/30
// token-budget pruning walk spec.md §4.4 specifies. Grounded on the
// teacher's gorm model conventions (explicit TableName overrides,
// uniqueIndex tags) from llm/types.go, and on internal/database's
// transaction helpers for the atomicity guarantees addMessage/addFiles
// require.
package conversation

import "time"

// SessionStatus is a Session's lifecycle state.
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionArchived SessionStatus = "archived"
	SessionDeleted  SessionStatus = "deleted"
)

// Role is a ConversationMessage's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Session is spec.md §3's Session tuple.
type Session struct {
	ID            string        `gorm:"primaryKey;size:36" json:"id"`
	Name          string        `gorm:"size:200" json:"name,omitempty"`
	Status        SessionStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt     time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updatedAt"`
	LastMessageAt *time.Time    `json:"lastMessageAt,omitempty"`
	Metadata      string        `gorm:"type:text" json:"metadata,omitempty"`
}

func (Session) TableName() string { return "conversation_sessions" }

// Message is spec.md §3's ConversationMessage. The
// (SessionID, MessageIndex) unique index is the second line of defense
// spec.md §4.4 calls for; the transaction wrapping index-selection and
// insert is the first.
type Message struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID       string    `gorm:"size:36;not null;uniqueIndex:idx_session_message_index" json:"sessionId"`
	MessageIndex    int       `gorm:"not null;uniqueIndex:idx_session_message_index" json:"messageIndex"`
	Role            Role      `gorm:"size:20;not null" json:"role"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	ToolName        string    `gorm:"size:100" json:"toolName,omitempty"`
	ParentMessageID string    `gorm:"size:36" json:"parentMessageId,omitempty"`
	Timestamp       time.Time `gorm:"not null" json:"timestamp"`
	Metadata        string    `gorm:"type:text" json:"metadata,omitempty"`
}

func (Message) TableName() string { return "conversation_messages" }

// File is spec.md §3's ConversationFile. The
// (SessionID, ContentHash) unique index backs the dedup-by-hash
// invariant: re-adding an already-present file increments AccessCount
// instead of inserting a row.
type File struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID      string    `gorm:"size:36;not null;uniqueIndex:idx_session_content_hash" json:"sessionId"`
	FilePath       string    `gorm:"size:1000;not null" json:"filePath"`
	FileContent    string    `gorm:"type:text;not null" json:"fileContent"`
	ContentHash    string    `gorm:"size:64;not null;uniqueIndex:idx_session_content_hash" json:"contentHash"`
	AddedAt        time.Time `gorm:"not null" json:"addedAt"`
	LastAccessedAt time.Time `gorm:"not null;index" json:"lastAccessedAt"`
	AccessCount    int       `gorm:"not null;default:1" json:"accessCount"`
	IsRelevant     bool      `gorm:"not null;default:true" json:"isRelevant"`
}

func (File) TableName() string { return "conversation_files" }

// Budget is spec.md §3's ConversationBudget: at most one row per
// session (enforced by the unique SessionID index).
type Budget struct {
	ID            string   `gorm:"primaryKey;size:36" json:"id"`
	SessionID     string   `gorm:"size:36;not null;uniqueIndex" json:"sessionId"`
	MaxTokens     *int     `json:"maxTokens,omitempty"`
	MaxCostUSD    *float64 `json:"maxCostUSD,omitempty"`
	MaxDurationMs *int64   `json:"maxDurationMs,omitempty"`
	UsedTokens    int      `gorm:"not null;default:0" json:"usedTokens"`
	UsedCostUSD   float64  `gorm:"not null;default:0" json:"usedCostUSD"`
	UsedDurationMs int64   `gorm:"not null;default:0" json:"usedDurationMs"`
}

func (Budget) TableName() string { return "conversation_budgets" }
