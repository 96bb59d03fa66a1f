package conversation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/blackjuly/ultra-mcp/internal/database"
	"github.com/blackjuly/ultra-mcp/llm/tokenizer"
)

// messageTokenRatio / fileTokenRatio: spec.md §4.4's fixed pruning
// split, MESSAGE_TOKEN_RATIO / FILE_TOKEN_RATIO.
const (
	messageTokenRatio = 0.7
	fileTokenRatio    = 0.3
	// perMessageOverhead mirrors llm/tokenizer's message-sequence
	// constant for the per-admitted-message cost used while walking the
	// pruning budget (not the full-sequence priming cost).
	perMessageOverhead = 3
)

// Manager implements spec.md §4.4's public operations.
type Manager struct {
	db     *database.PoolManager
	logger *zap.Logger
}

// New builds a Manager.
func New(db *database.PoolManager, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: db, logger: logger}
}

// GetOrCreateSession returns the session named by id. When none exists it
// creates one under id, or under a fresh id when id is empty.
func (m *Manager) GetOrCreateSession(ctx context.Context, id, name string) (*Session, error) {
	var out *Session
	err := m.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if id != "" {
			var existing Session
			err := tx.First(&existing, "id = ?", id).Error
			if err == nil {
				out = &existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		now := time.Now()
		sess := Session{
			ID:        firstNonEmpty(id, uuid.NewString()),
			Name:      name,
			Status:    SessionActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&sess).Error; err != nil {
			return err
		}
		out = &sess
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: getOrCreateSession: %w", err)
	}
	return out, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// AddMessage computes the next dense messageIndex and inserts within
// one transaction, so concurrent callers never collide — the
// (sessionId, messageIndex) unique index is the second line of
// defense, not the first.
func (m *Manager) AddMessage(ctx context.Context, sessionID string, role Role, content, toolName, parentMessageID string, metadata string) (*Message, error) {
	var out *Message
	err := m.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var maxIndex int
		row := tx.Model(&Message{}).Where("session_id = ?", sessionID).Select("COALESCE(MAX(message_index), -1)").Row()
		if err := row.Scan(&maxIndex); err != nil {
			return err
		}

		now := time.Now()
		msg := Message{
			ID:              uuid.NewString(),
			SessionID:       sessionID,
			MessageIndex:    maxIndex + 1,
			Role:            role,
			Content:         content,
			ToolName:        toolName,
			ParentMessageID: parentMessageID,
			Timestamp:       now,
			Metadata:        metadata,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		if err := tx.Model(&Session{}).Where("id = ?", sessionID).Updates(map[string]any{
			"last_message_at": now,
			"updated_at":      now,
		}).Error; err != nil {
			return err
		}

		out = &msg
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: addMessage: %w", err)
	}
	return out, nil
}

// FileInput is one file addFiles is asked to record.
type FileInput struct {
	Path    string
	Content string
}

// AddFiles hashes each input's content, looks up existing
// (sessionId, hash) rows in bulk, inserts new files, and bumps
// accessCount/lastAccessedAt on duplicates — all within one
// transaction per spec.md §4.4.
func (m *Manager) AddFiles(ctx context.Context, sessionID string, inputs []FileInput) ([]*File, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	hashes := make([]string, len(inputs))
	for i, in := range inputs {
		sum := sha256.Sum256([]byte(in.Content))
		hashes[i] = hex.EncodeToString(sum[:])
	}

	var out []*File
	err := m.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var existing []File
		if err := tx.Where("session_id = ? AND content_hash IN ?", sessionID, hashes).Find(&existing).Error; err != nil {
			return err
		}
		byHash := make(map[string]*File, len(existing))
		for i := range existing {
			byHash[existing[i].ContentHash] = &existing[i]
		}

		now := time.Now()
		for i, in := range inputs {
			hash := hashes[i]
			if dup, ok := byHash[hash]; ok {
				dup.AccessCount++
				dup.LastAccessedAt = now
				if err := tx.Model(&File{}).Where("id = ?", dup.ID).Updates(map[string]any{
					"access_count":     dup.AccessCount,
					"last_accessed_at": now,
				}).Error; err != nil {
					return err
				}
				out = append(out, dup)
				continue
			}

			f := File{
				ID:             uuid.NewString(),
				SessionID:      sessionID,
				FilePath:       in.Path,
				FileContent:    in.Content,
				ContentHash:    hash,
				AddedAt:        now,
				LastAccessedAt: now,
				AccessCount:    1,
				IsRelevant:     true,
			}
			if err := tx.Create(&f).Error; err != nil {
				return err
			}
			byHash[hash] = &f
			out = append(out, &f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: addFiles: %w", err)
	}
	return out, nil
}

// Context is what getConversationContext returns: the (possibly
// pruned) message and file view plus whether pruning occurred and
// whether the token count is approximate (tokenizer fallback).
type Context struct {
	Messages    []Message
	Files       []File
	TotalTokens int
	Pruned      bool
	Approximate bool
}

// GetConversationContext loads the full message/file history, counts
// tokens, and — when the count exceeds maxTokens — prunes per the
// 70/30 newest-first / lastAccessedAt-DESC walk spec.md §4.4 defines.
// maxTokens<0 means unbounded (no pruning, the omitted-budget case); an
// explicit maxTokens==0 is a real zero budget and prunes everything.
func (m *Manager) GetConversationContext(ctx context.Context, sessionID string, maxTokens int, includeFiles bool, model string) (*Context, error) {
	var messages []Message
	if err := m.db.DB().WithContext(ctx).Where("session_id = ?", sessionID).Order("message_index ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("conversation: getConversationContext: load messages: %w", err)
	}

	var files []File
	if includeFiles {
		if err := m.db.DB().WithContext(ctx).Where("session_id = ? AND is_relevant = ?", sessionID, true).
			Order("last_accessed_at DESC").Find(&files).Error; err != nil {
			return nil, fmt.Errorf("conversation: getConversationContext: load files: %w", err)
		}
	}

	tok, approx := tokenizer.Select(model)

	msgTokens := make([]int, len(messages))
	total := 0
	for i, msg := range messages {
		n := messageTokenCost(tok, msg)
		msgTokens[i] = n
		total += n
	}
	fileTokens := make([]int, len(files))
	for i, f := range files {
		n, _ := tok.CountTokens(f.FileContent)
		fileTokens[i] = n
		total += n
	}

	if maxTokens < 0 || total <= maxTokens {
		return &Context{Messages: messages, Files: files, TotalTokens: total, Approximate: approx}, nil
	}

	messageBudget := int(float64(maxTokens) * messageTokenRatio)
	fileBudget := int(float64(maxTokens) * fileTokenRatio)

	prunedMessages := pruneNewestFirst(messages, msgTokens, messageBudget)
	prunedFiles := pruneStopOnFirstOver(files, fileTokens, fileBudget)

	newTotal := 0
	for _, msg := range prunedMessages {
		newTotal += messageTokenCost(tok, msg)
	}
	for _, f := range prunedFiles {
		n, _ := tok.CountTokens(f.FileContent)
		newTotal += n
	}

	return &Context{
		Messages:    prunedMessages,
		Files:       prunedFiles,
		TotalTokens: newTotal,
		Pruned:      true,
		Approximate: approx,
	}, nil
}

func messageTokenCost(tok tokenizer.Tokenizer, msg Message) int {
	n, _ := tok.CountTokens(msg.Content)
	n += perMessageOverhead
	if msg.ToolName != "" {
		toolTokens, _ := tok.CountTokens(msg.ToolName)
		n += toolTokens
	}
	return n
}

// pruneNewestFirst walks messages from newest to oldest, admitting
// each whose cost fits the remaining budget, stopping at the first
// that doesn't — then returns the admitted set in chronological order.
func pruneNewestFirst(messages []Message, tokens []int, budget int) []Message {
	var admitted []Message
	remaining := budget
	for i := len(messages) - 1; i >= 0; i-- {
		if tokens[i] > remaining {
			break
		}
		admitted = append(admitted, messages[i])
		remaining -= tokens[i]
	}
	sort.Slice(admitted, func(i, j int) bool { return admitted[i].MessageIndex < admitted[j].MessageIndex })
	return admitted
}

// pruneStopOnFirstOver walks files (already ordered lastAccessedAt
// DESC) admitting until the first one that doesn't fit, then stops.
func pruneStopOnFirstOver(files []File, tokens []int, budget int) []File {
	var admitted []File
	remaining := budget
	for i, f := range files {
		if tokens[i] > remaining {
			break
		}
		admitted = append(admitted, f)
		remaining -= tokens[i]
	}
	return admitted
}

// SetBudget upserts the single budget row for sessionID atomically.
func (m *Manager) SetBudget(ctx context.Context, sessionID string, maxTokens *int, maxCostUSD *float64, maxDurationMs *int64) (*Budget, error) {
	var out *Budget
	err := m.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var existing Budget
		err := tx.First(&existing, "session_id = ?", sessionID).Error
		switch {
		case err == nil:
			existing.MaxTokens = maxTokens
			existing.MaxCostUSD = maxCostUSD
			existing.MaxDurationMs = maxDurationMs
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			out = &existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			b := Budget{
				ID:            uuid.NewString(),
				SessionID:     sessionID,
				MaxTokens:     maxTokens,
				MaxCostUSD:    maxCostUSD,
				MaxDurationMs: maxDurationMs,
			}
			if err := tx.Create(&b).Error; err != nil {
				return err
			}
			out = &b
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: setBudget: %w", err)
	}
	return out, nil
}

// UpdateBudgetUsage atomically adds to the used-counters. Per spec.md
// §4.4's failure-semantics table, this is the one operation that logs
// and swallows database errors instead of propagating them — budget
// tracking is best-effort and must never fail the caller's request.
func (m *Manager) UpdateBudgetUsage(ctx context.Context, sessionID string, deltaTokens int, deltaCostUSD float64, deltaDurationMs int64) {
	err := m.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Budget{}).Where("session_id = ?", sessionID).Updates(map[string]any{
			"used_tokens":      gorm.Expr("used_tokens + ?", deltaTokens),
			"used_cost_usd":    gorm.Expr("used_cost_usd + ?", deltaCostUSD),
			"used_duration_ms": gorm.Expr("used_duration_ms + ?", deltaDurationMs),
		}).Error
	})
	if err != nil {
		m.logger.Warn("conversation: updateBudgetUsage failed, continuing without it",
			zap.String("sessionId", sessionID), zap.Error(err))
	}
}

// BudgetStatus is checkBudgetLimits' return shape.
type BudgetStatus struct {
	WithinTokens   bool
	WithinCost     bool
	WithinDuration bool
	WithinLimits   bool
}

// CheckBudgetLimits returns per-dimension flags and an aggregate. A
// session with no budget row is always within limits.
func (m *Manager) CheckBudgetLimits(ctx context.Context, sessionID string) (*BudgetStatus, error) {
	var b Budget
	err := m.db.DB().WithContext(ctx).First(&b, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BudgetStatus{WithinTokens: true, WithinCost: true, WithinDuration: true, WithinLimits: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: checkBudgetLimits: %w", err)
	}

	status := &BudgetStatus{WithinTokens: true, WithinCost: true, WithinDuration: true}
	if b.MaxTokens != nil && b.UsedTokens > *b.MaxTokens {
		status.WithinTokens = false
	}
	if b.MaxCostUSD != nil && b.UsedCostUSD > *b.MaxCostUSD {
		status.WithinCost = false
	}
	if b.MaxDurationMs != nil && b.UsedDurationMs > *b.MaxDurationMs {
		status.WithinDuration = false
	}
	status.WithinLimits = status.WithinTokens && status.WithinCost && status.WithinDuration
	return status, nil
}

// SessionSummary is one row of listSessions' paginated result.
type SessionSummary struct {
	Session      Session
	MessageCount int64
	FileCount    int64
	TotalTokens  int64
	TotalCostUSD float64
}

// SessionList is listSessions' full return shape.
type SessionList struct {
	Sessions   []SessionSummary
	TotalCount int64
	HasMore    bool
}

// ListSessions returns paginated summaries filtered by status (empty
// status means any).
func (m *Manager) ListSessions(ctx context.Context, status SessionStatus, limit, offset int) (*SessionList, error) {
	db := m.db.DB().WithContext(ctx)
	query := db.Model(&Session{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("conversation: listSessions: count: %w", err)
	}

	var sessions []Session
	listQuery := db.Model(&Session{})
	if status != "" {
		listQuery = listQuery.Where("status = ?", status)
	}
	if err := listQuery.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("conversation: listSessions: %w", err)
	}

	summaries := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		var msgCount int64
		db.Model(&Message{}).Where("session_id = ?", s.ID).Count(&msgCount)
		var fileCount int64
		db.Model(&File{}).Where("session_id = ?", s.ID).Count(&fileCount)

		var budget Budget
		totalTokens := int64(0)
		totalCost := 0.0
		if err := db.First(&budget, "session_id = ?", s.ID).Error; err == nil {
			totalTokens = int64(budget.UsedTokens)
			totalCost = budget.UsedCostUSD
		}

		summaries[i] = SessionSummary{
			Session:      s,
			MessageCount: msgCount,
			FileCount:    fileCount,
			TotalTokens:  totalTokens,
			TotalCostUSD: totalCost,
		}
	}

	return &SessionList{
		Sessions:   summaries,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(sessions)) < totalCount,
	}, nil
}

// UpdateSessionStatus transitions a session between
// active/archived/deleted.
func (m *Manager) UpdateSessionStatus(ctx context.Context, sessionID string, status SessionStatus) error {
	err := m.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Session{}).Where("id = ?", sessionID).Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("conversation: updateSessionStatus: %w", err)
	}
	return nil
}
