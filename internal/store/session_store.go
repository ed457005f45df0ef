package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 会话存储
// =============================================================================

// SessionStore 进程内会话存储
// 维护每个会话的对话历史与流式会话缓存的检索上下文，
// 超时会话由后台任务定期清理
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewSessionStore 创建会话存储
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.Session),
	}
}

// GetOrCreate 获取会话，不存在则创建
func (s *SessionStore) GetOrCreate(sessionID string) *models.Session {
	s.mu.RLock()
	session, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if exists {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 二次检查，避免并发重复创建
	if session, exists := s.sessions[sessionID]; exists {
		return session
	}

	session = models.NewSession(sessionID)
	s.sessions[sessionID] = session
	log.Printf("[会话存储] 创建新会话: %s", sessionID)
	return session
}

// Get 获取会话，不存在返回nil
func (s *SessionStore) Get(sessionID string) *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// Touch 刷新会话活跃时间
func (s *SessionStore) Touch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, exists := s.sessions[sessionID]; exists {
		session.LastActive = time.Now()
	}
}

// AppendExchange 追加一轮对话（用户消息 + 助手回复）
func (s *SessionStore) AppendExchange(sessionID, userMessage, assistantMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		session = models.NewSession(sessionID)
		s.sessions[sessionID] = session
	}

	session.History = append(session.History,
		models.ChatMessage{Role: "user", Content: userMessage},
		models.ChatMessage{Role: "assistant", Content: assistantMessage},
	)
	session.LastActive = time.Now()
}

// History 返回会话最近limit条历史消息，limit<=0返回全部
func (s *SessionStore) History(sessionID string, limit int) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil
	}

	history := session.History
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	// 返回副本，避免调用方持有内部切片
	out := make([]models.ChatMessage, len(history))
	copy(out, history)
	return out
}

// SetContext 缓存会话的检索上下文（流式会话配置阶段写入）
func (s *SessionStore) SetContext(sessionID, context string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		session = models.NewSession(sessionID)
		s.sessions[sessionID] = session
	}
	session.Context = context
	session.LastActive = time.Now()
}

// Context 读取会话缓存的检索上下文
func (s *SessionStore) Context(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, exists := s.sessions[sessionID]; exists {
		return session.Context
	}
	return ""
}

// Count 当前会话数
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanupExpired 清理超时会话，返回清理数量
func (s *SessionStore) CleanupExpired(timeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.LastActive) > timeout {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		log.Printf("[会话存储] 清理超时会话%d个，剩余%d个", removed, len(s.sessions))
	}
	return removed
}

// StartCleanupTask 启动后台清理任务，ctx取消时退出
func (s *SessionStore) StartCleanupTask(ctx context.Context, timeout, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(timeout)
			}
		}
	}()
}
