package services

import (
	"context"
	"log"

	"github.com/vehicast/service/internal/models"
	"github.com/vehicast/service/internal/store"
)

// =============================================================================
// 聊天服务
// =============================================================================

// ErrorReply 对话补全失败时返回的兜底回复
const ErrorReply = "I'm sorry, I encountered an error while processing your request. Please try again later."

// ChatService 聊天服务
// 组合上下文检索、会话历史与对话补全，生成助手回复
type ChatService struct {
	completer      ChatCompleter
	contextService *ContextService
	sessions       *store.SessionStore
	historyLimit   int
}

// NewChatService 创建聊天服务
func NewChatService(completer ChatCompleter, contextService *ContextService, sessions *store.SessionStore, historyLimit int) *ChatService {
	return &ChatService{
		completer:      completer,
		contextService: contextService,
		sessions:       sessions,
		historyLimit:   historyLimit,
	}
}

// buildMessages 构建补全请求消息序列：
// 系统提示词 → 格式约束 → 最近历史 → 检索上下文 → 用户消息
func (s *ChatService) buildMessages(sessionID, message, retrievedContext string, history []models.ChatMessage) []models.ChatMessage {
	messages := []models.ChatMessage{
		{Role: "system", Content: SystemPrompt},
		{Role: "system", Content: FormattingPrompt},
	}

	messages = append(messages, history...)

	if retrievedContext != "" {
		messages = append(messages, models.ChatMessage{
			Role:    "system",
			Content: RetrievalPrompt(retrievedContext),
		})
	}

	messages = append(messages, models.ChatMessage{Role: "user", Content: message})
	return messages
}

// GenerateResponse 生成一次性回复并更新会话历史
// 补全失败降级为兜底回复，不向上层返回错误
func (s *ChatService) GenerateResponse(ctx context.Context, message, sessionID string) string {
	s.sessions.GetOrCreate(sessionID)

	retrievedContext := s.contextService.RetrieveContext(ctx, message)
	history := s.sessions.History(sessionID, s.historyLimit)
	messages := s.buildMessages(sessionID, message, retrievedContext, history)

	response, err := s.completer.Complete(ctx, messages)
	if err != nil {
		log.Printf("[聊天服务] 会话%s 补全失败: %v", sessionID, err)
		return ErrorReply
	}

	s.sessions.AppendExchange(sessionID, message, response)
	return response
}

// StreamResponse 流式生成回复，增量通过onDelta回调
// 使用会话缓存的检索上下文（实时会话配置阶段写入），无缓存时现场检索
func (s *ChatService) StreamResponse(ctx context.Context, message, sessionID string, history []models.ChatMessage, onDelta func(delta, buffer string)) (string, error) {
	s.sessions.GetOrCreate(sessionID)

	retrievedContext := s.sessions.Context(sessionID)
	if retrievedContext == "" {
		retrievedContext = s.contextService.RetrieveContext(ctx, message)
		s.sessions.SetContext(sessionID, retrievedContext)
	}

	// 客户端携带历史时优先使用，否则取会话存储的历史
	if history == nil {
		history = s.sessions.History(sessionID, s.historyLimit)
	} else if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	messages := s.buildMessages(sessionID, message, retrievedContext, history)

	response, err := s.completer.StreamComplete(ctx, messages, onDelta)
	if err != nil {
		return "", err
	}

	s.sessions.AppendExchange(sessionID, message, response)
	return response, nil
}

// PrepareRealtimeSession 为实时会话预检索上下文并缓存到会话
func (s *ChatService) PrepareRealtimeSession(ctx context.Context, message, sessionID string) string {
	s.sessions.GetOrCreate(sessionID)
	retrievedContext := s.contextService.RetrieveContext(ctx, message)
	s.sessions.SetContext(sessionID, retrievedContext)
	return retrievedContext
}
