package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 上下文检索服务
// =============================================================================

// GreetingContext 问候/短查询的固定上下文，不触发嵌入与检索
const GreetingContext = "This is a simple greeting or short query. No specific automotive context needed."

// 视为问候的查询（完全匹配，不区分大小写）
var simpleGreetings = []string{"hi", "hello", "hey", "greetings", "howdy", "what's up", "sup"}

// ContextService 上下文检索服务
// 编排完整检索管线：问候短路 → 分类 → 上下文缓存 → 嵌入 → 并行检索 → 组装
type ContextService struct {
	classifier     *Classifier
	dispatcher     *Dispatcher
	assembler      *Assembler
	embeddingCache *EmbeddingCache
	contextCache   *ContextCache
}

// NewContextService 创建上下文检索服务
func NewContextService(
	classifier *Classifier,
	dispatcher *Dispatcher,
	assembler *Assembler,
	embeddingCache *EmbeddingCache,
	contextCache *ContextCache,
) *ContextService {
	return &ContextService{
		classifier:     classifier,
		dispatcher:     dispatcher,
		assembler:      assembler,
		embeddingCache: embeddingCache,
		contextCache:   contextCache,
	}
}

// isSimpleGreeting 问候语或两个词以内的短查询
func isSimpleGreeting(query string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	for _, greeting := range simpleGreetings {
		if trimmed == greeting {
			return true
		}
	}
	return len(strings.Fields(query)) <= 2
}

// RetrieveContext 为查询检索相关上下文
// 嵌入失败等检索故障降级为空上下文，不向上层返回错误
func (s *ContextService) RetrieveContext(ctx context.Context, query string) string {
	startTime := time.Now()
	log.Printf("[上下文检索] 处理查询: %q", query)

	// 第一层：问候/短查询直接短路
	if isSimpleGreeting(query) {
		log.Printf("[上下文检索] 命中问候短路，跳过向量检索")
		return GreetingContext
	}

	// 第二层：分类决定检索源
	queryTypes := s.classifier.Classify(query)
	log.Printf("[上下文检索] 查询标签: %v", queryTypes)

	// 上下文缓存命中直接返回，短路嵌入与检索
	if cached, ok := s.contextCache.Get(queryTypes); ok {
		log.Printf("[上下文检索] 上下文缓存命中: %s", TagKey(queryTypes))
		return cached
	}

	// 生成查询嵌入（嵌入缓存内部处理命中）
	embedding, err := s.embeddingCache.GetOrCompute(ctx, query)
	if err != nil {
		log.Printf("[上下文检索] 生成嵌入失败: %v", err)
		return ""
	}

	// 第三层：并行检索与组装
	results := s.dispatcher.Dispatch(ctx, query, queryTypes, embedding)
	assembled := s.assembler.Assemble(queryTypes, results)

	s.contextCache.Set(queryTypes, assembled)
	log.Printf("[上下文检索] 完成，上下文%d字符，耗时%v", len(assembled), time.Since(startTime))

	return assembled
}

// QueryTypes 暴露分类结果，供需要标签的调用方使用
func (s *ContextService) QueryTypes(query string) []models.QueryType {
	return s.classifier.Classify(query)
}
