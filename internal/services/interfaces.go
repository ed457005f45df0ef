package services

import (
	"context"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 协作方接口
// =============================================================================

// EmbeddingProvider 文本嵌入服务
type EmbeddingProvider interface {
	// GenerateEmbedding 为文本生成嵌入向量
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SimilaritySearcher 向量相似度检索
// 每个方法对应数据库中一个match_*存储过程
type SimilaritySearcher interface {
	MatchParts(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.PartResult, error)
	MatchComponents(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.ComponentResult, error)
	MatchVehicleTypes(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.VehicleTypeResult, error)
	MatchPartPrices(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.PartPriceResult, error)
	MatchFailureDescriptions(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.FailureResult, error)
	MatchDocumentation(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.DocumentationResult, error)
}

// VehicleStore 车辆与配件关系数据查询
type VehicleStore interface {
	// GetVehicleMileageInfo 查询持久化的里程信息，无记录时返回nil
	GetVehicleMileageInfo(ctx context.Context, vehicleID int64) (*models.VehicleMileageInfo, error)
	// GetPartsForComponent 查询指定车型某组件关联的配件
	GetPartsForComponent(ctx context.Context, make, model string, year int, component string) ([]models.PartRecord, error)
}

// ChatCompleter 对话补全服务
type ChatCompleter interface {
	// Complete 一次性补全
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
	// StreamComplete 流式补全，每个增量回调onDelta(delta, buffer)，返回完整回复
	StreamComplete(ctx context.Context, messages []models.ChatMessage, onDelta func(delta, buffer string)) (string, error)
}
