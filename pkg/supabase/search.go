package supabase

import (
	"context"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 向量相似度检索
// =============================================================================

// matchParams match_*存储过程的统一入参
type matchParams struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

// MatchParts 配件向量检索
func (c *Client) MatchParts(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.PartResult, error) {
	var results []models.PartResult
	err := c.Rpc(ctx, "match_parts", matchParams{embedding, threshold, count}, &results)
	return results, err
}

// MatchComponents 组件向量检索
func (c *Client) MatchComponents(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.ComponentResult, error) {
	var results []models.ComponentResult
	err := c.Rpc(ctx, "match_components", matchParams{embedding, threshold, count}, &results)
	return results, err
}

// MatchVehicleTypes 车型向量检索
func (c *Client) MatchVehicleTypes(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.VehicleTypeResult, error) {
	var results []models.VehicleTypeResult
	err := c.Rpc(ctx, "match_vehicle_types", matchParams{embedding, threshold, count}, &results)
	return results, err
}

// MatchPartPrices 配件价格向量检索
func (c *Client) MatchPartPrices(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.PartPriceResult, error) {
	var results []models.PartPriceResult
	err := c.Rpc(ctx, "match_part_prices", matchParams{embedding, threshold, count}, &results)
	return results, err
}

// MatchFailureDescriptions 故障描述向量检索
func (c *Client) MatchFailureDescriptions(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.FailureResult, error) {
	var results []models.FailureResult
	err := c.Rpc(ctx, "match_failure_descriptions", matchParams{embedding, threshold, count}, &results)
	return results, err
}

// MatchDocumentation 文档向量检索
func (c *Client) MatchDocumentation(ctx context.Context, embedding []float32, threshold float64, count int) ([]models.DocumentationResult, error) {
	var results []models.DocumentationResult
	err := c.Rpc(ctx, "match_documentation", matchParams{embedding, threshold, count}, &results)
	return results, err
}
