package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 并行检索调度器
// =============================================================================

// Dispatcher 并行检索调度器
// 根据查询标签选择检索源，全部选中的源并发执行，
// 单个源失败只让该源结果为nil，不影响其他源
type Dispatcher struct {
	searcher   SimilaritySearcher
	classifier *Classifier
	threshold  float64 // 相似度阈值，所有源共用
	count      int     // 每个源返回的结果数，所有源共用
}

// NewDispatcher 创建并行检索调度器
func NewDispatcher(searcher SimilaritySearcher, classifier *Classifier, threshold float64, count int) *Dispatcher {
	return &Dispatcher{
		searcher:   searcher,
		classifier: classifier,
		threshold:  threshold,
		count:      count,
	}
}

// hasType 标签集合中是否包含任一给定标签
func hasType(types []models.QueryType, targets ...models.QueryType) bool {
	for _, t := range types {
		for _, target := range targets {
			if t == target {
				return true
			}
		}
	}
	return false
}

// Dispatch 按标签并发调度检索源
// 返回结果中nil字段表示该源未调度或调度失败
func (d *Dispatcher) Dispatch(ctx context.Context, query string, types []models.QueryType, embedding []float32) *models.RetrievalResults {
	results := &models.RetrievalResults{}
	startTime := time.Now()

	var wg sync.WaitGroup

	// 配件检索
	if hasType(types, models.QueryTypePart, models.QueryTypeMechanic) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts, err := d.searcher.MatchParts(ctx, embedding, d.threshold, d.count)
			if err != nil {
				log.Printf("[检索调度] match_parts 失败: %v", err)
				return
			}
			results.Parts = nonNil(parts)
		}()
	}

	// 组件检索
	if hasType(types, models.QueryTypeMechanic) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			components, err := d.searcher.MatchComponents(ctx, embedding, d.threshold, d.count)
			if err != nil {
				log.Printf("[检索调度] match_components 失败: %v", err)
				return
			}
			results.Components = nonNil(components)
		}()
	}

	// 车型检索：分类器不会产生这些标签，仅响应调用方显式指定
	if hasType(types, models.QueryTypeVehicle, models.QueryTypeMake, models.QueryTypeModel) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vehicleTypes, err := d.searcher.MatchVehicleTypes(ctx, embedding, d.threshold, d.count)
			if err != nil {
				log.Printf("[检索调度] match_vehicle_types 失败: %v", err)
				return
			}
			results.VehicleTypes = nonNil(vehicleTypes)
		}()
	}

	// 价格检索
	if hasType(types, models.QueryTypePricing) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prices, err := d.searcher.MatchPartPrices(ctx, embedding, d.threshold, d.count)
			if err != nil {
				log.Printf("[检索调度] match_part_prices 失败: %v", err)
				return
			}
			results.PartPrices = nonNil(prices)
		}()
	}

	// 故障描述检索
	if hasType(types, models.QueryTypeDiagnostic, models.QueryTypeSymptom) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			failures, err := d.searcher.MatchFailureDescriptions(ctx, embedding, d.threshold, d.count)
			if err != nil {
				log.Printf("[检索调度] match_failure_descriptions 失败: %v", err)
				return
			}
			results.Failures = nonNil(failures)
		}()
	}

	// 文档检索：标签命中或文档类查询判定命中
	if hasType(types, models.QueryTypeDocumentation) || d.classifier.IsDocumentationQuery(query) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs, err := d.searcher.MatchDocumentation(ctx, embedding, d.threshold, d.count)
			if err != nil {
				log.Printf("[检索调度] match_documentation 失败: %v", err)
				return
			}
			results.Documentation = nonNil(docs)
		}()
	}

	// 等待所有检索完成，总耗时约等于最慢的源
	wg.Wait()
	log.Printf("[检索调度] 标签%v 检索完成，耗时%v", types, time.Since(startTime))

	return results
}

// nonNil 成功但无匹配时返回非nil空切片，与失败的nil区分
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
