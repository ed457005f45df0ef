package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 上下文组装器
// =============================================================================

// Assembler 上下文组装器
// 将并行检索结果拼装为给提示词使用的确定性文本，
// 相同输入保证逐字节相同输出（上下文缓存依赖这一点）
type Assembler struct{}

// NewAssembler 创建上下文组装器
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble 按固定顺序组装检索结果
// 机械/诊断/症状类查询优先输出故障与价格段；
// 配件段仅在存在配件结果且价格结果为空时输出
func (a *Assembler) Assemble(types []models.QueryType, results *models.RetrievalResults) string {
	var contextParts []string

	if hasType(types, models.QueryTypeMechanic, models.QueryTypeDiagnostic, models.QueryTypeSymptom) {
		// 故障描述按组件分组；检索成功但无结果时输出None found
		if results.Failures != nil {
			grouped, order := groupFailures(results.Failures)
			if len(order) == 0 {
				contextParts = append(contextParts, "Potential Issues: None found")
			} else {
				contextParts = append(contextParts, "Potential Issues:")
				for _, componentName := range order {
					contextParts = append(contextParts, fmt.Sprintf("- %s:", componentName))
					for _, failure := range grouped[componentName] {
						contextParts = append(contextParts, fmt.Sprintf("  • %s", orDefault(failure.Description, "Unknown issue")))
					}
				}
			}
		}

		// 价格按配件名分组，价格升序
		if results.PartPrices != nil {
			grouped, order := groupPrices(results.PartPrices)
			if len(order) == 0 {
				contextParts = append(contextParts, "\nRelevant Parts with Pricing: None found")
			} else {
				contextParts = append(contextParts, "\nRelevant Parts with Pricing:")
				for _, partName := range order {
					contextParts = append(contextParts, fmt.Sprintf("- %s:", partName))
					prices := grouped[partName]
					sort.SliceStable(prices, func(i, j int) bool {
						return prices[i].Price < prices[j].Price
					})
					for _, price := range prices {
						contextParts = append(contextParts, fmt.Sprintf("  • Price: $%.2f", price.Price))
					}
					if description := prices[0].Description; description != "" {
						contextParts = append(contextParts, fmt.Sprintf("  Description: %s", description))
					}
				}
			}
		}
	}

	// 配件段：价格段已覆盖时不重复输出
	if len(results.Parts) > 0 && len(results.PartPrices) == 0 {
		contextParts = append(contextParts, "\nRelevant Parts:")
		for _, part := range results.Parts {
			contextParts = append(contextParts, fmt.Sprintf("- %s (Part #%s): %s",
				orDefault(part.PartName, "Unknown"),
				orDefault(part.PartNumber, "N/A"),
				orDefault(part.Description, "No description")))
		}
	}

	// 组件段
	if len(results.Components) > 0 {
		contextParts = append(contextParts, "\nRelevant Components:")
		for _, component := range results.Components {
			contextParts = append(contextParts, fmt.Sprintf("- %s: %s",
				orDefault(component.ComponentName, "Unknown"),
				orDefault(component.Description, "No description")))
		}
	}

	// 车型段
	if len(results.VehicleTypes) > 0 {
		contextParts = append(contextParts, "\nRelevant Vehicle Types:")
		for _, vehicle := range results.VehicleTypes {
			contextParts = append(contextParts, fmt.Sprintf("- %d %s %s",
				vehicle.Year,
				orDefault(vehicle.Make, "N/A"),
				orDefault(vehicle.Model, "N/A")))
		}
	}

	// 文档段：标题加完整内容
	if len(results.Documentation) > 0 {
		contextParts = append(contextParts, "\nRelevant Documentation:")
		for _, doc := range results.Documentation {
			contextParts = append(contextParts, fmt.Sprintf("- %s:\n%s",
				orDefault(doc.SectionTitle, "Unknown Section"),
				orDefault(doc.Content, "No content")))
		}
	}

	return strings.Join(contextParts, "\n")
}

// groupFailures 按组件名分组，保持首次出现顺序
func groupFailures(failures []models.FailureResult) (map[string][]models.FailureResult, []string) {
	grouped := make(map[string][]models.FailureResult)
	var order []string
	for _, failure := range failures {
		componentName := orDefault(failure.ComponentName, "Unknown Component")
		if _, seen := grouped[componentName]; !seen {
			order = append(order, componentName)
		}
		grouped[componentName] = append(grouped[componentName], failure)
	}
	return grouped, order
}

// groupPrices 按配件名分组，保持首次出现顺序
func groupPrices(prices []models.PartPriceResult) (map[string][]models.PartPriceResult, []string) {
	grouped := make(map[string][]models.PartPriceResult)
	var order []string
	for _, price := range prices {
		partName := orDefault(price.PartName, "Unknown Part")
		if _, seen := grouped[partName]; !seen {
			order = append(order, partName)
		}
		grouped[partName] = append(grouped[partName], price)
	}
	return grouped, order
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
