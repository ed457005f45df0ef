package models

import "fmt"

// =============================================================================
// 故障时间线预测模型
// =============================================================================

// DefaultTimeWindows 默认预测时间窗口（月）
var DefaultTimeWindows = []int{3, 6, 12, 24}

// 时间线预测类型
const (
	PredictionTypePoint      = "point"      // 各窗口独立的点概率
	PredictionTypeCumulative = "cumulative" // 到各窗口为止的累积概率
)

// TimelinePoint 单个时间窗口的预测点
type TimelinePoint struct {
	Probability      float64      `json:"probability"`
	ProjectedMileage float64      `json:"projected_mileage"`
	Parts            []PartRecord `json:"parts,omitempty"`
}

// Timeline 时间线预测结果：组件名 → 窗口标签("N months") → 预测点
type Timeline map[string]map[string]*TimelinePoint

// WindowLabel 时间窗口标签，例如 "6 months"
func WindowLabel(months int) string {
	return fmt.Sprintf("%d months", months)
}
