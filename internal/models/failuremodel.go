package models

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// 组件故障分类模型
// =============================================================================

// FailureModel 组件故障概率模型
// 实现方根据车辆特征给出正类（故障）概率
type FailureModel interface {
	// Component 模型对应的组件名
	Component() string
	// PredictProbability 预测车辆在当前特征下的故障概率
	PredictProbability(vehicle Vehicle) (float64, error)
}

// LogisticModel 逻辑回归故障模型
// 训练端把sklearn管线(one-hot品牌/车型 + 年份/里程直通)导出为JSON系数形式，
// 推理端按 sigmoid(intercept + Σ coef·feature) 还原概率。
// 未见过的品牌/车型系数缺失时按0处理，与训练端handle_unknown=ignore一致。
type LogisticModel struct {
	ComponentName string             `json:"component_name"`
	Intercept     float64            `json:"intercept"`
	Coefficients  map[string]float64 `json:"coefficients"`
}

// Component 模型对应的组件名
func (m *LogisticModel) Component() string {
	return m.ComponentName
}

// PredictProbability 预测故障概率
func (m *LogisticModel) PredictProbability(vehicle Vehicle) (float64, error) {
	if m.Coefficients == nil {
		return 0, fmt.Errorf("model %s has no coefficients", m.ComponentName)
	}

	score := m.Intercept
	score += m.Coefficients["make="+strings.ToLower(vehicle.Make)]
	score += m.Coefficients["model="+strings.ToLower(vehicle.Model)]
	score += m.Coefficients["year"] * float64(vehicle.Year)
	score += m.Coefficients["mileage"] * vehicle.Mileage

	return sigmoid(score), nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// LoadFailureModels 从目录加载全部组件故障模型
// 目录中每个 *_model.json 文件对应一个组件
func LoadFailureModels(dir string) (map[string]FailureModel, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*_model.json"))
	if err != nil {
		return nil, fmt.Errorf("scan model dir failed: %w", err)
	}

	models := make(map[string]FailureModel)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read model file %s failed: %w", path, err)
		}

		var model LogisticModel
		if err := json.Unmarshal(data, &model); err != nil {
			return nil, fmt.Errorf("parse model file %s failed: %w", path, err)
		}

		if model.ComponentName == "" {
			// 兼容仅以文件名标识组件的模型文件
			base := filepath.Base(path)
			model.ComponentName = strings.TrimSuffix(base, "_model.json")
		}

		models[model.ComponentName] = &model
		log.Printf("[故障模型] 已加载组件模型: %s", model.ComponentName)
	}

	if len(models) == 0 {
		log.Printf("[故障模型] 警告: 目录 %s 中未找到任何模型文件", dir)
	}

	return models, nil
}
