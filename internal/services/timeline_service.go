package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 故障时间线预测服务
// =============================================================================

// TimelineService 故障时间线预测服务
// 基于组件故障模型与里程推算，给出各时间窗口的点概率与累积概率
type TimelineService struct {
	failureModels map[string]models.FailureModel
	vehicles      VehicleStore
	now           func() time.Time
}

// NewTimelineService 创建时间线预测服务
func NewTimelineService(failureModels map[string]models.FailureModel, vehicles VehicleStore) *TimelineService {
	return &TimelineService{
		failureModels: failureModels,
		vehicles:      vehicles,
		now:           time.Now,
	}
}

// WithClock 替换时间源，供测试使用
func (s *TimelineService) WithClock(now func() time.Time) *TimelineService {
	s.now = now
	return s
}

// MileageRate 车辆月均里程增长率（英里/月）
// 数据库有持久化速率时优先使用，否则按车型关键词估算
func (s *TimelineService) MileageRate(ctx context.Context, vehicle models.Vehicle) float64 {
	if s.vehicles != nil && vehicle.VehicleID > 0 {
		info, err := s.vehicles.GetVehicleMileageInfo(ctx, vehicle.VehicleID)
		if err != nil {
			log.Printf("[时间线预测] 查询车辆%d里程速率失败: %v", vehicle.VehicleID, err)
		} else if info != nil && info.MonthlyRate > 0 {
			return info.MonthlyRate
		}
	}

	vehicleType := strings.ToLower(vehicle.Make + " " + vehicle.Model)

	switch {
	case strings.Contains(vehicleType, "truck") || strings.Contains(vehicleType, "f-150"):
		return 2500 // 商用卡车
	case strings.Contains(vehicleType, "sprinter") || strings.Contains(vehicleType, "transit"):
		return 3000 // 物流货车
	case (strings.Contains(vehicleType, "camry") || strings.Contains(vehicleType, "accord")) && vehicle.Mileage > 50000:
		return 2000 // 疑似网约车
	case strings.Contains(vehicleType, "corolla") || strings.Contains(vehicleType, "civic"):
		return 1200 // 通勤用车
	case strings.Contains(vehicleType, "bmw") || strings.Contains(vehicleType, "mercedes"):
		return 800 // 豪华车行驶较少
	default:
		return 1000 // 普通轿车默认值
	}
}

// EstimateFutureMileage 估算monthsAhead个月后的里程
// 数据库有记录时先把存量里程按距上次更新的时间推到当前，再向前外推
func (s *TimelineService) EstimateFutureMileage(ctx context.Context, vehicle models.Vehicle, monthsAhead float64) float64 {
	currentMileage := vehicle.Mileage

	if s.vehicles != nil && vehicle.VehicleID > 0 {
		info, err := s.vehicles.GetVehicleMileageInfo(ctx, vehicle.VehicleID)
		if err != nil {
			log.Printf("[时间线预测] 推算车辆%d当前里程失败: %v", vehicle.VehicleID, err)
		} else if info != nil && !info.LastUpdate.IsZero() {
			monthsSince := s.now().Sub(info.LastUpdate).Hours() / 24 / 30.0
			if monthsSince > 0 {
				currentMileage = info.Mileage + s.MileageRate(ctx, vehicle)*monthsSince
			}
		}
	}

	return currentMileage + s.MileageRate(ctx, vehicle)*monthsAhead
}

// ProbabilityAtMileage 指定里程下的组件故障概率
// 推理失败降级为0.0，保证其他组件与窗口不受影响
func (s *TimelineService) ProbabilityAtMileage(model models.FailureModel, vehicle models.Vehicle, targetMileage float64) float64 {
	future := vehicle
	future.Mileage = targetMileage

	prob, err := model.PredictProbability(future)
	if err != nil {
		log.Printf("[时间线预测] 组件%s在里程%.0f处推理失败: %v", model.Component(), targetMileage, err)
		return 0.0
	}
	return prob
}

// PredictTimeline 各组件在各时间窗口的点概率
func (s *TimelineService) PredictTimeline(ctx context.Context, vehicle models.Vehicle, timeWindows []int) models.Timeline {
	if len(timeWindows) == 0 {
		timeWindows = models.DefaultTimeWindows
	}

	timeline := make(models.Timeline)
	for componentName, model := range s.failureModels {
		timeline[componentName] = make(map[string]*models.TimelinePoint)

		for _, months := range timeWindows {
			futureMileage := s.EstimateFutureMileage(ctx, vehicle, float64(months))
			prob := s.ProbabilityAtMileage(model, vehicle, futureMileage)

			timeline[componentName][models.WindowLabel(months)] = &models.TimelinePoint{
				Probability:      prob,
				ProjectedMileage: futureMileage,
			}
		}
	}

	return timeline
}

// CumulativeTimeline 各组件到各时间窗口为止的累积故障概率
// 窗口按月份升序处理，C += (1-C)·p，单调不减且始终在[0,1]内
func (s *TimelineService) CumulativeTimeline(ctx context.Context, vehicle models.Vehicle, timeWindows []int) models.Timeline {
	pointTimeline := s.PredictTimeline(ctx, vehicle, timeWindows)
	cumulative := make(models.Timeline)

	for componentName, predictions := range pointTimeline {
		cumulative[componentName] = make(map[string]*models.TimelinePoint)

		sortedWindows := sortedWindowLabels(predictions)

		cumulativeProb := 0.0
		for _, window := range sortedWindows {
			pointProb := predictions[window].Probability

			conditionalProb := pointProb
			if cumulativeProb >= 1 {
				conditionalProb = 0
			}
			cumulativeProb = cumulativeProb + (1-cumulativeProb)*conditionalProb

			cumulative[componentName][window] = &models.TimelinePoint{
				Probability:      cumulativeProb,
				ProjectedMileage: predictions[window].ProjectedMileage,
			}
		}
	}

	return cumulative
}

// sortedWindowLabels 窗口标签按月份数值升序
func sortedWindowLabels(predictions map[string]*models.TimelinePoint) []string {
	labels := make([]string, 0, len(predictions))
	for label := range predictions {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return windowMonths(labels[i]) < windowMonths(labels[j])
	})
	return labels
}

// windowMonths 解析"N months"中的月份数
func windowMonths(label string) int {
	months := 0
	for _, r := range label {
		if r < '0' || r > '9' {
			break
		}
		months = months*10 + int(r-'0')
	}
	return months
}

// PredictComponents 单车辆各组件的当前故障概率，按概率降序
// 概率达到阈值的组件附带关联配件；单个模型失败降级为概率0且不附配件
func (s *TimelineService) PredictComponents(ctx context.Context, vehicle models.Vehicle, threshold float64) []models.ComponentPrediction {
	predictions := make([]models.ComponentPrediction, 0, len(s.failureModels))

	for componentName, model := range s.failureModels {
		prob, err := model.PredictProbability(vehicle)
		if err != nil {
			log.Printf("[时间线预测] 组件%s推理失败: %v", componentName, err)
			predictions = append(predictions, models.ComponentPrediction{
				Component:   componentName,
				Probability: 0,
				Parts:       []models.PartRecord{},
			})
			continue
		}

		parts := []models.PartRecord{}
		if prob >= threshold {
			parts = s.lookupParts(ctx, vehicle, componentName)
		}

		predictions = append(predictions, models.ComponentPrediction{
			Component:   componentName,
			Probability: prob,
			Parts:       parts,
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Probability > predictions[j].Probability
	})

	return predictions
}

// EnrichTimelineParts 为时间线中概率达标的预测点附加关联配件
func (s *TimelineService) EnrichTimelineParts(ctx context.Context, timeline models.Timeline, vehicle models.Vehicle, threshold float64) {
	for componentName, windows := range timeline {
		var parts []models.PartRecord
		fetched := false

		for _, point := range windows {
			if point.Probability < threshold {
				continue
			}
			if !fetched {
				parts = s.lookupParts(ctx, vehicle, componentName)
				fetched = true
			}
			point.Parts = parts
		}
	}
}

// lookupParts 查询车型某组件的关联配件，失败降级为空
func (s *TimelineService) lookupParts(ctx context.Context, vehicle models.Vehicle, componentName string) []models.PartRecord {
	if s.vehicles == nil {
		return []models.PartRecord{}
	}

	parts, err := s.vehicles.GetPartsForComponent(ctx, vehicle.Make, vehicle.Model, vehicle.Year, componentName)
	if err != nil {
		log.Printf("[时间线预测] 查询%s %s组件%s配件失败: %v", vehicle.Make, vehicle.Model, componentName, err)
		return []models.PartRecord{}
	}
	if parts == nil {
		parts = []models.PartRecord{}
	}
	return parts
}
