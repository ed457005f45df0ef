package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vehicast/service/internal/models"
)

// stubModel 按里程查表返回概率的故障模型stub
type stubModel struct {
	name     string
	byMile   map[float64]float64
	fixed    float64
	failWith error
}

func (m *stubModel) Component() string { return m.name }

func (m *stubModel) PredictProbability(vehicle models.Vehicle) (float64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	if m.byMile != nil {
		if prob, ok := m.byMile[vehicle.Mileage]; ok {
			return prob, nil
		}
	}
	return m.fixed, nil
}

// stubVehicleStore 可配置的车辆数据stub
type stubVehicleStore struct {
	info  *models.VehicleMileageInfo
	parts []models.PartRecord
	err   error
}

func (s *stubVehicleStore) GetVehicleMileageInfo(ctx context.Context, vehicleID int64) (*models.VehicleMileageInfo, error) {
	return s.info, s.err
}

func (s *stubVehicleStore) GetPartsForComponent(ctx context.Context, make, model string, year int, component string) ([]models.PartRecord, error) {
	return s.parts, s.err
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMileageRateHeuristics(t *testing.T) {
	service := NewTimelineService(nil, nil)
	ctx := context.Background()

	cases := []struct {
		make     string
		model    string
		mileage  float64
		expected float64
	}{
		{"Ford", "F-150", 30000, 2500},
		{"Mercedes", "Sprinter", 10000, 3000},
		{"Toyota", "Camry", 60000, 2000},
		{"Toyota", "Camry", 40000, 1000}, // 里程不足5万不按网约车算
		{"Honda", "Civic", 20000, 1200},
		{"BMW", "3 Series", 20000, 800},
		{"Nissan", "Altima", 30000, 1000},
	}

	for _, c := range cases {
		vehicle := models.Vehicle{Make: c.make, Model: c.model, Mileage: c.mileage}
		if got := service.MileageRate(ctx, vehicle); got != c.expected {
			t.Errorf("MileageRate(%s %s, %.0f miles) = %.0f, expected %.0f",
				c.make, c.model, c.mileage, got, c.expected)
		}
	}
}

func TestMileageRatePrefersStoredRate(t *testing.T) {
	store := &stubVehicleStore{
		info: &models.VehicleMileageInfo{MonthlyRate: 1750},
	}
	service := NewTimelineService(nil, store)

	// 数据库有持久化速率时优先于关键词估算
	vehicle := models.Vehicle{VehicleID: 7, Make: "Ford", Model: "F-150"}
	if got := service.MileageRate(context.Background(), vehicle); got != 1750 {
		t.Errorf("Expected stored rate 1750, got %.0f", got)
	}
}

func TestEstimateFutureMileage(t *testing.T) {
	service := NewTimelineService(nil, nil)

	// 无数据库记录时：当前里程 + 速率×月数
	vehicle := models.Vehicle{Make: "Honda", Model: "Civic", Mileage: 20000}
	got := service.EstimateFutureMileage(context.Background(), vehicle, 6)
	if expected := 20000 + 1200*6.0; !almostEqual(got, expected) {
		t.Errorf("EstimateFutureMileage = %.1f, expected %.1f", got, expected)
	}
}

func TestEstimateFutureMileageWithStaleRecord(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lastUpdate := now.AddDate(0, 0, -60) // 60天前更新，约2个月

	store := &stubVehicleStore{
		info: &models.VehicleMileageInfo{
			Mileage:     50000,
			LastUpdate:  lastUpdate,
			MonthlyRate: 1000,
		},
	}
	service := NewTimelineService(nil, store).WithClock(func() time.Time { return now })

	// 先把存量里程推到当前（50000 + 1000×2），再外推3个月
	vehicle := models.Vehicle{VehicleID: 3, Make: "Nissan", Model: "Altima", Mileage: 48000}
	got := service.EstimateFutureMileage(context.Background(), vehicle, 3)
	if expected := 50000 + 1000*2.0 + 1000*3.0; !almostEqual(got, expected) {
		t.Errorf("EstimateFutureMileage = %.1f, expected %.1f", got, expected)
	}
}

func TestPredictTimelineShape(t *testing.T) {
	failureModels := map[string]models.FailureModel{
		"brakes": &stubModel{name: "brakes", fixed: 0.2},
	}
	service := NewTimelineService(failureModels, nil)

	vehicle := models.Vehicle{Make: "Nissan", Model: "Altima", Mileage: 10000}
	timeline := service.PredictTimeline(context.Background(), vehicle, nil)

	// 默认窗口 [3 6 12 24]，键为"N months"
	windows := timeline["brakes"]
	if len(windows) != 4 {
		t.Fatalf("Expected 4 default windows, got %d", len(windows))
	}
	for _, label := range []string{"3 months", "6 months", "12 months", "24 months"} {
		point, ok := windows[label]
		if !ok {
			t.Fatalf("Missing window %q", label)
		}
		if point.Probability != 0.2 {
			t.Errorf("Expected probability 0.2 at %s, got %v", label, point.Probability)
		}
	}

	// 投影里程随窗口递增
	if windows["3 months"].ProjectedMileage >= windows["24 months"].ProjectedMileage {
		t.Error("Expected projected mileage to grow with window")
	}
}

func TestCumulativeTimelineValues(t *testing.T) {
	// 点概率 0.05 / 0.08 / 0.15 → 累积 0.05 / 0.126 / 0.2571
	byMile := map[float64]float64{
		13000: 0.05, // 3个月，默认速率1000
		16000: 0.08, // 6个月
		22000: 0.15, // 12个月
	}
	failureModels := map[string]models.FailureModel{
		"brakes": &stubModel{name: "brakes", byMile: byMile},
	}
	service := NewTimelineService(failureModels, nil)

	vehicle := models.Vehicle{Make: "Nissan", Model: "Altima", Mileage: 10000}
	timeline := service.CumulativeTimeline(context.Background(), vehicle, []int{3, 6, 12})

	windows := timeline["brakes"]
	expected := map[string]float64{
		"3 months":  0.05,
		"6 months":  0.05 + 0.95*0.08,
		"12 months": 0.126 + (1-0.126)*0.15,
	}
	for label, want := range expected {
		point, ok := windows[label]
		if !ok {
			t.Fatalf("Missing window %q", label)
		}
		if !almostEqual(point.Probability, want) {
			t.Errorf("Cumulative at %s = %v, expected %v", label, point.Probability, want)
		}
	}
}

func TestCumulativeTimelineMonotoneInUnitRange(t *testing.T) {
	failureModels := map[string]models.FailureModel{
		"tires": &stubModel{name: "tires", fixed: 0.4},
	}
	service := NewTimelineService(failureModels, nil)

	vehicle := models.Vehicle{Make: "Nissan", Model: "Altima", Mileage: 10000}
	timeline := service.CumulativeTimeline(context.Background(), vehicle, []int{3, 6, 12, 24})

	// 单调不减且始终在[0,1]内
	windows := timeline["tires"]
	previous := 0.0
	for _, label := range []string{"3 months", "6 months", "12 months", "24 months"} {
		prob := windows[label].Probability
		if prob < previous {
			t.Errorf("Cumulative probability decreased at %s: %v < %v", label, prob, previous)
		}
		if prob < 0 || prob > 1 {
			t.Errorf("Cumulative probability out of range at %s: %v", label, prob)
		}
		previous = prob
	}
}

func TestTimelineIsolatesModelFailure(t *testing.T) {
	failureModels := map[string]models.FailureModel{
		"brakes":    &stubModel{name: "brakes", fixed: 0.3},
		"batteries": &stubModel{name: "batteries", failWith: errors.New("bad coefficients")},
	}
	service := NewTimelineService(failureModels, nil)

	vehicle := models.Vehicle{Make: "Nissan", Model: "Altima", Mileage: 10000}
	timeline := service.PredictTimeline(context.Background(), vehicle, []int{3})

	// 失败模型降级为0，不影响其他组件
	if prob := timeline["batteries"]["3 months"].Probability; prob != 0 {
		t.Errorf("Expected degraded probability 0, got %v", prob)
	}
	if prob := timeline["brakes"]["3 months"].Probability; prob != 0.3 {
		t.Errorf("Expected healthy component untouched, got %v", prob)
	}
}

func TestPredictComponentsOrderingAndDegradation(t *testing.T) {
	store := &stubVehicleStore{
		parts: []models.PartRecord{{PartID: 1, PartName: "Brake Pad"}},
	}
	failureModels := map[string]models.FailureModel{
		"brakes":    &stubModel{name: "brakes", fixed: 0.6},
		"tires":     &stubModel{name: "tires", fixed: 0.9},
		"batteries": &stubModel{name: "batteries", failWith: errors.New("bad coefficients")},
	}
	service := NewTimelineService(failureModels, store)

	vehicle := models.Vehicle{Make: "Honda", Model: "Civic", Year: 2018, Mileage: 40000}
	predictions := service.PredictComponents(context.Background(), vehicle, 0.5)

	// 概率降序
	if len(predictions) != 3 {
		t.Fatalf("Expected 3 predictions, got %d", len(predictions))
	}
	if predictions[0].Component != "tires" || predictions[1].Component != "brakes" || predictions[2].Component != "batteries" {
		t.Errorf("Unexpected ordering: %v, %v, %v",
			predictions[0].Component, predictions[1].Component, predictions[2].Component)
	}

	// 达阈值的组件附带配件
	if len(predictions[0].Parts) != 1 {
		t.Errorf("Expected parts for component above threshold, got %d", len(predictions[0].Parts))
	}

	// 失败模型降级为概率0且无配件
	last := predictions[2]
	if last.Probability != 0 || len(last.Parts) != 0 {
		t.Errorf("Expected degraded prediction with zero probability and no parts, got %+v", last)
	}
}

func TestEnrichTimelineParts(t *testing.T) {
	store := &stubVehicleStore{
		parts: []models.PartRecord{{PartID: 5, PartName: "Alternator"}},
	}
	service := NewTimelineService(nil, store)

	timeline := models.Timeline{
		"alternators": {
			"3 months":  &models.TimelinePoint{Probability: 0.05},
			"12 months": &models.TimelinePoint{Probability: 0.4},
		},
	}
	vehicle := models.Vehicle{Make: "Honda", Model: "Civic", Year: 2018}

	service.EnrichTimelineParts(context.Background(), timeline, vehicle, 0.1)

	// 达阈值的窗口附带配件，未达阈值的不附带
	if parts := timeline["alternators"]["12 months"].Parts; len(parts) != 1 {
		t.Errorf("Expected parts above threshold, got %d", len(parts))
	}
	if parts := timeline["alternators"]["3 months"].Parts; parts != nil {
		t.Errorf("Expected no parts below threshold, got %v", parts)
	}
}
