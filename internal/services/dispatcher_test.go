package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vehicast/service/internal/models"
)

// mockSearcher 可配置失败源的检索mock，记录每个源收到的参数
type mockSearcher struct {
	mu         sync.Mutex
	called     map[models.Source]bool
	thresholds map[models.Source]float64
	counts     map[models.Source]int
	failing    map[models.Source]bool

	parts    []models.PartResult
	prices   []models.PartPriceResult
	failures []models.FailureResult
}

func newMockSearcher() *mockSearcher {
	return &mockSearcher{
		called:     make(map[models.Source]bool),
		thresholds: make(map[models.Source]float64),
		counts:     make(map[models.Source]int),
		failing:    make(map[models.Source]bool),
	}
}

func (m *mockSearcher) record(source models.Source, threshold float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called[source] = true
	m.thresholds[source] = threshold
	m.counts[source] = count
	if m.failing[source] {
		return errors.New("search backend down")
	}
	return nil
}

func (m *mockSearcher) MatchParts(ctx context.Context, e []float32, threshold float64, count int) ([]models.PartResult, error) {
	if err := m.record(models.SourceParts, threshold, count); err != nil {
		return nil, err
	}
	return m.parts, nil
}

func (m *mockSearcher) MatchComponents(ctx context.Context, e []float32, threshold float64, count int) ([]models.ComponentResult, error) {
	if err := m.record(models.SourceComponents, threshold, count); err != nil {
		return nil, err
	}
	return []models.ComponentResult{}, nil
}

func (m *mockSearcher) MatchVehicleTypes(ctx context.Context, e []float32, threshold float64, count int) ([]models.VehicleTypeResult, error) {
	if err := m.record(models.SourceVehicleTypes, threshold, count); err != nil {
		return nil, err
	}
	return []models.VehicleTypeResult{}, nil
}

func (m *mockSearcher) MatchPartPrices(ctx context.Context, e []float32, threshold float64, count int) ([]models.PartPriceResult, error) {
	if err := m.record(models.SourcePartPrices, threshold, count); err != nil {
		return nil, err
	}
	return m.prices, nil
}

func (m *mockSearcher) MatchFailureDescriptions(ctx context.Context, e []float32, threshold float64, count int) ([]models.FailureResult, error) {
	if err := m.record(models.SourceFailureDescriptions, threshold, count); err != nil {
		return nil, err
	}
	return m.failures, nil
}

func (m *mockSearcher) MatchDocumentation(ctx context.Context, e []float32, threshold float64, count int) ([]models.DocumentationResult, error) {
	if err := m.record(models.SourceDocumentation, threshold, count); err != nil {
		return nil, err
	}
	return []models.DocumentationResult{}, nil
}

func (m *mockSearcher) wasCalled(source models.Source) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called[source]
}

func TestDispatchSelectsSourcesByTags(t *testing.T) {
	searcher := newMockSearcher()
	dispatcher := NewDispatcher(searcher, NewClassifier(), 0.4, 3)

	// mechanic触发parts+components；pricing触发prices
	types := []models.QueryType{models.QueryTypeMechanic, models.QueryTypePricing}
	dispatcher.Dispatch(context.Background(), "replace brake rotor cost", types, []float32{0.1})

	for _, source := range []models.Source{models.SourceParts, models.SourceComponents, models.SourcePartPrices} {
		if !searcher.wasCalled(source) {
			t.Errorf("Expected %s to be dispatched", source)
		}
	}
	if searcher.wasCalled(models.SourceVehicleTypes) {
		t.Error("Did not expect match_vehicle_types without vehicle tags")
	}
}

func TestDispatchSharedDefaults(t *testing.T) {
	searcher := newMockSearcher()
	dispatcher := NewDispatcher(searcher, NewClassifier(), 0.4, 3)

	types := []models.QueryType{models.QueryTypeMechanic}
	dispatcher.Dispatch(context.Background(), "engine repair", types, []float32{0.1})

	// 所有源使用统一的阈值与结果数
	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	for source, threshold := range searcher.thresholds {
		if threshold != 0.4 {
			t.Errorf("Expected threshold 0.4 for %s, got %v", source, threshold)
		}
		if searcher.counts[source] != 3 {
			t.Errorf("Expected count 3 for %s, got %d", source, searcher.counts[source])
		}
	}
}

func TestDispatchIsolatesSourceFailure(t *testing.T) {
	searcher := newMockSearcher()
	searcher.failing[models.SourcePartPrices] = true
	searcher.parts = []models.PartResult{{PartID: 1, PartName: "Brake Pad"}}
	searcher.failures = []models.FailureResult{{FailureID: 1, ComponentName: "brakes"}}
	dispatcher := NewDispatcher(searcher, NewClassifier(), 0.4, 3)

	// 三个源被调度，其中价格源失败
	types := []models.QueryType{
		models.QueryTypePart,
		models.QueryTypePricing,
		models.QueryTypeDiagnostic,
	}
	results := dispatcher.Dispatch(context.Background(), "brake pads grinding price", types, []float32{0.1})

	// 失败源为nil，其余不受影响
	if results.PartPrices != nil {
		t.Errorf("Expected nil result for failing source, got %v", results.PartPrices)
	}
	if results.Parts == nil {
		t.Error("Expected non-nil parts result despite sibling failure")
	}
	if results.Failures == nil {
		t.Error("Expected non-nil failures result despite sibling failure")
	}
	if len(results.Parts) != 1 || len(results.Failures) != 1 {
		t.Errorf("Expected surviving results intact, got parts=%d failures=%d",
			len(results.Parts), len(results.Failures))
	}
}

func TestDispatchEmptySuccessIsNotNil(t *testing.T) {
	searcher := newMockSearcher()
	dispatcher := NewDispatcher(searcher, NewClassifier(), 0.4, 3)

	// 检索成功但无匹配 → 非nil空切片
	types := []models.QueryType{models.QueryTypeMechanic}
	results := dispatcher.Dispatch(context.Background(), "engine service", types, []float32{0.1})

	if results.Components == nil {
		t.Error("Expected empty slice for successful search with no matches, got nil")
	}
	if len(results.Components) != 0 {
		t.Errorf("Expected no components, got %d", len(results.Components))
	}
}
