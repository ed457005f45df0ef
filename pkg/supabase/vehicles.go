package supabase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 车辆与配件关系查询
// =============================================================================

// vehicleRow vehicles表的里程相关列
type vehicleRow struct {
	Mileage     float64 `json:"mileage"`
	LastUpdate  string  `json:"last_update"`
	MonthlyRate float64 `json:"estimated_monthly_accumulation"`
}

// GetVehicleMileageInfo 查询车辆持久化的里程信息，无记录返回nil
func (c *Client) GetVehicleMileageInfo(ctx context.Context, vehicleID int64) (*models.VehicleMileageInfo, error) {
	var rows []vehicleRow
	filters := map[string]string{
		"vehicle_id": "eq." + strconv.FormatInt(vehicleID, 10),
	}
	if err := c.Select(ctx, "vehicles", "mileage,last_update,estimated_monthly_accumulation", filters, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	info := &models.VehicleMileageInfo{
		Mileage:     rows[0].Mileage,
		MonthlyRate: rows[0].MonthlyRate,
	}
	if rows[0].LastUpdate != "" {
		lastUpdate, err := time.Parse(time.RFC3339, rows[0].LastUpdate)
		if err != nil {
			return nil, fmt.Errorf("parse last_update failed: %w", err)
		}
		info.LastUpdate = lastUpdate
	}
	return info, nil
}

// GetPartsForComponent 查询指定车型某组件的关联配件
// 三步查询：车型ID → 组件ID → 配件列表，任一步无记录返回空
func (c *Client) GetPartsForComponent(ctx context.Context, make, model string, year int, component string) ([]models.PartRecord, error) {
	var vehicleTypes []struct {
		TypeID int64 `json:"type_id"`
	}
	typeFilters := map[string]string{
		"make":  "eq." + make,
		"model": "eq." + model,
		"year":  "eq." + strconv.Itoa(year),
	}
	if err := c.Select(ctx, "vehicle_types", "type_id", typeFilters, &vehicleTypes); err != nil {
		return nil, err
	}
	if len(vehicleTypes) == 0 {
		return []models.PartRecord{}, nil
	}

	var components []struct {
		ComponentID int64 `json:"component_id"`
	}
	componentFilters := map[string]string{
		"component_name": "eq." + component,
	}
	if err := c.Select(ctx, "components", "component_id", componentFilters, &components); err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return []models.PartRecord{}, nil
	}

	var parts []models.PartRecord
	partFilters := map[string]string{
		"type_id":      "eq." + strconv.FormatInt(vehicleTypes[0].TypeID, 10),
		"component_id": "eq." + strconv.FormatInt(components[0].ComponentID, 10),
	}
	if err := c.Select(ctx, "parts", "*", partFilters, &parts); err != nil {
		return nil, err
	}
	if parts == nil {
		parts = []models.PartRecord{}
	}
	return parts, nil
}
