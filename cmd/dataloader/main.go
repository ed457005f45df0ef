package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/schollz/progressbar/v3"

	"github.com/vehicast/service/internal/config"
	"github.com/vehicast/service/pkg/supabase"
)

// =============================================================================
// 参考数据生成与上传工具
// =============================================================================

// vehicleType 车型记录
type vehicleType struct {
	TypeID int64  `json:"type_id"`
	Make   string `json:"make"`
	Model  string `json:"model"`
	Year   int    `json:"year"`
}

// component 组件记录
type component struct {
	ComponentID   int64  `json:"component_id"`
	ComponentName string `json:"component_name"`
}

// part 配件记录
type part struct {
	PartID      int64  `json:"part_id"`
	PartName    string `json:"part_name"`
	PartNumber  string `json:"part_number"`
	TypeID      int64  `json:"type_id"`
	ComponentID int64  `json:"component_id"`
}

// vehicle 车辆记录
type vehicle struct {
	VehicleID int64 `json:"vehicle_id"`
	TypeID    int64 `json:"type_id"`
	Mileage   int   `json:"mileage"`
}

// failure 车辆-组件故障率记录
type failure struct {
	VehicleID   int64   `json:"vehicle_id"`
	ComponentID int64   `json:"component_id"`
	FailureRate float64 `json:"failure_rate"`
}

// dataset 全量参考数据
type dataset struct {
	VehicleTypes []vehicleType
	Components   []component
	Parts        []part
	Vehicles     []vehicle
	Failures     []failure
}

var makes = []string{"Toyota", "Honda", "Ford", "Chevrolet", "Nissan", "Hyundai", "Kia", "BMW", "Mercedes", "Audi"}

var modelsByMake = map[string][]string{
	"Toyota":    {"Camry", "Corolla", "RAV4", "Highlander", "Tacoma"},
	"Honda":     {"Civic", "Accord", "CR-V", "Pilot", "Odyssey"},
	"Ford":      {"F-150", "Escape", "Explorer", "Focus", "Mustang"},
	"Chevrolet": {"Silverado", "Equinox", "Malibu", "Tahoe", "Suburban"},
	"Nissan":    {"Altima", "Rogue", "Sentra", "Pathfinder", "Frontier"},
	"Hyundai":   {"Elantra", "Santa Fe", "Tucson", "Sonata", "Kona"},
	"Kia":       {"Sportage", "Sorento", "Forte", "Soul", "Telluride"},
	"BMW":       {"3 Series", "5 Series", "X3", "X5", "7 Series"},
	"Mercedes":  {"C-Class", "E-Class", "GLC", "GLE", "S-Class"},
	"Audi":      {"A4", "A6", "Q5", "Q7", "A3"},
}

var componentNames = []string{
	"brakes", "batteries", "alternators", "spark plugs", "tires",
	"oil filters", "air filters", "starters", "water pumps", "fuel pumps",
}

// 各组件的故障里程阈值与基准故障率
var failureThresholds = map[int64]float64{
	1: 60000, 2: 50000, 3: 100000, 4: 80000, 5: 40000,
	6: 5000, 7: 15000, 8: 150000, 9: 90000, 10: 100000,
}

var failureBaseRates = map[int64]float64{
	1: 0.15, 2: 0.20, 3: 0.05, 4: 0.10, 5: 0.25,
	6: 0.30, 7: 0.15, 8: 0.03, 9: 0.07, 10: 0.05,
}

func main() {
	seed := flag.Int64("seed", 42, "随机种子，固定种子生成确定性数据")
	nTypes := flag.Int("types", 50, "生成的车型数")
	nVehicles := flag.Int("vehicles", 1000, "生成的车辆数")
	outDir := flag.String("out", "", "CSV输出目录，为空则不写CSV")
	upload := flag.Bool("upload", false, "是否上传到Supabase")
	flag.Parse()

	gofakeit.Seed(*seed)

	log.Printf("[数据工具] 生成参考数据: 车型%d个, 车辆%d辆, 种子%d", *nTypes, *nVehicles, *seed)
	data := generate(*nTypes, *nVehicles)
	log.Printf("[数据工具] 生成完成: 车型%d 组件%d 配件%d 车辆%d 故障记录%d",
		len(data.VehicleTypes), len(data.Components), len(data.Parts), len(data.Vehicles), len(data.Failures))

	if *outDir != "" {
		if err := writeCSVs(*outDir, data); err != nil {
			log.Fatalf("[数据工具] 写CSV失败: %v", err)
		}
		log.Printf("[数据工具] CSV已写入 %s", *outDir)
	}

	if *upload {
		cfg := config.Load()
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			log.Fatalf("[数据工具] 创建Supabase客户端失败: %v", err)
		}
		if err := uploadAll(client, data); err != nil {
			log.Fatalf("[数据工具] 上传失败: %v", err)
		}
		log.Printf("[数据工具] 上传完成")
	}
}

// generate 生成全量参考数据，固定种子下结果确定
func generate(nTypes, nVehicles int) *dataset {
	data := &dataset{}

	// 车型：品牌/车型/年份组合
	typeID := int64(1)
	for len(data.VehicleTypes) < nTypes {
		make := makes[gofakeit.Number(0, len(makes)-1)]
		models := modelsByMake[make]
		model := models[gofakeit.Number(0, len(models)-1)]
		year := gofakeit.Number(2005, 2023)

		if gofakeit.Float64Range(0, 1) < 0.7 {
			data.VehicleTypes = append(data.VehicleTypes, vehicleType{
				TypeID: typeID,
				Make:   make,
				Model:  model,
				Year:   year,
			})
			typeID++
		}
	}

	// 组件
	for i, name := range componentNames {
		data.Components = append(data.Components, component{
			ComponentID:   int64(i + 1),
			ComponentName: name,
		})
	}

	// 配件：每个组件覆盖一部分车型
	partID := int64(1)
	perComponent := len(data.VehicleTypes)
	if perComponent > 30 {
		perComponent = 30
	}
	for _, comp := range data.Components {
		for i := 0; i < perComponent; i++ {
			vtype := data.VehicleTypes[gofakeit.Number(0, len(data.VehicleTypes)-1)]
			partName := fmt.Sprintf("%s for %s %s %d", titleCase(comp.ComponentName), vtype.Make, vtype.Model, vtype.Year)
			partNumber := fmt.Sprintf("%s%s%02d%02d%d",
				strings.ToUpper(prefix(vtype.Make, 2)),
				strings.ToUpper(prefix(vtype.Model, 2)),
				vtype.Year%100, comp.ComponentID, gofakeit.Number(100, 999))

			data.Parts = append(data.Parts, part{
				PartID:      partID,
				PartName:    partName,
				PartNumber:  partNumber,
				TypeID:      vtype.TypeID,
				ComponentID: comp.ComponentID,
			})
			partID++
		}
	}

	// 车辆：里程按车龄估算（年均约12000英里，带扰动）
	currentYear := 2023
	for i := 1; i <= nVehicles; i++ {
		vtype := data.VehicleTypes[gofakeit.Number(0, len(data.VehicleTypes)-1)]
		age := currentYear - vtype.Year
		baseMileage := float64(age) * 12000
		mileage := int(baseMileage + gofakeit.Float64Range(-0.2, 0.2)*baseMileage)
		if mileage < 1000 {
			mileage = 1000
		}

		data.Vehicles = append(data.Vehicles, vehicle{
			VehicleID: int64(i),
			TypeID:    vtype.TypeID,
			Mileage:   mileage,
		})
	}

	// 故障率：每个车辆-组件对一条
	for _, v := range data.Vehicles {
		for _, comp := range data.Components {
			data.Failures = append(data.Failures, failure{
				VehicleID:   v.VehicleID,
				ComponentID: comp.ComponentID,
				FailureRate: failureProbability(v.Mileage, comp.ComponentID),
			})
		}
	}

	return data
}

// failureProbability 基于里程与组件类型的故障概率
// 里程接近阈值时概率逼近基准故障率，超过阈值后加速上升
func failureProbability(mileage int, componentID int64) float64 {
	threshold, ok := failureThresholds[componentID]
	if !ok {
		threshold = 50000
	}
	baseRate, ok := failureBaseRates[componentID]
	if !ok {
		baseRate = 0.10
	}

	k := 5 / threshold
	prob := baseRate / (1 + math.Exp(-k*(float64(mileage)-threshold)))

	// 加入扰动并裁剪到[0.01, 0.95]
	prob = prob * (1 + gofakeit.Float64Range(-0.2, 0.2))
	return math.Min(0.95, math.Max(0.01, prob))
}

// uploadAll 按依赖顺序上传各表，每批100条并显示进度
func uploadAll(client *supabase.Client, data *dataset) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := uploadBatches(ctx, client, "vehicle_types", toRows(data.VehicleTypes)); err != nil {
		return err
	}
	if err := uploadBatches(ctx, client, "components", toRows(data.Components)); err != nil {
		return err
	}
	if err := uploadBatches(ctx, client, "parts", toRows(data.Parts)); err != nil {
		return err
	}
	if err := uploadBatches(ctx, client, "vehicles", toRows(data.Vehicles)); err != nil {
		return err
	}
	return uploadBatches(ctx, client, "failures", toRows(data.Failures))
}

// toRows 统一转成interface切片，便于分批
func toRows[T any](items []T) []interface{} {
	rows := make([]interface{}, len(items))
	for i, item := range items {
		rows[i] = item
	}
	return rows
}

// uploadBatches 分批上传单表
func uploadBatches(ctx context.Context, client *supabase.Client, table string, rows []interface{}) error {
	const batchSize = 100

	bar := progressbar.Default(int64(len(rows)), table)
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := client.Upsert(ctx, table, rows[start:end]); err != nil {
			return fmt.Errorf("upsert %s batch %d failed: %w", table, start/batchSize, err)
		}
		bar.Add(end - start)
	}
	return nil
}

// writeCSVs 把全部数据写为CSV文件
func writeCSVs(dir string, data *dataset) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, "vehicle_types.csv"),
		[]string{"type_id", "make", "model", "year"},
		len(data.VehicleTypes), func(i int) []string {
			t := data.VehicleTypes[i]
			return []string{strconv.FormatInt(t.TypeID, 10), t.Make, t.Model, strconv.Itoa(t.Year)}
		}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, "components.csv"),
		[]string{"component_id", "component_name"},
		len(data.Components), func(i int) []string {
			c := data.Components[i]
			return []string{strconv.FormatInt(c.ComponentID, 10), c.ComponentName}
		}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, "parts.csv"),
		[]string{"part_id", "part_name", "part_number", "type_id", "component_id"},
		len(data.Parts), func(i int) []string {
			p := data.Parts[i]
			return []string{strconv.FormatInt(p.PartID, 10), p.PartName, p.PartNumber,
				strconv.FormatInt(p.TypeID, 10), strconv.FormatInt(p.ComponentID, 10)}
		}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, "vehicles.csv"),
		[]string{"vehicle_id", "type_id", "mileage"},
		len(data.Vehicles), func(i int) []string {
			v := data.Vehicles[i]
			return []string{strconv.FormatInt(v.VehicleID, 10), strconv.FormatInt(v.TypeID, 10), strconv.Itoa(v.Mileage)}
		}); err != nil {
		return err
	}

	return writeCSV(filepath.Join(dir, "failures.csv"),
		[]string{"vehicle_id", "component_id", "failure_rate"},
		len(data.Failures), func(i int) []string {
			f := data.Failures[i]
			return []string{strconv.FormatInt(f.VehicleID, 10), strconv.FormatInt(f.ComponentID, 10),
				strconv.FormatFloat(f.FailureRate, 'f', 6, 64)}
		})
}

// writeCSV 写单个CSV文件
func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return err
		}
	}
	return nil
}

// titleCase 首字母大写（按词）
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// prefix 取字符串前n个字符
func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
