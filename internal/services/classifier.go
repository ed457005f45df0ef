package services

import (
	"regexp"
	"strings"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// 查询分类器
// =============================================================================

// 机械类词表：部件、品牌、保养动词
var mechanicTerms = []string{
	"car", "vehicle", "auto", "automotive", "engine", "transmission", "brake",
	"suspension", "steering", "exhaust", "catalytic", "muffler", "radiator",
	"alternator", "battery", "starter", "ignition", "spark plug", "fuel", "oil",
	"filter", "coolant", "fluid", "tire", "wheel", "axle", "drive", "drive shaft",
	"cv joint", "bearing", "sensor", "computer", "ecu", "ecm", "make", "model", "year",
	"honda", "toyota", "ford", "chevrolet", "nissan", "bmw", "mercedes", "audi",
	"volkswagen", "hyundai", "kia", "mazda", "lexus", "acura", "infiniti",
	"repair", "replace", "fix", "service", "maintain", "maintenance",
}

// 价格类词表
var priceTerms = []string{
	"price", "cost", "expensive", "cheap", "affordable", "premium",
	"economy", "standard", "oem", "aftermarket", "quality", "$", "dollar",
}

// 配件名词表
var partTerms = []string{
	"brake pad", "brake pads", "brakes", "rotor", "rotors",
	"alternator", "battery", "oil filter", "air filter", "cabin filter",
	"spark plug", "spark plugs", "fuel pump", "water pump", "radiator",
	"thermostat", "timing belt", "timing chain", "serpentine belt",
	"suspension", "strut", "struts", "shock", "shocks", "tie rod",
	"ball joint", "control arm", "wheel bearing", "axle", "cv joint",
	"starter", "starter motor", "ignition coil", "ignition", "distributor",
	"transmission", "clutch", "flywheel", "catalytic converter", "muffler",
	"exhaust", "oxygen sensor", "o2 sensor", "mass air flow", "maf sensor",
	"fuel injector", "injector", "hose", "belt", "pulley", "gasket",
	"head gasket", "valve", "sensor", "switch", "relay", "fuse", "bulb",
	"headlight", "tail light", "brake light", "wiper", "wiper blade",
}

// 品质描述词表
var qualityTerms = []string{"premium", "standard", "economy", "oem", "aftermarket", "performance"}

// 品牌与车型词表
var carModels = []string{
	"honda", "toyota", "ford", "chevrolet", "chevy", "nissan", "hyundai",
	"kia", "bmw", "mercedes", "audi", "volkswagen", "vw", "subaru", "mazda",
	"lexus", "acura", "infiniti", "jeep", "dodge", "ram", "chrysler", "fiat",
	"civic", "accord", "cr-v", "crv", "pilot", "camry", "corolla", "rav4",
	"highlander", "f-150", "focus", "escape", "explorer", "silverado", "malibu",
	"equinox", "altima", "sentra", "rogue", "elantra", "sonata", "tucson",
	"soul", "forte", "sorento", "3-series", "c-class", "a4", "jetta", "passat",
	"outback", "forester", "impreza", "cx-5", "mazda3", "es", "rx", "tlx", "mdx",
	"q50", "q60", "wrangler", "grand cherokee", "ram 1500", "charger", "challenger",
}

// 症状词表
var symptomTerms = []string{
	"noise", "grinding", "squeaking", "squealing", "rattling", "knocking",
	"clunking", "vibration", "shaking", "wobbling", "pull", "pulling",
	"drift", "drifting", "leak", "leaking", "smoke", "smoking", "smell",
	"burning", "overheating", "overheat", "hot", "cold", "misfire",
	"stall", "stalling", "rough idle", "idle", "hesitation", "surge",
	"surging", "sputter", "sputtering", "hard start", "no start", "won't start",
	"check engine", "check engine light", "warning light", "dashboard light",
	"abs light", "traction control", "brake light", "oil light", "battery light",
	"power loss", "lose power", "poor acceleration", "slow acceleration",
	"poor fuel economy", "gas mileage", "mpg", "fuel consumption",
	"transmission slip", "slipping", "hard shift", "delayed shift", "no shift",
	"jerk", "jerking", "jump", "jumping", "buck", "bucking", "backfire",
	"pulsate", "pulsating", "spongy", "soft", "hard", "pedal", "steering",
}

// 车辆系统词表
var systemTerms = []string{
	"brake", "brakes", "brake system", "brake pedal", "steering",
	"steering wheel", "suspension", "engine", "transmission", "clutch",
	"exhaust", "catalytic converter", "muffler", "electrical", "battery",
	"alternator", "starter", "ignition", "cooling", "radiator", "thermostat",
	"water pump", "heater", "ac", "air conditioning", "fuel", "fuel system",
	"fuel pump", "fuel injector", "filter", "air filter", "oil filter",
	"cabin filter", "fuel filter", "fluid", "oil", "coolant", "transmission fluid",
	"brake fluid", "power steering fluid", "tire", "tires", "wheel", "wheels",
}

// 文档类短语词表
var documentationTerms = []string{
	"how does", "how do you", "how is", "why is", "what is", "explain",
	"documentation", "technical", "design", "architecture", "implement",
	"algorithm", "code", "function", "feature", "capability", "api",
	"database", "schema", "sql", "vector", "embedding", "prediction",
	"machine learning", "ml", "ai", "artificial intelligence", "develop",
	"system", "application", "app", "project", "framework", "methodology",
	"approach", "strategy", "infrastructure", "backend", "frontend", "ui",
	"interface",
}

// 技术语境词表：出现时文档类短语不再被车辆语境否决
var techExceptionTerms = []string{"system", "algorithm", "database", "application", "software"}

// 年份匹配：1990-2029
var yearPattern = regexp.MustCompile(`\b(19[9][0-9]|20[0-2][0-9])\b`)

// GenericSymptomTerm 症状提取无匹配时的兜底词，不触发诊断标签
const GenericSymptomTerm = "common"

// Classifier 查询分类器
// 基于词表的子串匹配，决定一次查询应调度哪些检索源
type Classifier struct{}

// NewClassifier 创建查询分类器
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify 检测查询类型，结果永不为空（兜底documentation）
func (c *Classifier) Classify(query string) []models.QueryType {
	queryLower := strings.ToLower(query)
	var queryTypes []models.QueryType

	// 机械类
	for _, term := range mechanicTerms {
		if strings.Contains(queryLower, term) {
			queryTypes = append(queryTypes, models.QueryTypeMechanic)
			break
		}
	}

	// 诊断/症状类：提取到非兜底症状词时同时打两个标签
	symptoms := c.ExtractSymptomTerms(query)
	if len(symptoms) > 0 && symptoms[0] != GenericSymptomTerm {
		queryTypes = append(queryTypes, models.QueryTypeDiagnostic, models.QueryTypeSymptom)
	}

	// 价格类
	for _, term := range priceTerms {
		if strings.Contains(queryLower, term) {
			queryTypes = append(queryTypes, models.QueryTypePricing)
			break
		}
	}

	// 配件类
	if len(c.ExtractSearchTerms(query)) > 0 {
		queryTypes = append(queryTypes, models.QueryTypePart)
	}

	// 文档类
	if c.IsDocumentationQuery(query) {
		queryTypes = append(queryTypes, models.QueryTypeDocumentation)
	}

	// 兜底
	if len(queryTypes) == 0 {
		queryTypes = append(queryTypes, models.QueryTypeDocumentation)
	}

	return queryTypes
}

// IsDocumentationQuery 判断查询是否关于系统文档/技术细节
// 例外规则：明显谈论车辆且不涉及技术语境词时，不视为文档查询
func (c *Classifier) IsDocumentationQuery(query string) bool {
	queryLower := strings.ToLower(query)

	for _, term := range documentationTerms {
		if strings.Contains(queryLower, term) {
			if strings.Contains(queryLower, "car") || strings.Contains(queryLower, "vehicle") {
				hasTech := false
				for _, tech := range techExceptionTerms {
					if strings.Contains(queryLower, tech) {
						hasTech = true
						break
					}
				}
				if !hasTech {
					return false
				}
			}
			return true
		}
	}

	return false
}

// ExtractSearchTerms 提取配件相关检索词
// 首个配件词 + 首个品质词 + 全部车型词 + 首个年份
func (c *Classifier) ExtractSearchTerms(query string) []string {
	queryLower := strings.ToLower(query)
	var found []string

	for _, part := range partTerms {
		if strings.Contains(queryLower, part) {
			found = append(found, part)
			break
		}
	}

	for _, quality := range qualityTerms {
		if strings.Contains(queryLower, quality) {
			found = append(found, quality)
			break
		}
	}

	for _, model := range carModels {
		if strings.Contains(queryLower, model) {
			found = append(found, model)
		}
	}

	if matches := yearPattern.FindAllString(queryLower, -1); len(matches) > 0 {
		found = append(found, matches[0])
	}

	return found
}

// ExtractSymptomTerms 提取症状与车辆系统词
// 无匹配时返回兜底词，保证下游检索有词可用
func (c *Classifier) ExtractSymptomTerms(query string) []string {
	queryLower := strings.ToLower(query)
	var found []string

	for _, symptom := range symptomTerms {
		if strings.Contains(queryLower, symptom) {
			found = append(found, symptom)
		}
	}

	for _, system := range systemTerms {
		if strings.Contains(queryLower, system) {
			found = append(found, system)
		}
	}

	if len(found) == 0 {
		found = append(found, GenericSymptomTerm)
	}

	return found
}
