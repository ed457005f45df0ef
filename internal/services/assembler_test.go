package services

import (
	"strings"
	"testing"

	"github.com/vehicast/service/internal/models"
)

func TestAssembleSectionOrder(t *testing.T) {
	assembler := NewAssembler()

	types := []models.QueryType{models.QueryTypeMechanic, models.QueryTypePricing}
	results := &models.RetrievalResults{
		Failures: []models.FailureResult{
			{ComponentName: "brakes", Description: "Grinding noise when braking"},
		},
		PartPrices: []models.PartPriceResult{
			{PartName: "Brake Pad", Price: 49.99, Description: "Ceramic pads"},
		},
		Components: []models.ComponentResult{
			{ComponentName: "brakes", Description: "Brake system"},
		},
		VehicleTypes: []models.VehicleTypeResult{
			{Year: 2015, Make: "Honda", Model: "Civic"},
		},
		Documentation: []models.DocumentationResult{
			{SectionTitle: "Architecture", Content: "Vector search over part embeddings."},
		},
	}

	assembled := assembler.Assemble(types, results)

	// 固定段落顺序
	sections := []string{
		"Potential Issues:",
		"Relevant Parts with Pricing:",
		"Relevant Components:",
		"Relevant Vehicle Types:",
		"Relevant Documentation:",
	}
	lastIndex := -1
	for _, section := range sections {
		index := strings.Index(assembled, section)
		if index < 0 {
			t.Fatalf("Missing section %q in output:\n%s", section, assembled)
		}
		if index < lastIndex {
			t.Errorf("Section %q out of order in output:\n%s", section, assembled)
		}
		lastIndex = index
	}
}

func TestAssembleDeterministic(t *testing.T) {
	assembler := NewAssembler()

	types := []models.QueryType{models.QueryTypeDiagnostic, models.QueryTypeSymptom}
	results := &models.RetrievalResults{
		Failures: []models.FailureResult{
			{ComponentName: "alternators", Description: "Battery not charging"},
			{ComponentName: "brakes", Description: "Soft pedal"},
			{ComponentName: "alternators", Description: "Whining noise"},
		},
	}

	// 相同输入逐字节相同输出
	first := assembler.Assemble(types, results)
	second := assembler.Assemble(types, results)
	if first != second {
		t.Error("Expected identical output for identical input")
	}

	// 分组保持首次出现顺序，同组内保持输入顺序
	expected := "Potential Issues:\n" +
		"- alternators:\n" +
		"  • Battery not charging\n" +
		"  • Whining noise\n" +
		"- brakes:\n" +
		"  • Soft pedal"
	if first != expected {
		t.Errorf("Unexpected assembly output:\n%q\nexpected:\n%q", first, expected)
	}
}

func TestAssemblePriceSortingAndFormat(t *testing.T) {
	assembler := NewAssembler()

	types := []models.QueryType{models.QueryTypeMechanic}
	results := &models.RetrievalResults{
		PartPrices: []models.PartPriceResult{
			{PartName: "Brake Pad", Price: 89.5, Description: "Premium ceramic"},
			{PartName: "Brake Pad", Price: 45, Description: "Economy"},
		},
	}

	assembled := assembler.Assemble(types, results)

	// 价格升序，固定两位小数，描述取排序后首条
	expected := "\nRelevant Parts with Pricing:\n" +
		"- Brake Pad:\n" +
		"  • Price: $45.00\n" +
		"  • Price: $89.50\n" +
		"  Description: Economy"
	if assembled != expected {
		t.Errorf("Unexpected pricing output:\n%q\nexpected:\n%q", assembled, expected)
	}
}

func TestAssemblePartsSuppressedByPrices(t *testing.T) {
	assembler := NewAssembler()

	parts := []models.PartResult{
		{PartName: "Brake Pad", PartNumber: "BP-100", Description: "Ceramic pads"},
	}

	// 有价格结果时配件段被抑制
	withPrices := &models.RetrievalResults{
		Parts: parts,
		PartPrices: []models.PartPriceResult{
			{PartName: "Brake Pad", Price: 45},
		},
	}
	types := []models.QueryType{models.QueryTypePart, models.QueryTypePricing}
	assembled := assembler.Assemble(types, withPrices)
	if strings.Contains(assembled, "Relevant Parts:") {
		t.Errorf("Expected parts section suppressed when prices present:\n%s", assembled)
	}

	// 无价格结果时配件段输出
	withoutPrices := &models.RetrievalResults{Parts: parts}
	assembled = assembler.Assemble(types, withoutPrices)
	if !strings.Contains(assembled, "Relevant Parts:") {
		t.Errorf("Expected parts section without prices:\n%s", assembled)
	}
	if !strings.Contains(assembled, "- Brake Pad (Part #BP-100): Ceramic pads") {
		t.Errorf("Unexpected parts line format:\n%s", assembled)
	}
}

func TestAssemblePriorityBlockRequiresTags(t *testing.T) {
	assembler := NewAssembler()

	results := &models.RetrievalResults{
		Failures: []models.FailureResult{
			{ComponentName: "brakes", Description: "Grinding"},
		},
	}

	// 无mechanic/diagnostic/symptom标签时不输出故障段
	types := []models.QueryType{models.QueryTypeDocumentation}
	if assembled := assembler.Assemble(types, results); assembled != "" {
		t.Errorf("Expected empty output without priority tags, got:\n%s", assembled)
	}
}

func TestAssembleNoneFoundSections(t *testing.T) {
	assembler := NewAssembler()

	// 检索成功但无匹配（非nil空切片）输出None found；未调度（nil）不输出
	types := []models.QueryType{models.QueryTypeDiagnostic}
	dispatched := &models.RetrievalResults{
		Failures:   []models.FailureResult{},
		PartPrices: []models.PartPriceResult{},
	}
	assembled := assembler.Assemble(types, dispatched)
	if !strings.Contains(assembled, "Potential Issues: None found") {
		t.Errorf("Expected failures None found marker:\n%s", assembled)
	}
	if !strings.Contains(assembled, "Relevant Parts with Pricing: None found") {
		t.Errorf("Expected pricing None found marker:\n%s", assembled)
	}

	notDispatched := &models.RetrievalResults{}
	if assembled := assembler.Assemble(types, notDispatched); assembled != "" {
		t.Errorf("Expected no output for undispatched sources, got:\n%s", assembled)
	}
}

func TestAssembleEmptyResults(t *testing.T) {
	assembler := NewAssembler()

	// 全部为空时输出空字符串
	types := []models.QueryType{models.QueryTypeMechanic}
	if assembled := assembler.Assemble(types, &models.RetrievalResults{}); assembled != "" {
		t.Errorf("Expected empty output for empty results, got %q", assembled)
	}
}

func TestAssembleVehicleTypesAndDocs(t *testing.T) {
	assembler := NewAssembler()

	types := []models.QueryType{models.QueryTypeDocumentation}
	results := &models.RetrievalResults{
		VehicleTypes: []models.VehicleTypeResult{
			{Year: 2018, Make: "Ford", Model: "F-150"},
		},
		Documentation: []models.DocumentationResult{
			{SectionTitle: "Prediction Engine", Content: "Logistic models per component."},
		},
	}

	assembled := assembler.Assemble(types, results)

	if !strings.Contains(assembled, "- 2018 Ford F-150") {
		t.Errorf("Unexpected vehicle type line:\n%s", assembled)
	}
	if !strings.Contains(assembled, "- Prediction Engine:\nLogistic models per component.") {
		t.Errorf("Unexpected documentation block:\n%s", assembled)
	}
}
