package models

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// 查询分类
// =============================================================================

// QueryType 查询类型标签，决定调度哪些检索源
type QueryType string

const (
	QueryTypeMechanic      QueryType = "mechanic"      // 汽车机械类查询
	QueryTypeDiagnostic    QueryType = "diagnostic"    // 故障诊断类查询
	QueryTypeSymptom       QueryType = "symptom"       // 症状描述类查询
	QueryTypePricing       QueryType = "pricing"       // 价格类查询
	QueryTypePart          QueryType = "part"          // 配件类查询
	QueryTypeDocumentation QueryType = "documentation" // 系统文档类查询

	// 以下标签分类器不会主动产生，仅供调用方显式请求车型检索时使用
	QueryTypeVehicle QueryType = "vehicle"
	QueryTypeMake    QueryType = "make"
	QueryTypeModel   QueryType = "model"
)

// Source 向量检索源，对应数据库中的match_*存储过程
type Source string

const (
	SourceParts               Source = "match_parts"
	SourceComponents          Source = "match_components"
	SourceVehicleTypes        Source = "match_vehicle_types"
	SourcePartPrices          Source = "match_part_prices"
	SourceFailureDescriptions Source = "match_failure_descriptions"
	SourceDocumentation       Source = "match_documentation"
)

// =============================================================================
// 检索结果模型
// =============================================================================

// PartResult 配件检索结果
type PartResult struct {
	PartID      int64   `json:"part_id"`
	PartName    string  `json:"part_name"`
	PartNumber  string  `json:"part_number"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
}

// ComponentResult 组件检索结果
type ComponentResult struct {
	ComponentID   int64   `json:"component_id"`
	ComponentName string  `json:"component_name"`
	Description   string  `json:"description"`
	Similarity    float64 `json:"similarity"`
}

// VehicleTypeResult 车型检索结果
type VehicleTypeResult struct {
	TypeID     int64   `json:"type_id"`
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	Year       int     `json:"year"`
	Similarity float64 `json:"similarity"`
}

// PartPriceResult 配件价格检索结果
type PartPriceResult struct {
	PriceID     int64   `json:"price_id"`
	PartName    string  `json:"part_name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
}

// FailureResult 故障描述检索结果
type FailureResult struct {
	FailureID     int64   `json:"failure_id"`
	ComponentName string  `json:"component_name"`
	Description   string  `json:"description"`
	Similarity    float64 `json:"similarity"`
}

// DocumentationResult 文档片段检索结果
type DocumentationResult struct {
	ChunkID      int64   `json:"chunk_id"`
	SectionTitle string  `json:"section_title"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
}

// RetrievalResults 一次并行检索的全部结果
// 每个字段对应一个检索源：nil表示该源未被调度或调度失败，
// 非nil空切片表示检索成功但无匹配。结果仅在单次检索周期内使用。
type RetrievalResults struct {
	Parts         []PartResult
	Components    []ComponentResult
	VehicleTypes  []VehicleTypeResult
	PartPrices    []PartPriceResult
	Failures      []FailureResult
	Documentation []DocumentationResult
}

// =============================================================================
// 车辆与配件记录
// =============================================================================

// Vehicle 车辆信息
type Vehicle struct {
	VehicleID int64   `json:"vehicle_id,omitempty"`
	Make      string  `json:"make"`
	Model     string  `json:"model"`
	Year      int     `json:"year"`
	Mileage   float64 `json:"mileage"`
}

// VehicleMileageInfo 数据库中持久化的车辆里程信息
type VehicleMileageInfo struct {
	Mileage     float64   `json:"mileage"`
	LastUpdate  time.Time `json:"last_update"`
	MonthlyRate float64   `json:"estimated_monthly_accumulation"`
}

// PartRecord 关系表中的完整配件记录
type PartRecord struct {
	PartID      int64  `json:"part_id"`
	PartName    string `json:"part_name"`
	PartNumber  string `json:"part_number"`
	Description string `json:"description"`
	TypeID      int64  `json:"type_id"`
	ComponentID int64  `json:"component_id"`
}

// ComponentPrediction 单个组件的故障预测结果
type ComponentPrediction struct {
	Component   string       `json:"component"`
	Probability float64      `json:"probability"`
	Parts       []PartRecord `json:"parts"`
}

// =============================================================================
// 聊天会话模型
// =============================================================================

// ChatMessage 对话消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session 聊天会话
type Session struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"createdAt"`
	LastActive time.Time     `json:"lastActive"`
	History    []ChatMessage `json:"history"`
	Context    string        `json:"context,omitempty"` // 流式会话缓存的检索上下文
}

// NewSession 创建新会话
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		LastActive: now,
		History:    []ChatMessage{},
	}
}

// GenerateSessionID 生成会话ID
func GenerateSessionID() string {
	return uuid.New().String()
}

// =============================================================================
// API请求/响应模型
// =============================================================================

// ChatRequest 聊天请求
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// RealtimeChatResponse 实时聊天会话配置响应
type RealtimeChatResponse struct {
	SessionID    string `json:"session_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	HasContext   bool   `json:"context"`
	WebSocketURL string `json:"websocket_url"`
}

// SearchRequest 配件语义搜索请求
type SearchRequest struct {
	Query     string   `json:"query" binding:"required"`
	Threshold *float64 `json:"threshold"`
	Limit     *int     `json:"limit"`
}

// SearchResponse 配件语义搜索响应
type SearchResponse struct {
	Results []PartResult `json:"results"`
}

// PredictRequest 组件故障预测请求
// 缺省字段在处理端补默认值，至少需要一个字段有值
type PredictRequest struct {
	Make      string   `json:"make"`
	Model     string   `json:"model"`
	Year      int      `json:"year"`
	Mileage   float64  `json:"mileage"`
	Threshold *float64 `json:"threshold"`
}

// PredictResponse 组件故障预测响应
type PredictResponse struct {
	Predictions []ComponentPrediction `json:"predictions"`
}

// PredictTimelineRequest 时间线预测请求
type PredictTimelineRequest struct {
	Make           string   `json:"make"`
	Model          string   `json:"model"`
	Year           int      `json:"year"`
	Mileage        float64  `json:"mileage"`
	VehicleID      int64    `json:"vehicle_id"`
	TimeWindows    []int    `json:"time_windows"`
	PredictionType string   `json:"prediction_type"`
	Threshold      *float64 `json:"threshold"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// =============================================================================
// WebSocket消息模型
// =============================================================================

// WebSocket消息类型
const (
	WSTypeMessage            = "message"
	WSTypeMessageWithHistory = "message_with_history"
	WSTypePing               = "ping"
	WSTypePong               = "pong"
	WSTypeConnected          = "connected"
	WSTypeSessionCreated     = "session_created"
	WSTypeDelta              = "delta"
	WSTypeComplete           = "complete"
	WSTypeError              = "error"
)

// WSClientMessage 客户端发来的WebSocket消息
type WSClientMessage struct {
	Type      string        `json:"type"`
	Message   string        `json:"message,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	History   []ChatMessage `json:"history,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

// WSServerMessage 服务端推送的WebSocket消息
type WSServerMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Delta     string `json:"delta,omitempty"`
	Buffer    string `json:"buffer,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}
