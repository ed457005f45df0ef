package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vehicast/service/internal/config"
	"github.com/vehicast/service/internal/models"
	"github.com/vehicast/service/internal/services"
	"github.com/vehicast/service/internal/store"
)

// =============================================================================
// REST处理器
// =============================================================================

// Version 服务版本
const Version = "1.0.0"

// Handler REST请求处理器
type Handler struct {
	cfg             *config.Config
	chatService     *services.ChatService
	contextService  *services.ContextService
	timelineService *services.TimelineService
	embeddings      services.EmbeddingProvider
	searcher        services.SimilaritySearcher
	sessions        *store.SessionStore
	startTime       time.Time
}

// NewHandler 创建REST处理器
func NewHandler(
	cfg *config.Config,
	chatService *services.ChatService,
	contextService *services.ContextService,
	timelineService *services.TimelineService,
	embeddings services.EmbeddingProvider,
	searcher services.SimilaritySearcher,
	sessions *store.SessionStore,
) *Handler {
	return &Handler{
		cfg:             cfg,
		chatService:     chatService,
		contextService:  contextService,
		timelineService: timelineService,
		embeddings:      embeddings,
		searcher:        searcher,
		sessions:        sessions,
		startTime:       time.Now(),
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HandleHealth)

	api := router.Group("/api")
	{
		api.POST("/chat", h.HandleChat)
		api.POST("/chat/realtime", h.HandleChatRealtime)
		api.POST("/search", h.HandleSearch)
		api.POST("/predict", h.HandlePredict)
		api.POST("/predict_timeline", h.HandlePredictTimeline)
	}
}

// HandleHealth 健康检查
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Service: h.cfg.ServiceName,
		Version: Version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleChat 一次性聊天
// 客户端未携带session_id时生成新会话并随响应返回
func (h *Handler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No message provided"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = models.GenerateSessionID()
	}

	response := h.chatService.GenerateResponse(c.Request.Context(), req.Message, sessionID)

	c.JSON(http.StatusOK, models.ChatResponse{
		Response:  response,
		SessionID: sessionID,
	})
}

// HandleChatRealtime 配置实时聊天会话
// 预检索上下文缓存到会话，返回WebSocket连接地址
func (h *Handler) HandleChatRealtime(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No message provided"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = models.GenerateSessionID()
	}

	retrievedContext := h.chatService.PrepareRealtimeSession(c.Request.Context(), req.Message, sessionID)

	c.JSON(http.StatusOK, models.RealtimeChatResponse{
		SessionID:    sessionID,
		Status:       "configured",
		Message:      "Realtime session configured. Use WebSocket to connect.",
		HasContext:   retrievedContext != "",
		WebSocketURL: h.cfg.WebSocketURL,
	})
}

// HandleSearch 配件语义搜索
func (h *Handler) HandleSearch(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required field: query"})
		return
	}

	threshold := h.cfg.SearchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := h.cfg.SearchLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	embedding, err := h.embeddings.GenerateEmbedding(c.Request.Context(), req.Query)
	if err != nil {
		log.Printf("[接口] 搜索查询嵌入失败: %v", err)
		c.JSON(http.StatusOK, []models.PartResult{})
		return
	}

	results, err := h.searcher.MatchParts(c.Request.Context(), embedding, threshold, limit)
	if err != nil {
		log.Printf("[接口] 配件搜索失败: %v", err)
		c.JSON(http.StatusOK, []models.PartResult{})
		return
	}
	if results == nil {
		results = []models.PartResult{}
	}

	c.JSON(http.StatusOK, results)
}

// HandlePredict 单车辆组件故障预测
func (h *Handler) HandlePredict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	if req.Make == "" && req.Model == "" && req.Year == 0 && req.Mileage == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "At least one vehicle field is required"})
		return
	}

	vehicle := models.Vehicle{
		Make:    req.Make,
		Model:   req.Model,
		Year:    req.Year,
		Mileage: req.Mileage,
	}
	if vehicle.Year == 0 {
		vehicle.Year = 2020
	}
	if vehicle.Mileage == 0 {
		vehicle.Mileage = 50000
	}

	threshold := h.cfg.PredictThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	predictions := h.timelineService.PredictComponents(c.Request.Context(), vehicle, threshold)
	c.JSON(http.StatusOK, predictions)
}

// HandlePredictTimeline 故障时间线预测
func (h *Handler) HandlePredictTimeline(c *gin.Context) {
	var req models.PredictTimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	vehicle := models.Vehicle{
		VehicleID: req.VehicleID,
		Make:      req.Make,
		Model:     req.Model,
		Year:      req.Year,
		Mileage:   req.Mileage,
	}

	timeWindows := req.TimeWindows
	if len(timeWindows) == 0 {
		timeWindows = models.DefaultTimeWindows
	}

	predictionType := req.PredictionType
	if predictionType == "" {
		predictionType = models.PredictionTypeCumulative
	}

	threshold := h.cfg.PredictThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	var timeline models.Timeline
	if predictionType == models.PredictionTypeCumulative {
		timeline = h.timelineService.CumulativeTimeline(c.Request.Context(), vehicle, timeWindows)
	} else {
		timeline = h.timelineService.PredictTimeline(c.Request.Context(), vehicle, timeWindows)
	}

	h.timelineService.EnrichTimelineParts(c.Request.Context(), timeline, vehicle, threshold)

	c.JSON(http.StatusOK, timeline)
}
