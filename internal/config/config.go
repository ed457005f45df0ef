package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	// 服务配置
	ServiceName string
	Host        string // 服务监听地址
	Port        int
	Debug       bool
	GinMode     string // Gin运行模式
	CORSOrigin  string // 允许的前端来源

	// Supabase配置
	SupabaseURL string
	SupabaseKey string

	// OpenAI配置
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string
	Temperature    float64
	MaxTokens      int

	// 检索配置
	SimilarityThreshold float64 // 向量检索相似度阈值
	MatchCount          int     // 每个检索源返回的结果数
	SearchThreshold     float64 // /api/search 默认阈值
	SearchLimit         int     // /api/search 默认返回数

	// 缓存配置
	EmbeddingCacheTTL time.Duration // 嵌入缓存过期时间
	EmbeddingCacheCap int           // 嵌入缓存软容量
	ContextCacheTTL   time.Duration // 上下文缓存过期时间
	ContextCacheCap   int           // 上下文缓存软容量

	// 会话管理配置
	SessionTimeout  time.Duration // 会话超时时间
	CleanupInterval time.Duration // 清理检查间隔
	HistoryLimit    int           // 注入提示词的历史消息数上限

	// 故障模型配置
	ModelsDir        string  // 组件故障模型目录
	PredictThreshold float64 // 配件关联的概率阈值

	// WebSocket配置
	WebSocketURL string // 返回给实时聊天客户端的WebSocket地址
}

// Load 从环境变量加载配置
func Load() *Config {
	// 尝试加载.env文件，优先config目录，然后兼容根目录
	envPaths := []string{
		"config/.env",
		".env",
	}

	loaded := false
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				log.Printf("成功加载.env文件: %s", path)
				loaded = true
				break
			}
		}
	}

	if !loaded {
		log.Printf("警告: 未找到.env文件，尝试使用系统环境变量")
	}

	config := &Config{
		// 服务配置默认值
		ServiceName: getEnv("SERVICE_NAME", "vehicast-assistant"),
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnvAsInt("PORT", 8088),
		Debug:       getEnvAsBool("DEBUG", false),
		GinMode:     getEnv("GIN_MODE", "release"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),

		// Supabase配置
		SupabaseURL: getEnv("SUPABASE_URL", ""),
		SupabaseKey: getEnv("SUPABASE_KEY", ""),

		// OpenAI配置
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
		Temperature:    getEnvAsFloat("CHAT_TEMPERATURE", 0.7),
		MaxTokens:      getEnvAsInt("CHAT_MAX_TOKENS", 800),

		// 检索配置
		SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.4),
		MatchCount:          getEnvAsInt("MATCH_COUNT", 3),
		SearchThreshold:     getEnvAsFloat("SEARCH_THRESHOLD", 0.5),
		SearchLimit:         getEnvAsInt("SEARCH_LIMIT", 5),

		// 缓存配置
		EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 3600*time.Second),
		EmbeddingCacheCap: getEnvAsInt("EMBEDDING_CACHE_CAP", 100),
		ContextCacheTTL:   getEnvAsDuration("CONTEXT_CACHE_TTL", 300*time.Second),
		ContextCacheCap:   getEnvAsInt("CONTEXT_CACHE_CAP", 50),

		// 会话管理配置
		SessionTimeout:  getEnvAsDuration("SESSION_TIMEOUT", 30*time.Minute),
		CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		HistoryLimit:    getEnvAsInt("HISTORY_LIMIT", 10),

		// 故障模型配置
		ModelsDir:        getEnv("MODELS_DIR", "models"),
		PredictThreshold: getEnvAsFloat("PREDICT_THRESHOLD", 0.1),

		// WebSocket配置
		WebSocketURL: getEnv("WEBSOCKET_URL", "ws://localhost:8088/ws"),
	}

	return config
}

// String 返回配置的字符串表示（密钥掩码后输出）
func (c *Config) String() string {
	return fmt.Sprintf(
		"服务名称: %s, 端口: %d, 调试模式: %v, Supabase: %s, OpenAI: %s, "+
			"嵌入模型: %s, 对话模型: %s, 相似度阈值: %.2f, 检索数: %d, "+
			"嵌入缓存: %v/%d条, 上下文缓存: %v/%d条, 会话超时: %v, 清理间隔: %v",
		c.ServiceName, c.Port, c.Debug,
		maskString(c.SupabaseURL), maskString(c.OpenAIAPIKey),
		c.EmbeddingModel, c.ChatModel, c.SimilarityThreshold, c.MatchCount,
		c.EmbeddingCacheTTL, c.EmbeddingCacheCap, c.ContextCacheTTL, c.ContextCacheCap,
		c.SessionTimeout, c.CleanupInterval,
	)
}

// 从环境变量获取字符串值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// 从环境变量获取整数值
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取布尔值
func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取浮点值
func getEnvAsFloat(key string, defaultValue float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取时间值
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 掩码字符串，用于日志输出安全
func maskString(input string) string {
	if len(input) <= 8 {
		return "***"
	}
	return input[:4] + "..." + input[len(input)-4:]
}
