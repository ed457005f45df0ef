package utils

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TraceIDKey 请求上下文中TraceID的键名
const TraceIDKey = "traceId"

// TraceIDHeader 响应头中返回TraceID的键名
const TraceIDHeader = "X-Trace-Id"

// GenerateTraceID 生成请求追踪ID
func GenerateTraceID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return fmt.Sprintf("%x", bytes)
}

// InitLogrus 初始化logrus格式
func InitLogrus(debug bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// TraceIDMiddleware 为每个请求分配TraceID并记录访问日志
// 客户端可通过请求头传入TraceID做全链路透传
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = GenerateTraceID()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		startTime := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"traceId": traceID,
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(startTime).String(),
		}).Info("request completed")
	}
}

// TraceIDFrom 从请求上下文取TraceID
func TraceIDFrom(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}
