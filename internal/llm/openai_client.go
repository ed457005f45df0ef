package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// OpenAI客户端实现
// =============================================================================

// OpenAIClient OpenAI嵌入与对话补全客户端
type OpenAIClient struct {
	apiKey         string
	baseURL        string
	embeddingModel string
	chatModel      string
	temperature    float64
	maxTokens      int
	httpClient     *http.Client
}

// NewOpenAIClient 创建OpenAI客户端
func NewOpenAIClient(config *Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		apiKey:         config.APIKey,
		baseURL:        baseURL,
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
		temperature:    config.Temperature,
		maxTokens:      config.MaxTokens,
		httpClient:     &http.Client{Timeout: timeout},
	}, nil
}

// GenerateEmbedding 为文本生成嵌入向量
func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	req := &EmbeddingRequest{
		Model: c.embeddingModel,
		Input: []string{text},
	}

	respBody, err := c.sendRequest(ctx, "/embeddings", req)
	if err != nil {
		return nil, err
	}

	var resp EmbeddingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contains no data")
	}

	return resp.Data[0].Embedding, nil
}

// Complete 一次性对话补全
func (c *OpenAIClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	req := &ChatRequest{
		Model:       c.chatModel,
		Messages:    convertMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	respBody, err := c.sendRequest(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}

	var resp ChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal chat response failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response contains no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// StreamComplete 流式对话补全，逐增量回调onDelta(delta, buffer)
// 返回拼接后的完整回复
func (c *OpenAIClient) StreamComplete(ctx context.Context, messages []models.ChatMessage, onDelta func(delta, buffer string)) (string, error) {
	req := &ChatRequest{
		Model:       c.chatModel,
		Messages:    convertMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", parseAPIError(httpResp.StatusCode, respBody)
	}

	// 解析SSE流，data行携带JSON增量，[DONE]表示结束
	var buffer strings.Builder
	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk ChatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		buffer.WriteString(delta)
		if onDelta != nil {
			onDelta(delta, buffer.String())
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream failed: %w", err)
	}

	return buffer.String(), nil
}

// sendRequest 发送HTTP请求并返回响应体
func (c *OpenAIClient) sendRequest(ctx context.Context, path string, req interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseAPIError(httpResp.StatusCode, respBody)
	}

	return respBody, nil
}

// parseAPIError 解析非200响应
func parseAPIError(statusCode int, respBody []byte) error {
	var errorResp APIErrorResponse
	if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error.Message != "" {
		return &LLMError{
			Code:      errorResp.Error.Code,
			Message:   errorResp.Error.Message,
			Retryable: statusCode >= 500,
		}
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(respBody))
}

// convertMessages 转换为请求消息格式
func convertMessages(messages []models.ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
