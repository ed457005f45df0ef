package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// =============================================================================
// Supabase REST客户端
// =============================================================================

// Client Supabase PostgREST客户端
// 通过REST接口访问表与RPC存储过程
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 创建Supabase客户端
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("Supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Supabase API key is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Rpc 调用存储过程，结果解码到out
func (c *Client) Rpc(ctx context.Context, function string, params interface{}, out interface{}) error {
	reqBody, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal rpc params failed: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, function)
	respBody, err := c.send(ctx, "POST", endpoint, reqBody, nil)
	if err != nil {
		return fmt.Errorf("rpc %s failed: %w", function, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal rpc %s response failed: %w", function, err)
	}
	return nil
}

// Select 查询表记录，filters为PostgREST过滤表达式(列名 → "eq.值")
func (c *Client) Select(ctx context.Context, table, columns string, filters map[string]string, out interface{}) error {
	query := url.Values{}
	if columns != "" {
		query.Set("select", columns)
	}
	for column, filter := range filters {
		query.Set(column, filter)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, table, query.Encode())
	respBody, err := c.send(ctx, "GET", endpoint, nil, nil)
	if err != nil {
		return fmt.Errorf("select from %s failed: %w", table, err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal %s rows failed: %w", table, err)
	}
	return nil
}

// Upsert 批量写入表记录，主键冲突时合并
func (c *Client) Upsert(ctx context.Context, table string, rows interface{}) error {
	reqBody, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal rows failed: %w", err)
	}

	headers := map[string]string{
		"Prefer": "resolution=merge-duplicates",
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if _, err := c.send(ctx, "POST", endpoint, reqBody, headers); err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}
	return nil
}

// send 发送HTTP请求并返回响应体
func (c *Client) send(ctx context.Context, method, endpoint string, body []byte, extraHeaders map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	for key, value := range extraHeaders {
		httpReq.Header.Set(key, value)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	return respBody, nil
}
