package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/yanmxa/codo/internal/message"
)

const (
	maxFetchSize = 5 * 1024 * 1024 // 5MB
	fetchTimeout = 30 * time.Second
)

// WebFetch fetches a URL and converts HTML responses to markdown.
type WebFetch struct{}

func (t *WebFetch) Name() string        { return "web_fetch" }
func (t *WebFetch) Description() string { return "Fetch a URL and return its content as markdown" }

func (t *WebFetch) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to fetch",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebFetch) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	url := strParam(params, "url")
	if url == "" {
		return errResult("url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errResult("invalid URL: " + err.Error())
	}
	req.Header.Set("User-Agent", "codo/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errResult("request failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errResult(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return errResult("failed to read response: " + err.Error())
	}

	content := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		converter := md.NewConverter("", true, nil)
		if markdown, err := converter.ConvertString(content); err == nil {
			content = markdown
		}
	}

	return okResult(content, fmt.Sprintf("Fetched %s (%d bytes)", url, len(body)))
}
