package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/martinemde/toolloop/modelclient"
)

// RegisterCoreTools registers the built-in tools on a registry: local file
// reads/writes and HTTP fetches. Hosts with richer capabilities register
// their own tools alongside or instead of these.
func RegisterCoreTools(reg *ToolRegistry) {
	registerReadFile(reg)
	registerWriteFile(reg)
	registerHTTPFetch(reg)
}

func registerReadFile(reg *ToolRegistry) {
	reg.MustRegister(RegisteredTool{
		Definition: modelclient.ToolDefinition{
			Name:        "read_file",
			Description: "Read a file from the local filesystem. Returns line-numbered content.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the file to read.",
					},
					"offset": map[string]interface{}{
						"type":        "integer",
						"description": "1-based line number to start reading from.",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of lines to read. Default: 2000.",
					},
				},
				"required": []string{"file_path"},
			},
		},
		Func: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return "", err
			}
			filePath, _ := GetStringArg(args, "file_path")
			offset, _ := GetIntArg(args, "offset")
			limit, _ := GetIntArg(args, "limit")
			if limit <= 0 {
				limit = 2000
			}
			return readFileNumbered(filePath, offset, limit)
		},
	})
}

func readFileNumbered(path string, offset, limit int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewAgentError(CodeExecutionFailed,
				fmt.Sprintf("file %s does not exist", path),
				"check the path, or use a directory listing to find the right file")
		}
		return "", ErrExecutionFailed("read_file", err)
	}

	lines := strings.Split(string(data), "\n")
	start := 0
	if offset > 1 {
		start = offset - 1
	}
	if start >= len(lines) {
		return "", NewAgentError(CodeInvalidParams,
			fmt.Sprintf("offset %d is past the end of %s (%d lines)", offset, path, len(lines)),
			fmt.Sprintf("\"offset\" must be at most %d", len(lines)))
	}
	end := start + limit
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&sb, "%6d\t%s\n", i+1, lines[i])
	}
	return sb.String(), nil
}

func registerWriteFile(reg *ToolRegistry) {
	reg.MustRegister(RegisteredTool{
		Definition: modelclient.ToolDefinition{
			Name:        "write_file",
			Description: "Write content to a file. Creates the file and parent directories if needed.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to write to.",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "The full file content to write.",
					},
				},
				"required": []string{"file_path", "content"},
			},
		},
		Func: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return "", err
			}
			filePath, _ := GetStringArg(args, "file_path")
			content, _ := GetStringArg(args, "content")

			if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
				return "", ErrExecutionFailed("write_file", err)
			}
			if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
				return "", ErrExecutionFailed("write_file", err)
			}
			return fmt.Sprintf("Wrote %d bytes to %s", len(content), filePath), nil
		},
	})
}

// RegisterWebSearch registers the standard web_search tool with a
// caller-supplied backend. There is no default backend; hosts plug in
// whichever search API they have access to.
func RegisterWebSearch(reg *ToolRegistry, search ToolFunc) error {
	return reg.Register(RegisteredTool{
		Definition: modelclient.ToolDefinition{
			Name:        "web_search",
			Description: "Search the web and return result snippets with URLs.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query.",
					},
					"max_results": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of results to return. Default: 5.",
					},
				},
				"required": []string{"query"},
			},
		},
		Func: search,
	})
}

// httpFetchClient is package-level so tests can substitute a transport.
var httpFetchClient = &http.Client{Timeout: 30 * time.Second}

func registerHTTPFetch(reg *ToolRegistry) {
	reg.MustRegister(RegisteredTool{
		Definition: modelclient.ToolDefinition{
			Name:        "http_fetch",
			Description: "Fetch a URL over HTTP GET and return the response body.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "The http or https URL to fetch.",
					},
				},
				"required": []string{"url"},
			},
		},
		Func: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			args, err := ParseArguments(arguments)
			if err != nil {
				return "", err
			}
			rawURL, _ := GetStringArg(args, "url")

			parsed, err := url.Parse(rawURL)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				return "", ErrInvalidParams(
					fmt.Sprintf("%q is not a valid http(s) URL", rawURL),
					"\"url\" must start with http:// or https://")
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return "", ErrExecutionFailed("http_fetch", err)
			}
			resp, err := httpFetchClient.Do(req)
			if err != nil {
				// Connectivity failures are outside the model's control.
				return "", NewInfraError("network failure fetching "+parsed.Host, err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return "", NewAgentError(CodeRateLimited,
					fmt.Sprintf("%s returned 429", parsed.Host),
					"wait before retrying, or fetch a different resource")
			case resp.StatusCode >= 500:
				return "", NewInfraError(fmt.Sprintf("%s returned %d", parsed.Host, resp.StatusCode), nil)
			case resp.StatusCode >= 400:
				return "", NewAgentError(CodeExecutionFailed,
					fmt.Sprintf("%s returned %d for %s", parsed.Host, resp.StatusCode, rawURL),
					"check that the URL is correct and publicly accessible")
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return "", NewInfraError("reading response from "+parsed.Host, err)
			}
			return string(body), nil
		},
	})
}
