package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/markusmobius/go-trafilatura"
	cache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const browserUserAgent = "InsightDesk-Bot/1.0"

// Browser holds the shared state for the browsing tools: a render cache,
// a global rate limiter, and the directory screenshots are written to.
type Browser struct {
	cache         *cache.Cache
	rateLimiter   *rate.Limiter
	client        *http.Client
	screenshotDir string
}

// NewBrowser creates the shared browsing state. screenshotDir is created
// on first use if it does not exist. ratePerSecond caps page loads globally
// across all browsing tools.
func NewBrowser(screenshotDir string, ratePerSecond int) *Browser {
	if ratePerSecond <= 0 {
		ratePerSecond = 2
	}
	return &Browser{
		cache:       cache.New(1*time.Hour, 10*time.Minute),
		rateLimiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond*2),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		screenshotDir: screenshotDir,
	}
}

// NewBrowsePageTool creates the browse_page tool
func NewBrowsePageTool(b *Browser) *Tool {
	return &Tool{
		Name:        "browse_page",
		DisplayName: "Browse Page",
		Description: "Load a web page in a headless browser, wait for it to render, and return the readable content without ads, navigation, or boilerplate. Respects robots.txt and rate limits. Use this for JavaScript-heavy pages that a plain HTTP fetch cannot read.",
		Icon:        "Globe",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "The URL of the page to browse (must be a valid HTTP/HTTPS URL)",
				},
				"max_length": map[string]interface{}{
					"type":        "number",
					"description": "Optional maximum content length in characters (default: 50000, max: 100000)",
					"default":     50000,
				},
			},
			"required": []string{"url"},
		},
		Execute:  executeBrowsePage(b),
		Category: "web",
		Keywords: []string{"browse", "web", "page", "content", "render", "javascript", "url", "read"},
	}
}

func executeBrowsePage(b *Browser) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		urlStr, ok := args["url"].(string)
		if !ok || urlStr == "" {
			return "", fmt.Errorf("url parameter is required and must be a string")
		}
		if err := validateBrowseURL(urlStr); err != nil {
			return "", err
		}

		maxLength := 50000
		if ml, ok := args["max_length"].(float64); ok {
			if ml > 100000 {
				ml = 100000
			}
			if ml < 1000 {
				ml = 1000
			}
			maxLength = int(ml)
		}

		cacheKey := fmt.Sprintf("browse:%s", urlStr)
		if cached, found := b.cache.Get(cacheKey); found {
			return cached.(string), nil
		}

		if allowed, err := b.checkRobots(urlStr); err == nil && !allowed {
			return "", fmt.Errorf("blocked by robots.txt")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		if err := b.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit exceeded, try again later")
		}

		html, err := renderPage(ctx, urlStr)
		if err != nil {
			return "", fmt.Errorf("failed to render page: %w", err)
		}

		parsedURL, _ := url.Parse(urlStr)
		result, err := trafilatura.Extract(bytes.NewReader([]byte(html)), trafilatura.Options{
			OriginalURL: parsedURL,
		})
		if err != nil || result == nil || result.ContentText == "" {
			return "", fmt.Errorf("failed to extract content from page")
		}

		content := result.ContentText
		if len(content) > maxLength {
			content = content[:maxLength] + "\n\n[Content truncated due to length limit]"
		}

		header := fmt.Sprintf("# %s\n\n", result.Metadata.Title)
		if result.Metadata.Author != "" {
			header += fmt.Sprintf("**Author:** %s  \n", result.Metadata.Author)
		}
		header += fmt.Sprintf("**Source:** %s  \n\n---\n\n", urlStr)

		finalContent := header + content
		b.cache.Set(cacheKey, finalContent, cache.DefaultExpiration)

		log.Printf("🌐 [BROWSER] Extracted %d chars from %s", len(content), urlStr)
		return finalContent, nil
	}
}

// NewScreenshotPageTool creates the screenshot_page tool
func NewScreenshotPageTool(b *Browser) *Tool {
	return &Tool{
		Name:        "screenshot_page",
		DisplayName: "Screenshot Page",
		Description: "Load a web page in a headless browser and capture a full-page PNG screenshot. Returns the file path of the saved image.",
		Icon:        "Camera",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "The URL of the page to capture (must be a valid HTTP/HTTPS URL)",
				},
			},
			"required": []string{"url"},
		},
		Execute:  executeScreenshotPage(b),
		Category: "web",
		Keywords: []string{"screenshot", "capture", "image", "png", "page", "visual"},
	}
}

func executeScreenshotPage(b *Browser) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		urlStr, ok := args["url"].(string)
		if !ok || urlStr == "" {
			return "", fmt.Errorf("url parameter is required and must be a string")
		}
		if err := validateBrowseURL(urlStr); err != nil {
			return "", err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		if err := b.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit exceeded, try again later")
		}

		taskCtx, taskCancel, err := newBrowserContext(ctx)
		if err != nil {
			return "", err
		}
		defer taskCancel()

		var buf []byte
		err = chromedp.Run(taskCtx,
			chromedp.Navigate(urlStr),
			chromedp.WaitReady("body"),
			chromedp.Sleep(2*time.Second),
			chromedp.FullScreenshot(&buf, 90),
		)
		if err != nil {
			return "", fmt.Errorf("failed to capture screenshot: %w", err)
		}

		if err := os.MkdirAll(b.screenshotDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create screenshot directory: %w", err)
		}
		path := filepath.Join(b.screenshotDir, fmt.Sprintf("screenshot-%s.png", uuid.New().String()))
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return "", fmt.Errorf("failed to write screenshot: %w", err)
		}

		log.Printf("📸 [BROWSER] Saved screenshot of %s to %s", urlStr, path)

		encoded, err := json.Marshal(map[string]interface{}{
			"file_path": path,
			"url":       urlStr,
			"message":   "Screenshot captured successfully",
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(encoded), nil
	}
}

// NewActInPageTool creates the act_in_page tool
func NewActInPageTool(b *Browser) *Tool {
	return &Tool{
		Name:        "act_in_page",
		DisplayName: "Act In Page",
		Description: "Load a web page in a headless browser, perform a sequence of actions (click, type, navigate), and return the readable content after the actions complete. Use this to get past cookie banners, load-more buttons, or simple forms.",
		Icon:        "MousePointer",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "The URL of the page to start from (must be a valid HTTP/HTTPS URL)",
				},
				"actions": map[string]interface{}{
					"type":        "array",
					"description": "Ordered list of actions to perform",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"type": map[string]interface{}{
								"type":        "string",
								"description": "Action type",
								"enum":        []string{"click", "type", "navigate"},
							},
							"selector": map[string]interface{}{
								"type":        "string",
								"description": "CSS selector for click and type actions",
							},
							"text": map[string]interface{}{
								"type":        "string",
								"description": "Text to type for type actions",
							},
							"url": map[string]interface{}{
								"type":        "string",
								"description": "Target URL for navigate actions",
							},
						},
						"required": []string{"type"},
					},
				},
			},
			"required": []string{"url", "actions"},
		},
		Execute:  executeActInPage(b),
		Category: "web",
		Keywords: []string{"click", "type", "interact", "form", "button", "navigate", "automation"},
	}
}

func executeActInPage(b *Browser) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		urlStr, ok := args["url"].(string)
		if !ok || urlStr == "" {
			return "", fmt.Errorf("url parameter is required and must be a string")
		}
		if err := validateBrowseURL(urlStr); err != nil {
			return "", err
		}

		rawActions, ok := args["actions"].([]interface{})
		if !ok || len(rawActions) == 0 {
			return "", fmt.Errorf("actions parameter is required and must be a non-empty array")
		}

		steps, err := parsePageActions(rawActions)
		if err != nil {
			return "", err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		if err := b.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit exceeded, try again later")
		}

		taskCtx, taskCancel, err := newBrowserContext(ctx)
		if err != nil {
			return "", err
		}
		defer taskCancel()

		actions := []chromedp.Action{
			chromedp.Navigate(urlStr),
			chromedp.WaitReady("body"),
			chromedp.Sleep(1 * time.Second),
		}
		actions = append(actions, steps...)

		var html string
		actions = append(actions,
			chromedp.Sleep(1*time.Second),
			chromedp.OuterHTML("html", &html),
		)

		if err := chromedp.Run(taskCtx, actions...); err != nil {
			return "", fmt.Errorf("page interaction failed: %w", err)
		}

		parsedURL, _ := url.Parse(urlStr)
		result, extractErr := trafilatura.Extract(bytes.NewReader([]byte(html)), trafilatura.Options{
			OriginalURL: parsedURL,
		})

		content := ""
		if extractErr == nil && result != nil {
			content = result.ContentText
		}
		if content == "" {
			return "", fmt.Errorf("failed to extract content after actions")
		}
		if len(content) > 50000 {
			content = content[:50000] + "\n\n[Content truncated due to length limit]"
		}

		log.Printf("🖱️ [BROWSER] Performed %d actions on %s", len(steps), urlStr)
		return content, nil
	}
}

func parsePageActions(raw []interface{}) ([]chromedp.Action, error) {
	var steps []chromedp.Action
	for i, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("action %d must be an object", i)
		}
		actionType, _ := m["type"].(string)
		selector, _ := m["selector"].(string)

		switch actionType {
		case "click":
			if selector == "" {
				return nil, fmt.Errorf("action %d: click requires a selector", i)
			}
			steps = append(steps, chromedp.Click(selector, chromedp.ByQuery))
		case "type":
			text, _ := m["text"].(string)
			if selector == "" {
				return nil, fmt.Errorf("action %d: type requires a selector", i)
			}
			steps = append(steps, chromedp.SendKeys(selector, text, chromedp.ByQuery))
		case "navigate":
			target, _ := m["url"].(string)
			if target == "" {
				return nil, fmt.Errorf("action %d: navigate requires a url", i)
			}
			if err := validateBrowseURL(target); err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
			steps = append(steps,
				chromedp.Navigate(target),
				chromedp.WaitReady("body"),
			)
		default:
			return nil, fmt.Errorf("action %d: unknown action type %q", i, actionType)
		}
	}
	return steps, nil
}

// renderPage loads a URL in headless Chrome and returns the rendered HTML.
func renderPage(ctx context.Context, urlStr string) (string, error) {
	taskCtx, cancel, err := newBrowserContext(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	var html string
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

func newBrowserContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(browserUserAgent),
	)
	if chromePath := os.Getenv("CHROME_BIN"); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		taskCancel()
		allocCancel()
	}
	return taskCtx, cancel, nil
}

func (b *Browser) checkRobots(urlStr string) (bool, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return true, err
	}

	robotsURL := parsedURL.Scheme + "://" + parsedURL.Host + "/robots.txt"

	cacheKey := "robots:" + parsedURL.Host
	if cached, found := b.cache.Get(cacheKey); found {
		data := cached.(*robotstxt.RobotsData)
		return robotsAllowed(data, parsedURL.Path), nil
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(robotsURL)
	if err != nil {
		return true, nil // Allow if robots.txt doesn't exist
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return true, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return true, nil
	}

	robotsData, err := robotstxt.FromBytes(body)
	if err != nil {
		return true, nil
	}

	b.cache.Set(cacheKey, robotsData, cache.DefaultExpiration)
	return robotsAllowed(robotsData, parsedURL.Path), nil
}

func robotsAllowed(data *robotstxt.RobotsData, path string) bool {
	group := data.FindGroup(browserUserAgent)
	if group == nil {
		group = data.FindGroup("*")
	}
	if group != nil {
		return group.Test(path)
	}
	return true
}

// validateBrowseURL rejects URLs pointing at internal or private hosts.
// The browser runs on the server's network, so an unchecked URL would let
// an agent probe loopback services or cloud metadata endpoints.
func validateBrowseURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("only http and https schemes are allowed")
	}

	hostname := strings.ToLower(strings.TrimSuffix(parsedURL.Hostname(), "."))
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") ||
		hostname == "metadata.google.internal" {
		return fmt.Errorf("access to internal hostname %q is not allowed", hostname)
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if isPrivateAddr(ip) {
			return fmt.Errorf("access to private IP address %q is not allowed", hostname)
		}
		return nil
	}

	// Resolution failures fall through to the actual request.
	ips, err := net.LookupIP(hostname)
	if err != nil {
		return nil
	}
	for _, resolved := range ips {
		if isPrivateAddr(resolved) {
			return fmt.Errorf("hostname %q resolves to a private IP address", hostname)
		}
	}
	return nil
}

func isPrivateAddr(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
