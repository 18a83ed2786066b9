package scrape

import (
	"net/http"
	"strings"
)

// BlockType names the protection that stopped a direct fetch.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockAkamai     BlockType = "akamai"
	BlockCaptcha    BlockType = "captcha"
	BlockRateLimit  BlockType = "rate_limited"
	BlockJSShell    BlockType = "js_shell"
)

// shellBodyLimit is the size below which a page can be a JavaScript-only
// shell rather than content.
const shellBodyLimit = 2000

type bodySignature struct {
	kind BlockType
	all  []string // every marker must appear
}

var bodySignatures = []bodySignature{
	{BlockCloudflare, []string{"checking your browser"}},
	{BlockCloudflare, []string{"cf-browser-verification"}},
	{BlockCloudflare, []string{"cloudflare", "challenge"}},
	{BlockAkamai, []string{"access denied", "reference #"}},
	{BlockCaptcha, []string{"captcha"}},
}

// DetectBlock reports whether a response is an anti-bot interstitial, a
// rate limit or a JavaScript shell instead of the site's own page. A blocked
// fetch falls through to the next scraper in the chain.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, BlockRateLimit
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" ||
			strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
		if strings.HasPrefix(strings.ToLower(resp.Header.Get("server")), "akamaighost") {
			return true, BlockAkamai
		}
	}

	lower := strings.ToLower(string(body))
	for _, sig := range bodySignatures {
		if containsAll(lower, sig.all) {
			return true, sig.kind
		}
	}

	if len(body) < shellBodyLimit {
		if containsAll(lower, []string{"<noscript", "javascript"}) || strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
