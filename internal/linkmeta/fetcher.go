// Package linkmeta はURL教材のリンクメタデータ（タイトル・favicon）取得を提供する。
package linkmeta

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Metadata はリンク先ページから取得したメタデータ。
type Metadata struct {
	// Title はページの<title>またはフィードのタイトル。取得できない場合は空。
	Title string
	// FaviconURL は検証済みのfavicon URL。取得できない場合はnil。
	FaviconURL *string
}

// FetcherService はリンクメタデータ取得のインターフェース。
// 教材サービスがURL教材の登録後に非同期で呼び出す。
type FetcherService interface {
	// Fetch は指定URLのメタデータを取得する。
	// faviconの取得失敗はエラーにせず、FaviconURLをnilのまま返す。
	Fetch(ctx context.Context, pageURL string) (*Metadata, error)
}

// Fetcher はFetcherServiceの実装。
type Fetcher struct {
	ssrfGuard  SSRFValidator
	feedParser *gofeed.Parser
	timeout    time.Duration
	maxBody    int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(ssrfGuard SSRFValidator, timeout time.Duration, maxBody int64) *Fetcher {
	return &Fetcher{
		ssrfGuard:  ssrfGuard,
		feedParser: gofeed.NewParser(),
		timeout:    timeout,
		maxBody:    maxBody,
	}
}

// feedContentTypes はフィードとして認識するContent-Typeのリスト。
var feedContentTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
}

// xmlContentTypes はXMLとして認識するContent-Type（ボディ解析が必要）。
var xmlContentTypes = []string{
	"text/xml",
	"application/xml",
}

// Fetch は指定URLのメタデータを取得する。
// 1. SSRF検証を実行
// 2. URLにHTTPリクエストを送信
// 3. フィードの場合はgofeedでタイトルを解析
// 4. HTMLの場合はheadタグから<title>とfaviconリンクを解析
// 5. faviconリンクが無い場合は /favicon.ico を試行
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Metadata, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("empty URL")
	}

	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(pageURL); err != nil {
			return nil, fmt.Errorf("URLの検証に失敗しました: %w", err)
		}
	}

	client := f.getHTTPClient()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Courseman/1.0 Link Preview")
	req.Header.Set("Accept", "text/html, application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ページの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ページの取得に失敗しました: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗しました: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	meta := &Metadata{}

	// RSS/Atomフィードの場合: gofeedでタイトルを解析
	if IsFeedContent(contentType, body) {
		parsed, err := f.feedParser.Parse(bytes.NewReader(body))
		if err == nil && parsed != nil {
			meta.Title = strings.TrimSpace(parsed.Title)
		}
		meta.FaviconURL = f.resolveFavicon(ctx, pageURL, "")
		return meta, nil
	}

	// HTMLの場合: headタグから<title>とfaviconリンクを解析
	title, iconHref := ParseHTMLHead(body, pageURL)
	meta.Title = title
	meta.FaviconURL = f.resolveFavicon(ctx, pageURL, iconHref)

	return meta, nil
}

// resolveFavicon は検出されたfaviconリンク、またはデフォルトの /favicon.ico を検証し、
// 実在する場合のみURLを返す。取得失敗時はnilを返す（エラーにはしない）。
func (f *Fetcher) resolveFavicon(ctx context.Context, pageURL, iconHref string) *string {
	faviconURL := iconHref
	if faviconURL == "" {
		faviconURL = guessDefaultFaviconURL(pageURL)
	}
	if faviconURL == "" {
		return nil
	}

	if !f.verifyFavicon(ctx, faviconURL) {
		return nil
	}
	return &faviconURL
}

// verifyFavicon はfavicon URLが画像を返すことを確認する。
func (f *Fetcher) verifyFavicon(ctx context.Context, faviconURL string) bool {
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(faviconURL); err != nil {
			slog.Warn("favicon検証: SSRFブロック", "url", faviconURL, "error", err)
			return false
		}
	}

	client := f.getHTTPClient()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, faviconURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Courseman/1.0 Link Preview")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("favicon検証: HTTPリクエスト失敗", "url", faviconURL, "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	mimeType := extractMimeType(resp.Header.Get("Content-Type"))
	return isImageMime(mimeType)
}

// getHTTPClient はHTTPクライアントを取得する。
// SSRFGuardが設定されている場合はSSRF防止付きクライアントを返す。
func (f *Fetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(f.timeout, f.maxBody)
	}
	return &http.Client{Timeout: f.timeout}
}

// IsFeedContent はContent-Typeとボディを解析して、
// レスポンスがRSS/Atomフィードかどうかを判定する。
func IsFeedContent(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	mediaType = strings.ToLower(mediaType)

	for _, feedCT := range feedContentTypes {
		if mediaType == feedCT {
			return true
		}
	}

	// 汎用XML Content-Typeの場合はボディ解析が必要
	isXML := false
	for _, xmlCT := range xmlContentTypes {
		if mediaType == xmlCT {
			isXML = true
			break
		}
	}
	if !isXML || len(body) == 0 {
		return false
	}

	return isRSSOrAtomXML(body)
}

// isRSSOrAtomXML はXMLボディの先頭部分を解析してRSS/Atomフィードかを判定する。
func isRSSOrAtomXML(body []byte) bool {
	// 先頭4KBを検査（XMLプロローグ + ルート要素が含まれるのに十分）
	checkSize := 4096
	if len(body) < checkSize {
		checkSize = len(body)
	}
	prefix := strings.ToLower(string(body[:checkSize]))

	if strings.Contains(prefix, "<rss") {
		return true
	}
	if strings.Contains(prefix, "<rdf:rdf") {
		return true
	}
	if strings.Contains(prefix, "<feed") && strings.Contains(prefix, "http://www.w3.org/2005/atom") {
		return true
	}

	return false
}

// faviconRels はfaviconリンクとして認識するrel属性値。
var faviconRels = map[string]bool{
	"icon":             true,
	"shortcut icon":    true,
	"apple-touch-icon": true,
}

// ParseHTMLHead はHTMLのheadタグから<title>のテキストとfaviconリンクを解析する。
// 相対URLはbaseURLを基準に絶対URLに解決される。
// faviconリンクが複数ある場合は最初のものを返す。
func ParseHTMLHead(htmlBody []byte, baseURL string) (title, iconURL string) {
	baseU, err := url.Parse(baseURL)
	if err != nil {
		return "", ""
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return title, iconURL

		case html.TextToken:
			if inTitle && title == "" {
				title = strings.TrimSpace(string(tokenizer.Text()))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}
			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return title, iconURL
			}
			if !inHead {
				continue
			}

			if tagName == "title" && tt == html.StartTagToken {
				inTitle = true
				continue
			}

			if tagName != "link" || !hasAttr || iconURL != "" {
				continue
			}

			// link要素の属性を解析
			var rel, href string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}

			if !faviconRels[rel] || href == "" {
				continue
			}
			iconURL = resolveURL(baseU, href)

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "title":
				inTitle = false
			case "head":
				return title, iconURL
			}
		}
	}
}

// resolveURL は相対URLをベースURLを基準に絶対URLに解決する。
func resolveURL(base *url.URL, rawRef string) string {
	ref, err := url.Parse(rawRef)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// guessDefaultFaviconURL はサイトURLからデフォルトのfavicon URLを推測する。
func guessDefaultFaviconURL(siteURL string) string {
	if siteURL == "" {
		return ""
	}

	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}

	u.Path = "/favicon.ico"
	u.RawQuery = ""
	u.Fragment = ""

	return u.String()
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	if mimeType == "" {
		return false
	}
	return strings.HasPrefix(mimeType, "image/")
}

// compile-time interface check
var _ FetcherService = (*Fetcher)(nil)
