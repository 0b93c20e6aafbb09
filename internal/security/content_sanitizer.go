// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ListingSanitizer は出品の自由記述テキストを保存前にサニタイズし、
// 一覧や詳細を表示するクライアントへのXSSを防ぐ。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ListingSanitizer は出品テキストのサニタイズ機能のインターフェースを定義する。
type ListingSanitizer interface {
	// SanitizeText はタイトルや材料などのプレーンテキスト項目から全てのHTMLを除去する。
	// 前後の空白は取り除く。結果はエスケープしないプレーンテキストで、
	// 完全一致で比較される項目（料理ジャンル、アレルゲン等）にそのまま保存できる。
	// HTMLとして出力する側でエスケープすること。
	SanitizeText(raw string) string

	// SanitizeRichText は説明文を最小限の書式タグ（p, br, ul, ol, li, strong, em）だけを
	// 残してサニタイズする。script, iframe, styleタグやon*イベント属性、リンクは除去する。
	SanitizeRichText(raw string) string

	// SanitizePhotoURLs は写真URLのうち、httpsの絶対URLだけを入力順に返す。
	SanitizePhotoURLs(urls []string) []string
}

// listingSanitizer はListingSanitizerの実装。
// bluemondayのポリシーは生成後に変更しないため、複数ゴルーチンから同時に使用できる。
type listingSanitizer struct {
	text *bluemonday.Policy
	rich *bluemonday.Policy
}

var _ ListingSanitizer = (*listingSanitizer)(nil)

// NewListingSanitizer はListingSanitizerの新しいインスタンスを生成する。
func NewListingSanitizer() ListingSanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em",
	)

	return &listingSanitizer{
		text: bluemonday.StrictPolicy(),
		rich: rich,
	}
}

func (s *listingSanitizer) SanitizeText(raw string) string {
	// StrictPolicyは&や'を実体参照にするため、タグ除去後に元の文字へ戻す
	return strings.TrimSpace(html.UnescapeString(s.text.Sanitize(raw)))
}

func (s *listingSanitizer) SanitizeRichText(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

func (s *listingSanitizer) SanitizePhotoURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			continue
		}
		out = append(out, u.String())
	}
	return out
}
