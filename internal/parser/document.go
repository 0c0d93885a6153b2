// Package parser 从页面快照中提取列表标识、详情字段和照片。
//
// 所有函数只读取传入的HTML,不访问网络,对同一快照重复调用结果一致。
package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

// Parse 解析HTML快照
func Parse(markup string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// ParseTitle 提取详情页标题
// 优先第一个 h2,其次 class 含 tit 的 h1,都没有时返回 UntitledName
func ParseTitle(doc *goquery.Document) string {
	if title, ok := findTitle(doc); ok {
		return title
	}
	return models.UntitledName
}

// ExtractTitle 从HTML中提取标题,没有标题时返回false
func ExtractTitle(markup string) (string, bool) {
	doc, err := Parse(markup)
	if err != nil {
		return "", false
	}
	return findTitle(doc)
}

func findTitle(doc *goquery.Document) (string, bool) {
	if h2 := doc.Find("h2").First(); h2.Length() > 0 {
		if title := strings.TrimSpace(h2.Text()); title != "" {
			return title, true
		}
	}
	if h1 := doc.Find(`h1[class*="tit"]`).First(); h1.Length() > 0 {
		if title := strings.TrimSpace(h1.Text()); title != "" {
			return title, true
		}
	}
	return "", false
}

// ParseDetail 把详情页快照转换为记录
func ParseDetail(id, detailURL, markup string) (models.DetailRecord, error) {
	doc, err := Parse(markup)
	if err != nil {
		return models.DetailRecord{}, err
	}

	return models.DetailRecord{
		ID:     id,
		Name:   ParseTitle(doc),
		URL:    detailURL,
		Photos: ExtractPhotos(doc),
		Fields: ParseFields(doc),
	}, nil
}
