package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

var (
	// 查询参数中的36位标识: ...?coid=3fa85f64-5717-4562-b3fc-2c963f66afa6
	coidPattern = regexp.MustCompile(`coid=([0-9a-f-]{36})`)

	// 内联跳转调用: goDetailPage('...')
	detailCallPattern = regexp.MustCompile(`goDetailPage\('([^']+)'\)`)
)

// 按顺序尝试,先匹配的模式生效
var identifierPatterns = []*regexp.Regexp{coidPattern, detailCallPattern}

// 可能携带标识的属性
var identifierAttrs = []string{"href", "onclick"}

// MatchIdentifier 在单个元素上依次尝试各模式
func MatchIdentifier(sel *goquery.Selection) (string, bool) {
	for _, pattern := range identifierPatterns {
		for _, attr := range identifierAttrs {
			value, ok := sel.Attr(attr)
			if !ok || value == "" {
				continue
			}
			if m := pattern.FindStringSubmatch(value); len(m) == 2 && m[1] != "" {
				return m[1], true
			}
		}
	}
	return "", false
}

// ExtractIdentifiers 从列表快照中提取条目,按首次出现顺序去重
func ExtractIdentifiers(doc *goquery.Document) []models.ItemRef {
	seen := make(map[string]bool)
	refs := make([]models.ItemRef, 0)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		id, ok := MatchIdentifier(a)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		refs = append(refs, models.ItemRef{ID: id, Name: itemName(a)})
	})

	return refs
}

// ExtractIdentifiersFromHTML 解析并提取
func ExtractIdentifiersFromHTML(markup string) ([]models.ItemRef, error) {
	doc, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	return ExtractIdentifiers(doc), nil
}

func itemName(a *goquery.Selection) string {
	if strong := a.Find("strong").First(); strong.Length() > 0 {
		if name := strings.TrimSpace(strong.Text()); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(a.Text()); name != "" {
		return name
	}
	return models.DefaultItemName
}
