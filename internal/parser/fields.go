package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

// ValueSeparator 多个值之间的分隔符
const ValueSeparator = " / "

// ParseFields 提取 li 中的 标签/值 对
//
// 只有包含 strong 的 li 才算字段。值取 span.pc,没有则取所有 span;
// 都没有时取 li 全文去掉标签后的剩余部分。空值不保存,重复标签后者覆盖前者。
func ParseFields(doc *goquery.Document) models.FieldMap {
	var fields models.FieldMap

	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		label, value, ok := parseField(li)
		if ok {
			fields.Set(label, value)
		}
	})

	return fields
}

func parseField(li *goquery.Selection) (label, value string, ok bool) {
	strong := li.Find("strong").First()
	if strong.Length() == 0 {
		return "", "", false
	}

	label = strings.TrimSpace(strong.Text())
	if label == "" {
		return "", "", false
	}

	spans := li.Find("span.pc")
	if spans.Length() == 0 {
		spans = li.Find("span")
	}

	if spans.Length() > 0 {
		parts := make([]string, 0, spans.Length())
		spans.Each(func(_ int, span *goquery.Selection) {
			if text := strings.TrimSpace(span.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		value = strings.Join(parts, ValueSeparator)
	} else {
		value = strings.TrimSpace(strings.ReplaceAll(li.Text(), label, ""))
	}

	if value == "" {
		return "", "", false
	}
	return label, value, true
}
