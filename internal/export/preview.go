package export

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

const previewValueWidth = 60

// RenderPreview 以表格输出前 n 条记录的字段和照片数量
// id/name/url 作为标题,不重复列出
func RenderPreview(out io.Writer, result *models.CrawlResult, n int) int {
	if result.Len() == 0 || n <= 0 {
		return 0
	}
	if n > result.Len() {
		n = result.Len()
	}

	for i := 0; i < n; i++ {
		rec := &result.Records[i]

		t := utils.NewTable(out)
		t.SetTitle("[%d] %s (%s)", i+1, rec.Name, rec.ID)
		t.AppendHeader(table.Row{"항목", "내용"})
		t.AppendRow(table.Row{"photo_urls", len(rec.Photos)})
		for _, label := range rec.Fields.Keys() {
			value, _ := rec.Fields.Get(label)
			t.AppendRow(table.Row{label, truncate(value, previewValueWidth)})
		}
		if rec.Failed() {
			t.AppendRow(table.Row{"error", rec.Error})
		}
		t.Render()
	}

	return n
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width]) + "..."
}
