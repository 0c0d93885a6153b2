package utils

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

func TestHeaderValidator(t *testing.T) {
	hv := NewHeaderValidator()

	tests := []struct {
		name      string
		header    string
		value     string
		wantErr   bool
		wantField string
	}{
		{"合法的Referer", "Referer", "https://korean.visitkorea.or.kr/", false, ""},
		{"空值合法", "X-Empty", "", false, ""},
		{"名称为空", "", "x", true, "name"},
		{"禁止Host", "host", "example.com", true, "name"},
		{"禁止Accept-Encoding", "Accept-Encoding", "gzip", true, "name"},
		{"名称含空格", "X Custom", "x", true, "name"},
		{"值含换行", "X-Custom", "a\nb", true, "value"},
		{"值含非ASCII", "X-Region", "서울", true, "value"},
		{"值过长", "X-Long", strings.Repeat("a", MaxHeaderValueLength+1), true, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hv.ValidateHeader(tt.header, tt.value)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("不应报错: %v", err)
				}
				return
			}

			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("期望ValidationError, 得到: %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("字段错误: 期望 %s, 得到 %s", tt.wantField, verr.Field)
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	hv := NewHeaderValidator()

	ok := http.Header{"User-Agent": {"Mozilla/5.0"}, "Accept-Language": {"ko-KR,ko;q=0.9"}}
	if err := hv.Validate(ok); err != nil {
		t.Errorf("合法头部不应报错: %v", err)
	}

	bad := http.Header{"Connection": {"close"}}
	if err := hv.Validate(bad); err == nil {
		t.Error("Connection头部应该被拒绝")
	}
}

func TestRedactHeaders(t *testing.T) {
	headers := http.Header{
		"Authorization": {"Bearer abcdef123456"},
		"X-Api-Key":     {"1234567890abcdef"},
		"Cookie":        {"JSESSIONID=1"},
		"Referer":       {"https://korean.visitkorea.or.kr/"},
	}

	got := RedactHeaders(headers)

	want := map[string]string{
		"Authorization": "Bearer ***",
		"X-Api-Key":     "1234***cdef",
		"Cookie":        "JSES***ID=1",
		"Referer":       "https://korean.visitkorea.or.kr/",
	}
	for name, value := range want {
		if got[name] != value {
			t.Errorf("%s: 期望 %q, 得到 %q", name, value, got[name])
		}
	}

	if RedactHeaderValue("X-Token", "short") != "***" {
		t.Error("短密钥应该完全隐藏")
	}
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	data := map[string]string{"url": "https://a.example/?x=1&y=2", "name": "불꽃축제"}
	if err := WriteJSONFile(path, data); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "x=1&y=2") {
		t.Errorf("& 不应被转义: %s", text)
	}
	if !strings.Contains(text, "불꽃축제") {
		t.Errorf("非ASCII不应被转义: %s", text)
	}
	if !strings.Contains(text, "\n  \"") {
		t.Errorf("应缩进2格: %s", text)
	}
}

func TestPrintSummary(t *testing.T) {
	report := &models.RunReport{
		RunID:     "run-1",
		FetchMode: models.FetchBrowser,
		Stats:     models.CrawlStats{IDsFound: 12, Requested: 3, Succeeded: 2, Failed: 1},
		Outputs:   models.OutputFiles{IDs: "a_ids.json", JSON: "a.json", CSV: "a.csv"},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, report)

	out := buf.String()
	for _, s := range []string{"run-1", "a.csv", "抓取统计"} {
		if !strings.Contains(out, s) {
			t.Errorf("统计表缺少 %q:\n%s", s, out)
		}
	}
}
