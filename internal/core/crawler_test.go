package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/export"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

// 静态模式 + 标识文件,不需要浏览器
func TestCrawler_StaticWithIDsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("cotid")
		if id == "broken" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, detailHTML, "장소 "+id, id)
	}))
	defer server.Close()

	dir := t.TempDir()
	idsFile := filepath.Join(dir, "saved_ids.json")
	require.NoError(t, export.WriteIDs(idsFile, []string{"a", "broken", "c", "d"}))

	cfg, err := LoadConfig(writeConfig(t, "crawl:\n  count: 3\n"))
	require.NoError(t, err)

	output := filepath.Join(dir, "out", "result")
	mode := string(models.FetchStatic)
	cfg.MergeCLIFlags(CLIOverrides{Output: &output, FetchMode: &mode, IDsFile: &idsFile})
	cfg.Site.BaseURL = server.URL
	cfg.Delays = models.Delays{}
	require.NoError(t, cfg.Validate())

	headers, err := NewHeaderManager("", nil, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	crawler := NewCrawler(cfg, headers)
	crawler.Out = &out
	crawler.ShowProgress = false

	report, err := crawler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Stats.IDsFound)
	assert.Equal(t, 3, report.Stats.Requested)
	assert.Equal(t, 2, report.Stats.Succeeded)
	assert.Equal(t, 1, report.Stats.Failed)
	require.Len(t, report.FailedItems, 1)
	assert.Equal(t, "broken", report.FailedItems[0].ID)

	paths := crawler.Paths()
	assert.Equal(t, filepath.Join(dir, "out", "result.json"), paths.JSON)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 3)
	assert.Equal(t, "장소 a", items[0]["name"])
	assert.Equal(t, "서울시 종로구", items[0]["주소"])
	assert.Equal(t, "오류", items[1]["name"])

	_, err = os.Stat(paths.CSV)
	assert.NoError(t, err)

	saved, err := os.ReadFile(paths.Report)
	require.NoError(t, err)
	var savedReport models.RunReport
	require.NoError(t, savedReport.FromJSON(saved))
	assert.Equal(t, report.RunID, savedReport.RunID)

	assert.Contains(t, out.String(), "장소 a", "输出预览")
}

func TestCrawler_MissingIDsFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "crawl:\n  fetch_mode: static\n"))
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "none.json")
	cfg.MergeCLIFlags(CLIOverrides{IDsFile: &missing})

	crawler := NewCrawler(cfg, nil)
	crawler.Out = nil

	report, err := crawler.Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCrawler_EmptyIDsFile(t *testing.T) {
	dir := t.TempDir()
	idsFile := filepath.Join(dir, "empty_ids.json")
	require.NoError(t, export.WriteIDs(idsFile, nil))

	cfg, err := LoadConfig(writeConfig(t, "crawl:\n  fetch_mode: static\n"))
	require.NoError(t, err)
	output := filepath.Join(dir, "empty")
	cfg.MergeCLIFlags(CLIOverrides{Output: &output, IDsFile: &idsFile})

	crawler := NewCrawler(cfg, nil)
	crawler.Out = nil
	crawler.ShowProgress = false

	report, err := crawler.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoIdentifiers))
	require.NotNil(t, report, "仍然写出空结果")
	assert.Equal(t, 0, report.Stats.Requested)

	data, err := os.ReadFile(crawler.Paths().JSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(bytes.TrimSpace(data)))
}
