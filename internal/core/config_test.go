package core

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "crawl:\n  count: 10\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Crawl.Count)
	assert.Equal(t, 1000, cfg.Crawl.MaxClicks)
	assert.False(t, cfg.Crawl.Headless)
	assert.Equal(t, models.FetchBrowser, cfg.Crawl.FetchMode)
	assert.Equal(t, "https://korean.visitkorea.or.kr/main/area_list.do?type=Place", cfg.Site.ListingURL())
	assert.Equal(t, models.DefaultDelays(), cfg.Delays)
	assert.True(t, cfg.Expand.StopOnFallbackError)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "visitkorea_data", cfg.Output.BaseName)
	assert.Equal(t, 2, cfg.Output.Preview)
	assert.Equal(t, "visitkorea_items", cfg.Storage.Table)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigateTimeout)
	assert.Equal(t, 30*time.Second, cfg.BrowserOptions().NavigateTimeout)

	opts := cfg.ListingOptions()
	assert.Equal(t, 1000, opts.MaxClicks)
	assert.Equal(t, cfg.Delays, opts.Delays)
	assert.Equal(t, "https://korean.visitkorea.or.kr/detail/ms_detail.do?cotid=x", cfg.SiteOptions().DetailURL("x"))
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
crawl:
  count: 3
  fetch_mode: static
  region: 서울
delays:
  item_pacing: 250ms
  expand_settle: 1s
expand:
  stop_on_fallback_error: false
http:
  headers:
    Referer: https://korean.visitkorea.or.kr/
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Crawl.Count)
	assert.Equal(t, models.FetchStatic, cfg.Crawl.FetchMode)
	assert.Equal(t, "서울", cfg.Crawl.Region)
	assert.Equal(t, 250*time.Millisecond, cfg.Delays.ItemPacing)
	assert.Equal(t, time.Second, cfg.Delays.ExpandSettle)
	assert.Equal(t, 3*time.Second, cfg.Delays.PopupWait, "未配置的延迟保持默认")
	assert.False(t, cfg.Expand.StopOnFallbackError)
	assert.Equal(t, "https://korean.visitkorea.or.kr/", cfg.HTTP.Headers["referer"])
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("VKCRAWL_CRAWL_COUNT", "7")
	path := writeConfig(t, "crawl:\n  count: 3\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Crawl.Count)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("YAML格式错误", func(t *testing.T) {
		path := writeConfig(t, "crawl: [\n")
		_, err := LoadConfig(path)

		var cfgErr *models.ConfigError
		require.True(t, errors.As(err, &cfgErr), "期望ConfigError, 得到: %v", err)
		assert.Equal(t, path, cfgErr.FilePath)
	})

	t.Run("无效获取方式", func(t *testing.T) {
		path := writeConfig(t, "crawl:\n  fetch_mode: ftp\n")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("详情路径缺少占位符", func(t *testing.T) {
		path := writeConfig(t, "site:\n  detail_path: /detail/ms_detail.do\n")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("导航超时为负数", func(t *testing.T) {
		path := writeConfig(t, "browser:\n  navigate_timeout: -1s\n")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestMergeCLIFlags(t *testing.T) {
	path := writeConfig(t, "crawl:\n  count: 3\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	count, clicks := 5, 0
	headless := true
	output := filepath.Join("out", "festival")
	mode := "static"
	region := "부산"

	cfg.MergeCLIFlags(CLIOverrides{
		Count:     &count,
		MaxClicks: &clicks,
		Headless:  &headless,
		Output:    &output,
		FetchMode: &mode,
		Region:    &region,
	})

	assert.Equal(t, 5, cfg.Crawl.Count)
	assert.Equal(t, 0, cfg.Crawl.MaxClicks)
	assert.True(t, cfg.Crawl.Headless)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "festival", cfg.Output.BaseName)
	assert.Equal(t, models.FetchStatic, cfg.Crawl.FetchMode)
	assert.Equal(t, "부산", cfg.Crawl.Region)
	assert.NoError(t, cfg.Validate())

	// 未指定的参数不覆盖配置
	cfg.MergeCLIFlags(CLIOverrides{})
	assert.Equal(t, 5, cfg.Crawl.Count)
}

func TestHeaderManager(t *testing.T) {
	t.Run("优先级", func(t *testing.T) {
		hm, err := NewHeaderManager("", map[string]string{
			"Referer":         "https://config.example/",
			"Accept-Language": "en-US",
		}, []string{"Referer: https://cli.example/"})
		require.NoError(t, err)

		headers, err := hm.GetHeaders()
		require.NoError(t, err)

		assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
		assert.Equal(t, "en-US", headers.Get("Accept-Language"))
		assert.Equal(t, "https://cli.example/", headers.Get("Referer"))
	})

	t.Run("自定义User-Agent", func(t *testing.T) {
		hm, err := NewHeaderManager("vkcrawl/1.0", nil, nil)
		require.NoError(t, err)

		headers, err := hm.GetHeaders()
		require.NoError(t, err)
		assert.Equal(t, "vkcrawl/1.0", headers.Get("User-Agent"))
		assert.Equal(t, DefaultAcceptLanguage, headers.Get("Accept-Language"))
	})

	t.Run("返回副本", func(t *testing.T) {
		hm, err := NewHeaderManager("", nil, nil)
		require.NoError(t, err)

		first, err := hm.GetHeaders()
		require.NoError(t, err)
		first.Set("User-Agent", "changed")

		second, err := hm.GetHeaders()
		require.NoError(t, err)
		assert.Equal(t, DefaultUserAgent, second.Get("User-Agent"))
	})

	t.Run("命令行格式错误", func(t *testing.T) {
		_, err := NewHeaderManager("", nil, []string{"NoColon"})
		assert.Error(t, err)
	})

	t.Run("禁止的头部", func(t *testing.T) {
		hm, err := NewHeaderManager("", map[string]string{"Host": "evil.example"}, nil)
		require.NoError(t, err)

		_, err = hm.GetHeaders()
		var verr *models.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("脱敏", func(t *testing.T) {
		hm, err := NewHeaderManager("", nil, []string{"Authorization: Bearer secret-token"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer ***", hm.GetSafeHeaders()[http.CanonicalHeaderKey("authorization")])
	})
}
