package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/core"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/crawlers"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  vkcrawl 运行环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)
	if !strings.HasPrefix(goVersion, "go1.23") && !strings.HasPrefix(goVersion, "go1.24") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	config, err := core.LoadConfig("")
	if err != nil {
		fmt.Printf("❌ 配置加载失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ 配置加载完成 (获取方式: %s)\n", config.Crawl.FetchMode)

	// 浏览器
	switch {
	case config.Browser.Bin != "":
		if _, err := os.Stat(config.Browser.Bin); err != nil {
			fmt.Printf("❌ 配置的浏览器不存在: %s\n", config.Browser.Bin)
			allOK = false
		} else {
			fmt.Printf("✅ 浏览器: %s\n", config.Browser.Bin)
		}
	default:
		if path, has := launcher.LookPath(); has {
			fmt.Printf("✅ 浏览器: %s\n", path)
		} else {
			fmt.Println("⚠️  未找到本地Chromium,首次运行时会自动下载")
		}
	}

	// 内存
	if snapshot, err := crawlers.SnapshotMemory(); err != nil {
		fmt.Printf("⚠️  获取内存状态失败: %v\n", err)
	} else {
		fmt.Printf("✅ 可用内存: %d MB / %d MB (%s)\n", snapshot.AvailableMB, snapshot.TotalMB, snapshot.Pressure)
		if snapshot.Pressure != "normal" {
			fmt.Println("⚠️  可用内存不足,浏览器可能不稳定")
		}
	}

	// 站点连通性
	headerManager, err := core.NewHeaderManager(config.HTTP.UserAgent, config.HTTP.Headers, nil)
	if err != nil {
		fmt.Printf("❌ HTTP头部配置无效: %v\n", err)
		allOK = false
	} else if err := checkSite(config.Site.ListingURL(), headerManager, config.HTTP.Timeout); err != nil {
		fmt.Printf("❌ 无法访问列表页: %v\n", err)
		allOK = false
	} else {
		fmt.Printf("✅ 列表页可访问: %s\n", config.Site.ListingURL())
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build -o vkcrawl ./cmd/vkcrawl' 构建")
		fmt.Println("  2. 运行 './vkcrawl --help' 查看帮助")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}

// checkSite 用与抓取相同的请求头请求一次列表页
func checkSite(url string, hm *core.HeaderManager, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	headers, err := hm.GetHeaders()
	if err != nil {
		return err
	}
	req.Header = headers

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
