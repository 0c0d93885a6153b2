package crawlers

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/parser"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// DetailTabJS 页面自带的标签切换函数,显示"상세정보"区域
const DetailTabJS = `() => tabChange('detailGo')`

// SiteOptions 站点地址
type SiteOptions struct {
	BaseURL    string
	DetailPath string // 含一个 %s 占位
}

// DetailURL 详情页地址
func (s SiteOptions) DetailURL(id string) string {
	return models.BuildDetailURL(s.BaseURL, s.DetailPath, id)
}

// DetailSnapshot 详情页快照
type DetailSnapshot struct {
	ID          string
	URL         string
	HTML        string
	TabSwitched bool

	// Title 切换标签之前读取的标题,切换后页面上第一个 h2 可能变化
	// 为空时从 HTML 中解析
	Title string
}

// DetailFetcher 获取单个条目的详情页
type DetailFetcher interface {
	DetailURL(id string) string
	Fetch(ctx context.Context, id string) (*DetailSnapshot, error)
}

// BrowserDetailFetcher 通过浏览器会话获取详情页
type BrowserDetailFetcher struct {
	SiteOptions
	page   Page
	delays models.Delays
}

// NewBrowserDetailFetcher 创建浏览器详情获取器
func NewBrowserDetailFetcher(page Page, site SiteOptions, delays models.Delays) *BrowserDetailFetcher {
	return &BrowserDetailFetcher{
		SiteOptions: site,
		page:        page,
		delays:      delays,
	}
}

// Fetch 打开详情页并切换到详情标签
// 标签切换失败只记录日志,仍返回当前可见内容
// 导航超时返回 ErrNavigate,ctx 取消返回 ErrCanceled
func (f *BrowserDetailFetcher) Fetch(ctx context.Context, id string) (*DetailSnapshot, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	snapshot := &DetailSnapshot{ID: id, URL: f.DetailURL(id)}
	utils.Infof("📄 打开详情页: %s", id)

	if err := f.page.Navigate(snapshot.URL); err != nil {
		if cerr := canceled(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: %w", ErrNavigate, err)
	}
	if err := sleep(ctx, f.delays.DetailSettle); err != nil {
		return nil, canceled(ctx)
	}

	if overview, err := f.page.HTML(); err != nil {
		utils.Debugf("  读取概览标题失败: %v", err)
	} else if title, ok := parser.ExtractTitle(overview); ok {
		snapshot.Title = title
	}

	snapshot.TabSwitched = f.switchTab(ctx)

	html, err := f.page.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取详情页失败: %w", err)
	}
	snapshot.HTML = html

	return snapshot, nil
}

func (f *BrowserDetailFetcher) switchTab(ctx context.Context) bool {
	if err := f.page.Eval(DetailTabJS); err != nil {
		utils.Warnf("  ⚠️  切换详情标签失败: %v", err)
		return false
	}
	_ = sleep(ctx, f.delays.TabSettle)
	utils.Debugf("  ✓ 已切换到详情标签")
	return true
}
