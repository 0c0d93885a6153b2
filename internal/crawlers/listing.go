package crawlers

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// ListingCardSelector 列表卡片,出现即认为列表已渲染
const ListingCardSelector = "ul.list_thum_type.type1 li, #contentList > li"

// ListingOptions 列表页参数
type ListingOptions struct {
	URL                 string
	MaxClicks           int
	Region              string // 空表示不筛选
	ScrollOffset        int    // 展开前滚动到的位置,负数表示页面底部
	StopOnFallbackError bool
	Delays              models.Delays
}

// ListingSnapshot 完全展开后的列表页
type ListingSnapshot struct {
	HTML     string
	Popup    PopupResult
	Expand   ExpandResult
	Filtered bool
}

// CollectListing 打开列表页,处理弹窗,展开全部条目并返回页面快照
// ctx 取消时返回 ErrCanceled
func CollectListing(ctx context.Context, page Page, opts ListingOptions) (*ListingSnapshot, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	utils.Infof("📍 打开列表页: %s", opts.URL)
	if err := page.Navigate(opts.URL); err != nil {
		if cerr := canceled(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: %w", ErrNavigate, err)
	}

	ready, err := page.WaitElement(ListingCardSelector, opts.Delays.ListingWait)
	if err != nil {
		utils.Warnf("等待列表卡片失败: %v", err)
	} else if !ready {
		utils.Warnf("⚠️ 列表在%.0f秒内未渲染,继续处理", opts.Delays.ListingWait.Seconds())
	}

	snapshot := &ListingSnapshot{}
	snapshot.Popup = NewPopupDismisser(page, opts.Delays).Dismiss()
	if err := sleep(ctx, opts.Delays.AfterPopups); err != nil {
		return nil, canceled(ctx)
	}

	if opts.Region != "" {
		if err := ApplyRegionFilter(page, opts.Region, opts.Delays); err != nil {
			utils.Errorf("❌ 地区筛选失败,使用未筛选的列表: %v", err)
		} else {
			snapshot.Filtered = true
		}
	}

	scrollJS := fmt.Sprintf(`() => window.scrollTo(0, %d)`, opts.ScrollOffset)
	if opts.ScrollOffset < 0 {
		scrollJS = `() => window.scrollTo(0, document.body.scrollHeight)`
	}
	if err := page.Eval(scrollJS); err != nil {
		utils.Debugf("滚动列表页失败: %v", err)
	}
	if err := sleep(ctx, opts.Delays.ScrollSettle); err != nil {
		return nil, canceled(ctx)
	}

	snapshot.Expand = NewListingExpander(page, opts.Delays, opts.StopOnFallbackError).Expand(ctx, opts.MaxClicks)
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取列表页失败: %w", err)
	}
	snapshot.HTML = html

	return snapshot, nil
}
