package crawlers

import (
	"context"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// MoreButtonXPaths "더보기"按钮,按顺序尝试
var MoreButtonXPaths = []string{
	"//button[contains(text(), '더보기')]",
	"//button[contains(@class, 'btn_more')]",
	"//a[contains(text(), '더보기')]",
	"//a[contains(@class, 'more')]",
}

// ExpandResult 列表展开结果
type ExpandResult struct {
	Clicks    int   // 成功点击次数
	Exhausted bool  // 按钮消失,列表已完全展开
	StopErr   error // 重试点击失败或 ctx 取消导致提前结束
}

// ListingExpander 反复点击"더보기"直到按钮消失或达到上限
type ListingExpander struct {
	page                Page
	delays              models.Delays
	locators            []Locator
	stopOnFallbackError bool
}

// NewListingExpander 创建列表展开器
// stopOnFallbackError 为true时,滚动重试仍失败即结束展开;否则跳过这一次继续
func NewListingExpander(page Page, delays models.Delays, stopOnFallbackError bool) *ListingExpander {
	return &ListingExpander{
		page:                page,
		delays:              delays,
		locators:            XPathLocators(IsVisibleAndEnabled, MoreButtonXPaths...),
		stopOnFallbackError: stopOnFallbackError,
	}
}

// Expand 最多执行 maxClicks 轮,点击次数不会超过上限
// ctx 取消后在下一轮开始前结束,StopErr 为 ErrCanceled
func (e *ListingExpander) Expand(ctx context.Context, maxClicks int) ExpandResult {
	var result ExpandResult

	for round := 0; round < maxClicks; round++ {
		if err := canceled(ctx); err != nil {
			result.StopErr = err
			utils.Warnf("  ⚠️  展开被中断 (已点击%d次)", result.Clicks)
			break
		}

		el, name, ok := FirstMatch(e.page, e.locators)
		if !ok {
			result.Exhausted = true
			utils.Infof("  ℹ️  未找到\"더보기\"按钮,列表已完全展开 (共点击%d次)", result.Clicks)
			break
		}

		err := el.Click()
		if err == nil {
			result.Clicks++
			utils.Infof("  🔄 \"더보기\" 第%d次点击", result.Clicks)
			_ = sleep(ctx, e.delays.ExpandSettle)
			continue
		}
		utils.Warnf("  ⚠️  点击失败,滚动后重试 [%s]: %v", name, err)

		if err := e.retryClick(ctx, el); err != nil {
			if e.stopOnFallbackError {
				result.StopErr = err
				utils.Infof("  ℹ️  重试点击失败,停止展开: %v", err)
				break
			}
			utils.Warnf("  ⚠️  重试点击失败,跳过本轮: %v", err)
			continue
		}

		result.Clicks++
		utils.Infof("  🔄 \"더보기\" 第%d次点击 (重试成功)", result.Clicks)
		_ = sleep(ctx, e.delays.ExpandSettle)
	}

	return result
}

// retryClick 滚动到按钮后再点击一次
func (e *ListingExpander) retryClick(ctx context.Context, el Element) error {
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	if err := sleep(ctx, e.delays.ExpandRetry); err != nil {
		return canceled(ctx)
	}
	return el.Click()
}
