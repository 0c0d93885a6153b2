package crawlers

import (
	"time"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

const (
	// ConsentPopupSelector 位置信息授权弹窗
	ConsentPopupSelector = "#locationServicePop"
	// ConsentAgreeXPath 弹窗中的"동의"按钮
	ConsentAgreeXPath = "//div[@id='locationServicePop']//a[text()='동의']"
)

// CloseButtonXPaths 通用关闭按钮,按顺序尝试
var CloseButtonXPaths = []string{
	"//button[contains(text(), '닫기')]",
	"//button[contains(text(), '취소')]",
	"//button[contains(@class, 'close')]",
	"//button[contains(@class, 'btn_close')]",
	"//a[contains(@class, 'close')]",
	"//button[@aria-label='닫기']",
	"//button[@aria-label='Close']",
}

// PopupKind 弹窗处理结果类型
type PopupKind int

const (
	PopupNone    PopupKind = iota // 没有弹窗
	PopupConsent                  // 点击了位置信息"동의"
	PopupClosed                   // 点击了通用关闭按钮
)

// PopupResult 弹窗处理结果
type PopupResult struct {
	Kind    PopupKind
	Locator string // 命中的策略
}

// PopupDismisser 最多关闭一个遮挡弹窗
type PopupDismisser struct {
	page    Page
	delays  models.Delays
	closers []Locator
}

// NewPopupDismisser 创建弹窗处理器
func NewPopupDismisser(page Page, delays models.Delays) *PopupDismisser {
	return &PopupDismisser{
		page:    page,
		delays:  delays,
		closers: XPathLocators(IsVisible, CloseButtonXPaths...),
	}
}

// Dismiss 先处理位置信息弹窗,没有时尝试通用关闭按钮
// 找不到弹窗是正常结果,不返回错误
func (d *PopupDismisser) Dismiss() PopupResult {
	if result, ok := d.dismissConsent(); ok {
		return result
	}

	for _, locator := range d.closers {
		el, ok := locator.Find(d.page)
		if !ok {
			continue
		}
		if err := el.Click(); err != nil {
			utils.Debugf("关闭按钮点击失败 [%s]: %v", locator.Name, err)
			continue
		}
		utils.Infof("  ✓ 已关闭弹窗 [%s]", locator.Name)
		time.Sleep(d.delays.PopupCloseSettle)
		return PopupResult{Kind: PopupClosed, Locator: locator.Name}
	}

	return PopupResult{Kind: PopupNone}
}

func (d *PopupDismisser) dismissConsent() (PopupResult, bool) {
	present, err := d.page.WaitElement(ConsentPopupSelector, d.delays.PopupWait)
	if err != nil {
		utils.Debugf("等待位置信息弹窗失败: %v", err)
		return PopupResult{}, false
	}
	if !present {
		return PopupResult{}, false
	}

	locator := XPathLocator(ConsentAgreeXPath, IsVisible)
	el, ok := locator.Find(d.page)
	if !ok {
		return PopupResult{}, false
	}
	if err := el.Click(); err != nil {
		utils.Debugf("点击\"동의\"失败: %v", err)
		return PopupResult{}, false
	}

	utils.Info("  ✓ 已同意位置信息授权")
	time.Sleep(d.delays.PopupConsentSettle)
	return PopupResult{Kind: PopupConsent, Locator: locator.Name}, true
}

// String 便于日志输出
func (k PopupKind) String() string {
	switch k {
	case PopupConsent:
		return "consent"
	case PopupClosed:
		return "closed"
	default:
		return "none"
	}
}
