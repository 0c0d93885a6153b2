package crawlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

const (
	regionChipXPath   = "//a[.//span[text()='%s']]"
	regionApplyXPath  = "//*[text()='선택']"
	regionSelectAllJS = `() => {
		const box = document.getElementById('mapAll');
		if (!box) {
			throw new Error('mapAll not found');
		}
		if (!box.checked) {
			const label = document.querySelector("label[for='mapAll']");
			if (label) {
				label.click();
			}
		}
		box.dispatchEvent(new Event('change', { bubbles: true }));
	}`
	// 页面在点击"선택"时可能弹出alert,预先替换掉避免阻塞
	suppressDialogsJS = `() => {
		window.alert = function () {};
		window.confirm = function () { return true; };
	}`
)

// ApplyRegionFilter 在列表页选择地区并勾选全部子地区
// 任何一步失败都返回错误,由调用方决定是否继续使用未筛选的列表
func ApplyRegionFilter(page Page, region string, delays models.Delays) error {
	if strings.ContainsAny(region, `'"`) {
		return fmt.Errorf("地区名称包含引号: %s", region)
	}

	utils.Infof("🔍 设置地区筛选: %s", region)

	if err := page.Eval(`() => window.scrollTo(0, 150)`); err != nil {
		return fmt.Errorf("滚动页面失败: %w", err)
	}
	time.Sleep(delays.ScrollSettle)

	chip, ok := XPathLocator(fmt.Sprintf(regionChipXPath, region), nil).Find(page)
	if !ok {
		return fmt.Errorf("未找到地区按钮: %s", region)
	}
	if err := chip.ScrollIntoView(); err != nil {
		return fmt.Errorf("滚动到地区按钮失败: %w", err)
	}
	time.Sleep(delays.ScrollSettle)
	if err := chip.Click(); err != nil {
		return fmt.Errorf("点击地区按钮失败: %w", err)
	}
	time.Sleep(delays.RegionSettle)

	if err := page.Eval(regionSelectAllJS); err != nil {
		return fmt.Errorf("勾选全部子地区失败: %w", err)
	}
	time.Sleep(delays.ScrollSettle)

	if err := page.Eval(suppressDialogsJS); err != nil {
		utils.Debugf("替换对话框函数失败: %v", err)
	}

	apply, ok := XPathLocator(regionApplyXPath, nil).Find(page)
	if !ok {
		return fmt.Errorf("未找到\"선택\"按钮")
	}
	if err := apply.Click(); err != nil {
		return fmt.Errorf("点击\"선택\"按钮失败: %w", err)
	}
	time.Sleep(delays.RegionSettle)

	utils.Info("✅ 地区筛选完成")
	return nil
}
