package crawlers

import (
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// Locator 一种元素查找策略,每次返回零个或一个候选
type Locator struct {
	Name string
	Find func(page Page) (Element, bool)
}

// Accept 候选元素的筛选条件
type Accept func(el Element) bool

// XPathLocator 用XPath查找第一个满足条件的元素
// 查找或判断出错的元素视为不匹配
func XPathLocator(xpath string, accept Accept) Locator {
	return Locator{
		Name: xpath,
		Find: func(page Page) (Element, bool) {
			els, err := page.ElementsX(xpath)
			if err != nil {
				utils.Debugf("查找元素失败 [%s]: %v", xpath, err)
				return nil, false
			}
			for _, el := range els {
				if accept == nil || accept(el) {
					return el, true
				}
			}
			return nil, false
		},
	}
}

// XPathLocators 为一组XPath创建相同筛选条件的策略
func XPathLocators(accept Accept, xpaths ...string) []Locator {
	locators := make([]Locator, 0, len(xpaths))
	for _, xpath := range xpaths {
		locators = append(locators, XPathLocator(xpath, accept))
	}
	return locators
}

// FirstMatch 按顺序尝试策略,返回第一个命中的元素
func FirstMatch(page Page, locators []Locator) (Element, string, bool) {
	for _, locator := range locators {
		if el, ok := locator.Find(page); ok {
			return el, locator.Name, true
		}
	}
	return nil, "", false
}

// IsVisible 元素可见
func IsVisible(el Element) bool {
	visible, err := el.Visible()
	return err == nil && visible
}

// IsVisibleAndEnabled 元素可见且可用
func IsVisibleAndEnabled(el Element) bool {
	if !IsVisible(el) {
		return false
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}
