package crawlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// Element 组件需要的元素操作
type Element interface {
	Visible() (bool, error)
	Enabled() (bool, error)
	Click() error          // 脚本点击,避免被遮挡拦截
	ScrollIntoView() error // 滚动到视口中央
}

// Page 组件需要的页面操作
// 生产环境由 rodPage 实现,测试中用内存假对象替代
type Page interface {
	Navigate(url string) error
	// WaitElement 等待CSS选择器出现,超时返回false而不是错误
	WaitElement(selector string, timeout time.Duration) (bool, error)
	ElementsX(xpath string) ([]Element, error)
	// Eval 执行函数形式的脚本,如 () => tabChange('detailGo')
	Eval(js string) error
	HTML() (string, error)
}

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
}

// NewRodPage 包装 rod 页面
// navTimeout 限制导航加上等待 load 事件的总时间,0表示不限制
func NewRodPage(page *rod.Page, navTimeout time.Duration) Page {
	return &rodPage{page: page, navTimeout: navTimeout}
}

func (p *rodPage) Navigate(url string) error {
	page := p.page
	if p.navTimeout > 0 {
		page = page.Timeout(p.navTimeout)
		defer page.CancelTimeout()
	}
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) WaitElement(selector string, timeout time.Duration) (bool, error) {
	_, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *rodPage) ElementsX(xpath string) ([]Element, error) {
	els, err := p.page.ElementsX(xpath)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (p *rodPage) Eval(js string) error {
	_, err := p.page.Evaluate(&rod.EvalOptions{JS: js})
	return err
}

func (p *rodPage) HTML() (string, error) {
	return p.page.HTML()
}

// sleep 等待 d,ctx 取消时提前返回
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// canceled 把 ctx 取消原因包装为 ErrCanceled
func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Enabled() (bool, error) {
	res, err := e.el.Eval(`() => !this.disabled`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *rodElement) Click() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}

func (e *rodElement) ScrollIntoView() error {
	_, err := e.el.Eval(`() => this.scrollIntoView({block: 'center'})`)
	return err
}
