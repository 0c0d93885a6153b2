package crawlers

import (
	"errors"
	"time"
)

type fakeElement struct {
	visible    bool
	enabled    bool
	visibleErr error

	// clickErrs 依次作为每次点击的返回值,用完后返回nil
	clickErrs []error
	scrollErr error

	// onClick 每次点击后调用,参数为累计点击次数
	onClick func(clicks int)

	clicks  int
	scrolls int
}

func (e *fakeElement) Visible() (bool, error) { return e.visible, e.visibleErr }
func (e *fakeElement) Enabled() (bool, error) { return e.enabled, nil }

func (e *fakeElement) Click() error {
	e.clicks++
	if e.onClick != nil {
		e.onClick(e.clicks)
	}
	if len(e.clickErrs) > 0 {
		err := e.clickErrs[0]
		e.clickErrs = e.clickErrs[1:]
		return err
	}
	return nil
}

func (e *fakeElement) ScrollIntoView() error {
	e.scrolls++
	return e.scrollErr
}

type fakePage struct {
	elements map[string][]Element
	waitable map[string]bool
	html     string

	navErr     error
	onNavigate func()
	evalErr    map[string]error
	htmlErr    error

	// htmlAfterEval 执行对应脚本后页面内容变为该值
	htmlAfterEval map[string]string

	navigated []string
	evals     []string
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: make(map[string][]Element),
		waitable: make(map[string]bool),
		evalErr:  make(map[string]error),

		htmlAfterEval: make(map[string]string),
	}
}

func (p *fakePage) Navigate(url string) error {
	p.navigated = append(p.navigated, url)
	if p.onNavigate != nil {
		p.onNavigate()
	}
	return p.navErr
}

func (p *fakePage) WaitElement(selector string, _ time.Duration) (bool, error) {
	return p.waitable[selector], nil
}

func (p *fakePage) ElementsX(xpath string) ([]Element, error) {
	return p.elements[xpath], nil
}

func (p *fakePage) Eval(js string) error {
	p.evals = append(p.evals, js)
	if err := p.evalErr[js]; err != nil {
		return err
	}
	if html, ok := p.htmlAfterEval[js]; ok {
		p.html = html
	}
	return nil
}

func (p *fakePage) HTML() (string, error) {
	return p.html, p.htmlErr
}

var errIntercepted = errors.New("element click intercepted")
