package crawlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

var (
	ErrBrowserLaunch = errors.New("启动浏览器失败")
	ErrSessionPanic  = errors.New("浏览器会话异常")
	ErrNavigate      = errors.New("页面导航失败")
	ErrCanceled      = errors.New("任务已取消")
)

// BrowserOptions 浏览器启动参数
type BrowserOptions struct {
	Headless     bool
	NoSandbox    bool
	Bin          string // 为空时由 launcher 自动查找或下载
	WindowWidth  int
	WindowHeight int

	NavigateTimeout time.Duration // 单次导航上限,0表示不限制
}

// Session 独占的浏览器会话,整个运行期间只打开一次
type Session struct {
	browser    *rod.Browser
	page       *rod.Page
	headers    models.HeaderProvider
	navTimeout time.Duration
}

// OpenSession 启动浏览器并打开一个标签页
// 标签页绑定到 ctx,ctx 取消后所有页面操作立即返回错误;浏览器本身不受影响,仍可正常关闭
func OpenSession(ctx context.Context, opts BrowserOptions, headers models.HeaderProvider) (*Session, error) {
	l := launcher.New().Headless(opts.Headless)

	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	l = l.Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: 连接浏览器失败: %v", ErrBrowserLaunch, err)
	}
	utils.Debugf("浏览器已启动: %s", controlURL)

	s := &Session{browser: browser, headers: headers, navTimeout: opts.NavigateTimeout}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: 创建标签页失败: %v", ErrBrowserLaunch, err)
	}
	s.page = page.Context(ctx)

	s.denyPermissions()
	if err := s.applyHeaders(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Page 会话的标签页
func (s *Session) Page() Page {
	return NewRodPage(s.page, s.navTimeout)
}

// Close 关闭浏览器
func (s *Session) Close() {
	if s == nil || s.browser == nil {
		return
	}
	if err := s.browser.Close(); err != nil {
		utils.Warnf("关闭浏览器失败: %v", err)
		return
	}
	utils.Debugf("浏览器已关闭")
}

// denyPermissions 拒绝位置信息和通知权限
func (s *Session) denyPermissions() {
	for _, name := range []string{"geolocation", "notifications"} {
		err := proto.BrowserSetPermission{
			Permission: &proto.BrowserPermissionDescriptor{Name: name},
			Setting:    proto.BrowserPermissionSettingDenied,
		}.Call(s.browser)
		if err != nil {
			utils.Debugf("设置权限失败 [%s]: %v", name, err)
		}
	}
}

// applyHeaders 把 User-Agent 和其余自定义头部应用到标签页
func (s *Session) applyHeaders() error {
	if s.headers == nil {
		return nil
	}

	headers, err := s.headers.GetHeaders()
	if err != nil {
		return fmt.Errorf("获取HTTP头部失败: %w", err)
	}

	if ua := headers.Get("User-Agent"); ua != "" {
		err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: headers.Get("Accept-Language"),
		})
		if err != nil {
			return fmt.Errorf("设置User-Agent失败: %w", err)
		}
	}

	// 浏览器自行管理的头部不覆盖
	var extra []string
	for name, values := range headers {
		switch name {
		case "User-Agent", "Accept-Encoding", "Accept":
			continue
		}
		if len(values) > 0 {
			extra = append(extra, name, values[0])
		}
	}
	if len(extra) > 0 {
		if _, err := s.page.SetExtraHeaders(extra); err != nil {
			return fmt.Errorf("设置自定义头部失败: %w", err)
		}
	}

	return nil
}

// WithSession 打开会话执行 fn,无论成功、出错还是 panic 都会关闭浏览器
func WithSession(ctx context.Context, opts BrowserOptions, headers models.HeaderProvider, fn func(s *Session) error) (err error) {
	s, err := OpenSession(ctx, opts, headers)
	if err != nil {
		return err
	}
	defer s.Close()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSessionPanic, r)
			utils.Errorf("捕获panic: %v", r)
		}
	}()

	return fn(s)
}
