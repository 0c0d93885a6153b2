// Package crawlers 提供与 visitkorea 页面交互的浏览器和HTTP组件
//
// # 概述
//
// 所有浏览器操作都通过一个独占的 Session 顺序执行,运行结束时无论成功与否都会关闭。
// 组件只依赖 Page/Element 两个小接口,生产环境由 go-rod 实现。
//
// # 核心组件
//
// ## Session
//
// 基于go-rod的浏览器会话。WithSession 负责启动、关闭以及把 panic 转换为错误:
//
//	err := WithSession(ctx, opts, headerProvider, func(s *Session) error {
//	    snapshot, err := CollectListing(ctx, s.Page(), listingOpts)
//	    ...
//	})
//
// ## PopupDismisser
//
// 最多关闭一个弹窗。优先等待位置信息授权弹窗并点击"동의",
// 否则按顺序尝试通用关闭按钮。没有弹窗返回 PopupNone。
//
// ## ListingExpander
//
// 反复点击"더보기"直到按钮消失或达到点击上限。
// 点击失败时滚动到按钮并重试一次,重试仍失败时按配置结束或跳过。
//
// ## DetailFetcher
//
// BrowserDetailFetcher 打开详情页并调用 tabChange('detailGo');
// StaticDetailFetcher 使用Colly直接请求HTML,支持gzip/deflate/br。
//
// ## Locator
//
// 元素查找策略是有序的函数列表,每个策略返回零个或一个候选,第一个命中的生效:
//
//	el, name, ok := FirstMatch(page, XPathLocators(IsVisible, CloseButtonXPaths...))
//
// # 等待策略
//
// 能用条件等待的地方(列表卡片、授权弹窗)使用带超时的 WaitElement,
// 点击和导航之后使用 models.Delays 中的固定延迟。
// 导航受 BrowserOptions.NavigateTimeout 限制,标签页绑定到运行 ctx,
// 中断信号会让正在进行的导航、展开和等待立即返回 ErrCanceled。
package crawlers
