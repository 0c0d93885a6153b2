package models

import (
	"fmt"
	"time"
)

// FetchMode 详情页获取方式
type FetchMode string

const (
	FetchBrowser FetchMode = "browser" // 使用浏览器渲染并切换详情标签
	FetchStatic  FetchMode = "static"  // 直接HTTP请求详情页
)

// CrawlStats 运行统计
type CrawlStats struct {
	IDsFound     int     `json:"ids_found"`     // 列表中发现的标识数
	Requested    int     `json:"requested"`     // 请求抓取的条目数
	Succeeded    int     `json:"succeeded"`     // 成功条目数
	Failed       int     `json:"failed"`        // 失败条目数
	ExpandClicks int     `json:"expand_clicks"` // "더보기"点击次数
	Photos       int     `json:"photos"`        // 照片URL总数
	Duration     float64 `json:"duration"`      // 总耗时(秒)
}

// CrawlConfig 单次运行参数
type CrawlConfig struct {
	Count     int       `json:"count" mapstructure:"count"`           // 抓取条目数 (默认:10)
	MaxClicks int       `json:"max_clicks" mapstructure:"max_clicks"` // 最大"더보기"点击次数 (默认:1000)
	Headless  bool      `json:"headless" mapstructure:"headless"`     // 无头模式 (默认:false)
	FetchMode FetchMode `json:"fetch_mode" mapstructure:"fetch_mode"` // 详情获取方式 (默认:browser)
	Region    string    `json:"region" mapstructure:"region"`         // 地区筛选,空表示不筛选
	IDsFile   string    `json:"ids_file,omitempty" mapstructure:"-"`  // 复用已保存的标识文件
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("抓取数量不能为负数")
	}
	if c.MaxClicks < 0 {
		return fmt.Errorf("最大点击次数不能为负数")
	}
	switch c.FetchMode {
	case FetchBrowser, FetchStatic:
	default:
		return fmt.Errorf("无效的获取方式: %s (可选 browser|static)", c.FetchMode)
	}
	return nil
}

// Delays 各等待点的固定延迟
type Delays struct {
	PopupWait          time.Duration `mapstructure:"popup_wait"`           // 等待位置信息弹窗出现的上限
	PopupConsentSettle time.Duration `mapstructure:"popup_consent_settle"` // 点击"동의"后等待
	PopupCloseSettle   time.Duration `mapstructure:"popup_close_settle"`   // 点击关闭按钮后等待
	ListingWait        time.Duration `mapstructure:"listing_wait"`         // 等待首个列表卡片的上限
	AfterPopups        time.Duration `mapstructure:"after_popups"`         // 处理弹窗后等待
	ScrollSettle       time.Duration `mapstructure:"scroll_settle"`        // 滚动后等待
	ExpandSettle       time.Duration `mapstructure:"expand_settle"`        // 每次"더보기"点击后等待
	ExpandRetry        time.Duration `mapstructure:"expand_retry"`         // 滚动到按钮后重试前等待
	DetailSettle       time.Duration `mapstructure:"detail_settle"`        // 详情页打开后等待
	TabSettle          time.Duration `mapstructure:"tab_settle"`           // 切换详情标签后等待
	ItemPacing         time.Duration `mapstructure:"item_pacing"`          // 相邻条目之间的间隔
	RegionSettle       time.Duration `mapstructure:"region_settle"`        // 地区筛选弹窗加载等待
}

// DefaultDelays 默认延迟
func DefaultDelays() Delays {
	return Delays{
		PopupWait:          3 * time.Second,
		PopupConsentSettle: time.Second,
		PopupCloseSettle:   500 * time.Millisecond,
		ListingWait:        15 * time.Second,
		AfterPopups:        2 * time.Second,
		ScrollSettle:       time.Second,
		ExpandSettle:       2 * time.Second,
		ExpandRetry:        time.Second,
		DetailSettle:       2 * time.Second,
		TabSettle:          2 * time.Second,
		ItemPacing:         1500 * time.Millisecond,
		RegionSettle:       5 * time.Second,
	}
}
