package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/export"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/parser"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/storage"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// ErrNoIdentifiers 列表页或标识文件中没有任何条目
// 此时仍会写出空的结果文件
var ErrNoIdentifiers = errors.New("未发现任何条目标识")

// Crawler 主流程协调器
// 列表发现 → 保存标识 → 详情抓取 → 导出 → 报告
type Crawler struct {
	config  *Config
	headers models.HeaderProvider

	// Out 统计表和预览的输出位置
	Out          io.Writer
	ShowProgress bool

	paths   export.Paths
	memory  *models.MemorySnapshot
	idsSeen int
	clicks  int
}

// NewCrawler 创建主流程
func NewCrawler(config *Config, headers models.HeaderProvider) *Crawler {
	return &Crawler{
		config:       config,
		headers:      headers,
		Out:          os.Stdout,
		ShowProgress: true,
		paths:        export.OutputPaths(config.Output.Dir, config.Output.BaseName),
	}
}

// Paths 输出文件路径
func (c *Crawler) Paths() export.Paths {
	return c.paths
}

// Run 执行完整流程
// 标识发现完成后,即使后续出错也会写出结果文件
func (c *Crawler) Run(ctx context.Context) (*models.RunReport, error) {
	cfg := c.config

	utils.Infof("🚀 开始抓取任务")
	utils.Infof("列表页: %s", cfg.Site.ListingURL())
	utils.Infof("获取方式: %s, 数量: %d, 最大点击: %d", cfg.Crawl.FetchMode, cfg.Crawl.Count, cfg.Crawl.MaxClicks)

	var (
		refs   []models.ItemRef
		result *models.CrawlResult
		runErr error
	)

	if cfg.Crawl.IDsFile != "" {
		loaded, err := export.LoadIDs(cfg.Crawl.IDsFile)
		if err != nil {
			return nil, err
		}
		refs = loaded
		c.idsSeen = len(refs)
	}

	needBrowser := refs == nil || cfg.Crawl.FetchMode == models.FetchBrowser
	if needBrowser {
		c.memory = crawlers.CheckResources()

		runErr = crawlers.WithSession(ctx, cfg.BrowserOptions(), c.headers, func(s *crawlers.Session) error {
			if refs == nil {
				discovered, err := c.discover(ctx, s.Page())
				if err != nil {
					return err
				}
				refs = discovered
			}

			if cfg.Crawl.FetchMode == models.FetchBrowser {
				fetcher := crawlers.NewBrowserDetailFetcher(s.Page(), cfg.SiteOptions(), cfg.Delays)
				result = c.crawlDetails(ctx, refs, fetcher)
			}
			return nil
		})
	}

	if runErr == nil && result == nil && refs != nil {
		fetcher := crawlers.NewStaticDetailFetcher(cfg.SiteOptions(), c.headers, cfg.HTTP.Timeout)
		result = c.crawlDetails(ctx, refs, fetcher)
	}

	if refs == nil {
		// 标识发现之前失败,没有可写出的内容
		return nil, runErr
	}
	if result == nil {
		result = models.NewCrawlResult(0)
	}

	if runErr == nil && len(refs) == 0 {
		runErr = ErrNoIdentifiers
	}

	report, err := c.finish(ctx, result)
	if runErr != nil {
		return report, runErr
	}
	return report, err
}

// discover 打开列表页并提取标识,结果立即保存到标识文件
func (c *Crawler) discover(ctx context.Context, page crawlers.Page) ([]models.ItemRef, error) {
	cfg := c.config

	snapshot, err := crawlers.CollectListing(ctx, page, cfg.ListingOptions())
	if err != nil {
		return nil, fmt.Errorf("获取列表页失败: %w", err)
	}

	found, err := parser.ExtractIdentifiersFromHTML(snapshot.HTML)
	if err != nil {
		return nil, err
	}

	session := models.NewListingSession(cfg.Site.BaseURL)
	session.Clicks = snapshot.Expand.Clicks
	for _, ref := range found {
		session.Add(ref)
	}
	c.clicks = session.Clicks
	c.idsSeen = session.Len()

	utils.Infof("🔎 发现 %d 个条目 (\"더보기\"点击%d次)", session.Len(), session.Clicks)
	if session.Len() == 0 {
		utils.Warnf("⚠️ %v", ErrNoIdentifiers)
	}

	if err := export.WriteIDs(c.paths.IDs, session.IDs()); err != nil {
		return nil, err
	}
	return session.Items(), nil
}

func (c *Crawler) crawlDetails(ctx context.Context, refs []models.ItemRef, fetcher crawlers.DetailFetcher) *models.CrawlResult {
	targets := SelectTargets(refs, c.config.Crawl.Count)
	if len(targets) < len(refs) {
		utils.Infof("共%d个条目,只抓取前%d个", len(refs), len(targets))
	}
	return NewOrchestrator(fetcher, c.config.Delays.ItemPacing, c.ShowProgress).Run(ctx, targets)
}

// finish 导出结果、保存报告并可选写入数据库
func (c *Crawler) finish(ctx context.Context, result *models.CrawlResult) (*models.RunReport, error) {
	cfg := c.config

	if err := export.Export(c.paths, result); err != nil {
		return nil, fmt.Errorf("导出结果失败: %w", err)
	}

	stats := CollectStats(result, c.idsSeen, c.clicks)
	report := models.NewRunReport(result, stats, cfg.Crawl)
	report.ListURL = cfg.Site.ListingURL()
	report.Memory = c.memory
	report.Outputs = c.paths.Files()

	if err := utils.SaveReport(report, c.paths.Report); err != nil {
		utils.Warnf("%v", err)
	}

	if cfg.Storage.PostgresDSN != "" {
		if err := c.store(ctx, result); err != nil {
			utils.Errorf("❌ 写入Postgres失败: %v", err)
		}
	}

	if c.Out != nil {
		utils.PrintSummary(c.Out, report)
		if cfg.Output.Preview > 0 {
			export.RenderPreview(c.Out, result, cfg.Output.Preview)
		}
	}

	return report, nil
}

func (c *Crawler) store(ctx context.Context, result *models.CrawlResult) error {
	// 中断后仍然写入已完成的结果
	ctx = context.WithoutCancel(ctx)

	sink, err := storage.Open(ctx, storage.Options{
		DSN:       c.config.Storage.PostgresDSN,
		Table:     c.config.Storage.Table,
		BatchSize: c.config.Storage.BatchSize,
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	_, err = sink.Save(ctx, result)
	return err
}
