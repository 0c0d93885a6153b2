package core

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/parser"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// Orchestrator 按顺序抓取详情页,每个条目都产生一条记录
type Orchestrator struct {
	fetcher      crawlers.DetailFetcher
	pacing       time.Duration
	showProgress bool
}

// NewOrchestrator 创建调度器
// pacing 为相邻条目之间的间隔,最后一个条目之后不等待
func NewOrchestrator(fetcher crawlers.DetailFetcher, pacing time.Duration, showProgress bool) *Orchestrator {
	return &Orchestrator{
		fetcher:      fetcher,
		pacing:       pacing,
		showProgress: showProgress,
	}
}

// SelectTargets 取前 min(count, len(refs)) 个条目
func SelectTargets(refs []models.ItemRef, count int) []models.ItemRef {
	if count < 0 {
		count = 0
	}
	if count > len(refs) {
		count = len(refs)
	}
	return refs[:count]
}

// Run 依次抓取 refs,结果顺序与输入一致
// ctx 取消后当前条目完成,剩余条目记为失败,结果长度仍等于 len(refs)
func (o *Orchestrator) Run(ctx context.Context, refs []models.ItemRef) *models.CrawlResult {
	result := models.NewCrawlResult(len(refs))
	total := len(refs)

	utils.Infof("🚀 开始抓取详情: %d个条目", total)

	var bar *progressbar.ProgressBar
	if o.showProgress && total > 0 {
		bar = utils.NewProgressBar(total, "抓取详情")
	}

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			o.cancelRemaining(result, refs[i:], err)
			break
		}

		logger := utils.ItemLogger(ref.ID, i+1, total)
		logger.Info().Msgf("[%d/%d] %s (%s)", i+1, total, ref.Name, ref.ID)

		rec := o.crawlOne(ctx, ref)
		result.Append(rec)
		if rec.Failed() {
			logger.Error().Str("url", rec.URL).Msgf("  ❌ 抓取失败: %s", rec.Error)
		} else {
			logger.Info().
				Int("fields", rec.Fields.Len()).
				Int("photos", len(rec.Photos)).
				Msgf("  ✅ %s", rec.Name)
		}

		if bar != nil {
			_ = bar.Add(1)
		}

		if i < total-1 && o.pacing > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.pacing):
			}
		}
	}

	result.FinishedAt = time.Now()
	utils.Infof("✅ 详情抓取完成: 成功 %d, 失败 %d", result.Succeeded(), result.Failed())

	return result
}

// crawlOne 抓取单个条目,panic 和错误都转换为失败记录
func (o *Orchestrator) crawlOne(ctx context.Context, ref models.ItemRef) (rec models.DetailRecord) {
	detailURL := o.fetcher.DetailURL(ref.ID)

	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("捕获panic [%s]: %v", ref.ID, r)
			rec = models.NewErrorRecord(ref.ID, detailURL, fmt.Errorf("panic: %v", r))
		}
	}()

	snapshot, err := o.fetcher.Fetch(ctx, ref.ID)
	if err != nil {
		return models.NewErrorRecord(ref.ID, detailURL, err)
	}

	rec, err = parser.ParseDetail(ref.ID, snapshot.URL, snapshot.HTML)
	if err != nil {
		return models.NewErrorRecord(ref.ID, snapshot.URL, err)
	}
	if snapshot.Title != "" {
		rec.Name = snapshot.Title
	}
	return rec
}

func (o *Orchestrator) cancelRemaining(result *models.CrawlResult, refs []models.ItemRef, cause error) {
	utils.Warnf("⚠️ 任务被中断,剩余%d个条目记为失败", len(refs))
	for _, ref := range refs {
		err := fmt.Errorf("%w: %v", crawlers.ErrCanceled, cause)
		result.Append(models.NewErrorRecord(ref.ID, o.fetcher.DetailURL(ref.ID), err))
	}
}

// CollectStats 根据结果汇总统计
func CollectStats(result *models.CrawlResult, idsFound, expandClicks int) models.CrawlStats {
	stats := models.CrawlStats{
		IDsFound:     idsFound,
		Requested:    result.Len(),
		Succeeded:    result.Succeeded(),
		Failed:       result.Failed(),
		ExpandClicks: expandClicks,
	}
	if result != nil {
		for i := range result.Records {
			stats.Photos += len(result.Records[i].Photos)
		}
		if !result.FinishedAt.IsZero() {
			stats.Duration = result.FinishedAt.Sub(result.StartedAt).Seconds()
		}
	}
	return stats
}
