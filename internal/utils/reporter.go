package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

// SaveReport 保存运行报告
func SaveReport(report *models.RunReport, path string) error {
	if err := WriteJSONFile(path, report); err != nil {
		return fmt.Errorf("保存运行报告失败: %w", err)
	}
	Infof("📊 运行报告已保存: %s", path)
	return nil
}

// NewTable 创建统一样式的表格
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// PrintSummary 输出运行统计
func PrintSummary(out io.Writer, report *models.RunReport) {
	t := NewTable(out)
	t.SetTitle("抓取统计")
	t.AppendRows([]table.Row{
		{"运行ID", report.RunID},
		{"获取方式", report.FetchMode},
		{"发现标识", report.Stats.IDsFound},
		{"\"더보기\"点击", report.Stats.ExpandClicks},
		{"请求条目", report.Stats.Requested},
		{"成功", report.Stats.Succeeded},
		{"失败", report.Stats.Failed},
		{"照片URL", report.Stats.Photos},
		{"耗时(秒)", fmt.Sprintf("%.1f", report.Stats.Duration)},
	})
	if report.Outputs.JSON != "" {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"标识文件", report.Outputs.IDs},
			{"JSON", report.Outputs.JSON},
			{"CSV", report.Outputs.CSV},
		})
	}
	t.Render()
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
