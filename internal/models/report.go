package models

import (
	"encoding/json"
	"time"
)

// RunReport 运行报告
type RunReport struct {
	// 运行信息
	RunID     string    `json:"run_id"`
	ListURL   string    `json:"list_url"`
	FetchMode FetchMode `json:"fetch_mode"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats CrawlStats `json:"stats"`

	// 失败条目
	FailedItems []FailedItem `json:"failed_items"`

	// 运行环境
	Memory *MemorySnapshot `json:"memory,omitempty"`

	// 输出文件
	Outputs OutputFiles `json:"outputs"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// FailedItem 失败条目信息
type FailedItem struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	ErrorMsg string `json:"error_msg"`
}

// MemorySnapshot 主机内存快照
type MemorySnapshot struct {
	TotalMB     uint64  `json:"total_mb"`
	AvailableMB uint64  `json:"available_mb"`
	UsedPercent float64 `json:"used_percent"`
	Pressure    string  `json:"pressure"` // normal, warning, critical, emergency
}

// OutputFiles 输出文件路径
type OutputFiles struct {
	IDs    string `json:"ids,omitempty"`
	JSON   string `json:"json,omitempty"`
	CSV    string `json:"csv,omitempty"`
	Report string `json:"report,omitempty"`
}

// NewRunReport 根据结果生成报告
func NewRunReport(result *CrawlResult, stats CrawlStats, config CrawlConfig) *RunReport {
	report := &RunReport{
		RunID:       result.RunID,
		FetchMode:   config.FetchMode,
		StartTime:   result.StartedAt,
		EndTime:     result.FinishedAt,
		Stats:       stats,
		FailedItems: make([]FailedItem, 0),
		Config:      config,
	}
	if !report.EndTime.IsZero() {
		report.Duration = report.EndTime.Sub(report.StartTime).Seconds()
	}
	for _, rec := range result.Records {
		if rec.Failed() {
			report.FailedItems = append(report.FailedItems, FailedItem{
				ID:       rec.ID,
				URL:      rec.URL,
				ErrorMsg: rec.Error,
			})
		}
	}
	return report
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
