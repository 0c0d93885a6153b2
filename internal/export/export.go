// Package export 把抓取结果写成JSON、CSV和标识列表文件
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

// utf8BOM Excel按UTF-8打开CSV需要BOM
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Paths 一次运行的输出文件
type Paths struct {
	IDs    string
	JSON   string
	CSV    string
	Report string
}

// OutputPaths 根据目录和基础名生成输出路径
func OutputPaths(dir, baseName string) Paths {
	base := filepath.Join(dir, baseName)
	return Paths{
		IDs:    base + "_ids.json",
		JSON:   base + ".json",
		CSV:    base + ".csv",
		Report: base + "_report.json",
	}
}

// Files 转换为报告中的输出文件
func (p Paths) Files() models.OutputFiles {
	return models.OutputFiles{IDs: p.IDs, JSON: p.JSON, CSV: p.CSV, Report: p.Report}
}

// WriteIDs 保存发现的标识列表
func WriteIDs(path string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := utils.WriteJSONFile(path, ids); err != nil {
		return err
	}
	utils.Infof("💾 标识列表已保存: %s (%d个)", path, len(ids))
	return nil
}

// LoadIDs 读取之前保存的标识列表,去重并保持顺序
func LoadIDs(path string) ([]models.ItemRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取标识文件失败: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("解析标识文件失败 [%s]: %w", path, err)
	}

	session := models.NewListingSession("")
	for _, id := range ids {
		session.Add(models.ItemRef{ID: id, Name: models.DefaultItemName})
	}

	utils.Infof("📂 从 %s 加载了 %d 个标识", path, session.Len())
	return session.Items(), nil
}

// WriteJSON 写出嵌套JSON,每条记录一个对象
func WriteJSON(path string, result *models.CrawlResult) error {
	records := []models.DetailRecord{}
	if result != nil && result.Records != nil {
		records = result.Records
	}
	return utils.WriteJSONFile(path, records)
}

// WriteCSV 写出表格,列为固定列加所有字段标签的并集
func WriteCSV(path string, result *models.CrawlResult) error {
	if err := utils.EnsureDir(path); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	header, labels, withError := Columns(result)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("写入CSV表头失败: %w", err)
	}

	if result != nil {
		for i := range result.Records {
			row, err := csvRow(&result.Records[i], labels, withError)
			if err != nil {
				return err
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("写入CSV行失败: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("写入文件失败 [%s]: %w", path, err)
	}
	return nil
}

// Columns 返回CSV表头、字段标签和是否包含 error 列
func Columns(result *models.CrawlResult) (header, labels []string, withError bool) {
	labels = result.FieldLabels()
	withError = result.Failed() > 0

	header = []string{"id", "name", "url", "photo_urls"}
	header = append(header, models.ColumnNames(labels)...)
	if withError {
		header = append(header, "error")
	}
	return header, labels, withError
}

func csvRow(rec *models.DetailRecord, labels []string, withError bool) ([]string, error) {
	photos := rec.Photos
	if photos == nil {
		photos = []string{}
	}
	photoCell, err := compactJSON(photos)
	if err != nil {
		return nil, fmt.Errorf("序列化照片列表失败: %w", err)
	}

	row := make([]string, 0, 4+len(labels)+1)
	row = append(row, rec.ID, rec.Name, rec.URL, string(photoCell))
	for _, label := range labels {
		value, _ := rec.Fields.Get(label)
		row = append(row, value)
	}
	if withError {
		row = append(row, rec.Error)
	}
	return row, nil
}

// compactJSON 单行JSON,不转义 <>&
func compactJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Export 写出JSON和CSV
func Export(paths Paths, result *models.CrawlResult) error {
	if err := WriteJSON(paths.JSON, result); err != nil {
		return err
	}
	if err := WriteCSV(paths.CSV, result); err != nil {
		return err
	}
	utils.Infof("💾 已导出 %d 条记录: %s, %s", result.Len(), paths.JSON, paths.CSV)
	return nil
}
