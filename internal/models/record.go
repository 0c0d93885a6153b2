package models

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	DefaultItemName = "이름 없음" // 列表卡片缺少名称时的占位
	UntitledName    = "제목 없음" // 详情页缺少标题时的占位
	ErrorItemName   = "오류"    // 失败记录的名称
)

// 导出时固定在字段前面的列
var reservedColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"url":        true,
	"photo_urls": true,
	"error":      true,
}

// ColumnNames 返回各字段标签在导出结果中的列名,与 labels 一一对应
// 与固定列重名的标签加 field_ 前缀,前缀后仍重名时继续加,保证列名唯一
func ColumnNames(labels []string) []string {
	taken := make(map[string]bool, len(reservedColumns)+len(labels))
	for name := range reservedColumns {
		taken[name] = true
	}
	for _, label := range labels {
		if !reservedColumns[label] {
			taken[label] = true
		}
	}

	names := make([]string, len(labels))
	for i, label := range labels {
		if !reservedColumns[label] {
			names[i] = label
			continue
		}
		name := "field_" + label
		for taken[name] {
			name = "field_" + name
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// ItemRef 列表页中发现的一个条目
type ItemRef struct {
	ID   string `json:"id"`   // 详情页标识 (cotid)
	Name string `json:"name"` // 显示名称,仅用于日志
}

// ListingSession 一次列表页访问的状态
// 标识按首次出现顺序保存,同一标识只保留一次
type ListingSession struct {
	BaseURL string
	Clicks  int // 已执行的"더보기"点击次数

	items []ItemRef
	seen  map[string]struct{}
}

// NewListingSession 创建列表会话
func NewListingSession(baseURL string) *ListingSession {
	return &ListingSession{
		BaseURL: baseURL,
		seen:    make(map[string]struct{}),
	}
}

// Add 添加条目,已存在时返回false
func (s *ListingSession) Add(ref ItemRef) bool {
	if ref.ID == "" {
		return false
	}
	if _, ok := s.seen[ref.ID]; ok {
		return false
	}
	s.seen[ref.ID] = struct{}{}
	s.items = append(s.items, ref)
	return true
}

// Items 返回条目副本
func (s *ListingSession) Items() []ItemRef {
	out := make([]ItemRef, len(s.items))
	copy(out, s.items)
	return out
}

// IDs 返回标识列表
func (s *ListingSession) IDs() []string {
	ids := make([]string, 0, len(s.items))
	for _, item := range s.items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Len 条目数量
func (s *ListingSession) Len() int {
	return len(s.items)
}

// FieldMap 保持插入顺序的 标签→值 映射
// 重复标签覆盖旧值但保留首次出现的位置
type FieldMap struct {
	keys   []string
	values map[string]string
}

// Set 设置字段
func (m *FieldMap) Set(label, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[label]; !ok {
		m.keys = append(m.keys, label)
	}
	m.values[label] = value
}

// Get 读取字段
func (m *FieldMap) Get(label string) (string, bool) {
	v, ok := m.values[label]
	return v, ok
}

// Keys 按插入顺序返回标签
func (m *FieldMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len 字段数量
func (m *FieldMap) Len() int {
	return len(m.keys)
}

// Map 转换为普通map
func (m *FieldMap) Map() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MarshalJSON 按插入顺序输出对象
func (m FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKeyValue(&buf, key, m.values[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DetailRecord 一个条目的抓取结果
// Error 非空时 Fields/Photos 可能不完整,但 ID 和 URL 一定存在
type DetailRecord struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Photos []string `json:"photo_urls"`
	Fields FieldMap `json:"-"`
	Error  string   `json:"error,omitempty"`
}

// NewErrorRecord 创建失败记录
func NewErrorRecord(id, url string, err error) DetailRecord {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return DetailRecord{
		ID:    id,
		Name:  ErrorItemName,
		URL:   url,
		Error: msg,
	}
}

// Failed 是否为失败记录
func (r *DetailRecord) Failed() bool {
	return r.Error != ""
}

// MarshalJSON 输出嵌套形式: 固定键在前,字段内联,error 在最后
func (r DetailRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeKeyValue(&buf, "id", r.ID); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeKeyValue(&buf, "name", r.Name); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeKeyValue(&buf, "url", r.URL); err != nil {
		return nil, err
	}

	// 失败记录与原始格式一致,不输出空的照片列表
	if !r.Failed() || len(r.Photos) > 0 {
		photos := r.Photos
		if photos == nil {
			photos = []string{}
		}
		buf.WriteByte(',')
		if err := writeKeyValue(&buf, "photo_urls", photos); err != nil {
			return nil, err
		}
	}

	names := ColumnNames(r.Fields.keys)
	for i, label := range r.Fields.keys {
		buf.WriteByte(',')
		if err := writeKeyValue(&buf, names[i], r.Fields.values[label]); err != nil {
			return nil, err
		}
	}

	if r.Failed() {
		buf.WriteByte(',')
		if err := writeKeyValue(&buf, "error", r.Error); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKeyValue(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := marshalNoEscape(key)
	if err != nil {
		return err
	}
	v, err := marshalNoEscape(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// marshalNoEscape 序列化但不转义 & < >,照片URL中的 & 保持原样
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// CrawlResult 一次运行的结果集合,顺序与请求的标识一致
type CrawlResult struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Records    []DetailRecord `json:"records"`
}

// NewCrawlResult 创建结果集合
func NewCrawlResult(capacity int) *CrawlResult {
	return &CrawlResult{
		RunID:     generateID(),
		StartedAt: time.Now(),
		Records:   make([]DetailRecord, 0, capacity),
	}
}

// Append 追加记录
func (r *CrawlResult) Append(rec DetailRecord) {
	r.Records = append(r.Records, rec)
}

// Len 记录数量
func (r *CrawlResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// Failed 失败记录数量
func (r *CrawlResult) Failed() int {
	if r == nil {
		return 0
	}
	n := 0
	for i := range r.Records {
		if r.Records[i].Failed() {
			n++
		}
	}
	return n
}

// Succeeded 成功记录数量
func (r *CrawlResult) Succeeded() int {
	return r.Len() - r.Failed()
}

// FieldLabels 所有记录的字段标签并集,按首次出现顺序
func (r *CrawlResult) FieldLabels() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool)
	var labels []string
	for i := range r.Records {
		for _, label := range r.Records[i].Fields.keys {
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	return labels
}
