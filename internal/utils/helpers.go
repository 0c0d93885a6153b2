package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir 确保文件所在目录存在
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
	}
	return nil
}

// MarshalIndent 缩进2格输出JSON,不转义 <>& 和非ASCII字符
func MarshalIndent(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSONFile 把 v 写成缩进的JSON文件
func WriteJSONFile(path string, v interface{}) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := MarshalIndent(v)
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入文件失败 [%s]: %w", path, err)
	}

	Debugf("已写入: %s (%d 字节)", path, len(data))
	return nil
}
