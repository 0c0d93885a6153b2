package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// JoinURL 拼接站点根地址与路径
func JoinURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// BuildDetailURL 构造详情页地址
// detailPath 形如 /detail/ms_detail.do?cotid=%s
func BuildDetailURL(baseURL, detailPath, id string) string {
	return JoinURL(baseURL, fmt.Sprintf(detailPath, url.QueryEscape(id)))
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}
