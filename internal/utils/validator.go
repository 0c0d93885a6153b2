package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

// MaxHeaderValueLength HTTP头部值最大长度 (8KB)
const MaxHeaderValueLength = 8192

var (
	headerNamePattern  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	headerValuePattern = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// ForbiddenHeaders 由浏览器或HTTP客户端管理的头部
// Accept-Encoding 由静态获取器自行设置,否则无法保证能解码响应
var ForbiddenHeaders = []string{
	"Host",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
	"Accept-Encoding",
}

// HeaderValidator 验证自定义HTTP头部
type HeaderValidator struct {
	forbidden map[string]bool
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	forbidden := make(map[string]bool, len(ForbiddenHeaders))
	for _, h := range ForbiddenHeaders {
		forbidden[http.CanonicalHeaderKey(h)] = true
	}
	return &HeaderValidator{forbidden: forbidden}
}

// IsForbidden 检查头部是否被禁止
func (hv *HeaderValidator) IsForbidden(name string) bool {
	return hv.forbidden[http.CanonicalHeaderKey(name)]
}

// ValidateHeader 验证单个头部
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	switch {
	case name == "":
		return &models.ValidationError{Field: "name", Reason: "头部名称不能为空"}
	case hv.IsForbidden(name):
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "此头部由浏览器或HTTP客户端管理,不允许自定义",
			Suggestion: fmt.Sprintf("移除 '%s' 头部配置", name),
		}
	case !headerNamePattern.MatchString(name):
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "头部名称包含非法字符 (仅允许字母、数字和连字符)",
			Suggestion: "如 'Referer', 'X-Custom-Header'",
		}
	case len(value) > MaxHeaderValueLength:
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), MaxHeaderValueLength),
		}
	case !headerValuePattern.MatchString(value):
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "头部值包含非法字符 (仅允许可打印ASCII字符)",
			Suggestion: "非ASCII内容请先进行URL编码",
		}
	}
	return nil
}

// Validate 验证全部头部,按名称排序后返回第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// SensitiveKeywords 敏感头部名称关键字
var SensitiveKeywords = []string{
	"authorization",
	"cookie",
	"token",
	"key",
	"secret",
	"password",
	"credential",
}

// IsSensitiveHeader 根据名称关键字判断是否需要脱敏
func IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range SensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
func RedactHeaderValue(name, value string) string {
	if !IsSensitiveHeader(name) {
		return value
	}
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// RedactHeaders 返回脱敏后的头部,只保留每个头部的第一个值
func RedactHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		result[name] = RedactHeaderValue(name, values[0])
	}
	return result
}
