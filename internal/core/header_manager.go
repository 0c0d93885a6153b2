package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

const (
	// DefaultUserAgent 桌面Chrome的User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"

	// DefaultAcceptLanguage 站点内容为韩文
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// HeaderManager 管理HTTP请求头部
// 实现 models.HeaderProvider,浏览器会话和静态获取器共用
type HeaderManager struct {
	// defaults 系统默认头部
	defaults http.Header

	// config 配置文件 http.headers
	config http.Header

	// cli 命令行 -H
	cli http.Header

	validator *utils.HeaderValidator

	once     sync.Once
	merged   http.Header
	mergeErr error
}

// NewHeaderManager 创建头部管理器
// userAgent 为空时使用 DefaultUserAgent
func NewHeaderManager(userAgent string, configHeaders map[string]string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	config := make(http.Header, len(configHeaders))
	for name, value := range configHeaders {
		config.Set(name, value)
	}

	return &HeaderManager{
		defaults:  defaultHeaders(userAgent),
		config:    config,
		cli:       cli,
		validator: utils.NewHeaderValidator(),
	}, nil
}

func defaultHeaders(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return http.Header{
		"User-Agent":      []string{userAgent},
		"Accept-Language": []string{DefaultAcceptLanguage},
	}
}

// Validate 验证所有头部
// 验证顺序: 默认 → 配置 → 命令行
func (hm *HeaderManager) Validate() error {
	sources := []struct {
		name    string
		headers http.Header
	}{
		{"默认", hm.defaults},
		{"配置文件", hm.config},
		{"命令行", hm.cli},
	}

	for _, src := range sources {
		if err := hm.validator.Validate(src.headers); err != nil {
			utils.Errorf("%s头部验证失败: %v", src.name, err)
			return err
		}
	}

	utils.Debugf("所有HTTP头部验证通过")
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, src := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range src {
			result[name] = values
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的头部,用于日志
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return utils.RedactHeaders(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
// 首次调用时验证并合并,之后返回副本
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.once.Do(func() {
		if err := hm.Validate(); err != nil {
			hm.mergeErr = err
			return
		}
		hm.merged = hm.GetMergedHeaders()
		utils.Debugf("HTTP头部: %v", hm.GetSafeHeaders())
	})

	if hm.mergeErr != nil {
		return nil, hm.mergeErr
	}
	return hm.merged.Clone(), nil
}
