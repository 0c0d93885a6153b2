package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig `mapstructure:"crawl"`
	Site    SiteConfig         `mapstructure:"site"`
	Delays  models.Delays      `mapstructure:"delays"`
	Expand  ExpandConfig       `mapstructure:"expand"`
	Browser BrowserConfig      `mapstructure:"browser"`
	HTTP    HTTPConfig         `mapstructure:"http"`
	Output  OutputConfig       `mapstructure:"output"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Storage StorageConfig      `mapstructure:"storage"`
}

// SiteConfig 站点地址
type SiteConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	ListingPath string `mapstructure:"listing_path"`
	DetailPath  string `mapstructure:"detail_path"`
}

// ListingURL 列表页完整地址
func (s SiteConfig) ListingURL() string {
	return models.JoinURL(s.BaseURL, s.ListingPath)
}

// ExpandConfig 列表展开配置
type ExpandConfig struct {
	ScrollOffset        int  `mapstructure:"scroll_offset"`
	StopOnFallbackError bool `mapstructure:"stop_on_fallback_error"`
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Bin             string        `mapstructure:"bin"`
	NoSandbox       bool          `mapstructure:"no_sandbox"`
	WindowWidth     int           `mapstructure:"window_width"`
	WindowHeight    int           `mapstructure:"window_height"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout"` // 导航并等待 load 的上限
}

// HTTPConfig 请求头部和静态模式超时
type HTTPConfig struct {
	UserAgent string            `mapstructure:"user_agent"`
	Headers   map[string]string `mapstructure:"headers"`
	Timeout   time.Duration     `mapstructure:"timeout"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	BaseName string `mapstructure:"base_name"`
	Preview  int    `mapstructure:"preview"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// StorageConfig 可选的Postgres存储
type StorageConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn"`
	Table       string `mapstructure:"table"`
	BatchSize   int    `mapstructure:"batch_size"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".vkcrawl"))
		}
	}

	// 环境变量: VKCRAWL_CRAWL_COUNT, VKCRAWL_STORAGE_POSTGRES_DSN ...
	v.SetEnvPrefix("VKCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.count", 10)
	v.SetDefault("crawl.max_clicks", 1000)
	v.SetDefault("crawl.headless", false)
	v.SetDefault("crawl.fetch_mode", string(models.FetchBrowser))
	v.SetDefault("crawl.region", "")

	// 站点默认值
	v.SetDefault("site.base_url", "https://korean.visitkorea.or.kr")
	v.SetDefault("site.listing_path", "/main/area_list.do?type=Place")
	v.SetDefault("site.detail_path", "/detail/ms_detail.do?cotid=%s")

	// 延迟默认值
	d := models.DefaultDelays()
	v.SetDefault("delays.popup_wait", d.PopupWait)
	v.SetDefault("delays.popup_consent_settle", d.PopupConsentSettle)
	v.SetDefault("delays.popup_close_settle", d.PopupCloseSettle)
	v.SetDefault("delays.listing_wait", d.ListingWait)
	v.SetDefault("delays.after_popups", d.AfterPopups)
	v.SetDefault("delays.scroll_settle", d.ScrollSettle)
	v.SetDefault("delays.expand_settle", d.ExpandSettle)
	v.SetDefault("delays.expand_retry", d.ExpandRetry)
	v.SetDefault("delays.detail_settle", d.DetailSettle)
	v.SetDefault("delays.tab_settle", d.TabSettle)
	v.SetDefault("delays.item_pacing", d.ItemPacing)
	v.SetDefault("delays.region_settle", d.RegionSettle)

	// 展开默认值
	v.SetDefault("expand.scroll_offset", 1000)
	v.SetDefault("expand.stop_on_fallback_error", true)

	// 浏览器默认值
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.navigate_timeout", 30*time.Second)

	// HTTP默认值
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.headers", map[string]string{})
	v.SetDefault("http.timeout", 30*time.Second)

	// 输出默认值
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.base_name", "visitkorea_data")
	v.SetDefault("output.preview", 2)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 存储默认值
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.table", "visitkorea_items")
	v.SetDefault("storage.batch_size", 100)
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if err := models.ValidateURL(c.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url无效: %w", err)
	}
	if strings.Count(c.Site.DetailPath, "%s") != 1 {
		return fmt.Errorf("site.detail_path必须包含一个%%s: %s", c.Site.DetailPath)
	}
	if c.Browser.NavigateTimeout < 0 {
		return fmt.Errorf("browser.navigate_timeout不能为负数: %s", c.Browser.NavigateTimeout)
	}
	if c.Output.BaseName == "" {
		return fmt.Errorf("output.base_name不能为空")
	}
	return nil
}

// CLIOverrides 命令行参数,nil表示未指定
type CLIOverrides struct {
	Count     *int
	MaxClicks *int
	Headless  *bool
	Output    *string
	FetchMode *string
	Region    *string
	IDsFile   *string
	LogLevel  *string
	PgDSN     *string
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.Count != nil {
		c.Crawl.Count = *o.Count
	}
	if o.MaxClicks != nil {
		c.Crawl.MaxClicks = *o.MaxClicks
	}
	if o.Headless != nil {
		c.Crawl.Headless = *o.Headless
	}
	if o.Output != nil && *o.Output != "" {
		dir, base := filepath.Split(*o.Output)
		if dir != "" {
			c.Output.Dir = filepath.Clean(dir)
		}
		c.Output.BaseName = base
	}
	if o.FetchMode != nil {
		c.Crawl.FetchMode = models.FetchMode(*o.FetchMode)
	}
	if o.Region != nil {
		c.Crawl.Region = *o.Region
	}
	if o.IDsFile != nil {
		c.Crawl.IDsFile = *o.IDsFile
	}
	if o.LogLevel != nil && *o.LogLevel != "" {
		c.Logging.Level = *o.LogLevel
	}
	if o.PgDSN != nil && *o.PgDSN != "" {
		c.Storage.PostgresDSN = *o.PgDSN
	}
}

// SiteOptions 转换为抓取组件使用的站点参数
func (c *Config) SiteOptions() crawlers.SiteOptions {
	return crawlers.SiteOptions{
		BaseURL:    c.Site.BaseURL,
		DetailPath: c.Site.DetailPath,
	}
}

// BrowserOptions 转换为浏览器启动参数
func (c *Config) BrowserOptions() crawlers.BrowserOptions {
	return crawlers.BrowserOptions{
		Headless:     c.Crawl.Headless,
		NoSandbox:    c.Browser.NoSandbox,
		Bin:          c.Browser.Bin,
		WindowWidth:  c.Browser.WindowWidth,
		WindowHeight: c.Browser.WindowHeight,

		NavigateTimeout: c.Browser.NavigateTimeout,
	}
}

// ListingOptions 转换为列表页参数
func (c *Config) ListingOptions() crawlers.ListingOptions {
	return crawlers.ListingOptions{
		URL:                 c.Site.ListingURL(),
		MaxClicks:           c.Crawl.MaxClicks,
		Region:              c.Crawl.Region,
		ScrollOffset:        c.Expand.ScrollOffset,
		StopOnFallbackError: c.Expand.StopOnFallbackError,
		Delays:              c.Delays,
	}
}
