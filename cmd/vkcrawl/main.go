package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/core"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string
	validateConfig bool

	// 爬取参数
	count     int
	maxClicks int
	headless  bool
	output    string
	fetchMode string
	region    string
	idsFile   string
	pgDSN     string
)

// appConfig 由 PersistentPreRunE 加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "vkcrawl",
	Short: "visitkorea 列表与详情页抓取工具",
	Long: `vkcrawl - visitkorea.or.kr 列表与详情页抓取工具

流程:
  • 打开列表页,关闭弹窗,反复点击"더보기"展开全部条目
  • 提取条目标识并保存到 <output>_ids.json
  • 逐个打开详情页,切换到"상세정보"标签,提取字段和照片
  • 导出 <output>.json 和 <output>.csv (UTF-8 BOM)

示例:
  # 抓取前10个条目
  vkcrawl

  # 抓取50个条目,无头模式,只看首尔
  vkcrawl -c 50 --headless --region 서울 -o data/seoul

  # 复用已保存的标识,直接请求详情页
  vkcrawl --ids-file visitkorea_data_ids.json --fetch-mode static -c 100

  # 验证配置和HTTP头部
  vkcrawl --validate-config -H "Referer: https://korean.visitkorea.or.kr/"

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		switch {
		case logLevel != "":
			logConfig.Level = logLevel
		case verbose:
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ValidateFlags(cmd.Flags()); err != nil {
			return err
		}

		appConfig.MergeCLIFlags(cliOverrides(cmd))
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("参数无效: %w", err)
		}

		headerManager, err := core.NewHeaderManager(appConfig.HTTP.UserAgent, appConfig.HTTP.Headers, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		if validateConfig {
			return runValidateConfig(headerManager)
		}

		// Ctrl+C: 当前条目完成后停止,仍然写出结果
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		crawler := core.NewCrawler(appConfig, headerManager)
		if _, err := crawler.Run(ctx); err != nil {
			return fmt.Errorf("抓取失败: %w", err)
		}

		utils.Info("✨ 抓取任务完成!")
		return nil
	},
}

// cliOverrides 只收集用户显式指定的参数
func cliOverrides(cmd *cobra.Command) core.CLIOverrides {
	flags := cmd.Flags()
	var o core.CLIOverrides

	if flags.Changed("count") {
		o.Count = &count
	}
	if flags.Changed("max-clicks") {
		o.MaxClicks = &maxClicks
	}
	if flags.Changed("headless") {
		o.Headless = &headless
	}
	if flags.Changed("output") {
		o.Output = &output
	}
	if flags.Changed("fetch-mode") {
		o.FetchMode = &fetchMode
	}
	if flags.Changed("region") {
		o.Region = &region
	}
	if flags.Changed("ids-file") {
		o.IDsFile = &idsFile
	}
	if flags.Changed("pg-dsn") {
		o.PgDSN = &pgDSN
	}
	return o
}

func runValidateConfig(hm *core.HeaderManager) error {
	utils.Info("🔍 验证配置...")
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safeHeaders := hm.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("列表页: %s", appConfig.Site.ListingURL())
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vkcrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数 (-c 用于 --count)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 爬取参数
	rootCmd.Flags().IntVarP(&count, "count", "c", 10, "抓取条目数")
	rootCmd.Flags().IntVarP(&maxClicks, "max-clicks", "m", 1000, "最大\"더보기\"点击次数")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "无头浏览器模式")
	rootCmd.Flags().StringVarP(&output, "output", "o", "visitkorea_data", "输出文件名 (不含扩展名)")
	rootCmd.Flags().StringVar(&fetchMode, "fetch-mode", "browser", "详情获取方式 (browser|static)")
	rootCmd.Flags().StringVar(&region, "region", "", "地区筛选,如 서울 (默认不筛选)")
	rootCmd.Flags().StringVar(&idsFile, "ids-file", "", "复用已保存的标识文件,跳过列表页")
	rootCmd.Flags().StringVar(&pgDSN, "pg-dsn", "", "Postgres连接串,设置后同时写入数据库")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
