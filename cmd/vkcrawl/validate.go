package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
)

// ValidateFlags 验证命令行标志
// 只检查用户显式指定的参数,配置文件中的值由 Config.Validate 检查
func ValidateFlags(flags *pflag.FlagSet) error {
	if flags.Changed("count") {
		v, _ := flags.GetInt("count")
		if v < 0 {
			return fmt.Errorf("抓取数量不能为负数,当前值: %d", v)
		}
	}

	if flags.Changed("max-clicks") {
		v, _ := flags.GetInt("max-clicks")
		if v < 0 || v > 100000 {
			return fmt.Errorf("最大点击次数必须在0-100000之间,当前值: %d", v)
		}
	}

	if flags.Changed("fetch-mode") {
		v, _ := flags.GetString("fetch-mode")
		switch models.FetchMode(v) {
		case models.FetchBrowser, models.FetchStatic:
		default:
			return fmt.Errorf("无效的获取方式: %s (有效值: browser, static)", v)
		}
	}

	if flags.Changed("output") {
		v, _ := flags.GetString("output")
		if strings.TrimSpace(v) == "" || strings.HasSuffix(v, "/") {
			return fmt.Errorf("输出文件名不能为空: %q", v)
		}
	}

	if flags.Changed("region") {
		v, _ := flags.GetString("region")
		if strings.ContainsAny(v, `'"`) {
			return fmt.Errorf("地区名称不能包含引号: %s", v)
		}
	}

	if flags.Changed("ids-file") {
		v, _ := flags.GetString("ids-file")
		if err := ValidateIDsFile(v); err != nil {
			return err
		}
	}

	return nil
}

// ValidateIDsFile 检查标识文件存在
func ValidateIDsFile(path string) error {
	if path == "" {
		return fmt.Errorf("标识文件路径不能为空")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("标识文件不可用: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("标识文件路径是目录: %s", path)
	}
	return nil
}
