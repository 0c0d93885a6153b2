package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func initTestLogger(t *testing.T, level string) (string, *bytes.Buffer) {
	t.Helper()
	tempDir := t.TempDir()
	console := &bytes.Buffer{}

	config := LogConfig{
		Level:      level,
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
		Console:    console,
	}

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	t.Cleanup(func() {
		Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	return tempDir, console
}

func TestInitLogger(t *testing.T) {
	tempDir, _ := initTestLogger(t, "debug")

	Info("测试信息日志")
	Warn("测试警告日志")
	Debug("测试调试日志")

	mainLogPath := filepath.Join(tempDir, MainLogFile)
	if _, err := os.Stat(mainLogPath); os.IsNotExist(err) {
		t.Errorf("主日志文件未创建: %s", mainLogPath)
	}
}

func TestLogLevels(t *testing.T) {
	tempDir, console := initTestLogger(t, "info")

	Infof("格式化信息日志: %s", "测试")
	Warnf("格式化警告日志: %d", 123)
	Debugf("格式化调试日志: %v", true)

	content, err := os.ReadFile(filepath.Join(tempDir, MainLogFile))
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}

	if !strings.Contains(string(content), "格式化信息日志: 测试") {
		t.Error("信息日志未写入")
	}
	if strings.Contains(string(content), "格式化调试日志") {
		t.Error("info级别不应写入调试日志")
	}
	if !strings.Contains(console.String(), "格式化警告日志: 123") {
		t.Error("控制台未输出警告日志")
	}
}

func TestErrorLogFiltered(t *testing.T) {
	tempDir, _ := initTestLogger(t, "info")

	Info("普通信息不进入错误日志")
	Error(errors.New("连接被重置"), "详情页请求失败")
	Errorf("条目 %s 解析失败", "abc-123")

	content, err := os.ReadFile(filepath.Join(tempDir, ErrorLogFile))
	if err != nil {
		t.Fatalf("读取错误日志失败: %v", err)
	}

	text := string(content)
	if strings.Contains(text, "普通信息不进入错误日志") {
		t.Error("错误日志中出现了info级别日志")
	}
	if !strings.Contains(text, "详情页请求失败") || !strings.Contains(text, "abc-123") {
		t.Errorf("错误日志缺少错误条目: %s", text)
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}

func TestChineseLogOutput(t *testing.T) {
	tempDir, _ := initTestLogger(t, "info")

	chineseMsg := "이름 없음 / 这是一条中文日志消息"
	Info(chineseMsg)

	content, err := os.ReadFile(filepath.Join(tempDir, MainLogFile))
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(content), chineseMsg) {
		t.Errorf("日志未包含原始消息: %s", content)
	}
}

func TestItemLogger(t *testing.T) {
	tempDir, _ := initTestLogger(t, "info")

	logger := ItemLogger("abc-123", 2, 5)
	logger.Error().Str("url", "https://a.example/detail").Msg("详情页请求失败")

	for _, name := range []string{MainLogFile, ErrorLogFile} {
		content, err := os.ReadFile(filepath.Join(tempDir, name))
		if err != nil {
			t.Fatalf("读取日志文件失败: %v", err)
		}
		text := string(content)
		for _, want := range []string{`"item":"abc-123"`, `"index":2`, `"total":5`} {
			if !strings.Contains(text, want) {
				t.Errorf("%s 缺少字段 %s: %s", name, want, text)
			}
		}
	}
}
