package crawlers

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/models"
	"github.com/RecoveryAshes/VisitKoreaCrawl/internal/utils"
)

const mb = 1024 * 1024

// SnapshotMemory 读取主机内存状态
func SnapshotMemory() (*models.MemorySnapshot, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("读取系统内存失败: %w", err)
	}

	return &models.MemorySnapshot{
		TotalMB:     vm.Total / mb,
		AvailableMB: vm.Available / mb,
		UsedPercent: vm.UsedPercent,
		Pressure:    MemoryPressure(vm.Available / mb),
	}, nil
}

// MemoryPressure 按可用内存划分压力等级
func MemoryPressure(availableMB uint64) string {
	switch {
	case availableMB < 200:
		return "emergency"
	case availableMB < 300:
		return "critical"
	case availableMB < 500:
		return "warning"
	default:
		return "normal"
	}
}

// CheckResources 启动浏览器前检查内存,压力过高时只告警不阻止运行
func CheckResources() *models.MemorySnapshot {
	snapshot, err := SnapshotMemory()
	if err != nil {
		utils.Warnf("获取内存状态失败: %v", err)
		return nil
	}

	utils.Debugf("系统内存: 总计 %d MB, 可用 %d MB (%.1f%% 已用)",
		snapshot.TotalMB, snapshot.AvailableMB, snapshot.UsedPercent)

	switch snapshot.Pressure {
	case "emergency", "critical":
		utils.Errorf("可用内存严重不足(当前%dMB),浏览器可能崩溃", snapshot.AvailableMB)
	case "warning":
		utils.Warnf("可用内存不足(当前%dMB)", snapshot.AvailableMB)
	}

	return snapshot
}
