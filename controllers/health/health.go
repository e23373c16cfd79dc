package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker 组件检查函数，返回 nil 表示正常
type Checker func(ctx context.Context) error

type component struct {
	name     string
	required bool
	check    Checker
}

// ComponentStatus 组件状态
type ComponentStatus struct {
	Status   string `json:"status"`
	Required bool   `json:"required"`
	Latency  string `json:"latency"`
	Error    string `json:"error,omitempty"`
}

// HealthController 健康检查控制器
type HealthController struct {
	service    string
	version    string
	startTime  time.Time
	timeout    time.Duration
	mu         sync.RWMutex
	components []component
	stats      func() map[string]interface{}
}

// NewHealthController 创建健康检查控制器
func NewHealthController(service, version string) *HealthController {
	return &HealthController{
		service:   service,
		version:   version,
		startTime: time.Now(),
		timeout:   3 * time.Second,
	}
}

// AddCheck registers a component. A failing required component makes the service not ready.
func (h *HealthController) AddCheck(name string, required bool, check Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components = append(h.components, component{name: name, required: required, check: check})
}

// SetStatsProvider 设置 /health/info 附带的运行统计
func (h *HealthController) SetStatsProvider(fn func() map[string]interface{}) {
	h.stats = fn
}

// CheckHealth 综合健康检查
func (h *HealthController) CheckHealth(c *gin.Context) {
	statuses, ready := h.run(c.Request.Context())

	status := "ok"
	if !ready {
		status = "unhealthy"
	} else {
		for _, s := range statuses {
			if s.Status != "up" {
				status = "degraded"
				break
			}
		}
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"service":    h.service,
		"version":    h.version,
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"timestamp":  time.Now().Unix(),
		"components": statuses,
	})
}

// CheckLiveness 存活性检查
func (h *HealthController) CheckLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// CheckReadiness 就绪性检查，只看必需组件
func (h *HealthController) CheckReadiness(c *gin.Context) {
	statuses, ready := h.run(c.Request.Context())
	if !ready {
		issues := make([]string, 0)
		for name, s := range statuses {
			if s.Required && s.Status != "up" {
				issues = append(issues, name+": "+s.Error)
			}
		}
		sort.Strings(issues)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"issues": issues,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}

// GetSystemInfo 获取系统信息
func (h *HealthController) GetSystemInfo(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := gin.H{
		"service": gin.H{
			"name":    h.service,
			"version": h.version,
			"mode":    gin.Mode(),
			"uptime":  time.Since(h.startTime).Round(time.Second).String(),
		},
		"system": gin.H{
			"go_version":    runtime.Version(),
			"num_cpu":       runtime.NumCPU(),
			"num_goroutine": runtime.NumGoroutine(),
		},
		"memory": gin.H{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		"timestamp": time.Now().Unix(),
	}
	if h.stats != nil {
		for k, v := range h.stats() {
			info[k] = v
		}
	}

	c.JSON(http.StatusOK, info)
}

func (h *HealthController) run(ctx context.Context) (map[string]ComponentStatus, bool) {
	h.mu.RLock()
	components := append([]component(nil), h.components...)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		statuses = make(map[string]ComponentStatus, len(components))
		ready    = true
	)
	for _, comp := range components {
		wg.Add(1)
		go func(comp component) {
			defer wg.Done()
			start := time.Now()
			err := comp.check(ctx)

			s := ComponentStatus{Status: "up", Required: comp.required, Latency: time.Since(start).String()}
			if err != nil {
				s.Status = "down"
				s.Error = err.Error()
			}

			mu.Lock()
			statuses[comp.name] = s
			if err != nil && comp.required {
				ready = false
			}
			mu.Unlock()
		}(comp)
	}
	wg.Wait()

	return statuses, ready
}

// bToMb 字节转MB
func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
