package metrics

import (
	"errors"
	"fmt"

	"agentcrew/internal/persona"
)

var ErrNoHealthProfile = errors.New("persona has no health profile")

var (
	possibleBottlenecks = []string{
		"Database query optimization needed",
		"API endpoint caching required",
		"Connection pooling configuration",
		"Memory allocation patterns",
	}
	performanceRecommendations = []string{
		"Implement Redis caching for frequently accessed data",
		"Optimize database indexes for common query patterns",
		"Use connection pooling for database connections",
		"Implement async processing for heavy operations",
	}
)

type PerformanceAnalysis struct {
	CurrentMetrics struct {
		AvgResponseTime string `json:"avgResponseTime" yaml:"avgResponseTime"`
		Throughput      string `json:"throughput" yaml:"throughput"`
		ErrorRate       string `json:"errorRate" yaml:"errorRate"`
		Uptime          string `json:"uptime" yaml:"uptime"`
	} `json:"currentMetrics" yaml:"currentMetrics"`
	Bottlenecks     []string `json:"bottlenecks" yaml:"bottlenecks"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

type DatabaseHealth struct {
	Connections struct {
		Active int `json:"active" yaml:"active"`
		Idle   int `json:"idle" yaml:"idle"`
		Max    int `json:"max" yaml:"max"`
	} `json:"connections" yaml:"connections"`
	Performance struct {
		AvgQueryTime  string `json:"avgQueryTime" yaml:"avgQueryTime"`
		SlowQueries   int    `json:"slowQueries" yaml:"slowQueries"`
		CacheHitRatio string `json:"cacheHitRatio" yaml:"cacheHitRatio"`
	} `json:"performance" yaml:"performance"`
	Storage struct {
		TotalSize string `json:"totalSize" yaml:"totalSize"`
		FreeSpace string `json:"freeSpace" yaml:"freeSpace"`
		Growth    string `json:"growth" yaml:"growth"`
	} `json:"storage" yaml:"storage"`
	Replication struct {
		Status string `json:"status" yaml:"status"`
		Lag    string `json:"lag" yaml:"lag"`
	} `json:"replication" yaml:"replication"`
}

type APIHealth struct {
	Endpoints struct {
		Total    int `json:"total" yaml:"total"`
		Healthy  int `json:"healthy" yaml:"healthy"`
		Degraded int `json:"degraded" yaml:"degraded"`
		Down     int `json:"down" yaml:"down"`
	} `json:"endpoints" yaml:"endpoints"`
	Performance struct {
		AvgResponseTime string `json:"avgResponseTime" yaml:"avgResponseTime"`
		P95ResponseTime string `json:"p95ResponseTime" yaml:"p95ResponseTime"`
		ErrorRate       string `json:"errorRate" yaml:"errorRate"`
		RequestRate     string `json:"requestRate" yaml:"requestRate"`
	} `json:"performance" yaml:"performance"`
	Security struct {
		AuthFailures       int    `json:"authFailures" yaml:"authFailures"`
		RateLimitHits      int    `json:"rateLimitHits" yaml:"rateLimitHits"`
		SuspiciousActivity int    `json:"suspiciousActivity" yaml:"suspiciousActivity"`
		LastSecurityScan   string `json:"lastSecurityScan" yaml:"lastSecurityScan"`
	} `json:"security" yaml:"security"`
}

type CloudHealth struct {
	Compute struct {
		CPUUtilization    string `json:"cpuUtilization" yaml:"cpuUtilization"`
		MemoryUtilization string `json:"memoryUtilization" yaml:"memoryUtilization"`
		ActiveInstances   int    `json:"activeInstances" yaml:"activeInstances"`
		AutoScalingEvents int    `json:"autoScalingEvents" yaml:"autoScalingEvents"`
	} `json:"compute" yaml:"compute"`
	Storage struct {
		UtilizationPercentage string `json:"utilizationPercentage" yaml:"utilizationPercentage"`
		IOPSPerformance       string `json:"iopsPerformance" yaml:"iopsPerformance"`
		BackupStatus          string `json:"backupStatus" yaml:"backupStatus"`
		Latency               string `json:"latency" yaml:"latency"`
	} `json:"storage" yaml:"storage"`
	Networking struct {
		Bandwidth   string `json:"bandwidth" yaml:"bandwidth"`
		Latency     string `json:"latency" yaml:"latency"`
		ErrorRate   string `json:"errorRate" yaml:"errorRate"`
		RequestRate string `json:"requestRate" yaml:"requestRate"`
	} `json:"networking" yaml:"networking"`
	Costs struct {
		CurrentMonth              string   `json:"currentMonth" yaml:"currentMonth"`
		ProjectedMonth            string   `json:"projectedMonth" yaml:"projectedMonth"`
		OptimizationOpportunities []string `json:"optimizationOpportunities" yaml:"optimizationOpportunities"`
	} `json:"costs" yaml:"costs"`
}

func (r *Reporter) Health(profile string) (any, error) {
	switch profile {
	case persona.HealthPerformance:
		return r.Performance(), nil
	case persona.HealthDatabase:
		return r.Database(), nil
	case persona.HealthAPI:
		return r.API(), nil
	case persona.HealthCloud:
		return r.Cloud(), nil
	case "":
		return nil, ErrNoHealthProfile
	default:
		return nil, fmt.Errorf("unknown health profile %q", profile)
	}
}

func (r *Reporter) Performance() PerformanceAnalysis {
	var a PerformanceAnalysis
	a.CurrentMetrics.AvgResponseTime = fmt.Sprintf("%dms", r.source.Int("avgResponseTime", 50, 150))
	a.CurrentMetrics.Throughput = fmt.Sprintf("%d req/sec", r.source.Int("throughput", 500, 1500))
	a.CurrentMetrics.ErrorRate = fmt.Sprintf("%.2f%%", r.source.Float("errorRate", 0, 0.5))
	a.CurrentMetrics.Uptime = fmt.Sprintf("99.%d%d%%", r.source.Int("uptimeTenths", 0, 9), r.source.Int("uptimeHundredths", 0, 9))
	n := clamp(r.source.Int("bottlenecks", 1, 4), 0, len(possibleBottlenecks))
	a.Bottlenecks = append([]string{}, possibleBottlenecks[:n]...)
	a.Recommendations = append([]string{}, performanceRecommendations...)
	return a
}

func (r *Reporter) Database() DatabaseHealth {
	var h DatabaseHealth
	h.Connections.Active = r.source.Int("activeConnections", 10, 60)
	h.Connections.Idle = r.source.Int("idleConnections", 5, 25)
	h.Connections.Max = 100
	h.Performance.AvgQueryTime = fmt.Sprintf("%dms", r.source.Int("avgQueryTime", 50, 150))
	h.Performance.SlowQueries = r.source.Int("slowQueries", 0, 5)
	h.Performance.CacheHitRatio = fmt.Sprintf("%.2f", r.source.Float("cacheHitRatio", 0.85, 0.95))
	h.Storage.TotalSize = "45.7 GB"
	h.Storage.FreeSpace = "156.3 GB"
	h.Storage.Growth = "+2.3 GB/month"
	h.Replication.Status = "healthy"
	h.Replication.Lag = fmt.Sprintf("%dms", r.source.Int("replicationLag", 0, 100))
	return h
}

func (r *Reporter) API() APIHealth {
	var h APIHealth
	h.Endpoints.Total = r.source.Int("endpointsTotal", 20, 70)
	h.Endpoints.Healthy = r.source.Int("endpointsHealthy", 15, 60)
	h.Endpoints.Degraded = r.source.Int("endpointsDegraded", 0, 5)
	h.Endpoints.Down = r.source.Int("endpointsDown", 0, 2)
	h.Performance.AvgResponseTime = fmt.Sprintf("%dms", r.source.Int("avgResponseTime", 50, 250))
	h.Performance.P95ResponseTime = fmt.Sprintf("%dms", r.source.Int("p95ResponseTime", 200, 700))
	h.Performance.ErrorRate = fmt.Sprintf("%.2f%%", r.source.Float("errorRate", 0, 2))
	h.Performance.RequestRate = fmt.Sprintf("%d/min", r.source.Int("requestRate", 500, 1500))
	h.Security.AuthFailures = r.source.Int("authFailures", 0, 10)
	h.Security.RateLimitHits = r.source.Int("rateLimitHits", 0, 50)
	h.Security.SuspiciousActivity = r.source.Int("suspiciousActivity", 0, 3)
	h.Security.LastSecurityScan = "2 days ago"
	return h
}

func (r *Reporter) Cloud() CloudHealth {
	var h CloudHealth
	h.Compute.CPUUtilization = fmt.Sprintf("%d%%", r.source.Int("cpuUtilization", 30, 70))
	h.Compute.MemoryUtilization = fmt.Sprintf("%d%%", r.source.Int("memoryUtilization", 40, 90))
	h.Compute.ActiveInstances = r.source.Int("activeInstances", 10, 30)
	h.Compute.AutoScalingEvents = r.source.Int("autoScalingEvents", 0, 5)
	h.Storage.UtilizationPercentage = fmt.Sprintf("%d%%", r.source.Int("storageUtilization", 60, 90))
	h.Storage.IOPSPerformance = "Within normal range"
	h.Storage.BackupStatus = "Completed successfully"
	h.Storage.Latency = fmt.Sprintf("%dms", r.source.Int("storageLatency", 5, 15))
	h.Networking.Bandwidth = fmt.Sprintf("%d Mbps", r.source.Int("bandwidth", 200, 700))
	h.Networking.Latency = fmt.Sprintf("%dms", r.source.Int("networkLatency", 10, 60))
	h.Networking.ErrorRate = fmt.Sprintf("%.3f%%", r.source.Float("networkErrorRate", 0, 0.1))
	h.Networking.RequestRate = fmt.Sprintf("%d/min", r.source.Int("requestRate", 5000, 15000))
	h.Costs.CurrentMonth = fmt.Sprintf("$%d", r.source.Int("currentMonthCost", 1000, 3000))
	h.Costs.ProjectedMonth = fmt.Sprintf("$%d", r.source.Int("projectedMonthCost", 1200, 3700))
	h.Costs.OptimizationOpportunities = []string{"Reserved instances", "Spot instances", "Right-sizing"}
	return h
}
