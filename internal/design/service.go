// Package design renders the architecture documents some personas produce.
// Every generator is a pure function of its inputs.
package design

import (
	"strings"
)

type MicroserviceDesign struct {
	ServiceName     string          `json:"serviceName" yaml:"serviceName"`
	Architecture    ServiceLayout   `json:"architecture" yaml:"architecture"`
	Endpoints       []string        `json:"endpoints" yaml:"endpoints"`
	Dependencies    []string        `json:"dependencies" yaml:"dependencies"`
	ScalabilityPlan ScalabilityPlan `json:"scalabilityPlan" yaml:"scalabilityPlan"`
}

type ServiceLayout struct {
	Pattern       string `json:"pattern" yaml:"pattern"`
	Communication string `json:"communication" yaml:"communication"`
	Database      string `json:"database" yaml:"database"`
	Caching       string `json:"caching" yaml:"caching"`
	Monitoring    string `json:"monitoring" yaml:"monitoring"`
}

type ScalabilityPlan struct {
	Horizontal    string `json:"horizontal" yaml:"horizontal"`
	Vertical      string `json:"vertical" yaml:"vertical"`
	Database      string `json:"database" yaml:"database"`
	Caching       string `json:"caching" yaml:"caching"`
	LoadBalancing string `json:"loadBalancing" yaml:"loadBalancing"`
}

func Microservice(name, requirements string) MicroserviceDesign {
	return MicroserviceDesign{
		ServiceName: name,
		Architecture: ServiceLayout{
			Pattern:       "Domain-Driven Design",
			Communication: "REST + Message Queues",
			Database:      recommendDatabase(requirements),
			Caching:       "Redis",
			Monitoring:    "Prometheus + Grafana",
		},
		Endpoints: []string{
			"GET /api/v1/health",
			"GET /api/v1/metrics",
			"POST /api/v1/resource",
			"GET /api/v1/resource/:id",
			"PUT /api/v1/resource/:id",
			"DELETE /api/v1/resource/:id",
		},
		Dependencies: []string{
			"Authentication Service",
			"Logging Service",
			"Configuration Service",
			"Message Queue",
		},
		ScalabilityPlan: ScalabilityPlan{
			Horizontal:    "Container orchestration with Kubernetes",
			Vertical:      "Auto-scaling based on CPU/Memory metrics",
			Database:      "Read replicas and connection pooling",
			Caching:       "Multi-level caching strategy",
			LoadBalancing: "Round-robin with health checks",
		},
	}
}

func recommendDatabase(requirements string) string {
	req := strings.ToLower(requirements)
	switch {
	case strings.Contains(req, "analytics"), strings.Contains(req, "reporting"):
		return "PostgreSQL + ClickHouse"
	case strings.Contains(req, "real-time"), strings.Contains(req, "cache"):
		return "Redis + MongoDB"
	default:
		return "PostgreSQL"
	}
}

type APIDesign struct {
	APIName        string           `json:"apiName" yaml:"apiName"`
	Version        string           `json:"version" yaml:"version"`
	BaseURL        string           `json:"baseUrl" yaml:"baseUrl"`
	Authentication string           `json:"authentication" yaml:"authentication"`
	Endpoints      []Endpoint       `json:"endpoints" yaml:"endpoints"`
	Security       SecurityMeasures `json:"security" yaml:"security"`
	Documentation  APIDocumentation `json:"documentation" yaml:"documentation"`
	RateLimiting   RateLimiting     `json:"rateLimiting" yaml:"rateLimiting"`
}

type Endpoint struct {
	Method         string `json:"method" yaml:"method"`
	Path           string `json:"path" yaml:"path"`
	Description    string `json:"description" yaml:"description"`
	Authentication bool   `json:"authentication" yaml:"authentication"`
	RateLimit      string `json:"rateLimit" yaml:"rateLimit"`
}

type SecurityMeasures struct {
	Authentication     string   `json:"authentication" yaml:"authentication"`
	Authorization      string   `json:"authorization" yaml:"authorization"`
	InputValidation    string   `json:"inputValidation" yaml:"inputValidation"`
	OutputSanitization string   `json:"outputSanitization" yaml:"outputSanitization"`
	RateLimiting       string   `json:"rateLimiting" yaml:"rateLimiting"`
	Logging            string   `json:"logging" yaml:"logging"`
	Encryption         string   `json:"encryption" yaml:"encryption"`
	CORS               string   `json:"cors" yaml:"cors"`
	Headers            []string `json:"headers" yaml:"headers"`
}

type APIDocumentation struct {
	Format   string   `json:"format" yaml:"format"`
	Sections []string `json:"sections" yaml:"sections"`
	Examples string   `json:"examples" yaml:"examples"`
	SDKs     []string `json:"sdks" yaml:"sdks"`
	Testing  string   `json:"testing" yaml:"testing"`
}

type RateLimiting struct {
	Strategy    string            `json:"strategy" yaml:"strategy"`
	Levels      map[string]string `json:"levels" yaml:"levels"`
	Headers     []string          `json:"headers" yaml:"headers"`
	Enforcement string            `json:"enforcement" yaml:"enforcement"`
}

func API(name, requirements string) APIDesign {
	resource := strings.ToLower(name)
	return APIDesign{
		APIName:        name,
		Version:        "v1",
		BaseURL:        "/api/v1/" + resource,
		Authentication: authMethod(requirements),
		Endpoints:      apiEndpoints(resource, requirements),
		Security: SecurityMeasures{
			Authentication:     "Required for all endpoints",
			Authorization:      "Role-based access control",
			InputValidation:    "Comprehensive request validation",
			OutputSanitization: "Response data sanitization",
			RateLimiting:       "Per-user and global rate limits",
			Logging:            "Security event logging",
			Encryption:         "TLS 1.3 for transport, AES-256 for data at rest",
			CORS:               "Restricted CORS policy",
			Headers:            []string{"X-Content-Type-Options", "X-Frame-Options", "X-XSS-Protection"},
		},
		Documentation: APIDocumentation{
			Format: "OpenAPI 3.0",
			Sections: []string{
				"Authentication Guide",
				"Endpoint Reference",
				"Error Codes",
				"Rate Limiting",
				"SDKs and Examples",
				"Changelog",
			},
			Examples: "Request/Response examples for all endpoints",
			SDKs:     []string{"JavaScript", "Python", "cURL"},
			Testing:  "Postman collection provided",
		},
		RateLimiting: RateLimiting{
			Strategy: "Token Bucket",
			Levels: map[string]string{
				"global":      "10000 requests/hour",
				"perUser":     "1000 requests/hour",
				"perEndpoint": "Variable based on operation",
			},
			Headers:     []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			Enforcement: "HTTP 429 Too Many Requests",
		},
	}
}

func authMethod(requirements string) string {
	req := strings.ToLower(requirements)
	switch {
	case strings.Contains(req, "oauth"):
		return "OAuth 2.0"
	case strings.Contains(req, "jwt"):
		return "JWT Bearer Token"
	case strings.Contains(req, "key"):
		return "API Key"
	default:
		return "JWT Bearer Token"
	}
}

func apiEndpoints(resource, requirements string) []Endpoint {
	endpoints := []Endpoint{
		{"GET", "/" + resource, "List " + resource + " resources", true, "100/hour"},
		{"GET", "/" + resource + "/:id", "Get specific " + resource, true, "200/hour"},
		{"POST", "/" + resource, "Create new " + resource, true, "50/hour"},
		{"PUT", "/" + resource + "/:id", "Update " + resource, true, "50/hour"},
		{"DELETE", "/" + resource + "/:id", "Delete " + resource, true, "20/hour"},
	}
	if strings.Contains(strings.ToLower(requirements), "search") {
		endpoints = append(endpoints, Endpoint{"GET", "/" + resource + "/search", "Search " + resource + " resources", true, "100/hour"})
	}
	return endpoints
}
