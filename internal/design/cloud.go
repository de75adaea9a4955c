package design

import "strings"

type CloudDesign struct {
	ApplicationName string            `json:"applicationName" yaml:"applicationName"`
	CloudProvider   string            `json:"cloudProvider" yaml:"cloudProvider"`
	Architecture    map[string]string `json:"architecture" yaml:"architecture"`
	Compute         map[string]string `json:"compute" yaml:"compute"`
	Storage         map[string]string `json:"storage" yaml:"storage"`
	Networking      map[string]string `json:"networking" yaml:"networking"`
	Security        map[string]string `json:"security" yaml:"security"`
	Monitoring      map[string]string `json:"monitoring" yaml:"monitoring"`
	CostEstimate    map[string]string `json:"costEstimate" yaml:"costEstimate"`
}

func CloudArchitecture(name, requirements string) CloudDesign {
	return CloudDesign{
		ApplicationName: name,
		CloudProvider:   cloudProvider(requirements),
		Architecture: map[string]string{
			"pattern":          "Microservices",
			"containerization": "Docker + Kubernetes",
			"serviceDiscovery": "Kubernetes DNS + Service Mesh",
			"loadBalancer":     "Application Load Balancer",
			"apiGateway":       "AWS API Gateway / Azure API Management",
			"caching":          "Redis Cluster",
			"messaging":        "Apache Kafka / Azure Service Bus",
		},
		Compute: map[string]string{
			"containers":     "Kubernetes clusters with auto-scaling",
			"instances":      "Mixed on-demand and spot instances",
			"serverless":     "Functions for event-driven tasks",
			"scaling":        "Horizontal Pod Autoscaler + Cluster Autoscaler",
			"resourceLimits": "CPU/Memory requests and limits defined",
		},
		Storage: map[string]string{
			"database":      "Managed PostgreSQL with read replicas",
			"objectStorage": "S3-compatible storage with CDN",
			"fileSystem":    "Network-attached storage for shared data",
			"backup":        "Automated daily backups with 30-day retention",
			"encryption":    "Encryption at rest and in transit",
		},
		Networking: map[string]string{
			"vpc":           "Multi-AZ VPC with public/private subnets",
			"loadBalancing": "Application Load Balancer with SSL termination",
			"cdn":           "Global CDN for static content",
			"dns":           "Route53 or equivalent with health checks",
			"firewall":      "Security groups and NACLs configured",
		},
		Security: map[string]string{
			"iam":        "Role-based access with least privilege principle",
			"secrets":    "Managed secret store (AWS Secrets Manager)",
			"scanning":   "Container and infrastructure security scanning",
			"compliance": "SOC2/GDPR compliance configurations",
			"monitoring": "Security event logging and alerting",
		},
		Monitoring: map[string]string{
			"metrics":    "Prometheus + Grafana stack",
			"logging":    "Centralized logging with ELK stack",
			"tracing":    "Distributed tracing with Jaeger",
			"alerting":   "Multi-channel alerting (Slack, email, PagerDuty)",
			"dashboards": "Service health and business metrics dashboards",
		},
		CostEstimate: map[string]string{
			"compute":                "$500-1500/month",
			"storage":                "$200-800/month",
			"networking":             "$100-400/month",
			"managed_services":       "$300-1000/month",
			"total_estimated":        "$1100-3700/month",
			"optimization_potential": "20-30% savings with reserved instances",
		},
	}
}

func cloudProvider(requirements string) string {
	req := strings.ToLower(requirements)
	switch {
	case strings.Contains(req, "aws"):
		return "AWS"
	case strings.Contains(req, "azure"):
		return "Azure"
	case strings.Contains(req, "gcp"):
		return "Google Cloud"
	default:
		return "AWS"
	}
}
