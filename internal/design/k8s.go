package design

type ManifestOptions struct {
	Replicas int
	Image    string
	Port     int
}

type Deployment struct {
	APIVersion string         `json:"apiVersion" yaml:"apiVersion"`
	Kind       string         `json:"kind" yaml:"kind"`
	Metadata   ObjectMeta     `json:"metadata" yaml:"metadata"`
	Spec       DeploymentSpec `json:"spec" yaml:"spec"`
}

type ObjectMeta struct {
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Labels map[string]string `json:"labels" yaml:"labels"`
}

type DeploymentSpec struct {
	Replicas int             `json:"replicas" yaml:"replicas"`
	Selector LabelSelector   `json:"selector" yaml:"selector"`
	Template PodTemplateSpec `json:"template" yaml:"template"`
}

type LabelSelector struct {
	MatchLabels map[string]string `json:"matchLabels" yaml:"matchLabels"`
}

type PodTemplateSpec struct {
	Metadata ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec     PodSpec    `json:"spec" yaml:"spec"`
}

type PodSpec struct {
	Containers []Container `json:"containers" yaml:"containers"`
}

type Container struct {
	Name           string    `json:"name" yaml:"name"`
	Image          string    `json:"image" yaml:"image"`
	Ports          []Port    `json:"ports" yaml:"ports"`
	Resources      Resources `json:"resources" yaml:"resources"`
	LivenessProbe  Probe     `json:"livenessProbe" yaml:"livenessProbe"`
	ReadinessProbe Probe     `json:"readinessProbe" yaml:"readinessProbe"`
}

type Port struct {
	ContainerPort int `json:"containerPort" yaml:"containerPort"`
}

type Resources struct {
	Requests map[string]string `json:"requests" yaml:"requests"`
	Limits   map[string]string `json:"limits" yaml:"limits"`
}

type Probe struct {
	HTTPGet             HTTPGetAction `json:"httpGet" yaml:"httpGet"`
	InitialDelaySeconds int           `json:"initialDelaySeconds" yaml:"initialDelaySeconds"`
}

type HTTPGetAction struct {
	Path string `json:"path" yaml:"path"`
	Port int    `json:"port" yaml:"port"`
}

// KubernetesManifest builds an apps/v1 Deployment for service. Zero options
// fall back to 3 replicas, <service>:latest and port 8080.
func KubernetesManifest(service string, opts ManifestOptions) Deployment {
	if opts.Replicas <= 0 {
		opts.Replicas = 3
	}
	if opts.Image == "" {
		opts.Image = service + ":latest"
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	labels := func() map[string]string { return map[string]string{"app": service} }

	return Deployment{
		APIVersion: "apps/v1",
		Kind:       "Deployment",
		Metadata:   ObjectMeta{Name: service, Labels: labels()},
		Spec: DeploymentSpec{
			Replicas: opts.Replicas,
			Selector: LabelSelector{MatchLabels: labels()},
			Template: PodTemplateSpec{
				Metadata: ObjectMeta{Labels: labels()},
				Spec: PodSpec{Containers: []Container{{
					Name:  service,
					Image: opts.Image,
					Ports: []Port{{ContainerPort: opts.Port}},
					Resources: Resources{
						Requests: map[string]string{"cpu": "100m", "memory": "128Mi"},
						Limits:   map[string]string{"cpu": "500m", "memory": "512Mi"},
					},
					LivenessProbe: Probe{
						HTTPGet:             HTTPGetAction{Path: "/health", Port: opts.Port},
						InitialDelaySeconds: 30,
					},
					ReadinessProbe: Probe{
						HTTPGet:             HTTPGetAction{Path: "/ready", Port: opts.Port},
						InitialDelaySeconds: 5,
					},
				}}},
			},
		},
	}
}
