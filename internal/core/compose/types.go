package compose

// =============================================================================
// Service Types
// =============================================================================

// Service is the subset of a compose service needed to locate Vespa.
type Service struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Ports []Port `json:"ports,omitempty"`
}

// Port represents a port mapping.
type Port struct {
	Target    uint32 `json:"target"`              // Container port
	Published uint32 `json:"published,omitempty"` // Host port (0 = dynamic)
	Protocol  string `json:"protocol,omitempty"`  // tcp, udp
	HostIP    string `json:"host_ip,omitempty"`   // Bind IP
}

// ConfigServer is a Vespa config server reachable from the host.
type ConfigServer struct {
	Service string `json:"service"`
	Image   string `json:"image,omitempty"`
	URL     string `json:"url"`
}
