package dto

// HealthResponse es la respuesta de /healthz y /readyz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Pools   *int   `json:"pools,omitempty"`
	Error   string `json:"error,omitempty"`
}
