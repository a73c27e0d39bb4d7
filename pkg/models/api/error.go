package api

// ErrorApiDTO is returned by the platform on failed requests
type ErrorApiDTO struct {
	Type    int    `json:"type,omitempty"`
	Message string `json:"message"`
}
