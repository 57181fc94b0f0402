package dto

// CommonResp is the envelope of every response. Data is only set on success.
type CommonResp struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
