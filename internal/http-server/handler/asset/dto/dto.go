package dto

// UploadedRef mirrors one accepted asset back to the client. URL is a
// relative path the client resolves against the ingestion origin.
type UploadedRef struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
}

type UploadData struct {
	Uploaded []UploadedRef `json:"uploaded"`
	Errors   []string      `json:"errors,omitempty"`
}

type ListData struct {
	Images []UploadedRef `json:"images"`
}

// Envelope is the response shape shared by all asset endpoints.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
