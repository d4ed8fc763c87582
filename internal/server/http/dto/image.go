package dto

// ImageResponse describes a stored upload.
type ImageResponse struct {
	FileName string `json:"file_name"`
	BlobURL  string `json:"blob_url"`
	Size     int64  `json:"size"`
}
