package model

// Image describes an uploaded product image.
type Image struct {
	Name        string
	URL         string
	Size        int64
	ContentType string
}

// ImageUpload is raw image content received from a client.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}
