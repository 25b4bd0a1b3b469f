package domain

// Image — изображение товара, сохраняемое в объектном хранилище.
type Image struct {
	ID        string
	Bucket    string
	ObjectKey string
	Bytes     []byte
	Size      *int64
	MimeType  *string
}

func NewImage(id, bucket, objectKey string, data []byte, size *int64, mimeType *string) *Image {
	return &Image{
		ID:        id,
		Bucket:    bucket,
		ObjectKey: objectKey,
		Bytes:     data,
		Size:      size,
		MimeType:  mimeType,
	}
}
