package models

type FileType string

const (
	FileImage    FileType = "IMAGE"
	FileVideo    FileType = "VIDEO"
	FileAudio    FileType = "AUDIO"
	FileDocument FileType = "DOCUMENT"
)

// FileTypeForMime maps a MIME type onto the backend's file type enum.
func FileTypeForMime(mime string) FileType {
	switch {
	case len(mime) >= 6 && mime[:6] == "image/":
		return FileImage
	case len(mime) >= 6 && mime[:6] == "video/":
		return FileVideo
	case len(mime) >= 6 && mime[:6] == "audio/":
		return FileAudio
	default:
		return FileDocument
	}
}

// MediaFile is an uploaded asset. FilePath is its public URL.
type MediaFile struct {
	Base
	OriginalName string   `json:"originalName"`
	FilePath     string   `json:"filePath"`
	FileType     FileType `json:"fileType"`
	FileSize     int64    `json:"fileSize"`
	MimeType     string   `json:"mimeType"`
	Folder       string   `json:"folder,omitempty"`
}
