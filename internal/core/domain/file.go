package domain

import "time"

// File is an uploaded document. FilePath is storage-relative and always
// generated by the server.
type File struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadDate time.Time `json:"upload_date"`
	UserID     int64     `json:"user_id"`
}

func (f *File) OwnedBy(userID int64) bool {
	return f != nil && f.UserID == userID
}
