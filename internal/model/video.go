package model

import "time"

// Video is the metadata record of an uploaded creator video.
// The file itself is stored by an upload collaborator; only its path is kept here.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	FilePath     string    `json:"filePath"`
	UploaderID   string    `json:"uploaderId"`
	UploaderName string    `json:"uploaderName"`
	Views        int       `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CatalogEntry is an item of the static content catalogs.
type CatalogEntry struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
