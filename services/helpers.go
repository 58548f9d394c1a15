package services

import (
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/storage"
)

// GetExtensionFromContentType maps the upload content types we accept to a
// file extension. Unknown types get "bin" so the key is still well formed.
func GetExtensionFromContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}

func populateTournamentImageURL(uploader storage.FileUploader, t *models.Tournament) {
	if uploader == nil || t == nil || t.ImageKey == nil || *t.ImageKey == "" {
		return
	}
	url := uploader.GetPublicURL(*t.ImageKey)
	t.ImageURL = &url
}

func populateTeamImageURL(uploader storage.FileUploader, team *models.Team) {
	if uploader == nil || team == nil || team.ImageKey == nil || *team.ImageKey == "" {
		return
	}
	url := uploader.GetPublicURL(*team.ImageKey)
	team.ImageURL = &url
}
