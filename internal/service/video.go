package service

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// UploadsPrefix is where uploaded files are served from.
const UploadsPrefix = "/uploads/"

// VideoService keeps metadata of creator videos. Storing the file itself is
// the upload collaborator's job.
type VideoService struct {
	videos   repository.VideoRepository
	creators repository.CreatorRepository
	logger   *slog.Logger
}

func NewVideoService(store repository.Store, logger *slog.Logger) *VideoService {
	return &VideoService{videos: store, creators: store, logger: logger}
}

func (s *VideoService) Register(ctx context.Context, p model.Principal, title, filename string) (*model.Video, error) {
	if p.Role != model.RoleCreator {
		return nil, apperror.Forbidden("only creators can upload videos")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if filename == "" || filename == "." || filename == ".." || path.Base(filename) != filename || strings.ContainsAny(filename, `\`) {
		return nil, apperror.ValidationFailed("filename", "filename must be a bare file name")
	}

	creator, err := s.creators.GetCreatorByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	v := &model.Video{
		Title:        title,
		Filename:     filename,
		FilePath:     UploadsPrefix + filename,
		UploaderID:   creator.ID,
		UploaderName: creator.Name,
	}
	if err := s.videos.CreateVideo(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info("video registered", slog.String("videoID", v.ID), slog.String("creatorID", creator.ID))
	return v, nil
}

func (s *VideoService) List(ctx context.Context) ([]model.Video, error) {
	return s.videos.ListVideos(ctx)
}

// Get returns the video and counts the view.
func (s *VideoService) Get(ctx context.Context, id string) (*model.Video, error) {
	return s.videos.ViewVideo(ctx, id)
}
