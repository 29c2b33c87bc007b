package services

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"finnduel-overlay-backend/config"
	"finnduel-overlay-backend/models"
	"finnduel-overlay-backend/utils"
)

// MarketService serves the static market catalogue and locates the video
type MarketService struct {
	config  *config.Config
	overlay *config.Overlay
	byID    map[string]int
}

// NewMarketService creates a new market service
func NewMarketService(cfg *config.Config, overlay *config.Overlay) *MarketService {
	byID := make(map[string]int, len(overlay.Categories))
	for i, c := range overlay.Categories {
		byID[c.ID] = i
	}

	return &MarketService{
		config:  cfg,
		overlay: overlay,
		byID:    byID,
	}
}

// Overlay returns the loaded overlay configuration
func (s *MarketService) Overlay() *config.Overlay {
	return s.overlay
}

// Categories returns the tabs in display order
func (s *MarketService) Categories() []models.CategoryInfo {
	out := make([]models.CategoryInfo, len(s.overlay.Categories))
	for i, c := range s.overlay.Categories {
		out[i] = models.CategoryInfo{ID: c.ID, Label: c.Label}
	}
	return out
}

// DefaultCategory returns the id of the first tab
func (s *MarketService) DefaultCategory() string {
	if len(s.overlay.Categories) == 0 {
		return ""
	}
	return s.overlay.Categories[0].ID
}

// Markets returns a copy of the markets listed under a category
func (s *MarketService) Markets(categoryID string) ([]models.Market, error) {
	i, ok := s.byID[categoryID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, categoryID)
	}

	src := s.overlay.Categories[i].Markets
	out := make([]models.Market, len(src))
	copy(out, src)
	return out, nil
}

// VideoPath returns the file path of the overlay video.
//
// VIDEO_FILE wins when set. Otherwise the overlay's video name is looked up in
// the media directory, and as a last resort the first file in the media
// directory matching VIDEO_FILE_PATTERN is used.
func (s *MarketService) VideoPath() (string, error) {
	if s.config.VideoFile != "" {
		if !utils.FileExists(s.config.VideoFile) {
			return "", fmt.Errorf("video file not found: %s", s.config.VideoFile)
		}
		return s.config.VideoFile, nil
	}

	if name := s.overlay.Video; name != "" {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.config.MediaDir, name)
		}
		if utils.FileExists(path) {
			return path, nil
		}
		log.Debug().Str("path", path).Msg("configured video not found, searching media directory")
	}

	if !utils.FileExists(s.config.MediaDir) {
		return "", fmt.Errorf("media directory not found: %s", s.config.MediaDir)
	}

	videos, err := utils.FindFiles(s.config.MediaDir, s.config.VideoFilePattern)
	if err != nil {
		return "", fmt.Errorf("failed to search media directory: %w", err)
	}
	if len(videos) == 0 {
		return "", fmt.Errorf("no video matching %q in %s", s.config.VideoFilePattern, s.config.MediaDir)
	}

	log.Debug().Str("path", videos[0]).Int("candidates", len(videos)).Msg("using first video in media directory")
	return videos[0], nil
}
