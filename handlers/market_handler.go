package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"finnduel-overlay-backend/models"
	"finnduel-overlay-backend/services"
)

// MarketHandler handles market catalogue and video requests
type MarketHandler struct {
	marketService *services.MarketService
	stateService  *services.StateService
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(marketService *services.MarketService, stateService *services.StateService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		stateService:  stateService,
	}
}

// GetCategories handles GET /api/categories
func (h *MarketHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.marketService.Categories())
}

// GetMarkets handles GET /api/markets/{category}. The current status applies
// to every market in the response.
func (h *MarketHandler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	markets, err := h.marketService.Markets(category)
	if err != nil {
		if errors.Is(err, services.ErrUnknownCategory) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("category", category).Msg("GetMarkets: failed to load markets")
		http.Error(w, "Failed to load markets", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.MarketsResponse{
		Category: category,
		Status:   h.stateService.GetState().Status,
		Markets:  markets,
	})
}

// ServeVideo handles GET /api/video
func (h *MarketHandler) ServeVideo(w http.ResponseWriter, r *http.Request) {
	videoPath, err := h.marketService.VideoPath()
	if err != nil {
		log.Warn().Err(err).Msg("ServeVideo: video not available")
		http.Error(w, fmt.Sprintf("Video not found: %v", err), http.StatusNotFound)
		return
	}

	file, err := os.Open(videoPath)
	if err != nil {
		log.Error().Err(err).Str("path", videoPath).Msg("ServeVideo: failed to open video")
		http.Error(w, "Failed to open video file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		log.Error().Err(err).Str("path", videoPath).Msg("ServeVideo: failed to stat video")
		http.Error(w, "Failed to get file info", http.StatusInternalServerError)
		return
	}

	fileSize := fileInfo.Size()
	contentType := videoContentType(videoPath)

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		h.servePartialContent(w, r, file, fileSize, contentType, rangeHeader)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(fileSize, 10))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, file); err != nil {
		log.Debug().Err(err).Msg("ServeVideo: client went away")
	}
}

// servePartialContent serves a single byte range so the player can seek
func (h *MarketHandler) servePartialContent(w http.ResponseWriter, r *http.Request, file *os.File, fileSize int64, contentType, rangeHeader string) {
	startPos, endPos, err := parseByteRange(rangeHeader, fileSize)
	if err != nil {
		log.Debug().Err(err).Str("range", rangeHeader).Msg("servePartialContent: rejected range")
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
		return
	}

	contentLength := endPos - startPos + 1

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", startPos, endPos, fileSize))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(contentLength, 10))
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusPartialContent)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := file.Seek(startPos, io.SeekStart); err != nil {
		log.Error().Err(err).Msg("servePartialContent: seek failed")
		return
	}
	if _, err := io.CopyN(w, file, contentLength); err != nil {
		log.Debug().Err(err).Msg("servePartialContent: client went away")
	}
}

// parseByteRange parses a single "bytes=start-end" range. Suffix ranges
// ("bytes=-500") and open ends ("bytes=100-") are supported; multiple ranges are not.
func parseByteRange(header string, size int64) (int64, int64, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, errors.New("invalid range header")
	}
	if size <= 0 {
		return 0, 0, errors.New("empty file")
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, errors.New("invalid range values")
	}

	if startStr == "" {
		suffix, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || suffix <= 0 {
			return 0, 0, errors.New("invalid suffix length")
		}
		if suffix > size {
			suffix = size
		}
		return size - suffix, size - 1, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return 0, 0, errors.New("invalid start position")
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, errors.New("invalid end position")
		}
		if end >= size {
			end = size - 1
		}
	}

	if start < 0 || start >= size || start > end {
		return 0, 0, errors.New("invalid range")
	}
	return start, end, nil
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

func videoContentType(path string) string {
	if ct, ok := videoTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "video/mp4"
}
