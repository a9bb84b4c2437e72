package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/dto"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/models"
	"foodanalyzer/internal/services"
)

// GetAnalysesHandler returns a filtered, paginated list of past analyses.
func GetAnalysesHandler(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo := manager.GetRepository()
		if repo == nil {
			http.Error(w, "History not available", http.StatusInternalServerError)
			return
		}

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &models.AnalysisFilter{
			Source:    q.Get("source"),
			Search:    q.Get("search"),
			StartDate: parseDate(q.Get("dateAfter")),
			EndDate:   parseDate(q.Get("dateBefore")),
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}

		analyses, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying analyses: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting analyses: %v", err)
			totalCount = len(analyses)
		}

		var totalSize int64
		var infos []dto.AnalysisInfo
		for _, a := range analyses {
			totalSize += a.FileSize
			infos = append(infos, dto.AnalysisInfo{
				Name:      a.Filename,
				Date:      a.Timestamp,
				TimeOfDay: a.Timestamp,
				Source:    a.Source,
				Verdict:   a.Verdict,
			})
		}

		data := dto.AnalysesData{
			Analyses:    infos,
			PhotosDir:   cfg.PhotosDir,
			Size:        totalSize,
			MaxSize:     cfg.MaxPhotosSize,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewPhotoHandler serves a stored photo specified via the "image" query parameter.
func ViewPhotoHandler(manager *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image := r.URL.Query().Get("image")
		if image == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, manager.GetStore().Path(image))
	}
}

// DeleteAnalysisHandler removes one analysis from disk and the database.
func DeleteAnalysisHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			http.Error(w, "Filename required", http.StatusBadRequest)
			return
		}

		if err := manager.GetStore().Delete(filename); err != nil {
			logger.Error("Failed to delete photo %s: %v", filename, err)
		}

		if repo := manager.GetRepository(); repo != nil {
			if err := repo.DeleteByFilename(filename); err != nil {
				logger.Error("Failed to delete analysis from database: %v", err)
			}
		}

		logger.Info("Deleted analysis: %s", filename)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearAnalysesHandler deletes every stored photo and clears the history.
func ClearAnalysesHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := manager.GetStore().Clear(); err != nil {
			logger.Error("Error clearing photos directory: %v", err)
			http.Error(w, "Unable to clear photos", http.StatusInternalServerError)
			return
		}

		if repo := manager.GetRepository(); repo != nil {
			if err := repo.DeleteAll(); err != nil {
				logger.Error("Error clearing analyses: %v", err)
			}
		}

		logger.Info("All analyses cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetStatsHandler returns aggregate analysis statistics.
func GetStatsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo := manager.GetRepository()
		if repo == nil {
			http.Error(w, "History not available", http.StatusInternalServerError)
			return
		}

		stats, err := repo.GetStats()
		if err != nil {
			logger.Error("Failed to get stats: %v", err)
			http.Error(w, "Failed to retrieve stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

// helpers

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
