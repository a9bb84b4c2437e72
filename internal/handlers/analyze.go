package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/dto"
	"foodanalyzer/internal/imaging"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/services"
	"foodanalyzer/internal/services/vision"
)

// AnalyzeHandler accepts a food photo (multipart field "photo" or a raw
// request body) and returns the model's safety verdict as JSON. The request
// body is capped at the configured upload limit.
func AnalyzeHandler(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)

		data, err := readPhoto(r)
		if err != nil {
			logger.Warning("Rejected upload: %v", err)
			writeError(w, http.StatusBadRequest, dto.ErrorResponse{
				Error: "could not read uploaded photo",
				Kind:  "input",
			})
			return
		}

		img, err := imaging.Decode(data)
		if err != nil {
			logger.Warning("Rejected upload, not a decodable image: %v", err)
			writeError(w, http.StatusBadRequest, dto.ErrorResponse{
				Error: "unsupported or corrupt image (PNG, JPG, WEBP and GIF are accepted)",
				Kind:  "input",
			})
			return
		}

		analysis, err := manager.AnalyzePhoto(r.Context(), img, "upload")
		if err != nil {
			writeAnalysisError(w, err, logger)
			return
		}

		logger.Info("Analyzed uploaded photo (%d bytes) -> %s", len(data), analysis.Filename)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.AnalysisResult{
			Verdict:   analysis.Verdict,
			Filename:  analysis.Filename,
			Source:    analysis.Source,
			Model:     analysis.Model,
			Timestamp: analysis.Timestamp,
		})
	}
}

// readPhoto extracts image bytes from a multipart form or the raw body.
func readPhoto(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := r.FormFile("photo")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	return io.ReadAll(r.Body)
}

// writeAnalysisError maps the pipeline error taxonomy onto HTTP responses.
// Every failure leaves through here as data; nothing panics past the handler.
func writeAnalysisError(w http.ResponseWriter, err error, logger *logger.Logger) {
	var configErr *vision.ConfigError
	var providerErr *vision.ProviderError
	var transportErr *vision.TransportError

	switch {
	case errors.As(err, &configErr):
		logger.Error("Analysis failed, configuration error: %v", configErr)
		writeError(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: "OpenRouter API key not found. Please set OPENROUTER_API_KEY in your .env file.",
			Kind:  "config",
		})

	case errors.As(err, &providerErr):
		logger.Error("Analysis failed, provider rejected request: %v", providerErr)
		writeError(w, http.StatusBadGateway, dto.ErrorResponse{
			Error:  "the analysis provider rejected the request",
			Kind:   "provider",
			Status: providerErr.StatusCode,
			Body:   providerErr.Body,
		})

	case errors.As(err, &transportErr):
		logger.Error("Analysis failed: %v", transportErr)
		writeError(w, http.StatusBadGateway, dto.ErrorResponse{
			Error: "analysis failed, please try again",
			Kind:  "transport",
		})

	default:
		logger.Error("Analysis failed with unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: "analysis failed, please try again",
			Kind:  "transport",
		})
	}
}

func writeError(w http.ResponseWriter, status int, resp dto.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
