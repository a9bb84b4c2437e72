package handlers

import (
	"errors"
	"net/http"
	"time"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/dto"
	"foodanalyzer/internal/imaging"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/services"
	"foodanalyzer/internal/services/vision"

	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const readDeadline = 120 * time.Second

// CameraWebsocketHandler handles browser camera captures: each binary frame
// received is one photo, which is decoded, analyzed and answered with the
// same JSON payloads the upload endpoint produces.
func CameraWebsocketHandler(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		connection.SetReadLimit(cfg.MaxUploadSize)
		connection.SetReadDeadline(time.Now().Add(readDeadline))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(readDeadline))
			return nil
		})

		logger.Info("Camera connected")

		for {
			messageType, data, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Camera disconnected normally")
				} else {
					logger.Error("Camera disconnected with error: %v", err)
				}
				break
			}
			connection.SetReadDeadline(time.Now().Add(readDeadline))

			if messageType != websocket.BinaryMessage {
				continue
			}

			reply := analyzeCapture(r, manager, data, logger)
			if err := connection.WriteJSON(reply); err != nil {
				logger.Error("Error sending analysis to camera client: %v", err)
				break
			}
		}
	}
}

// analyzeCapture runs one captured frame through the pipeline and builds the
// JSON reply, success or failure.
func analyzeCapture(r *http.Request, manager *services.Manager, data []byte, logger *logger.Logger) interface{} {
	img, err := imaging.Decode(data)
	if err != nil {
		logger.Warning("Rejected capture, not a decodable image: %v", err)
		return dto.ErrorResponse{
			Error: "could not process captured photo",
			Kind:  "input",
		}
	}

	analysis, err := manager.AnalyzePhoto(r.Context(), img, "camera")
	if err != nil {
		return captureError(err, logger)
	}

	logger.Info("Analyzed camera capture (%d bytes) -> %s", len(data), analysis.Filename)

	return dto.AnalysisResult{
		Verdict:   analysis.Verdict,
		Filename:  analysis.Filename,
		Source:    analysis.Source,
		Model:     analysis.Model,
		Timestamp: analysis.Timestamp,
	}
}

// captureError mirrors writeAnalysisError for the websocket channel.
func captureError(err error, logger *logger.Logger) dto.ErrorResponse {
	logger.Error("Camera analysis failed: %v", err)

	var providerErr *vision.ProviderError
	if errors.As(err, &providerErr) {
		return dto.ErrorResponse{
			Error:  "the analysis provider rejected the request",
			Kind:   "provider",
			Status: providerErr.StatusCode,
			Body:   providerErr.Body,
		}
	}

	var configErr *vision.ConfigError
	if errors.As(err, &configErr) {
		return dto.ErrorResponse{
			Error: "OpenRouter API key not found. Please set OPENROUTER_API_KEY in your .env file.",
			Kind:  "config",
		}
	}

	return dto.ErrorResponse{
		Error: "analysis failed, please try again",
		Kind:  "transport",
	}
}

// FeedWebsocketHandler handles viewer connections and registers them in the
// HubService to receive broadcast analysis events.
func FeedWebsocketHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		connection.SetReadLimit(512)

		manager.GetWebsocketService().Register(connection)
		defer manager.GetWebsocketService().Unregister(connection)

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Feed viewer disconnected normally")
				} else {
					logger.Error("Feed viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}
