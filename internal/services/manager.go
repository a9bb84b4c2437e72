package services

import (
	"context"
	"encoding/json"
	"image"
	"time"

	"foodanalyzer/internal/imaging"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/models"
	"foodanalyzer/internal/repository"
	"foodanalyzer/internal/services/storage"
	"foodanalyzer/internal/services/vision"
	"foodanalyzer/internal/services/websocket"
)

// Manager runs the analyze pipeline for one photo: normalize, ask the vision
// model, then record the result (photo on disk, row in the database, event
// to feed viewers). The pipeline itself is stateless; recording failures are
// logged but never mask a verdict the model already produced.
type Manager struct {
	client *vision.Client
	store  *storage.PhotoStore
	repo   repository.AnalysisRepository
	hub    *websocket.HubService
	model  string
	logger *logger.Logger
}

// AnalysisEvent is broadcast to feed viewers after each completed analysis.
type AnalysisEvent struct {
	Filename  string    `json:"filename"`
	Source    string    `json:"source"`
	Verdict   string    `json:"verdict"`
	Timestamp time.Time `json:"timestamp"`
}

func NewManager(client *vision.Client, store *storage.PhotoStore, repo repository.AnalysisRepository, hub *websocket.HubService, model string, logger *logger.Logger) *Manager {
	return &Manager{
		client: client,
		store:  store,
		repo:   repo,
		hub:    hub,
		model:  model,
		logger: logger,
	}
}

// AnalyzePhoto runs one decoded photo through the pipeline. source tags where
// the photo came from ("upload" or "camera"). The returned Analysis always
// carries the verdict; Filename is empty when storing the photo failed.
func (m *Manager) AnalyzePhoto(ctx context.Context, img image.Image, source string) (*models.Analysis, error) {
	normalized, err := imaging.Normalize(img)
	if err != nil {
		return nil, &vision.TransportError{Err: err}
	}

	verdict, err := m.client.AnalyzeJPEG(ctx, normalized)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		Source:    source,
		Verdict:   verdict,
		Model:     m.model,
		Timestamp: time.Now(),
		FileSize:  int64(len(normalized)),
	}

	m.record(analysis, normalized)
	m.notify(analysis)

	return analysis, nil
}

// record persists the photo and the analysis row. Best effort: the verdict
// has already been produced, so failures here only lose history.
func (m *Manager) record(analysis *models.Analysis, normalized []byte) {
	if m.store == nil {
		return
	}

	filename, fullpath, err := m.store.Save(normalized, analysis.Source)
	if err != nil {
		m.logger.Warning("Could not store analyzed photo: %v", err)
		return
	}
	analysis.Filename = filename
	analysis.FilePath = fullpath

	if m.repo == nil {
		return
	}

	id, err := m.repo.Insert(analysis)
	if err != nil {
		m.logger.Warning("Could not record analysis in database: %v", err)
		return
	}
	analysis.ID = id
}

// notify broadcasts the completed analysis to connected feed viewers.
func (m *Manager) notify(analysis *models.Analysis) {
	if m.hub == nil || m.hub.GetClientCount() == 0 {
		return
	}

	event := AnalysisEvent{
		Filename:  analysis.Filename,
		Source:    analysis.Source,
		Verdict:   analysis.Verdict,
		Timestamp: analysis.Timestamp,
	}

	message, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("Error encoding analysis event: %v", err)
		return
	}

	m.hub.Broadcast(message)
}

// GetRepository exposes the analysis repository for the history handlers.
func (m *Manager) GetRepository() repository.AnalysisRepository {
	return m.repo
}

// GetStore exposes the photo store for the history handlers.
func (m *Manager) GetStore() *storage.PhotoStore {
	return m.store
}

// GetWebsocketService exposes the feed hub for the websocket handlers.
func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}
