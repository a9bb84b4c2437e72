package sqlite

import (
	"database/sql"
	"fmt"

	"foodanalyzer/internal/models"
)

// AnalysisRepository implements repository.AnalysisRepository for SQLite.
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new SQLite analysis repository.
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Insert adds a new analysis record to the database.
func (r *AnalysisRepository) Insert(a *models.Analysis) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO analyses (filename, source, verdict, model, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.Filename, a.Source, a.Verdict, a.Model, a.Timestamp, a.FilePath, a.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves an analysis by its ID.
func (r *AnalysisRepository) GetByID(id int64) (*models.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var a models.Analysis
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, source, verdict, model, timestamp, filepath, filesize
		FROM analyses WHERE id = ?
	`, id).Scan(&a.ID, &a.Filename, &a.Source, &a.Verdict, &a.Model, &a.Timestamp, &a.FilePath, &a.FileSize)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &a, nil
}

// GetByFilename retrieves an analysis by its stored photo filename.
func (r *AnalysisRepository) GetByFilename(filename string) (*models.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var a models.Analysis
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, source, verdict, model, timestamp, filepath, filesize
		FROM analyses WHERE filename = ?
	`, filename).Scan(&a.ID, &a.Filename, &a.Source, &a.Verdict, &a.Model, &a.Timestamp, &a.FilePath, &a.FileSize)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &a, nil
}

// GetAll retrieves analyses based on filter criteria, newest first.
func (r *AnalysisRepository) GetAll(filter *models.AnalysisFilter) ([]models.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if filter == nil {
		filter = &models.AnalysisFilter{}
	}

	query := `
		SELECT id, filename, source, verdict, model, timestamp, filepath, filesize
		FROM analyses
		WHERE 1=1
	`
	args := []interface{}{}
	query, args = applyFilter(query, args, filter)

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(&a.ID, &a.Filename, &a.Source, &a.Verdict, &a.Model, &a.Timestamp, &a.FilePath, &a.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// GetTotalCount returns the number of analyses matching the filter.
func (r *AnalysisRepository) GetTotalCount(filter *models.AnalysisFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(*) FROM analyses WHERE 1=1`
	args := []interface{}{}
	query, args = applyFilter(query, args, filter)

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// GetStats returns aggregate statistics about stored analyses.
func (r *AnalysisRepository) GetStats() (*models.AnalysisStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &models.AnalysisStats{
		PerSource: make(map[string]int),
	}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM analyses
	`).Scan(&stats.TotalAnalyses, &stats.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	rows, err := r.db.Conn().Query(`
		SELECT source, COUNT(*) FROM analyses GROUP BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get per-source stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan per-source stats: %w", err)
		}
		stats.PerSource[source] = count
	}

	return stats, rows.Err()
}

// Delete removes an analysis by ID.
func (r *AnalysisRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// DeleteByFilename removes an analysis by its stored photo filename.
func (r *AnalysisRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// DeleteAll removes every analysis record.
func (r *AnalysisRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`DELETE FROM analyses`)
	if err != nil {
		return fmt.Errorf("failed to clear analyses: %w", err)
	}
	return nil
}

// applyFilter appends WHERE clauses for the non-empty filter fields.
func applyFilter(query string, args []interface{}, filter *models.AnalysisFilter) (string, []interface{}) {
	if filter == nil {
		return query, args
	}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}

	if filter.Search != "" {
		query += " AND verdict LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}

	if !filter.StartDate.IsZero() {
		query += " AND DATE(timestamp) >= DATE(?)"
		args = append(args, filter.StartDate)
	}

	if !filter.EndDate.IsZero() {
		query += " AND DATE(timestamp) <= DATE(?)"
		args = append(args, filter.EndDate)
	}

	return query, args
}
