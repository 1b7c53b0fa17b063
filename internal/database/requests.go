// Package database defines the insertions to the database
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"deepseek-ocr-api/internal/shared"

	"go.uber.org/zap"
)

const insertRequestsSQL = `INSERT INTO ocr_request (
	request_id, endpoint, model, image_count, status_code,
	processing_time_ms, prompt_tokens, completion_tokens, created_at
) VALUES `

const requestPlaceholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?)"

// BuildInsertRequests builds one multi-row insert for records
func BuildInsertRequests(records []*shared.ProcessedOCRRequest) (string, []any) {
	placeholders := make([]string, 0, len(records))
	vals := make([]any, 0, len(records)*9)
	for _, r := range records {
		var promptTokens, completionTokens uint64
		if r.Usage != nil {
			promptTokens = r.Usage.PromptTokens
			completionTokens = r.Usage.CompletionTokens
		}
		placeholders = append(placeholders, requestPlaceholders)
		vals = append(vals,
			r.RequestID,
			r.Endpoint,
			r.Model,
			r.ImageCount,
			r.StatusCode,
			r.ProcessingTime.Milliseconds(),
			promptTokens,
			completionTokens,
			r.CreatedAt,
		)
	}
	return insertRequestsSQL + strings.Join(placeholders, ", "), vals
}

// SaveRequests writes the processed request records in one transaction
func SaveRequests(db *sql.DB, records []*shared.ProcessedOCRRequest, log *zap.SugaredLogger) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query, vals := BuildInsertRequests(records)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, vals...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert ocr requests: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ocr requests: %w", err)
	}
	log.Infow("Saved ocr requests", "count", len(records))
	return nil
}

// NewFlushFunc adapts SaveRequests for the usage cache
func NewFlushFunc(db *sql.DB, log *zap.SugaredLogger) func([]*shared.ProcessedOCRRequest) error {
	return func(records []*shared.ProcessedOCRRequest) error {
		return SaveRequests(db, records, log)
	}
}
