package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reviewflow/internal/errs"
	"reviewflow/internal/infrastructure/persistence/sqlite/model"
	"reviewflow/internal/ports"
)

// classificationColumns are the columns ConflictUpdate refreshes on
// redelivery; identity and provenance columns are never touched.
var classificationColumns = []string{"escalation", "sentiment", "theme", "ai_response"}

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

var (
	_ ports.ReviewRepository = (*ReviewRepository)(nil)
	_ ports.TrendRepository  = (*ReviewRepository)(nil)
)

func (r *ReviewRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *ReviewRepository) UpsertProcessedResponse(ctx context.Context, row ports.ProcessedResponse, policy ports.ConflictPolicy) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	record := model.ProcessedResponse{
		ReviewID:           row.ReviewID,
		ReviewDate:         row.ReviewDate,
		Channel:            row.Channel,
		ExternalCustomerID: row.ExternalCustomerID,
		CustomerName:       row.CustomerName,
		ReviewText:         row.ReviewText,
		StarRating:         row.StarRating,
		Location:           row.Location,
		Escalation:         row.Escalation,
		Sentiment:          row.Sentiment,
		Theme:              row.Theme,
		AIResponse:         row.AIResponse,
		CreatedAt:          row.CreatedAt,
	}
	if record.CreatedAt == "" {
		record.CreatedAt = time.Now().UTC().Format(ports.TimeLayout)
	}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "review_id"}},
		DoNothing: true,
	}
	if policy == ports.ConflictUpdate {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}},
			DoUpdates: clause.AssignmentColumns(classificationColumns),
		}
	}

	result := db.Clauses(conflict).Create(&record)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "upsert processed response")
	}
	return result.RowsAffected > 0, nil
}

func (r *ReviewRepository) GetProcessedResponse(ctx context.Context, reviewID int64) (ports.ProcessedResponse, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ProcessedResponse{}, err
	}

	var row model.ProcessedResponse
	if err := db.Where("review_id = ?", reviewID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ProcessedResponse{}, ports.ErrReviewNotFound
		}
		return ports.ProcessedResponse{}, errs.Wrap(err, "query processed response")
	}
	return mapProcessedResponse(row), nil
}

func (r *ReviewRepository) ListProcessedSince(ctx context.Context, cutoff time.Time) ([]ports.ProcessedResponse, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ProcessedResponse
	if err := db.
		Where("created_at >= ?", cutoff.UTC().Format(ports.TimeLayout)).
		Order("review_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query processed responses since cutoff")
	}

	items := make([]ports.ProcessedResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapProcessedResponse(row))
	}
	return items, nil
}

func (r *ReviewRepository) CountProcessedResponses(ctx context.Context) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.ProcessedResponse{}).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count processed responses")
	}
	return count, nil
}

// ReplaceTrends truncates and rewrites response_trends. Run it inside a
// unit of work so a failed rewrite rolls back to the previous contents.
func (r *ReviewRepository) ReplaceTrends(ctx context.Context, rows []ports.TrendRow) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("1 = 1").Delete(&model.ResponseTrend{}).Error; err != nil {
		return errs.Wrap(err, "truncate response trends")
	}

	if len(rows) == 0 {
		return nil
	}

	records := make([]model.ResponseTrend, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.ResponseTrend{
			TrendDate:       row.TrendDate,
			Channel:         row.Channel,
			Sentiment:       row.Sentiment,
			Theme:           row.Theme,
			ReviewCount:     row.ReviewCount,
			EscalationCount: row.EscalationCount,
			AvgStarRating:   row.AvgStarRating,
			Anomaly:         row.Anomaly,
		})
	}
	if err := db.CreateInBatches(&records, 200).Error; err != nil {
		return errs.Wrap(err, "insert response trends")
	}
	return nil
}

func (r *ReviewRepository) ListTrends(ctx context.Context, onlyAnomalies bool) ([]ports.TrendRow, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ResponseTrend{})
	if onlyAnomalies {
		query = query.Where("anomaly = ?", true)
	}

	var rows []model.ResponseTrend
	if err := query.
		Order("trend_date asc, channel asc, sentiment asc, theme asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query response trends")
	}

	items := make([]ports.TrendRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.TrendRow{
			TrendDate:       row.TrendDate,
			Channel:         row.Channel,
			Sentiment:       row.Sentiment,
			Theme:           row.Theme,
			ReviewCount:     row.ReviewCount,
			EscalationCount: row.EscalationCount,
			AvgStarRating:   row.AvgStarRating,
			Anomaly:         row.Anomaly,
		})
	}
	return items, nil
}

func mapProcessedResponse(row model.ProcessedResponse) ports.ProcessedResponse {
	return ports.ProcessedResponse{
		ReviewID:           row.ReviewID,
		ReviewDate:         row.ReviewDate,
		Channel:            row.Channel,
		ExternalCustomerID: row.ExternalCustomerID,
		CustomerName:       row.CustomerName,
		ReviewText:         row.ReviewText,
		StarRating:         row.StarRating,
		Location:           row.Location,
		Escalation:         row.Escalation,
		Sentiment:          row.Sentiment,
		Theme:              row.Theme,
		AIResponse:         row.AIResponse,
		CreatedAt:          row.CreatedAt,
	}
}
