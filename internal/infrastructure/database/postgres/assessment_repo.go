package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fraud-risk-engine/internal/domain/fraud"
)

// AssessmentModel is the database model for fraud assessments
type AssessmentModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UserID        uuid.UUID `gorm:"type:uuid;index"`
	SessionID     string    `gorm:"type:varchar(100)"`

	RiskScore         float64 `gorm:"type:decimal(5,4);not null"`
	RiskLevel         string  `gorm:"type:varchar(20);index;not null"`
	Status            string  `gorm:"type:varchar(20);index;not null"`
	TriggeredRules    string  `gorm:"type:jsonb"`
	FeatureVector     string  `gorm:"type:jsonb"`
	RecommendedAction string  `gorm:"type:varchar(40);not null"`

	BankConnectorUsed    string `gorm:"type:varchar(50)"`
	BankValidationPassed *bool
	Degraded             bool `gorm:"not null;default:false"`

	ReviewedBy *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt *time.Time
	AssessedAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for fraud assessments
func (AssessmentModel) TableName() string {
	return "fraud_assessments"
}

// AssessmentRepository implements fraud.AssessmentRepository
type AssessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(client *Client) *AssessmentRepository {
	return &AssessmentRepository{db: client.DB()}
}

// Save upserts an assessment keyed by transaction ID
func (r *AssessmentRepository) Save(ctx context.Context, assessment *fraud.FraudAssessment) error {
	model, err := toModel(assessment)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindByTransactionID loads the assessment for a transaction
func (r *AssessmentRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*fraud.FraudAssessment, error) {
	var model AssessmentModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fraud.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	return toEntity(&model)
}

func toModel(a *fraud.FraudAssessment) (*AssessmentModel, error) {
	rules, err := json.Marshal(a.TriggeredRules)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal triggered rules: %w", err)
	}
	features, err := json.Marshal(a.FeatureVector)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feature vector: %w", err)
	}

	return &AssessmentModel{
		ID:                   a.ID,
		TransactionID:        a.TransactionID,
		UserID:               a.UserID,
		SessionID:            a.SessionID,
		RiskScore:            a.RiskScore,
		RiskLevel:            string(a.RiskLevel),
		Status:               string(a.Status),
		TriggeredRules:       string(rules),
		FeatureVector:        string(features),
		RecommendedAction:    string(a.RecommendedAction),
		BankConnectorUsed:    a.BankConnectorUsed,
		BankValidationPassed: a.BankValidationPassed,
		Degraded:             a.Degraded,
		ReviewedBy:           a.ReviewedBy,
		ReviewedAt:           a.ReviewedAt,
		AssessedAt:           a.AssessedAt,
	}, nil
}

func toEntity(m *AssessmentModel) (*fraud.FraudAssessment, error) {
	a := &fraud.FraudAssessment{
		ID:                   m.ID,
		TransactionID:        m.TransactionID,
		UserID:               m.UserID,
		SessionID:            m.SessionID,
		RiskScore:            m.RiskScore,
		RiskLevel:            fraud.RiskLevel(m.RiskLevel),
		Status:               fraud.AssessmentStatus(m.Status),
		RecommendedAction:    fraud.RecommendedAction(m.RecommendedAction),
		BankConnectorUsed:    m.BankConnectorUsed,
		BankValidationPassed: m.BankValidationPassed,
		Degraded:             m.Degraded,
		ReviewedBy:           m.ReviewedBy,
		ReviewedAt:           m.ReviewedAt,
		AssessedAt:           m.AssessedAt,
	}
	if m.TriggeredRules != "" {
		if err := json.Unmarshal([]byte(m.TriggeredRules), &a.TriggeredRules); err != nil {
			return nil, fmt.Errorf("failed to unmarshal triggered rules: %w", err)
		}
	}
	if m.FeatureVector != "" {
		if err := json.Unmarshal([]byte(m.FeatureVector), &a.FeatureVector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feature vector: %w", err)
		}
	}
	return a, nil
}
