package repository

import (
	"context"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type securityEventRepository struct {
	db *gorm.DB
}

func NewSecurityEventRepository(db *gorm.DB) security.Repository {
	return &securityEventRepository{db: db}
}

// Save inserts evt. Re-delivering the same event ID is a no-op.
func (r *securityEventRepository) Save(ctx context.Context, evt *security.Event) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(evt).Error
}
