package sqlite

import (
	"context"
	"encoding/json"

	"medsync/internal/domain/entity"
	domainerrors "medsync/internal/domain/errors"
	"medsync/internal/domain/repository"
	"medsync/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// changeQueueRepository implements the repository.ChangeQueueRepository interface.
type changeQueueRepository struct {
	db *gorm.DB
}

// NewChangeQueueRepository is the constructor for changeQueueRepository.
func NewChangeQueueRepository(db *gorm.DB) repository.ChangeQueueRepository {
	return &changeQueueRepository{
		db: db,
	}
}

// Append persists a new pending change.
func (repo *changeQueueRepository) Append(ctx context.Context, change *entity.PendingChange) error {
	changeM, err := fromChangeDomain(change)
	if err != nil {
		return errors.Wrap(err, "failed to encode change payload")
	}

	if err := repo.db.WithContext(ctx).Create(changeM).Error; err != nil {
		// Any write failure here means the local store itself is unhealthy
		// (locked file, full disk); the caller must see it, not lose the change.
		return domainerrors.NewStorageExecuteError(err, "failed to append pending change")
	}

	return nil
}

// FindPending retrieves unsynced changes oldest first, optionally filtered by type.
func (repo *changeQueueRepository) FindPending(ctx context.Context, entityType *entity.EntityType) ([]*entity.PendingChange, error) {
	var changeModels []*model.PendingChangeModel

	query := repo.db.WithContext(ctx).
		Where("synced = ?", false).
		Order("created_at ASC")

	if entityType != nil {
		query = query.Where("entity_type = ?", string(*entityType))
	}

	if err := query.Find(&changeModels).Error; err != nil {
		return nil, domainerrors.NewStorageExecuteError(err, "failed to list pending changes")
	}

	changes := make([]*entity.PendingChange, 0, len(changeModels))
	for _, changeM := range changeModels {
		change, err := toChangeDomain(changeM)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode change payload")
		}
		changes = append(changes, change)
	}

	return changes, nil
}

// MarkSynced flips the synced flag. A zero row count means the id was unknown
// or already synced; both are reported as ok=false, not as an error.
func (repo *changeQueueRepository) MarkSynced(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.PendingChangeModel{}).
		Where("id = ? AND synced = ?", id, false).
		Update("synced", true)

	if result.Error != nil {
		return false, domainerrors.NewStorageExecuteError(result.Error, "failed to mark change synced")
	}

	return result.RowsAffected > 0, nil
}

// CountPending returns the number of unsynced entries.
func (repo *changeQueueRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.PendingChangeModel{}).
		Where("synced = ?", false).
		Count(&count).Error; err != nil {
		return 0, domainerrors.NewStorageExecuteError(err, "failed to count pending changes")
	}

	return count, nil
}

// DeleteAll wipes every local record. Irreversible.
func (repo *changeQueueRepository) DeleteAll(ctx context.Context) error {
	if err := repo.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.PendingChangeModel{}).Error; err != nil {
		return domainerrors.NewStorageExecuteError(err, "failed to clear pending changes")
	}

	return nil
}

// --- Mapper Functions ---

// toChangeDomain converts a GORM PendingChangeModel to a domain PendingChange entity.
func toChangeDomain(data *model.PendingChangeModel) (*entity.PendingChange, error) {
	if data == nil {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(data.Payload), &payload); err != nil {
		return nil, err
	}

	return &entity.PendingChange{
		ID:         data.ID,
		EntityType: entity.EntityType(data.EntityType),
		Payload:    payload,
		CreatedAt:  data.CreatedAt,
		Synced:     data.Synced,
	}, nil
}

// fromChangeDomain converts a domain PendingChange entity to a GORM PendingChangeModel.
func fromChangeDomain(data *entity.PendingChange) (*model.PendingChangeModel, error) {
	if data == nil {
		return nil, nil
	}

	payload, err := json.Marshal(data.Payload)
	if err != nil {
		return nil, err
	}

	return &model.PendingChangeModel{
		ID:         data.ID,
		EntityType: string(data.EntityType),
		Payload:    string(payload),
		CreatedAt:  data.CreatedAt,
		Synced:     data.Synced,
	}, nil
}
