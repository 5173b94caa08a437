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

// notificationLogRepository implements the repository.NotificationLogRepository interface.
type notificationLogRepository struct {
	db *gorm.DB
}

// NewNotificationLogRepository is the constructor for notificationLogRepository.
func NewNotificationLogRepository(db *gorm.DB) repository.NotificationLogRepository {
	return &notificationLogRepository{
		db: db,
	}
}

// Create persists a dispatched notification message.
func (repo *notificationLogRepository) Create(ctx context.Context, message *entity.NotificationMessage) error {
	messageM, err := fromMessageDomain(message)
	if err != nil {
		return errors.Wrap(err, "failed to encode message payload")
	}

	if err := repo.db.WithContext(ctx).Create(messageM).Error; err != nil {
		return domainerrors.NewStorageExecuteError(err, "failed to create notification message")
	}

	return nil
}

// UpdateState records the message's delivery state transition and whether an
// ack-capable channel accepted it.
func (repo *notificationLogRepository) UpdateState(ctx context.Context, id uuid.UUID, state entity.DeliveryState, ackCapable bool) error {
	result := repo.db.WithContext(ctx).
		Model(&model.NotificationMessageModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"delivery_state": string(state),
			"ack_capable":    ackCapable,
		})

	if result.Error != nil {
		return domainerrors.NewStorageExecuteError(result.Error, "failed to update delivery state")
	}

	if result.RowsAffected == 0 {
		return repository.ErrMessageNotFound
	}

	return nil
}

// MarkAcknowledged flips a sent message to acknowledged. Only sent messages
// that went through an ack-capable channel can be acknowledged; anything else
// reports ok=false.
func (repo *notificationLogRepository) MarkAcknowledged(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.NotificationMessageModel{}).
		Where("id = ? AND delivery_state = ? AND ack_capable = ?", id, string(entity.DeliverySent), true).
		Update("delivery_state", string(entity.DeliveryAcknowledged))

	if result.Error != nil {
		return false, domainerrors.NewStorageExecuteError(result.Error, "failed to acknowledge message")
	}

	return result.RowsAffected > 0, nil
}

// FindRecent returns messages newest first for the notification center.
func (repo *notificationLogRepository) FindRecent(ctx context.Context, limit, offset int) ([]*entity.NotificationMessage, error) {
	var messageModels []*model.NotificationMessageModel

	query := repo.db.WithContext(ctx).
		Order("timestamp DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&messageModels).Error; err != nil {
		return nil, domainerrors.NewStorageExecuteError(err, "failed to list notification messages")
	}

	messages := make([]*entity.NotificationMessage, 0, len(messageModels))
	for _, messageM := range messageModels {
		message, err := toMessageDomain(messageM)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode message payload")
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// DeleteAll wipes the local message log.
func (repo *notificationLogRepository) DeleteAll(ctx context.Context) error {
	if err := repo.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.NotificationMessageModel{}).Error; err != nil {
		return domainerrors.NewStorageExecuteError(err, "failed to clear notification messages")
	}

	return nil
}

// --- Mapper Functions ---

// toMessageDomain converts a GORM NotificationMessageModel to a domain NotificationMessage entity.
func toMessageDomain(data *model.NotificationMessageModel) (*entity.NotificationMessage, error) {
	if data == nil {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(data.Payload), &payload); err != nil {
		return nil, err
	}

	return &entity.NotificationMessage{
		ID:            data.ID,
		Type:          entity.NotificationType(data.Type),
		Priority:      entity.ParsePriority(data.Priority),
		Payload:       payload,
		Timestamp:     data.Timestamp,
		DeliveryState: entity.DeliveryState(data.DeliveryState),
		AckCapable:    data.AckCapable,
	}, nil
}

// fromMessageDomain converts a domain NotificationMessage entity to a GORM NotificationMessageModel.
func fromMessageDomain(data *entity.NotificationMessage) (*model.NotificationMessageModel, error) {
	if data == nil {
		return nil, nil
	}

	payload, err := json.Marshal(data.Payload)
	if err != nil {
		return nil, err
	}

	return &model.NotificationMessageModel{
		ID:            data.ID,
		Type:          string(data.Type),
		Priority:      data.Priority.String(),
		Payload:       string(payload),
		Timestamp:     data.Timestamp,
		DeliveryState: string(data.DeliveryState),
		AckCapable:    data.AckCapable,
	}, nil
}
