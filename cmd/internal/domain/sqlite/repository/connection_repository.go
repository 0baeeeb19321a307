package repository

import (
	"notesweb/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *DefaultConnectionRepository {
	return &DefaultConnectionRepository{db: db}
}

func (c *DefaultConnectionRepository) Save(conn *entity.Connection) error {
	return c.db.Save(conn).Error
}

func (c *DefaultConnectionRepository) Delete(connID string) error {
	return c.db.Delete(&entity.Connection{}, "connection_id = ?", connID).Error
}

func (c *DefaultConnectionRepository) FindByUserID(userID int64) ([]string, error) {
	var ids []string
	result := c.db.Model(&entity.Connection{}).
		Where("user_id = ?", userID).
		Pluck("connection_id", &ids)

	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}

// FindExpired returns connections whose token expired or whose last heartbeat
// is older than the allowed period plus tolerance.
func (c *DefaultConnectionRepository) FindExpired(now int64) ([]*entity.Connection, error) {
	staleBefore := now - entity.HeartbeatPeriodMillis - entity.HeartbeatToleranceMillis

	var conns []*entity.Connection
	err := c.db.
		Where("expires_at < ? OR last_heartbeat_at < ?", now, staleBefore).
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (c *DefaultConnectionRepository) UpdateHeartbeat(connID string, now int64) error {
	return c.db.Model(&entity.Connection{}).
		Where("connection_id = ?", connID).
		Update("last_heartbeat_at", now).Error
}
