package repository

import (
	"context"
	"errors"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScheduleRepository 保养计划仓库
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindAll 查询保养计划列表
func (r *ScheduleRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaintenanceSchedule, int64, error) {
	var items []entity.MaintenanceSchedule
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaintenanceSchedule{})

	if equipmentID := filters["equipment_id"]; equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if active := filters["active"]; active == "true" {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找保养计划
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*entity.MaintenanceSchedule, error) {
	var schedule entity.MaintenanceSchedule
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// FindActiveByEquipment 查询设备的有效保养计划
func (r *ScheduleRepository) FindActiveByEquipment(ctx context.Context, equipmentID string) ([]entity.MaintenanceSchedule, error) {
	var items []entity.MaintenanceSchedule
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND is_active = ?", equipmentID, true).
		Find(&items).Error
	return items, err
}

// FindAllActive 查询全部有效保养计划（带设备信息，到期扫描用）
func (r *ScheduleRepository) FindAllActive(ctx context.Context) ([]entity.MaintenanceSchedule, error) {
	var items []entity.MaintenanceSchedule
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("is_active = ?", true).
		Find(&items).Error
	return items, err
}

// Create 创建保养计划
func (r *ScheduleRepository) Create(ctx context.Context, schedule *entity.MaintenanceSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

// Update 更新保养计划
func (r *ScheduleRepository) Update(ctx context.Context, schedule *entity.MaintenanceSchedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}

// Delete 删除保养计划
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.MaintenanceSchedule{}, "id = ?", id).Error
}

// CompleteLocked 在行锁保护下推进到期标记
// 两个并发的完成请求不会基于同一个旧 next_due 各自加一轮：
// 后到的事务在 FOR UPDATE 上等待，拿到的是前一个事务推进后的行。
func (r *ScheduleRepository) CompleteLocked(ctx context.Context, id string, advance func(schedule *entity.MaintenanceSchedule) error) (*entity.MaintenanceSchedule, error) {
	var schedule entity.MaintenanceSchedule
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&schedule).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := advance(&schedule); err != nil {
			return err
		}
		return tx.Save(&schedule).Error
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}
