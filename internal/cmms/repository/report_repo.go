package repository

import (
	"context"
	"errors"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"gorm.io/gorm"
)

// ReportRepository 点检报告仓库
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// DB 返回底层连接（报告提交与升级处置在同一事务中完成）
func (r *ReportRepository) DB() *gorm.DB {
	return r.db
}

// FindAll 查询报告列表
func (r *ReportRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Report, int64, error) {
	var items []entity.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Report{})

	if equipmentID := filters["equipment_id"]; equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if userID := filters["user_id"]; userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if critical := filters["critical"]; critical == "true" {
		query = query.Where("has_critical_failure = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("captured_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找报告及答案
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*entity.Report, error) {
	var report entity.Report
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// FindByClientRef 根据幂等键查找报告（离线同步重试）
func (r *ReportRepository) FindByClientRef(ctx context.Context, clientRef string) (*entity.Report, error) {
	var report entity.Report
	err := r.db.WithContext(ctx).
		Where("client_ref = ?", clientRef).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}
