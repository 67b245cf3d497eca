package repository

import (
	"context"
	"errors"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"gorm.io/gorm"
)

// TemplateRepository 点检模板仓库
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List 查询模板列表
func (r *TemplateRepository) List(ctx context.Context, clientID string, activeOnly bool) ([]entity.ChecklistTemplate, error) {
	var items []entity.ChecklistTemplate

	query := r.db.WithContext(ctx).Model(&entity.ChecklistTemplate{})
	if clientID != "" {
		// 客户模板 + 全局模板
		query = query.Where("client_id = ? OR client_id IS NULL", clientID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	err := query.Order("name, version DESC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找模板
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.ChecklistTemplate, error) {
	var tmpl entity.ChecklistTemplate
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tmpl, nil
}

// FindWithQuestions 查找模板及题目（按 order_index 排序）
func (r *TemplateRepository) FindWithQuestions(ctx context.Context, id string) (*entity.ChecklistTemplate, error) {
	var tmpl entity.ChecklistTemplate
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index")
		}).
		Where("id = ?", id).
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tmpl, nil
}

// CreateWithQuestions 在同一事务中创建模板及题目
func (r *TemplateRepository) CreateWithQuestions(ctx context.Context, tmpl *entity.ChecklistTemplate, questions []entity.ChecklistQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tmpl).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].TemplateID = tmpl.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceQuestions 原地替换模板题目集（仅限未被报告引用的模板）
func (r *TemplateRepository) ReplaceQuestions(ctx context.Context, tmpl *entity.ChecklistTemplate, questions []entity.ChecklistQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", tmpl.ID).
			Delete(&entity.ChecklistQuestion{}).Error; err != nil {
			return err
		}
		tmpl.Questions = nil
		if err := tx.Save(tmpl).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].TemplateID = tmpl.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateVersion 落新版本并停用旧版本（同一事务）
func (r *TemplateRepository) CreateVersion(ctx context.Context, oldID string, next *entity.ChecklistTemplate, questions []entity.ChecklistQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.ChecklistTemplate{}).
			Where("id = ?", oldID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if err := tx.Create(next).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].TemplateID = next.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update 更新模板基本信息
func (r *TemplateRepository) Update(ctx context.Context, tmpl *entity.ChecklistTemplate) error {
	return r.db.WithContext(ctx).Save(tmpl).Error
}

// Deactivate 停用模板
func (r *TemplateRepository) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.ChecklistTemplate{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// MaxVersion 同一 base_id 下的最大版本号
func (r *TemplateRepository) MaxVersion(ctx context.Context, baseID string) (int, error) {
	var v int
	err := r.db.WithContext(ctx).
		Model(&entity.ChecklistTemplate{}).
		Select("COALESCE(MAX(version), 0)").
		Where("base_id = ?", baseID).
		Scan(&v).Error
	return v, err
}

// HasReports 模板是否已被报告引用（引用后题目集不可变）
func (r *TemplateRepository) HasReports(ctx context.Context, templateID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	return count > 0, err
}

// FindQuestion 根据ID查找题目
func (r *TemplateRepository) FindQuestion(ctx context.Context, id string) (*entity.ChecklistQuestion, error) {
	var q entity.ChecklistQuestion
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}
