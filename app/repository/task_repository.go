package repository

import (
	"github.com/launchcrm/launchcrm/app/models"
	"gorm.io/gorm"
)

type taskRepository struct {
	db        *gorm.DB
	companyID uint
}

func newTaskRepository(db *gorm.DB, companyID uint) TaskRepository {
	return &taskRepository{db: db, companyID: companyID}
}

func (r *taskRepository) Create(task *models.Task) error {
	task.CompanyID = r.companyID
	return r.db.Create(task).Error
}

func (r *taskRepository) GetByID(id uint) (*models.Task, error) {
	var task models.Task
	err := r.db.Where("id = ? AND company_id = ?", id, r.companyID).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(opts ListOptions) ([]models.Task, error) {
	var tasks []models.Task
	query := r.db.Where("company_id = ?", r.companyID)
	if opts.Search != "" {
		query = query.Where("title LIKE ?", "%"+opts.Search+"%")
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	err := query.Order(orderOrDefault(opts)).Offset(opts.Offset).Limit(limitOrDefault(opts)).Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) Update(task *models.Task) error {
	if task.CompanyID != r.companyID {
		return gorm.ErrRecordNotFound
	}
	return r.db.Save(task).Error
}

func (r *taskRepository) Delete(id uint) error {
	res := r.db.Where("id = ? AND company_id = ?", id, r.companyID).Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepository) ListByAssignee(userID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Where("company_id = ? AND assigned_to = ?", r.companyID, userID).Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).Where("company_id = ?", r.companyID).Count(&count).Error
	return count, err
}

func (r *taskRepository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("company_id = ? AND completed_at IS NULL", r.companyID).
		Count(&count).Error
	return count, err
}
