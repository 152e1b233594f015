package repository

import "gorm.io/gorm"

// findOne 取首行，无匹配时返回 nil, nil
func findOne[T any](query *gorm.DB) (*T, error) {
	var row T
	result := query.Limit(1).Find(&row)
	switch {
	case result.Error != nil:
		return nil, result.Error
	case result.RowsAffected == 0:
		return nil, nil
	}
	return &row, nil
}

func findAll[T any](query *gorm.DB) ([]T, error) {
	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// paginate pageSize<=0 时不分页
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		return db.Offset((max(page, 1) - 1) * pageSize).Limit(pageSize)
	}
}
