package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/smarthomesolar/solarsite/internal/model"
)

// EnsureOperator creates the operator account or resets its password when it already exists.
func EnsureOperator(database *gorm.DB, username string, password string) (model.Operator, error) {
	candidate, err := model.NewOperator(username, password)
	if err != nil {
		return model.Operator{}, err
	}

	var existing model.Operator
	lookupErr := database.Where("username = ?", candidate.Username).First(&existing).Error
	if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		if createErr := database.Create(&candidate).Error; createErr != nil {
			return model.Operator{}, createErr
		}
		return candidate, nil
	}
	if lookupErr != nil {
		return model.Operator{}, lookupErr
	}

	if existing.CheckPassword(password) == nil {
		return existing, nil
	}
	existing.PasswordHash = candidate.PasswordHash
	if saveErr := database.Save(&existing).Error; saveErr != nil {
		return model.Operator{}, saveErr
	}
	return existing, nil
}

// FindOperator loads an operator by username.
func FindOperator(database *gorm.DB, username string) (model.Operator, error) {
	var operator model.Operator
	err := database.Where("username = ?", model.NormalizeOperatorUsername(username)).First(&operator).Error
	return operator, err
}
