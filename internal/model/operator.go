package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	operatorPasswordCost        = 12
	operatorUsernameMaxLength   = 64
	operatorPasswordMinLength   = 8
	operatorPasswordMaxByteSize = 72
)

var (
	ErrInvalidOperatorUsername  = errors.New("invalid_operator_username")
	ErrInvalidOperatorPassword  = errors.New("invalid_operator_password")
	ErrOperatorPasswordMismatch = errors.New("operator_password_mismatch")
)

// Operator is an admin panel account.
type Operator struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"not null;size:64;uniqueIndex"`
	PasswordHash string    `gorm:"not null;size:100"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// NewOperator constructs an Operator with a bcrypt password hash.
func NewOperator(username string, password string) (Operator, error) {
	normalizedUsername := NormalizeOperatorUsername(username)
	if normalizedUsername == "" || len(normalizedUsername) > operatorUsernameMaxLength {
		return Operator{}, ErrInvalidOperatorUsername
	}
	operator := Operator{
		ID:       uuid.NewString(),
		Username: normalizedUsername,
	}
	if err := operator.SetPassword(password); err != nil {
		return Operator{}, err
	}
	return operator, nil
}

// NormalizeOperatorUsername lower-cases and trims a username.
func NormalizeOperatorUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// SetPassword hashes and stores the password.
func (operator *Operator) SetPassword(password string) error {
	if len(password) < operatorPasswordMinLength || len(password) > operatorPasswordMaxByteSize {
		return ErrInvalidOperatorPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), operatorPasswordCost)
	if err != nil {
		return err
	}
	operator.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports ErrOperatorPasswordMismatch when the password does not match the stored hash.
func (operator Operator) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return ErrOperatorPasswordMismatch
	}
	return nil
}
