//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/travito/travito"
)

// AutoMigrate runs database migrations for all travito tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&AccountModel{},
		&ContactMessageModel{},
	)
}

// translateError maps driver errors onto the travito error taxonomy.
// Open enables TranslateError, so unique violations arrive as
// gorm.ErrDuplicatedKey; the message check covers drivers that don't translate.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %w", travito.ErrDuplicateAccount, err)
	default:
		return fmt.Errorf("%w: %w", travito.ErrPersistence, err)
	}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// =============================================================================
// UserStore + AccountStore
// =============================================================================

// Store implements travito.AuthUserStore using GORM
type Store struct {
	db *gorm.DB
}

var _ travito.AuthUserStore = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*travito.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, travito.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return model.ToUser(), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*travito.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, travito.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return model.ToUser(), nil
}

func (s *Store) CreateUser(ctx context.Context, user *travito.User) error {
	model := UserToModel(user)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	user.CreatedAt, user.UpdatedAt = model.CreatedAt, model.UpdatedAt
	return nil
}

func (s *Store) GetAccount(ctx context.Context, provider, providerAccountID string) (*travito.Account, error) {
	var model AccountModel
	err := s.db.WithContext(ctx).
		First(&model, "provider = ? AND provider_account_id = ?", provider, providerAccountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, travito.ErrAccountNotFound
		}
		return nil, translateError(err)
	}
	return model.ToAccount(), nil
}

// CreateUserWithAccount inserts the user and its provider link in one transaction.
func (s *Store) CreateUserWithAccount(ctx context.Context, user *travito.User, account *travito.Account) error {
	userModel := UserToModel(user)
	accountModel := AccountToModel(account)
	accountModel.UserID = userModel.ID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userModel).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(accountModel).Error
	})
	if err != nil {
		return translateError(err)
	}
	user.CreatedAt, user.UpdatedAt = userModel.CreatedAt, userModel.UpdatedAt
	account.UserID, account.CreatedAt = accountModel.UserID, accountModel.CreatedAt
	return nil
}

func (s *Store) GetUserAccounts(ctx context.Context, userID string) ([]*travito.Account, error) {
	var models []AccountModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}
	out := make([]*travito.Account, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToAccount())
	}
	return out, nil
}

// =============================================================================
// ContactStore
// =============================================================================

// ContactStore implements travito.ContactStore using GORM
type ContactStore struct {
	db *gorm.DB
}

func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) SaveContactMessage(ctx context.Context, msg *travito.ContactMessage) error {
	model := ContactMessageToModel(msg)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	msg.CreatedAt = model.CreatedAt
	return nil
}

// ListContactMessages returns the most recent messages first.
func (s *ContactStore) ListContactMessages(ctx context.Context, limit int) ([]*travito.ContactMessage, error) {
	var models []ContactMessageModel
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, translateError(err)
	}
	out := make([]*travito.ContactMessage, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToContactMessage())
	}
	return out, nil
}
