//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	"github.com/travito/travito"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID             string  `gorm:"primaryKey;size:64"`
	Email          string  `gorm:"size:255;not null;uniqueIndex"`
	Name           string  `gorm:"size:255"`
	Image          string  `gorm:"size:1024"`
	HashedPassword *string `gorm:"size:255"`
	EmailVerified  *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *travito.User {
	return &travito.User{
		ID:             m.ID,
		Email:          m.Email,
		Name:           m.Name,
		Image:          m.Image,
		HashedPassword: m.HashedPassword,
		EmailVerified:  m.EmailVerified,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func UserToModel(u *travito.User) *UserModel {
	return &UserModel{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Image:          u.Image,
		HashedPassword: u.HashedPassword,
		EmailVerified:  u.EmailVerified,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// AccountModel is the GORM model for provider links
type AccountModel struct {
	ID                string    `gorm:"primaryKey;size:64"`
	UserID            string    `gorm:"size:64;not null;index"`
	User              UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Provider          string    `gorm:"size:32;not null;uniqueIndex:idx_accounts_provider_account"`
	ProviderAccountID string    `gorm:"size:255;not null;uniqueIndex:idx_accounts_provider_account"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToAccount() *travito.Account {
	return &travito.Account{
		ID:                m.ID,
		UserID:            m.UserID,
		Provider:          m.Provider,
		ProviderAccountID: m.ProviderAccountID,
		CreatedAt:         m.CreatedAt,
	}
}

func AccountToModel(a *travito.Account) *AccountModel {
	return &AccountModel{
		ID:                a.ID,
		UserID:            a.UserID,
		Provider:          a.Provider,
		ProviderAccountID: a.ProviderAccountID,
		CreatedAt:         a.CreatedAt,
	}
}

// ContactMessageModel is the GORM model for contact form submissions
type ContactMessageModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;not null;index"`
	Subject   string    `gorm:"size:255;not null"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (ContactMessageModel) TableName() string {
	return "contact_messages"
}

func (m *ContactMessageModel) ToContactMessage() *travito.ContactMessage {
	return &travito.ContactMessage{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

func ContactMessageToModel(c *travito.ContactMessage) *ContactMessageModel {
	return &ContactMessageModel{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
}
