//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based implementations of the travito store interfaces.
// PostgreSQL is used in production and SQLite for local development and tests.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: Accounts, unique by email. hashed_password is NULL for OAuth-only users
//   - accounts: Links to OAuth provider identities, unique by (provider, provider_account_id)
//   - contact_messages: Contact form submissions
//
// # Usage
//
//	db, _ := gormstore.Open(os.Getenv("DATABASE_URL"), gormstore.Options{})
//	_ = gormstore.AutoMigrate(db)
//	store := gormstore.NewStore(db)
//	validate := travito.NewCredentialsValidator(store)
package gorm
