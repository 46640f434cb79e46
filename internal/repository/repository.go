// Package repository holds the GORM persistence layer for leads,
// drafts, suppression entries and the audit trail.
package repository

import "gorm.io/gorm"

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}
