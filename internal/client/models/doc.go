// Package models defines the local vault entities persisted in SQLite and the
// snapshot DTOs they are reconciled from.
package models
