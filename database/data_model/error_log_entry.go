package data_model

import "gorm.io/gorm"

// ErrorLogEntry is one persisted error record for later inspection.
type ErrorLogEntry struct {
	gorm.Model

	Kind    string
	Message string
	Context string
}
