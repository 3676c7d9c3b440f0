package models

import "time"

const SettingAdminPasswordHash = "admin_password_hash"

type Setting struct {
	Key       string    `json:"key" gorm:"type:varchar(100);primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Setting) TableName() string {
	return "system_settings"
}
