package model

import "time"

// Profile holds the public producer page for one account. Exactly one
// profile exists per user; it is created together with the account.
type Profile struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int64     `json:"userId" gorm:"uniqueIndex;not null"`
	AvatarPath string    `json:"avatarPath,omitempty" gorm:"size:767"`
	Bio        string    `json:"bio,omitempty" gorm:"type:text"`
	Website    string    `json:"website,omitempty" gorm:"size:255"`
	Instagram  string    `json:"instagram,omitempty" gorm:"size:100"`
	Twitter    string    `json:"twitter,omitempty" gorm:"size:100"`
	Soundcloud string    `json:"soundcloud,omitempty" gorm:"size:100"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName sets the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Bio        string `json:"bio"`
	Website    string `json:"website"`
	Instagram  string `json:"instagram"`
	Twitter    string `json:"twitter"`
	Soundcloud string `json:"soundcloud"`
}
