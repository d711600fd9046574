package models

// User is a row of the credential store.
type User struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	Username       string  `gorm:"size:100;not null"`
	FirstName      string  `gorm:"size:100"`
	LastName       string  `gorm:"size:100"`
	Password       string  `gorm:"size:255;not null" json:"-"` // plaintext or bcrypt hash, depending on the password scheme
	ProfilePicture *string `gorm:"size:255"`
	GenderID       uint    `gorm:"index"`
	Gender         *Gender `gorm:"foreignKey:GenderID" json:"-"`
	Email          string  `gorm:"size:255;index"` // not unique in storage, checked before insert
}

func (User) TableName() string {
	return "users"
}
