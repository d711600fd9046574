package models

// Gender is read-only reference data.
type Gender struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:50;not null" json:"name"`
}

func (Gender) TableName() string {
	return "genders"
}
