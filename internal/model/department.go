package model

// Department (departments table). ModificationFlag marks departments that require a
// revision round after the main review.
type Department struct {
	ID               uint   `gorm:"primaryKey"                    json:"id"`
	Name             string `gorm:"type:varchar(100);not null"    json:"name"`
	ModificationFlag bool   `gorm:"not null;default:false"        json:"modification_flag"`
	BaseModel
}

func (Department) TableName() string { return "departments" }
