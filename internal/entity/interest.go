package entity

type Interest struct {
	InterestID int64  `gorm:"column:interest_id;primaryKey;autoIncrement" json:"interest_id"`
	Name       string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

func (Interest) TableName() string { return "interests" }

type UserInterest struct {
	UserID     int64     `gorm:"column:user_id;primaryKey"`
	InterestID int64     `gorm:"column:interest_id;primaryKey;index"`
	User       *User     `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Interest   *Interest `gorm:"foreignKey:InterestID;references:InterestID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserInterest) TableName() string { return "user_interests" }
