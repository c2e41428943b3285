package entity

import "time"

// Schedule times are UTC wall-clock values in timestamp-without-zone columns.
type Schedule struct {
	ScheduleID int64     `gorm:"column:schedule_id;primaryKey;autoIncrement"`
	UserID     int64     `gorm:"column:user_id;not null;index"`
	StartTime  time.Time `gorm:"type:timestamp;not null;index"`
	EndTime    time.Time `gorm:"type:timestamp;not null"`
	Type       string    `gorm:"size:50;not null"`
	Title      string    `gorm:"size:255;not null"`
	User       *User     `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

func (Schedule) TableName() string { return "user_schedules" }
