package model

import "time"

// SlotStatus 预约时段状态
type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotBooked    SlotStatus = "Booked"
	SlotDisabled  SlotStatus = "Disabled"
)

// ScheduleSlot 可预约时段
// 状态迁移：Available→Booked（抢占）、Booked→Available（取消释放）、任意→Disabled（管理员）
// appointment_id 唯一索引兜底：一个时段至多挂一条预约
type ScheduleSlot struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ServiceName   string     `gorm:"type:varchar(64);index:idx_slot_service_date;not null" json:"serviceName"`
	Date          time.Time  `gorm:"index:idx_slot_service_date;not null" json:"date"`
	StartTime     time.Time  `gorm:"not null" json:"startTime"`
	EndTime       time.Time  `gorm:"not null" json:"endTime"`
	DurationMin   int        `gorm:"not null" json:"durationMin"`
	Status        SlotStatus `gorm:"type:varchar(16);index;not null;default:Available" json:"status"`
	AppointmentID *string    `gorm:"type:varchar(36);uniqueIndex" json:"appointmentId,omitempty"`
	CreatedByID   *string    `gorm:"type:varchar(36)" json:"createdById,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (ScheduleSlot) TableName() string { return "schedule_slots" }
