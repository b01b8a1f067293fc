package model

import "time"

// AppointmentStatus 预约状态
type AppointmentStatus string

const (
	AppointmentUpcoming  AppointmentStatus = "Upcoming"
	AppointmentCancelled AppointmentStatus = "Cancelled"
	AppointmentCompleted AppointmentStatus = "Completed"
)

// MeetingType 会面方式
type MeetingType string

const (
	MeetingVirtual  MeetingType = "Virtual"
	MeetingInPerson MeetingType = "InPerson"
	MeetingPhone    MeetingType = "Phone"
)

// ValidMeetingType 校验会面方式取值
func ValidMeetingType(t MeetingType) bool {
	return t == MeetingVirtual || t == MeetingInPerson || t == MeetingPhone
}

// Appointment 预约记录，slot 抢占成功后在同一事务内创建
type Appointment struct {
	ID            string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AppointmentNo string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"appointmentNo"`
	UserID        string            `gorm:"type:varchar(36);index;not null" json:"userId"`
	ServiceName   string            `gorm:"type:varchar(64);index;not null" json:"serviceName"`
	SlotID        string            `gorm:"type:varchar(36);index;not null" json:"slotId"`
	ScheduledAt   time.Time         `gorm:"not null" json:"scheduledAt"`
	MeetingType   MeetingType       `gorm:"type:varchar(16);not null" json:"meetingType"`
	Note          string            `gorm:"type:text" json:"note,omitempty"`
	Status        AppointmentStatus `gorm:"type:varchar(16);index;not null;default:Upcoming" json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (Appointment) TableName() string { return "appointments" }
