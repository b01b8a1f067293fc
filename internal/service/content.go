package service

import (
	"fmt"

	"github.com/d60-Lab/booking-platform/internal/model"
)

// Content 事件对应的通知文案
type Content struct {
	Title   string
	Message string
}

// contentTable 事件类型 → 文案 的全量映射；覆盖度由单测对照 model.AllEventKinds 保证。
// 新增事件类型必须同步补一条，否则落到兜底文案。
var contentTable = map[model.EventKind]func(md model.JSONMap) Content{
	model.EventDocumentUploaded: func(model.JSONMap) Content {
		return Content{Title: "Document uploaded", Message: "Your document has been uploaded successfully."}
	},
	model.EventDocumentApproved: func(model.JSONMap) Content {
		return Content{Title: "Document approved", Message: "Your document has been approved."}
	},
	model.EventAppointmentCreated: func(model.JSONMap) Content {
		return Content{Title: "Appointment created", Message: "Your appointment has been created."}
	},
	model.EventAppointmentStatusChanged: func(md model.JSONMap) Content {
		if status := md.String("status"); status != "" {
			return Content{
				Title:   "Appointment status updated",
				Message: fmt.Sprintf("Your appointment status is now %s.", status),
			}
		}
		return Content{Title: "Appointment status updated", Message: "Your appointment status has been updated."}
	},
	model.EventInvoiceCreated: func(model.JSONMap) Content {
		return Content{Title: "Invoice created", Message: "A new invoice has been issued."}
	},
	model.EventInvoicePaid: func(model.JSONMap) Content {
		return Content{Title: "Invoice paid", Message: "Your invoice has been marked as paid."}
	},
	model.EventBlogCreated: func(model.JSONMap) Content {
		return Content{Title: "New blog post", Message: "A new blog post is now available."}
	},
	model.EventAdminManual: func(model.JSONMap) Content {
		return Content{Title: "Notification", Message: "You have a new notification."}
	},
}

// BuildContent 合成事件文案，未知类型落兜底而不是报错
func BuildContent(kind model.EventKind, md model.JSONMap) Content {
	if fn, ok := contentTable[kind]; ok {
		return fn(md)
	}
	return Content{Title: "Notification", Message: "You have a new notification."}
}

// activityTypeTable 事件类型 → 流水分类
var activityTypeTable = map[model.EventKind]string{
	model.EventDocumentUploaded:         "Document",
	model.EventDocumentApproved:         "Document",
	model.EventAppointmentCreated:       "Appointment",
	model.EventAppointmentStatusChanged: "Appointment",
	model.EventInvoiceCreated:           "Invoice",
	model.EventInvoicePaid:              "Invoice",
	model.EventBlogCreated:              "Blog",
	model.EventAdminManual:              "Admin",
}

// ActivityType 流水分类，未知类型归为 System
func ActivityType(kind model.EventKind) string {
	if t, ok := activityTypeTable[kind]; ok {
		return t
	}
	return "System"
}

// activityDescriptionTable 事件类型 → 流水描述
var activityDescriptionTable = map[model.EventKind]func(md model.JSONMap) string{
	model.EventDocumentUploaded:   func(model.JSONMap) string { return "Document uploaded" },
	model.EventDocumentApproved:   func(model.JSONMap) string { return "Document approved" },
	model.EventAppointmentCreated: func(model.JSONMap) string { return "Appointment created" },
	model.EventAppointmentStatusChanged: func(md model.JSONMap) string {
		if status := md.String("status"); status != "" {
			return fmt.Sprintf("Appointment status is now %s", status)
		}
		return "Appointment status updated"
	},
	model.EventInvoiceCreated: func(model.JSONMap) string { return "Invoice created" },
	model.EventInvoicePaid:    func(model.JSONMap) string { return "Invoice paid" },
	model.EventBlogCreated:    func(model.JSONMap) string { return "New blog post" },
	model.EventAdminManual:    func(model.JSONMap) string { return "Manual admin action" },
}

// ActivityDescription 流水描述，未知类型落兜底
func ActivityDescription(kind model.EventKind, md model.JSONMap) string {
	if fn, ok := activityDescriptionTable[kind]; ok {
		return fn(md)
	}
	return "System activity recorded"
}

// MergeActivityMetadata 在原始 metadata 上补全 type/description（已有则保留）
func MergeActivityMetadata(kind model.EventKind, md model.JSONMap, message string) model.JSONMap {
	merged := model.JSONMap{}
	for k, v := range md {
		merged[k] = v
	}
	if merged.String("type") == "" {
		merged["type"] = ActivityType(kind)
	}
	if merged.String("description") == "" {
		if message != "" {
			merged["description"] = message
		} else {
			merged["description"] = ActivityDescription(kind, md)
		}
	}
	return merged
}
