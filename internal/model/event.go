package model

// EventKind 系统事件类型（闭集，新增事件需同步补全 content 映射表）
type EventKind string

const (
	EventDocumentUploaded         EventKind = "DOCUMENT_UPLOADED"
	EventDocumentApproved         EventKind = "DOCUMENT_APPROVED"
	EventAppointmentCreated       EventKind = "APPOINTMENT_CREATED"
	EventAppointmentStatusChanged EventKind = "APPOINTMENT_STATUS_CHANGED"
	EventInvoiceCreated           EventKind = "INVOICE_CREATED"
	EventInvoicePaid              EventKind = "INVOICE_PAID"
	EventBlogCreated              EventKind = "BLOG_CREATED"
	EventAdminManual              EventKind = "ADMIN_MANUAL"
)

// AllEventKinds 全部事件类型，用于校验与遍历
var AllEventKinds = []EventKind{
	EventDocumentUploaded,
	EventDocumentApproved,
	EventAppointmentCreated,
	EventAppointmentStatusChanged,
	EventInvoiceCreated,
	EventInvoicePaid,
	EventBlogCreated,
	EventAdminManual,
}

func (k EventKind) Valid() bool {
	for _, v := range AllEventKinds {
		if v == k {
			return true
		}
	}
	return false
}
