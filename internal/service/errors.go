package service

import (
	"errors"
	"fmt"
)

// 错误分类，handler 依据根错误映射 HTTP 状态码
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("access denied")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("upstream unavailable")
)

var (
	// ErrSlotConflict 并发抢占失败或时段已被占用
	ErrSlotConflict = fmt.Errorf("%w: slot already booked", ErrConflict)
	// ErrUserBlocked 被封禁用户不允许发起预约
	ErrUserBlocked = fmt.Errorf("%w: user is blocked", ErrForbidden)
)
