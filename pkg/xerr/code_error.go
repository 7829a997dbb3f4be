package xerr

import (
	"errors"
	"fmt"
)

// CodeError 自定义错误结构
type CodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// New 创建新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg}
}

// Wrap 在保留错误码的前提下补充上下文信息
func Wrap(base *CodeError, detail string) *CodeError {
	if base == nil {
		return New(InternalServerError, detail)
	}
	return &CodeError{Code: base.Code, Message: fmt.Sprintf("%s: %s", base.Message, detail)}
}

// IsCode 判断错误链中是否存在指定错误码
func IsCode(err error, code int) bool {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// 常用通用错误码
const (
	OK                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

// 流水线降级错误码（不会作为硬失败抛给用户，见各组件约定）
const (
	CodeSessionLocked          = 4290 // 同一会话存在进行中的请求
	CodeTranslationUnavailable = 5101 // 翻译链路全部失败，已按原文降级
	CodeRetrievalDegraded      = 5102 // 向量检索不可用，已降级为关键词检索
	CodeGenerationUnavailable  = 5103 // LLM 生成不可用，已返回兜底回答
	CodeInvalidContextSchema   = 5104 // 会话上下文损坏，已重置为默认
)

// 常用预定义错误
var (
	ErrSuccess     = New(OK, "Success")
	ErrServerError = New(InternalServerError, "系统错误，请联系工作人员")
	ErrParam       = New(BadRequest, "参数错误")
	ErrNotFound    = New(NotFound, "记录不存在")

	ErrSessionLocked          = New(CodeSessionLocked, "会话正在处理中，请稍后重试")
	ErrTranslationUnavailable = New(CodeTranslationUnavailable, "translation unavailable")
	ErrRetrievalDegraded      = New(CodeRetrievalDegraded, "retrieval degraded to keyword-only")
	ErrGenerationUnavailable  = New(CodeGenerationUnavailable, "generation unavailable")
	ErrInvalidContextSchema   = New(CodeInvalidContextSchema, "invalid session context schema")
)
