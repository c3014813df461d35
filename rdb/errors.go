package rdb

import (
	"errors"
	"fmt"
)

// ErrKind 错误分类，调用方通过 Is* 判断，不需要依赖具体驱动的错误码
type ErrKind int

const (
	ErrKindUnknown           ErrKind = iota
	ErrKindConfiguration             // 连接参数缺失或非法
	ErrKindConnection                // 无法连接数据库
	ErrKindPoolClosed                // 连接池已关闭
	ErrKindSchema                    // 模型定义错误，如主键数量不为 1
	ErrKindArgumentCount             // 占位符与参数个数不一致
	ErrKindInvalidArgument           // 调用参数非法，如 limit 形状错误
	ErrKindDatabaseExecution         // 驱动执行语句失败
	ErrKindAffectedRows              // 严格模式下影响行数不为 1
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConfiguration:
		return "configuration"
	case ErrKindConnection:
		return "connection"
	case ErrKindPoolClosed:
		return "pool_closed"
	case ErrKindSchema:
		return "schema"
	case ErrKindArgumentCount:
		return "argument_count"
	case ErrKindInvalidArgument:
		return "invalid_argument"
	case ErrKindDatabaseExecution:
		return "database_execution"
	case ErrKindAffectedRows:
		return "affected_rows"
	default:
		return "unknown"
	}
}

// Error rdb 各个组件统一返回的错误类型
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // 驱动返回的原始错误
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 保留原始错误，errors.Is/As 可以穿透到 cause
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf 返回错误链上第一个 *Error 的分类
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

func isKind(err error, kind ErrKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func IsConfiguration(err error) bool     { return isKind(err, ErrKindConfiguration) }
func IsConnection(err error) bool        { return isKind(err, ErrKindConnection) }
func IsPoolClosed(err error) bool        { return isKind(err, ErrKindPoolClosed) }
func IsSchema(err error) bool            { return isKind(err, ErrKindSchema) }
func IsArgumentCount(err error) bool     { return isKind(err, ErrKindArgumentCount) }
func IsInvalidArgument(err error) bool   { return isKind(err, ErrKindInvalidArgument) }
func IsDatabaseExecution(err error) bool { return isKind(err, ErrKindDatabaseExecution) }
func IsAffectedRows(err error) bool      { return isKind(err, ErrKindAffectedRows) }
