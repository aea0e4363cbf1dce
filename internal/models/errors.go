// errors.go

package models

import (
	"errors"
	"fmt"
)

// ErrorCode 场次操作错误码
type ErrorCode string

const (
	CodeNameRequired           ErrorCode = "name_required"
	CodeNameTooLong            ErrorCode = "name_too_long"
	CodeDuplicateName          ErrorCode = "duplicate_name"
	CodeRosterFull             ErrorCode = "roster_full"
	CodeInsufficientPlayers    ErrorCode = "insufficient_players"
	CodeTooManyPlayers         ErrorCode = "too_many_players"
	CodeInvalidWinner          ErrorCode = "invalid_winner"
	CodeMatchInProgress        ErrorCode = "match_in_progress"
	CodeCannotRevertFirstMatch ErrorCode = "cannot_revert_first_match"
	CodeResultRecorded         ErrorCode = "result_already_recorded"
	CodePlayerNotFound         ErrorCode = "player_not_found"
	CodeMatchNotFound          ErrorCode = "match_not_found"
	CodeSessionNotFound        ErrorCode = "session_not_found"
	CodeSessionExists          ErrorCode = "session_exists"
)

// ErrorKind 错误类别
type ErrorKind int

const (
	// KindValidation 输入不合法
	KindValidation ErrorKind = iota
	// KindSequencing 当前状态不允许该操作
	KindSequencing
	// KindNotFound 目标不存在
	KindNotFound
)

var (
	ErrNameRequired           = NewSessionError(CodeNameRequired, "球员名不能为空")
	ErrNameTooLong            = NewSessionError(CodeNameTooLong, "球员名过长")
	ErrDuplicateName          = NewSessionError(CodeDuplicateName, "球员名已存在")
	ErrRosterFull             = NewSessionError(CodeRosterFull, "球员名单已满")
	ErrInsufficientPlayers    = NewSessionError(CodeInsufficientPlayers, "球员人数不足")
	ErrTooManyPlayers         = NewSessionError(CodeTooManyPlayers, "球员人数超出上限")
	ErrInvalidWinner          = NewSessionError(CodeInvalidWinner, "无效的胜方")
	ErrMatchInProgress        = NewSessionError(CodeMatchInProgress, "当前比赛尚未结束")
	ErrCannotRevertFirstMatch = NewSessionError(CodeCannotRevertFirstMatch, "第一场比赛不能回退")
	ErrResultRecorded         = NewSessionError(CodeResultRecorded, "比赛结果已录入")
	ErrPlayerNotFound         = NewSessionError(CodePlayerNotFound, "球员不存在")
	ErrMatchNotFound          = NewSessionError(CodeMatchNotFound, "比赛不存在")
	ErrSessionNotFound        = NewSessionError(CodeSessionNotFound, "场次不存在")
	ErrSessionExists          = NewSessionError(CodeSessionExists, "场次已存在")
)

// SessionError 场次操作错误
type SessionError struct {
	Code    ErrorCode
	Message string
}

// NewSessionError 创建场次错误
func NewSessionError(code ErrorCode, message string) *SessionError {
	return &SessionError{Code: code, Message: message}
}

// NewSessionErrorf 创建带格式化信息的场次错误
func NewSessionErrorf(code ErrorCode, format string, a ...any) *SessionError {
	return &SessionError{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Error 实现 error 接口
func (e *SessionError) Error() string {
	return e.Message
}

// Is 按错误码匹配，带详细信息的错误也能与哨兵错误比较
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind 错误类别
func (e *SessionError) Kind() ErrorKind {
	switch e.Code {
	case CodeMatchInProgress, CodeCannotRevertFirstMatch, CodeResultRecorded, CodeSessionExists:
		return KindSequencing
	case CodePlayerNotFound, CodeMatchNotFound, CodeSessionNotFound:
		return KindNotFound
	default:
		return KindValidation
	}
}

// SessionErrorIs 判断错误链中是否含有指定错误码
func SessionErrorIs(err error, code ErrorCode) bool {
	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		return false
	}
	return sessionErr.Code == code
}
