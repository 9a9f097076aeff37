package service

import "errors"

var (
	// ErrInvalidCategory 在分类标识不属于固定集合时返回
	ErrInvalidCategory = errors.New("invalid category")
	// ErrUnknownAchievement 在分类中找不到指定成就时返回
	ErrUnknownAchievement = errors.New("unknown achievement")
	// ErrMalformedInput 在请求缺少必填字段或字段格式不正确时返回
	ErrMalformedInput = errors.New("malformed input")
	// ErrStorageUnavailable wraps every failure of the completion store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrProfileLimitReached = errors.New("profile limit reached")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already imported")
	ErrLastProfile         = errors.New("cannot remove the last profile")
	// ErrNoSuchSession 在导入的 session id 没有任何完成记录时返回
	ErrNoSuchSession = errors.New("no such session")
)
