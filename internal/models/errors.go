package models

import "errors"

var (
	ErrValidation = errors.New("validation error") // 400
	ErrNotFound   = errors.New("not found")        // 404
	ErrProtected  = errors.New("record is in use") // 409, удаление запрещено
	ErrConflict   = errors.New("conflict")         // 409
)
