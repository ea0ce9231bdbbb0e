package controller

import "fmt"

// Operations a SessionLoadError can come from
const (
	OpLoadMain = "load main products"
	OpSearch   = "search products"
)

// Messages shown to the shopper
const (
	MsgConnection   = "Не удалось загрузить товары. Пожалуйста, проверьте соединение."
	MsgSearchFailed = "Ошибка при поиске товаров"
)

// SessionLoadError is kept in State.Err until the next successful load
type SessionLoadError struct {
	Op      string
	Message string
	Err     error
}

func (e *SessionLoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionLoadError) Unwrap() error { return e.Err }
