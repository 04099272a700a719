package query

import "fmt"

// Kind classifies why a query was rejected. Every rejection maps to exactly
// one Kind.
type Kind string

const (
	KindEmptyQuery              Kind = "EMPTY_QUERY"
	KindMustStartWithBrace      Kind = "MUST_START_WITH_BRACE"
	KindWriteNotAllowed         Kind = "WRITE_NOT_ALLOWED"
	KindUnsupportedRoot         Kind = "UNSUPPORTED_ROOT"
	KindUnbalancedBraces        Kind = "UNBALANCED_BRACES"
	KindMissingUserID           Kind = "MISSING_USER_ID"
	KindUnknownUser             Kind = "UNKNOWN_USER"
	KindNonNumericPaginationArg Kind = "NON_NUMERIC_PAGINATION_ARG"
)

// Error is a rejected query. Message is meant for the learner.
type Error struct {
	Kind    Kind
	Message string
	// Detail is the offending literal, when there is one (e.g. the unknown user id).
	Detail string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrUnknownUser)
// holds regardless of the offending value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmptyQuery              = &Error{Kind: KindEmptyQuery, Message: "Запрос пуст: введите запрос"}
	ErrMustStartWithBrace      = &Error{Kind: KindMustStartWithBrace, Message: "Запрос должен начинаться с '{'"}
	ErrWriteNotAllowed         = &Error{Kind: KindWriteNotAllowed, Message: "Только чтение (select) разрешено"}
	ErrUnsupportedRoot         = &Error{Kind: KindUnsupportedRoot, Message: "Поддерживаются только запросы orders и users"}
	ErrUnbalancedBraces        = &Error{Kind: KindUnbalancedBraces, Message: "Количество открывающих и закрывающих фигурных скобок не совпадает"}
	ErrMissingUserID           = &Error{Kind: KindMissingUserID, Message: "userId обязателен для всех запросов"}
	ErrUnknownUser             = &Error{Kind: KindUnknownUser, Message: "Пользователь не найден"}
	ErrNonNumericPaginationArg = &Error{Kind: KindNonNumericPaginationArg, Message: "Ошибка в аргументах запроса: limit и offset должны быть числами."}
)

func unknownUser(id string) *Error {
	return &Error{
		Kind:    KindUnknownUser,
		Message: fmt.Sprintf("Пользователь с userId %q не найден", id),
		Detail:  id,
	}
}

func nonNumeric(arg, value string) *Error {
	return &Error{
		Kind:    KindNonNumericPaginationArg,
		Message: ErrNonNumericPaginationArg.Message,
		Detail:  arg + ": " + value,
	}
}
