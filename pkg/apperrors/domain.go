package apperrors

import (
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для общих ошибок бизнес-логики и домена.
*/

// =========================================================================
// Фабричные ФУНКЦИИ (Используются для оборачивания ошибок, напр. из репозитория)
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
// Используется, когда ошибка репозитория (типа gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidStatus - фабрика для невалидных статусов (400)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusBadRequest)
}

// =========================================================================
// Предопределенные ПЕРЕМЕННЫЕ (Для частых, статичных ошибок)
// =========================================================================

// ErrInsufficientPermissions - используется, когда не-админ пытается выполнить админ-действие.
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// --- Notifications ---

// ErrNotificationAccessDenied - уведомление принадлежит другому пользователю.
var ErrNotificationAccessDenied = New(
	CodeForbidden,
	"notification",
	"Access to notification denied",
	http.StatusForbidden,
)

// ErrNotificationNotFound - уведомление не найдено.
// *Примечание: репозиторий отдает собственный sentinel repositories.ErrNotificationNotFound,
// это - его HTTP-представление на границе сервиса.
var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

// --- Surveys & Workspaces ---

// ErrSurveyNotFound - опрос не найден.
var ErrSurveyNotFound = New(
	CodeNotFound,
	"survey",
	"Survey not found",
	http.StatusNotFound,
)

// ErrInvalidSurveyStatus - операция невозможна в текущем статусе опроса.
var ErrInvalidSurveyStatus = New(
	CodeInvalidStatus,
	"survey",
	"Operation not allowed for the current survey status",
	http.StatusConflict,
)

// ErrWorkspaceNotFound - рабочее пространство не найдено.
var ErrWorkspaceNotFound = New(
	CodeNotFound,
	"workspace",
	"Workspace not found",
	http.StatusNotFound,
)

// ErrNotWorkspaceMember - пользователь не является участником пространства.
var ErrNotWorkspaceMember = New(
	CodeForbidden,
	"workspace",
	"You are not a member of this workspace",
	http.StatusForbidden,
)

// --- Auth ---

// ErrInvalidToken - неверный или просроченный токен.
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)
