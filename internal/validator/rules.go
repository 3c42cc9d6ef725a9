package validator

import (
	"log"

	"surveyhub_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Без этих правил приложение работать не должно
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-survey-status", validateSurveyStatus)
	mustRegister("is-access-type", validateAccessType)
	mustRegister("is-member-role", validateMemberRole)
	mustRegister("is-notification-type", validateNotificationType)
}

// --- Функции валидации ---
// Пустые значения пропускаются, для них есть 'required'.

func validateSurveyStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.SurveyStatus(value) {
	case models.SurveyStatusDraft, models.SurveyStatusPublished, models.SurveyStatusClosed:
		return true
	default:
		return false
	}
}

func validateAccessType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.SurveyAccessType(value) {
	case models.SurveyAccessPublic, models.SurveyAccessInternal, models.SurveyAccessPrivate:
		return true
	default:
		return false
	}
}

func validateMemberRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.MemberRole(value) {
	case models.MemberRoleOwner, models.MemberRoleCollaborator, models.MemberRoleMember, models.MemberRoleViewer:
		return true
	default:
		return false
	}
}

func validateNotificationType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.NotificationType(value) {
	case models.NotificationResponseCompleted,
		models.NotificationAnalysisCompleted,
		models.NotificationDeadlineReminder,
		models.NotificationWorkspaceInvitation,
		models.NotificationWorkspaceMemberAdded,
		models.NotificationRoleChangeRequest,
		models.NotificationSystemAlert:
		return true
	default:
		return false
	}
}
