package models

type UserStatus string
type UserRole string
type SurveyStatus string
type SurveyAccessType string
type MemberStatus string
type MemberRole string
type ResponseStatus string
type NotificationType string
type RelatedType string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleRespondent UserRole = "respondent"
	UserRoleCreator    UserRole = "creator"
	UserRoleAdmin      UserRole = "admin"

	SurveyStatusDraft     SurveyStatus = "draft"
	SurveyStatusPublished SurveyStatus = "published"
	SurveyStatusClosed    SurveyStatus = "closed"

	SurveyAccessPublic   SurveyAccessType = "public"
	SurveyAccessInternal SurveyAccessType = "internal"
	SurveyAccessPrivate  SurveyAccessType = "private"

	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
	MemberStatusDeclined MemberStatus = "declined"

	MemberRoleOwner        MemberRole = "owner"
	MemberRoleCollaborator MemberRole = "collaborator"
	MemberRoleMember       MemberRole = "member"
	MemberRoleViewer       MemberRole = "viewer"

	ResponseStatusInProgress ResponseStatus = "in_progress"
	ResponseStatusCompleted  ResponseStatus = "completed"

	NotificationResponseCompleted    NotificationType = "response_completed"
	NotificationAnalysisCompleted    NotificationType = "analysis_completed"
	NotificationDeadlineReminder     NotificationType = "deadline_reminder"
	NotificationWorkspaceInvitation  NotificationType = "workspace_invitation"
	NotificationWorkspaceMemberAdded NotificationType = "workspace_member_added"
	NotificationRoleChangeRequest    NotificationType = "role_change_request"
	NotificationSystemAlert          NotificationType = "system_alert"

	RelatedSurvey    RelatedType = "survey"
	RelatedWorkspace RelatedType = "workspace"
)
