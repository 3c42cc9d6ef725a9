package repositories

import (
	"surveyhub_backend/internal/models"

	"gorm.io/gorm"
)

// WorkspaceRepository - read-only взгляд сканера дедлайнов на пространства
type WorkspaceRepository interface {
	// FindAcceptedMemberIDs возвращает ID участников пространства
	// со статусом accepted
	FindAcceptedMemberIDs(workspaceID string) ([]string, error)
}

type WorkspaceRepositoryImpl struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &WorkspaceRepositoryImpl{db: db}
}

func (r *WorkspaceRepositoryImpl) FindAcceptedMemberIDs(workspaceID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND status = ?", workspaceID, models.MemberStatusAccepted).
		Pluck("user_id", &ids).Error
	return ids, err
}
