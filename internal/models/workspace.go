package models

type Workspace struct {
	BaseModel
	Name    string `gorm:"not null"`
	OwnerID string `gorm:"type:uuid;not null;index"`

	// Relations
	Members []WorkspaceMember `gorm:"foreignKey:WorkspaceID"`
}

type WorkspaceMember struct {
	BaseModel
	WorkspaceID string       `gorm:"type:uuid;not null;index:idx_workspace_user,unique"`
	UserID      string       `gorm:"type:uuid;not null;index:idx_workspace_user,unique"`
	Role        MemberRole   `gorm:"type:varchar(20);not null;default:'member'"`
	Status      MemberStatus `gorm:"type:varchar(20);not null;default:'pending'"`
}
