package users

type UserListQuery struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
	Role   Role   `form:"role" binding:"omitempty,oneof=user admin"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=user admin"`
}
