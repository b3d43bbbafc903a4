package profiles

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
}
