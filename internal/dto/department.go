package dto

// ── department DTOs ──

// UpdateDepartmentRequest toggles the revision requirement.
type UpdateDepartmentRequest struct {
	ModificationFlag *bool `json:"modification_flag" binding:"required"`
}

// DepartmentResponse one department.
type DepartmentResponse struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	ModificationFlag bool   `json:"modification_flag"`
	UpdatedAt        string `json:"updated_at"`
}
