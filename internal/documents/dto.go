package documents

// CreateDocumentInput is the payload for creating a document. An empty
// organization id creates a personal document.
type CreateDocumentInput struct {
	Title          string `json:"title" validate:"required,min=1,max=250"`
	Content        string `json:"content"`
	OrganizationID string `json:"organization_id" validate:"omitempty,uuid"`
	Visibility     string `json:"visibility" validate:"omitempty,oneof=private organization public"`
}

// UpdateDocumentInput is the payload for updating document fields.
type UpdateDocumentInput struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=250"`
	Content *string `json:"content"`
}

// UpdateVisibilityInput changes the document visibility level.
type UpdateVisibilityInput struct {
	Visibility string `json:"visibility" validate:"required"`
}

// ShareUserInput shares the document with one user.
type ShareUserInput struct {
	UserID  string   `json:"user_id" validate:"required"`
	Actions []string `json:"actions" validate:"required,min=1"`
}

// ShareOrgInput shares the document with one organization.
type ShareOrgInput struct {
	OrganizationID string   `json:"organization_id" validate:"required"`
	Actions        []string `json:"actions" validate:"required,min=1"`
}

// PublicShareInput enables or disables the public share.
type PublicShareInput struct {
	Enabled bool     `json:"enabled"`
	Actions []string `json:"actions" validate:"required_if=Enabled true,omitempty,min=1"`
}

// SearchInput carries list/search parameters.
type SearchInput struct {
	OrganizationID string `json:"organization_id"`
	Query          string `json:"query"`
	Action         string `json:"action"`
}
