package dto

type CreateShareRequest struct {
	Content    *string `json:"content"`
	JSON       *string `json:"json"`
	Mode       string  `json:"mode" validate:"required_unless=Type text,omitempty,oneof=visualize tree formatter"`
	IsPrivate  bool    `json:"isPrivate"`
	AccessType string  `json:"accessType" validate:"omitempty,oneof=editor viewer"`
	Password   string  `json:"password" validate:"required_if=IsPrivate true,omitempty,min=4"`
	Type       string  `json:"type" validate:"omitempty,oneof=json text"`
	Slug       string  `json:"slug" validate:"omitempty,alphanum,min=6,max=20"`
}

// ContentValue returns content, falling back to the older json field.
func (r *CreateShareRequest) ContentValue() string {
	if r.Content != nil {
		return *r.Content
	}
	if r.JSON != nil {
		return *r.JSON
	}
	return ""
}

type UpdateShareRequest struct {
	Content    *string `json:"content"`
	JSON       *string `json:"json"`
	Mode       string  `json:"mode" validate:"required_unless=Type text,omitempty,oneof=visualize tree formatter"`
	IsPrivate  bool    `json:"isPrivate"`
	AccessType string  `json:"accessType" validate:"omitempty,oneof=editor viewer"`
	Password   string  `json:"password" validate:"required_if=IsPrivate true,omitempty,min=4"`
	Type       string  `json:"type" validate:"omitempty,oneof=json text"`
}

func (r *UpdateShareRequest) ContentValue() string {
	if r.Content != nil {
		return *r.Content
	}
	if r.JSON != nil {
		return *r.JSON
	}
	return ""
}

type UnlockShareRequest struct {
	Password string `json:"password" validate:"required"`
}

type CreateShareResponse struct {
	Slug       string `json:"slug"`
	Mode       string `json:"mode"`
	Type       string `json:"type"`
	IsPrivate  bool   `json:"isPrivate"`
	AccessType string `json:"accessType"`
}

type UpdateShareResponse struct {
	Success bool   `json:"success"`
	Slug    string `json:"slug"`
	Created bool   `json:"created,omitempty"`
}

type UploadResponse struct {
	Slug string `json:"slug"`
}

type ErrorResponse struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	StatusCode int      `json:"statusCode"`
	Details    []string `json:"details,omitempty"`
}
