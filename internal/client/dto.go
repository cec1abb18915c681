package client

type CreateClientDTO struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Email    string  `json:"email" validate:"omitempty,email,max=254"`
	Phone    string  `json:"phone" validate:"max=50"`
	Whatsapp string  `json:"whatsapp" validate:"max=50"`
	Company  string  `json:"company" validate:"max=200"`
	Socials  Socials `json:"socials"`
}

type SocialsUpdate struct {
	Instagram *string `json:"instagram"`
	Linkedin  *string `json:"linkedin"`
	Twitter   *string `json:"twitter"`
}

// UpdateClientDTO carries only the fields the caller wants to change.
type UpdateClientDTO struct {
	Name     *string        `json:"name" validate:"omitempty,min=1,max=200"`
	Email    *string        `json:"email" validate:"omitempty,email,max=254"`
	Phone    *string        `json:"phone" validate:"omitempty,max=50"`
	Whatsapp *string        `json:"whatsapp" validate:"omitempty,max=50"`
	Company  *string        `json:"company" validate:"omitempty,max=200"`
	Socials  *SocialsUpdate `json:"socials"`
}

func (d UpdateClientDTO) IsEmpty() bool {
	return d.Name == nil && d.Email == nil && d.Phone == nil &&
		d.Whatsapp == nil && d.Company == nil && d.Socials == nil
}

type ClientsResponse struct {
	Clients []*Client `json:"clients"`
	Total   int       `json:"total"`
}
