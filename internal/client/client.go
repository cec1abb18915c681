package client

import (
	"time"

	clientDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/client"
	"github.com/google/uuid"
)

type Socials struct {
	Instagram string `json:"instagram,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// Client is a contact record a lead refers to.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Whatsapp  string    `json:"whatsapp,omitempty"`
	Company   string    `json:"company"`
	Socials   Socials   `json:"socials"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewClientID() string {
	return "client-" + uuid.NewString()
}

func NewClient(dto CreateClientDTO) *Client {
	now := time.Now()
	return &Client{
		ID:        NewClientID(),
		Name:      dto.Name,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Whatsapp:  dto.Whatsapp,
		Company:   dto.Company,
		Socials:   dto.Socials,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply copies the fields present in dto and reports whether anything changed.
func (c *Client) Apply(dto UpdateClientDTO) bool {
	changed := false
	set := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	set(&c.Name, dto.Name)
	set(&c.Email, dto.Email)
	set(&c.Phone, dto.Phone)
	set(&c.Whatsapp, dto.Whatsapp)
	set(&c.Company, dto.Company)
	if dto.Socials != nil {
		set(&c.Socials.Instagram, dto.Socials.Instagram)
		set(&c.Socials.Linkedin, dto.Socials.Linkedin)
		set(&c.Socials.Twitter, dto.Socials.Twitter)
	}
	if changed {
		c.UpdatedAt = time.Now()
	}
	return changed
}

func ToDataModel(c *Client) *clientDatamodel.Client {
	return &clientDatamodel.Client{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Whatsapp:  c.Whatsapp,
		Company:   c.Company,
		Instagram: c.Socials.Instagram,
		Linkedin:  c.Socials.Linkedin,
		Twitter:   c.Socials.Twitter,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromDataModel(c *clientDatamodel.Client) *Client {
	return &Client{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Whatsapp: c.Whatsapp,
		Company:  c.Company,
		Socials: Socials{
			Instagram: c.Instagram,
			Linkedin:  c.Linkedin,
			Twitter:   c.Twitter,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
