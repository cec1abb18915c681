package client

import "time"

type Client struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;index"`
	Phone     string    `gorm:"column:phone"`
	Whatsapp  string    `gorm:"column:whatsapp"`
	Company   string    `gorm:"column:company"`
	Instagram string    `gorm:"column:instagram"`
	Linkedin  string    `gorm:"column:linkedin"`
	Twitter   string    `gorm:"column:twitter"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Client) TableName() string {
	return "clients"
}
