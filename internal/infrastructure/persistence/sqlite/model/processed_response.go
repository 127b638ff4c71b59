package model

type ProcessedResponse struct {
	ReviewID           int64   `gorm:"column:review_id;primaryKey;autoIncrement:false"`
	ReviewDate         string  `gorm:"column:review_date;type:text;not null"`
	Channel            string  `gorm:"column:channel;type:text;not null"`
	ExternalCustomerID *string `gorm:"column:external_customer_id;type:text"`
	CustomerName       *string `gorm:"column:customer_name;type:text"`
	ReviewText         string  `gorm:"column:review_text;type:text;not null"`
	StarRating         int     `gorm:"column:star_rating;not null"`
	Location           *string `gorm:"column:location;type:text"`
	Escalation         bool    `gorm:"column:escalation;not null;default:false"`
	Sentiment          *string `gorm:"column:sentiment;type:text"`
	Theme              *string `gorm:"column:theme;type:text"`
	AIResponse         *string `gorm:"column:ai_response;type:text"`
	CreatedAt          string  `gorm:"column:created_at;type:text;not null;index"`
}

func (ProcessedResponse) TableName() string {
	return "processed_responses"
}
