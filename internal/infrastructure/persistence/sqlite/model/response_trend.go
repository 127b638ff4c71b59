package model

type ResponseTrend struct {
	TrendDate       string  `gorm:"column:trend_date;type:text;primaryKey"`
	Channel         string  `gorm:"column:channel;type:text;primaryKey"`
	Sentiment       string  `gorm:"column:sentiment;type:text;primaryKey"`
	Theme           string  `gorm:"column:theme;type:text;primaryKey"`
	ReviewCount     int     `gorm:"column:review_count;not null"`
	EscalationCount int     `gorm:"column:escalation_count;not null;default:0"`
	AvgStarRating   float64 `gorm:"column:avg_star_rating;not null"`
	Anomaly         bool    `gorm:"column:anomaly;not null;default:false"`
}

func (ResponseTrend) TableName() string {
	return "response_trends"
}
