package domain

import "time"

type Address struct {
	Street  string `json:"street" dynamodbav:"street"`
	City    string `json:"city" dynamodbav:"city"`
	State   string `json:"state" dynamodbav:"state"`
	ZipCode string `json:"zipCode" dynamodbav:"zip_code"`
	Country string `json:"country" dynamodbav:"country"`
}

// Shop is a pharmacy listing. RatingSum and ReviewCount are maintained
// atomically when reviews are appended; the average is derived from them.
type Shop struct {
	ShopID      string    `json:"id" dynamodbav:"shop_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Type        string    `json:"type" dynamodbav:"type"`
	Address     Address   `json:"address" dynamodbav:"address"`
	Services    []string  `json:"services" dynamodbav:"services,omitempty"`
	Phone       string    `json:"phone" dynamodbav:"phone"`
	Email       string    `json:"email" dynamodbav:"email"`
	Images      []string  `json:"images" dynamodbav:"images,omitempty"`
	Description string    `json:"description" dynamodbav:"description"`
	CityLower   string    `json:"-" dynamodbav:"city_lower"`
	NameLower   string    `json:"-" dynamodbav:"name_lower"`
	RatingSum   int       `json:"-" dynamodbav:"rating_sum"`
	ReviewCount int       `json:"reviewCount" dynamodbav:"review_count"`
	Rating      float64   `json:"rating" dynamodbav:"-"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// ComputeRating fills Rating from the running aggregate, rounded to one decimal.
func (s *Shop) ComputeRating() {
	if s.ReviewCount == 0 {
		s.Rating = 0
		return
	}
	avg := float64(s.RatingSum) / float64(s.ReviewCount)
	s.Rating = float64(int(avg*10+0.5)) / 10
}

// Review is an append-only rating of a shop.
// SK review_key = "<created_at with nine fractional digits>#<review_id>" so a descending query is newest first.
type Review struct {
	ShopID    string    `json:"shopId" dynamodbav:"shop_id"`
	ReviewKey string    `json:"-" dynamodbav:"review_key"`
	ReviewID  string    `json:"id" dynamodbav:"review_id"`
	UserID    string    `json:"userId" dynamodbav:"user_id"`
	UserName  string    `json:"userName" dynamodbav:"user_name"`
	Rating    int       `json:"rating" dynamodbav:"rating"`
	Text      string    `json:"text" dynamodbav:"text"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
}

type ReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// ShopFilter narrows ListShops. Search matches name or city, case-insensitively.
type ShopFilter struct {
	Search string
	City   string
	Limit  int32
	Cursor string
}

// PredictRequest is forwarded verbatim to the prediction model.
type PredictRequest struct {
	Symptoms []string `json:"symptoms" validate:"required,min=1,dive,required"`
	Age      int      `json:"age" validate:"gte=0,lte=130"`
	Duration string   `json:"duration"`
	Severity string   `json:"severity"`
}

// Prediction is the model's answer.
type Prediction struct {
	Prescriptions []string `json:"prescriptions"`
	Precautions   []string `json:"precautions"`
}
