package payments

type PaymentList struct {
	Payments   []Payment `json:"payments"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}
