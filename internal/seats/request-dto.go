package seats

import "github.com/google/uuid"

type HoldRequest struct {
	EventID uuid.UUID `json:"event_id" binding:"required"`
	Seats   []string  `json:"seats" binding:"required,min=1,max=10,dive,required"`
}
