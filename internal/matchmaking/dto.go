// internal/matchmaking/dto.go
package matchmaking

// DTOs for API requests/responses

type SwipeRequestDTO struct {
	ToUserID int64  `json:"to_user_id" validate:"required,gt=0"`
	Value    string `json:"value" validate:"required,oneof=like pass"`
}

type ReportRequestDTO struct {
	Reason  string `json:"reason" validate:"required,oneof=spam fake abuse nudity other"`
	Message string `json:"message" validate:"max=2000"`
}

type MessageRequestDTO struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type SwipeResponse struct {
	*SwipeResult
	Next *Candidate `json:"next"`
}

type FeedResponse struct {
	Next *Candidate `json:"next"`
}
