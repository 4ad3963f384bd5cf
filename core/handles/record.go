package handles

import "time"

// Record marks that one handler has processed one event.
type Record struct {
	EventID     string    `json:"event_id"`
	HandlerCode int       `json:"handler_code"`
	EventCode   int       `json:"event_code"`
	ResultData  string    `json:"result_data,omitempty"`
	ResultCode  int       `json:"result_code"`
	CreatedAt   time.Time `json:"created_at"`
}
