package dto

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// TaskAcceptedResponse is returned by async start endpoints; progress for
// the task arrives on the websocket stream.
type TaskAcceptedResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}
