package beehiiv

import "github.com/ragtech-dev/ragsite/internal/domain"

// PostsPage is one page of the publication's post listing.
type PostsPage struct {
	Data         []domain.RemotePost `json:"data"`
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
	TotalResults int                 `json:"total_results"`
	TotalPages   int                 `json:"total_pages"`
}

// SubscribeResult is the typed outcome of a subscription attempt.
// Failures carry the upstream message verbatim so forms can show it.
type SubscribeResult struct {
	Success        bool   `json:"success"`
	AlreadyExisted bool   `json:"alreadyExisted,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Message        string `json:"message,omitempty"`
}

type subscriptionResponse struct {
	Data struct {
		ID     string `json:"id"`
		Email  string `json:"email"`
		Status string `json:"status"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// message extracts the most specific upstream error message available.
func (e *errorResponse) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return ""
}
