package measure

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnsuccessful is returned when the service answers 2xx but reports success=false.
var ErrUnsuccessful = errors.New("measure: measurement processing failed")

// Recommendations is the uniform sizing block of a service response.
// It is carried through untouched; size policy lives in the service.
type Recommendations struct {
	RecommendedSize string `json:"recommended_size"`
	ShirtSize       string `json:"shirt_size"`
	PantsSize       string `json:"pants_size"`
	BlazerSize      string `json:"blazer_size"`
	FitConfidence   string `json:"fit_confidence"`
}

// Response is the body of a successful POST to the measurement endpoint.
type Response struct {
	Success         bool            `json:"success"`
	Measurements    *Record         `json:"measurements"`
	Recommendations Recommendations `json:"uniform_recommendations"`
	Message         string          `json:"message"`
}

// ServiceError carries the detail of a non-2xx measurement response.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("measure: service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("measure: service returned %d: %s", e.StatusCode, e.Detail)
}

// DecodeResponse decodes a response body. status is the HTTP status code the body arrived with;
// non-2xx bodies are decoded as {detail} and returned as a *ServiceError.
func DecodeResponse(status int, rd io.Reader) (*Response, error) {
	if status < 200 || status > 299 {
		return nil, DecodeError(status, rd)
	}
	var resp Response
	if err := json.NewDecoder(rd).Decode(&resp); err != nil {
		return nil, fmt.Errorf("measure: decode response: %w", err)
	}
	if !resp.Success {
		return nil, ErrUnsuccessful
	}
	if resp.Measurements == nil {
		return nil, fmt.Errorf("measure: response has no measurements")
	}
	return &resp, nil
}

// DecodeError decodes a {detail} error body. A body that is not JSON yields a ServiceError
// with an empty Detail rather than a decode error.
func DecodeError(status int, rd io.Reader) error {
	var body struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(rd).Decode(&body)
	return &ServiceError{StatusCode: status, Detail: body.Detail}
}
