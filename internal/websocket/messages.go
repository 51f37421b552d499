package websocket

import (
	"encoding/json"
	"errors"
	"time"

	apierrors "gdpwaterfall/internal/errors"
)

// Message types exchanged over /ws
const (
	TypeConnection      = "connection"
	TypeHeartbeat       = "heartbeat"
	TypeSelect          = "select"
	TypeCountries       = "countries"
	TypeChart           = "chart"
	TypeDatasetReloaded = "dataset_reloaded"
	TypeError           = "error"
)

// Error codes that are not application error types
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeUnknownType    = "UNKNOWN_TYPE"
	CodeInternal       = "INTERNAL"
)

// Message is the envelope of every server message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ClientMessage is a command sent by the browser. RequestID is echoed back
// so the front end can match answers to selections.
type ClientMessage struct {
	Type      string `json:"type"`
	Country   string `json:"country,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorData is the payload of TypeError messages
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Country string `json:"country,omitempty"`
}

func encode(msgType string, data interface{}, requestID, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
}

// errorData maps a service error onto a client-facing payload. Only
// client-side failures keep their message.
func errorData(err error, country string) ErrorData {
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Type == apierrors.ErrTypeConfig {
			return ErrorData{Code: string(appErr.Type), Message: "the service is misconfigured", Country: country}
		}
		return ErrorData{Code: string(appErr.Type), Message: appErr.Message, Country: country}
	}
	return ErrorData{Code: CodeInternal, Message: "an unexpected error occurred", Country: country}
}
