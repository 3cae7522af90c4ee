package client

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing notification texts.
const (
	MessageNotFound    = "Resource not found. Please try again."
	MessageServerError = "Internal server error. Please try again later."
	MessageUnavailable = "Service is unavailable. Please try again later."
	MessageFallback    = "Something went wrong. Please try again."
	MessageConnection  = "Unable to connect to the server. Please check your connection."
	MessageUnexpected  = "An unexpected error occurred. Please try again later."
)

// APIError is a response with a non-2xx status.
type APIError struct {
	StatusCode int
	// Message is the server supplied "message" field, if any.
	Message string
	Body    []byte
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// ConnectionError means no response was received.
type ConnectionError struct {
	Err error
}

// Error implements error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

// Unwrap returns the transport error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Kind classifies a failed call.
type Kind int

// Kinds of failure, see NotificationFor.
const (
	KindUnexpected Kind = iota
	KindHTTP
	KindConnection
)

// String returns a lowercase name for k.
func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindConnection:
		return "connection"
	default:
		return "unexpected"
	}
}

// Notification is what the user is told about a failed call.
type Notification struct {
	Kind Kind
	// StatusCode is set for KindHTTP only.
	StatusCode int
	Message    string
	Err        error
}

// Notifier receives one Notification per failed call.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// NotificationFor derives the user-facing notification for err.
func NotificationFor(err error) Notification {
	var apiErr *APIError
	var connErr *ConnectionError
	switch {
	case errors.As(err, &apiErr):
		n := Notification{Kind: KindHTTP, StatusCode: apiErr.StatusCode, Err: err}
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			n.Message = MessageNotFound
		case http.StatusInternalServerError:
			n.Message = MessageServerError
		case http.StatusServiceUnavailable:
			n.Message = MessageUnavailable
		default:
			n.Message = apiErr.Message
			if n.Message == "" {
				n.Message = MessageFallback
			}
		}
		return n
	case errors.As(err, &connErr):
		return Notification{Kind: KindConnection, Message: MessageConnection, Err: err}
	default:
		return Notification{Kind: KindUnexpected, Message: MessageUnexpected, Err: err}
	}
}
