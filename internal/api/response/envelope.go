// Package response renders the uniform JSON envelope shared by every route.
package response

import "github.com/labstack/echo/v4"

// Success is the envelope of every 2xx response.
type Success struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Failure is the envelope of every 4xx/5xx response.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// OK writes a success envelope with the given status.
func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Success{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope with the given status.
func Fail(c echo.Context, status int, message string, details any) error {
	return c.JSON(status, Failure{Success: false, Error: message, Details: details})
}
