// Package handler holds what the web handlers share.
package handler

import "github.com/gofiber/fiber/v2"

// Response is the JSON envelope of every API answer.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSONError answers with status and a failed Response.
func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Response{Success: false, Message: message})
}
