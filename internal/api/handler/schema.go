package handler

import "time"

// messageResponse is the envelope for every non-list response, errors included.
type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type addCredentialRequest struct {
	Site     string `json:"site"     validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// credentialResponse keeps the field names the web client reads (_id, userId).
type credentialResponse struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}
