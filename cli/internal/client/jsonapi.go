package client

import "encoding/json"

// jsonAPIResource represents a single JSON:API resource.
type jsonAPIResource struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Attributes json.RawMessage `json:"attributes"`
}

// jsonAPIDocument is a response carrying one resource.
type jsonAPIDocument struct {
	Data jsonAPIResource `json:"data"`
}

// jsonAPICollection is a response carrying a page of resources.
type jsonAPICollection struct {
	Data []jsonAPIResource `json:"data"`
	Meta struct {
		Pagination Pagination `json:"pagination"`
	} `json:"meta"`
}

// jsonAPIErrors is the error body every service returns.
type jsonAPIErrors struct {
	Errors []jsonAPIError `json:"errors"`
}

// jsonAPIError represents a JSON:API error object.
type jsonAPIError struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Pagination is the page metadata of a collection.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
