package model

import (
	"net/http"
	"time"
)

// Result is the uniform answer returned to whoever invoked the pipeline.
type Result struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Skipped builds a 200 result carrying the skip reason.
func Skipped(reason string) Result {
	return Result{StatusCode: http.StatusOK, Message: reason}
}

// Created is the result of a successful pipeline run.
func Created() Result {
	return Result{StatusCode: http.StatusCreated, Message: "Created"}
}

// Failed builds a 500 result carrying only the error message.
func Failed(err error) Result {
	return Result{StatusCode: http.StatusInternalServerError, Message: err.Error()}
}

// Outcome is the event emitted after every invocation.
type Outcome struct {
	InvocationID string    `json:"invocation_id"`
	FileName     string    `json:"file_name,omitempty"` // candidate file name, empty if payload was malformed
	AssetID      string    `json:"asset_id,omitempty"`  // set on 201 only
	StatusCode   int       `json:"status_code"`
	Message      string    `json:"message"`
	FinishedAt   time.Time `json:"finished_at"`
}
