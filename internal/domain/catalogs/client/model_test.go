package client

import (
	"context"
	"testing"

	"billora/internal/core/apperror"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		client    *Client
		wantField string
	}{
		{"valid", New("Acme Corp", "billing@acme.example"), ""},
		{"missing name", New("  ", "billing@acme.example"), "name"},
		{"missing email", New("Acme Corp", ""), "email"},
		{"malformed email", New("Acme Corp", "not-an-email"), "email"},
		{"email without tld", New("Acme Corp", "billing@acme"), "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.Validate(context.Background())
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			appErr, ok := apperror.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != apperror.CodeValidation {
				t.Errorf("expected code %s, got %s", apperror.CodeValidation, appErr.Code)
			}
			if appErr.Details["field"] != tt.wantField {
				t.Errorf("expected field %s, got %v", tt.wantField, appErr.Details["field"])
			}
		})
	}
}

func TestTouch(t *testing.T) {
	c := New("Acme Corp", "billing@acme.example")
	before := c.UpdatedAt

	c.Touch()

	if c.Version != 2 {
		t.Errorf("expected version 2, got %d", c.Version)
	}
	if c.UpdatedAt.Before(before) {
		t.Error("expected UpdatedAt to advance")
	}
}
