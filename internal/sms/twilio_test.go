package sms

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTwilioClient_Send(t *testing.T) {
	var gotTo, gotFrom, gotBody string
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")
		gotUser, gotPass, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewTwilioClient(srv.URL, "AC123", "token", "+15550001111", time.Second, slog.Default())
	err := c.Send(context.Background(), "77001234567", "fire nearby")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotTo != "+77001234567" {
		t.Errorf("expected + prefix added, got %q", gotTo)
	}
	if gotFrom != "+15550001111" {
		t.Errorf("unexpected From: %q", gotFrom)
	}
	if gotBody != "fire nearby" {
		t.Errorf("unexpected Body: %q", gotBody)
	}
	if gotUser != "AC123" || gotPass != "token" {
		t.Errorf("unexpected basic auth: %q / %q", gotUser, gotPass)
	}
}

func TestTwilioClient_PreservesExistingPlus(t *testing.T) {
	var gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotTo = r.PostFormValue("To")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewTwilioClient(srv.URL, "AC123", "token", "+15550001111", time.Second, slog.Default())
	if err := c.Send(context.Background(), "+77001234567", "hi"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotTo != "+77001234567" {
		t.Errorf("expected number unchanged, got %q", gotTo)
	}
}

func TestTwilioClient_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewTwilioClient(srv.URL, "AC123", "token", "+15550001111", time.Second, slog.Default())
	if err := c.Send(context.Background(), "+77001234567", "hi"); err == nil {
		t.Error("expected error for 500 response, got nil")
	}
}

func TestTwilioClient_MissingCredentials(t *testing.T) {
	c := NewTwilioClient("http://unused", "", "", "+15550001111", time.Second, slog.Default())
	if err := c.Send(context.Background(), "+77001234567", "hi"); err == nil {
		t.Error("expected error for missing credentials, got nil")
	}
}
