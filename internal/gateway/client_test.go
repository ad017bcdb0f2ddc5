package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestSubmitFrameRequestShape(t *testing.T) {
	var gotAuth, gotSubject, gotFilename string
	var gotImage []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotSubject = r.FormValue("subject_id")
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("image part: %v", err)
		} else {
			gotFilename = header.Filename
			gotImage, _ = io.ReadAll(file)
			file.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ok","count":1,"students_present":[{"student_id":"s1","name":"Meera","roll_no":"01","confidence":0.91}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, staticToken("tok-123"))
	frame := []byte("jpeg-bytes")
	result, err := c.SubmitFrame(context.Background(), "sub-os", frame)
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
	if gotSubject != "sub-os" {
		t.Errorf("subject_id = %q, want %q", gotSubject, "sub-os")
	}
	if gotFilename != "frame.jpg" {
		t.Errorf("filename = %q, want %q", gotFilename, "frame.jpg")
	}
	if !bytes.Equal(gotImage, frame) {
		t.Error("image bytes were altered in transit")
	}
	if len(result.StudentsPresent) != 1 || result.StudentsPresent[0].StudentID != "s1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestDetailStringSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"Subject not found"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	_, err := c.SubmitFrame(context.Background(), "sub-x", []byte("x"))
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if gerr.Message != "Subject not found" {
		t.Errorf("message = %q, want the server detail verbatim", gerr.Message)
	}
	if gerr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", gerr.Status)
	}
	if gerr.Network {
		t.Error("a server rejection must not be flagged as a network failure")
	}
}

func TestDetailArrayJoined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"msg":"name required"},{"msg":"photo required"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	_, err := c.SubmitFrame(context.Background(), "sub-x", []byte("x"))
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if want := "name required; photo required"; gerr.Message != want {
		t.Errorf("message = %q, want %q", gerr.Message, want)
	}
}

func TestUnreadableBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "<html>gateway exploded</html>")
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	_, err := c.SubmitFrame(context.Background(), "sub-x", []byte("x"))
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if gerr.Message != fallbackMessage {
		t.Errorf("message = %q, want the generic fallback", gerr.Message)
	}
}

func TestOfflineIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := New(srv.URL, time.Second, nil)
	_, err := c.SubmitFrame(context.Background(), "sub-x", []byte("x"))
	if !IsNetwork(err) {
		t.Fatalf("IsNetwork(%v) = false, want true", err)
	}
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Status != 0 {
		t.Errorf("status = %d, want 0 for a request that never arrived", gerr.Status)
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() { close(release); srv.Close() }()

	c := New(srv.URL, 50*time.Millisecond, nil)
	_, err := c.SubmitFrame(context.Background(), "sub-x", []byte("x"))
	if !IsNetwork(err) {
		t.Fatalf("IsNetwork(%v) = false, want true", err)
	}
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Message != timeoutMessage {
		t.Errorf("message = %q, want the timeout message", gerr.Message)
	}
}

func TestNoAutomaticRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	if _, err := c.SubmitFrame(context.Background(), "sub-x", []byte("x")); err == nil {
		t.Fatal("expected an error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server saw %d requests, want exactly 1", got)
	}
}

func TestValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	_, err := c.Login(context.Background(), Credentials{Username: "", Password: ""})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("server saw %d requests, want 0 for a local validation failure", calls.Load())
	}
}

func TestAnonymousRequestOmitsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"access_token":"t","token_type":"bearer"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, staticToken(""))
	if _, err := c.Login(context.Background(), Credentials{Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty for a logged-out client", gotAuth)
	}
}
