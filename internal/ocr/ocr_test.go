package ocr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRecognize(t *testing.T) {
	var gotBody []byte
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotLang = r.URL.Query().Get("lang")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  scanned words \n"})
	}))
	defer srv.Close()

	rec := NewHTTP(srv.URL, WithLanguages("eng", "deu"), WithTimeout(time.Second))
	text, err := rec.Recognize(context.Background(), []byte("pixels"))
	require.NoError(t, err)
	assert.Equal(t, "scanned words", text)
	assert.Equal(t, []byte("pixels"), gotBody)
	assert.Equal(t, "eng+deu", gotLang)
}

func TestHTTPRecognizeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") == "bad" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unreadable"})
			return
		}
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL).Recognize(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "status 400")

	_, err = NewHTTP(srv.URL, WithLanguages("bad")).Recognize(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "unreadable")

	_, err = NewHTTP(srv.URL).Recognize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestNew(t *testing.T) {
	rec, err := New(Config{Backend: BackendNone})
	require.NoError(t, err)
	_, err = rec.Recognize(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(Config{Backend: BackendHTTP})
	assert.ErrorIs(t, err, ErrNoEndpoint)

	rec, err = New(Config{Backend: BackendHTTP, Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.IsType(t, &HTTP{}, rec)

	rec, err = New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, rec)

	_, err = New(Config{Backend: "cloud"})
	assert.Error(t, err)
}

func TestFunc(t *testing.T) {
	rec := Func(func(_ context.Context, img []byte) (string, error) {
		return string(img), nil
	})
	text, err := rec.Recognize(context.Background(), []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", text)
}
