package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/stretchr/testify/require"
)

func TestRemote_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]string{"provider": "anthropic", "message": "hi", "api_key": "k"}, body)
		_, _ = w.Write([]byte(`{"response":"hello"}`))
	}))
	defer srv.Close()

	r := NewRemote(srv.URL+"/", Options{})
	resp, err := r.Chat(context.Background(), generation.ChatRequest{Provider: credential.ProviderAnthropic, Message: "hi", APIKey: "k"})
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Response)
}

func TestRemote_GenerateCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate-code", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]string{"api_key": "k", "prompt": "p", "language": "web3"}, body)
		_, _ = w.Write([]byte(`{"code":"contract A {}","setup_instructions":"npx hardhat","explanation":"e"}`))
	}))
	defer srv.Close()

	collab := New(srv.URL, Options{})
	resp, err := collab.GenerateCode(context.Background(), generation.CodeRequest{
		Provider: credential.ProviderOpenAI,
		APIKey:   "k",
		Prompt:   "p",
		Language: "web3",
	})
	require.NoError(t, err)
	require.Equal(t, "contract A {}", resp.Code)
	require.Equal(t, "npx hardhat", resp.SetupInstructions)
}

func TestRemote_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, Options{}).Chat(context.Background(), generation.ChatRequest{Message: "x"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestNew_SelectsDirectClient(t *testing.T) {
	_, ok := New("", Options{}).(*Client)
	require.True(t, ok)
}
