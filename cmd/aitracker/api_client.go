package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fentz26/aitracker/internal/storage"
)

// apiClient is the shared HTTP client with timeout.
var apiClient = &http.Client{
	Timeout: storage.DefaultClientTimeout,
}

// apiURL joins path onto the store address and adds the user id.
func apiURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if cfg.UserID != "" {
		query.Set("user_id", cfg.UserID)
	}
	u := strings.TrimRight(cfg.APIURL, "/") + path
	if enc := query.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// apiGet performs a GET request to the API with timeout.
func apiGet(path string, query url.Values) ([]byte, error) {
	resp, err := apiClient.Get(apiURL(path, query))
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()
	return readBody(resp)
}

// apiPost performs a POST request to the API with timeout.
func apiPost(path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := apiClient.Post(apiURL(path, nil), "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()
	return readBody(resp)
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
