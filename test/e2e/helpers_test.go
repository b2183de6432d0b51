// Request builders and response assertions shared by the end-to-end tests.
package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

// doGet sends a GET request to the specified path.
func doGet(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.baseURL+path, nil)
	if err != nil {
		t.Fatalf("create GET request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-E2E-Test", "true")

	resp, err := env.httpClient.Do(req)
	if err != nil {
		t.Fatalf("execute GET request: %v", err)
	}
	t.Logf("GET %s -> %d", path, resp.StatusCode)
	return resp
}

// doPost sends a POST request with a JSON body.
func doPost(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, env.baseURL+path, bodyReader)
	if err != nil {
		t.Fatalf("create POST request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-E2E-Test", "true")

	resp, err := env.httpClient.Do(req)
	if err != nil {
		t.Fatalf("execute POST request: %v", err)
	}
	t.Logf("POST %s -> %d", path, resp.StatusCode)
	return resp
}

// assertStatus asserts the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected status %d, got %d; body: %s", expected, resp.StatusCode, string(body))
	}
}

// assertJSON reads and unmarshals the response body.
func assertJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("unmarshal response: %v; body: %s", err, string(body))
	}
}

// readBody drains and closes the response body.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(body)
}

//Personal.AI order the ending
