package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"verichain/internal/errs"
	"verichain/ledger/client"
	"verichain/ledger/client/local"
	core "verichain/verification/service/core"
)

// countingConnector tracks session lifecycle so tests can assert that every
// request opens exactly one session and closes it on every exit path.
type countingConnector struct {
	backend *local.Backend

	mu       sync.Mutex
	connects int
	closes   int
}

func (c *countingConnector) Connect(ctx context.Context) (client.LedgerClient, error) {
	sess, err := c.backend.Connect(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.connects++
	c.mu.Unlock()
	return &countingSession{Session: sess, owner: c}, nil
}

func (c *countingConnector) counts() (connects, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects, c.closes
}

type countingSession struct {
	*local.Session
	owner *countingConnector
}

func (s *countingSession) Close() error {
	s.owner.mu.Lock()
	s.owner.closes++
	s.owner.mu.Unlock()
	return s.Session.Close()
}

func newTestServer(t *testing.T) (*httptest.Server, *countingConnector) {
	t.Helper()
	logger := log.New(os.Stdout, "[VERIFY-TEST] ", log.LstdFlags)
	connector := &countingConnector{backend: local.NewBackend(logger)}

	svc, err := core.NewService(connector, t.TempDir(), logger)
	require.NoError(t, err)

	handler := NewDocumentHandler(svc, 10*1024*1024, "http://docs.example.test", logger)
	server := httptest.NewServer(NewRouter(handler, []string{"*"}))
	t.Cleanup(server.Close)
	return server, connector
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadViewDownloadRoundTrip(t *testing.T) {
	server, connector := newTestServer(t)
	payload := []byte("%PDF-1.4 round trip")

	body, contentType := multipartUpload(t, map[string]string{
		"docId":    "doc-1",
		"ownerId":  "owner-1",
		"comments": "notarized copy",
	}, "deed.pdf", payload)

	resp, err := http.Post(server.URL+"/api/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploadResp struct {
		Message string `json:"message"`
		DocID   string `json:"docId"`
		DocHash string `json:"docHash"`
		TxID    string `json:"txId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploadResp))
	require.NotEmpty(t, uploadResp.Message)
	require.Equal(t, "doc-1", uploadResp.DocID)
	require.NotEmpty(t, uploadResp.DocHash)
	require.NotEmpty(t, uploadResp.TxID)

	viewResp, err := http.Get(server.URL + "/api/view/doc-1")
	require.NoError(t, err)
	defer viewResp.Body.Close()
	require.Equal(t, http.StatusOK, viewResp.StatusCode)

	var view map[string]interface{}
	require.NoError(t, json.NewDecoder(viewResp.Body).Decode(&view))
	require.Equal(t, "doc-1", view["id"])
	require.Equal(t, "owner-1", view["ownerId"])
	require.Equal(t, uploadResp.DocHash, view["docHash"])
	require.Equal(t, "http://docs.example.test/api/download/doc-1", view["documentUrl"])

	dlResp, err := http.Get(server.URL + "/api/download/doc-1")
	require.NoError(t, err)
	defer dlResp.Body.Close()
	require.Equal(t, http.StatusOK, dlResp.StatusCode)
	require.Equal(t, "application/pdf", dlResp.Header.Get("Content-Type"))

	var downloaded bytes.Buffer
	_, err = downloaded.ReadFrom(dlResp.Body)
	require.NoError(t, err)
	require.Equal(t, payload, downloaded.Bytes())

	// One session per request, all of them closed.
	connects, closes := connector.counts()
	require.Equal(t, 3, connects)
	require.Equal(t, connects, closes)
}

func TestUploadValidationBeforeConnect(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		file   string
	}{
		{"missing docId", map[string]string{"ownerId": "owner-1"}, "deed.pdf"},
		{"missing ownerId", map[string]string{"docId": "doc-1"}, "deed.pdf"},
		{"missing file", map[string]string{"docId": "doc-1", "ownerId": "owner-1"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, connector := newTestServer(t)
			body, contentType := multipartUpload(t, tc.fields, tc.file, []byte("x"))

			resp, err := http.Post(server.URL+"/api/upload", contentType, body)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			// Validation failures never open a ledger session.
			connects, _ := connector.counts()
			require.Equal(t, 0, connects)
		})
	}
}

func TestViewUnknownDocument(t *testing.T) {
	server, connector := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/view/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The session is closed even on the error path.
	connects, closes := connector.counts()
	require.Equal(t, 1, connects)
	require.Equal(t, 1, closes)
}

func TestUploadUsesCallerDocHashWhenProvided(t *testing.T) {
	server, _ := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"docId":   "doc-1",
		"ownerId": "owner-1",
		"docHash": "feedface",
	}, "deed.pdf", []byte("payload"))

	resp, err := http.Post(server.URL+"/api/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploadResp struct {
		DocHash string `json:"docHash"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploadResp))
	require.Equal(t, "feedface", uploadResp.DocHash)
}

// downConnector simulates an unreachable gateway.
type downConnector struct{}

func (downConnector) Connect(context.Context) (client.LedgerClient, error) {
	return nil, fmt.Errorf("%w: no gateway peer reachable", errs.ErrConnection)
}

func TestUploadGatewayFailureIsInternalError(t *testing.T) {
	logger := log.New(os.Stdout, "[VERIFY-TEST] ", log.LstdFlags)
	svc, err := core.NewService(downConnector{}, t.TempDir(), logger)
	require.NoError(t, err)

	handler := NewDocumentHandler(svc, 10*1024*1024, "", logger)
	server := httptest.NewServer(NewRouter(handler, []string{"*"}))
	t.Cleanup(server.Close)

	body, contentType := multipartUpload(t, map[string]string{
		"docId":   "doc-1",
		"ownerId": "owner-1",
	}, "deed.pdf", []byte("payload"))

	resp, err := http.Post(server.URL+"/api/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	require.NotEmpty(t, errResp.Message)
	require.Contains(t, errResp.Error, "no gateway peer reachable")
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
