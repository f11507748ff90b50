package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}

// countingTransport fails every request and records how many were attempted.
// Used to prove that local validation short-circuits before the network.
type countingTransport struct {
	calls int
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls++
	return nil, errors.New("network access not expected in this test")
}

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithFilesystem(server.URL, apiKey, afero.NewMemMapFs())
}

func TestCategoriesWithoutCredential(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("categories request carried Authorization header %q", auth)
		}
		if r.URL.Path != "/categories" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"categories": ["Productivity", "Health"]}`))
	}, "")

	categories, err := client.Categories()
	require.NoError(t, err)
	require.Equal(t, []string{"Productivity", "Health"}, categories)
}

func TestCategoriesEmptyIsNeverNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories": null}`))
	}, "")

	categories, err := client.Categories()
	require.NoError(t, err)
	if categories == nil {
		t.Fatal("Categories() returned nil slice for empty result set")
	}
	require.Len(t, categories, 0)
}

func TestBearerCredentialAttached(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer secret-key")
		}
		w.Write([]byte(`{"shortcuts": [], "total": 0, "pages": 0, "current_page": 1}`))
	}, "secret-key")

	_, err := client.List(1, 20)
	require.NoError(t, err)
}

func TestListPassesPaginationVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "7" || q.Get("per_page") != "50" {
			t.Errorf("pagination query = %v, want page=7 per_page=50", q)
		}
		w.Write([]byte(`{"shortcuts": null, "total": 0, "pages": 0, "current_page": 7}`))
	}, "key")

	page, err := client.List(7, 50)
	require.NoError(t, err)
	require.NotNil(t, page.Shortcuts, "empty page must hold an empty slice, not nil")
	require.Equal(t, 7, page.CurrentPage)
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "message key preferred",
			status:      404,
			body:        `{"message": "shortcut not found"}`,
			wantMessage: "shortcut not found",
		},
		{
			name:        "error key as fallback",
			status:      403,
			body:        `{"error": "forbidden"}`,
			wantMessage: "forbidden",
		},
		{
			name:        "non-JSON body falls back to status text",
			status:      500,
			body:        "<html>Internal Server Error</html>",
			wantMessage: "500 Internal Server Error",
		},
		{
			name:        "empty body falls back to status text",
			status:      502,
			body:        "",
			wantMessage: "502 Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, "key")

			_, err := client.Get("some-uuid")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.wantMessage, apiErr.Message)
			require.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // connection refused from here on

	client := NewClientWithFilesystem(url, "key", afero.NewMemMapFs())
	_, err := client.Categories()

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestUpdateSendsOnlySuppliedFields(t *testing.T) {
	description := "x"
	newVersion := "2.0"
	flag := false

	tests := []struct {
		name   string
		fields UpdateFields
		want   map[string]any
	}{
		{
			name:   "description only",
			fields: UpdateFields{Description: &description},
			want:   map[string]any{"description": "x"},
		},
		{
			name:   "version and changelog",
			fields: UpdateFields{NewVersion: &newVersion, Changelog: &description},
			want:   map[string]any{"new_version": "2.0", "changelog": "x"},
		},
		{
			name:   "explicit false flag is still sent",
			fields: UpdateFields{RequiresIOS26AI: &flag},
			want:   map[string]any{"requires_ios26_ai": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured map[string]any
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(body, &captured); err != nil {
					t.Errorf("request body is not JSON: %v", err)
				}
				w.Write([]byte(`{"message": "updated"}`))
			}, "key")

			_, err := client.Update("uuid-1", tt.fields)
			require.NoError(t, err)
			require.Equal(t, tt.want, captured, "payload must contain exactly the supplied fields")
		})
	}
}

func TestUpdateFieldsEmpty(t *testing.T) {
	if !(UpdateFields{}).Empty() {
		t.Error("zero UpdateFields should be Empty")
	}
	v := "1.0"
	if (UpdateFields{NewVersion: &v}).Empty() {
		t.Error("UpdateFields with a field should not be Empty")
	}
}

func TestCreateSendsOnlySuppliedFields(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(`{"shortcut": {"uuid": "new-uuid"}}`))
	}, "key")

	category := "Productivity"
	shortcut, err := client.Create(CreateRequest{
		SharingURL: "https://www.icloud.com/shortcuts/abc123",
		Category:   &category,
	})
	require.NoError(t, err)
	require.Equal(t, "new-uuid", shortcut.UUID)
	require.Equal(t, map[string]any{
		"sharing_url": "https://www.icloud.com/shortcuts/abc123",
		"category":    "Productivity",
	}, captured)
}

func TestCreateAutoSubmitChainsSubmitCall(t *testing.T) {
	var submitCalled bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shortcuts":
			w.Write([]byte(`{"shortcut": {"uuid": "chained-uuid"}}`))
		case "/shortcuts/chained-uuid/submit":
			submitCalled = true
			w.Write([]byte(`{"message": "submitted"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, "key")

	shortcut, err := client.Create(CreateRequest{
		SharingURL: "https://www.icloud.com/shortcuts/abc123",
		AutoSubmit: true,
	})
	require.NoError(t, err)
	require.Equal(t, "chained-uuid", shortcut.UUID)
	require.True(t, submitCalled, "auto-submit must issue a second submit call")
}

func TestCreateAutoSubmitPartialFailureCarriesUUID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shortcuts":
			w.Write([]byte(`{"shortcut": {"uuid": "orphan-uuid"}}`))
		case "/shortcuts/orphan-uuid/submit":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "review queue unavailable"}`))
		}
	}, "key")

	_, err := client.Create(CreateRequest{
		SharingURL: "https://www.icloud.com/shortcuts/abc123",
		AutoSubmit: true,
	})

	var partial *PartialSubmitError
	require.ErrorAs(t, err, &partial, "create+submit split outcome must surface as PartialSubmitError")
	require.Equal(t, "orphan-uuid", partial.Shortcut.UUID)

	var apiErr *APIError
	require.ErrorAs(t, partial.Err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestUploadScreenshotMissingFileSkipsNetwork(t *testing.T) {
	transport := &countingTransport{}
	client := NewClientWithFilesystem("http://unused.invalid", "key", afero.NewMemMapFs())
	client.SetHTTPClient(&http.Client{Transport: transport})

	_, err := client.UploadScreenshot("uuid-1", "/does/not/exist.png")

	var notFound *FileNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "/does/not/exist.png", notFound.Path)
	require.Equal(t, 0, transport.calls, "no network call may happen for a missing file")
}

func TestUploadScreenshotRejectsNonImageBeforeNetwork(t *testing.T) {
	memFS := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFS, "/shot.png", []byte("plain text pretending"), 0644))

	transport := &countingTransport{}
	client := NewClientWithFilesystem("http://unused.invalid", "key", memFS)
	client.SetHTTPClient(&http.Client{Transport: transport})

	_, err := client.UploadScreenshot("uuid-1", "/shot.png")

	var invalid *InvalidFileError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, 0, transport.calls)
}

func TestUploadScreenshotMultipart(t *testing.T) {
	memFS := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFS, "/screens/shot.png", pngHeader, 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/screenshot" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		if got := r.FormValue("shortcut_id"); got != "uuid-1" {
			t.Errorf("shortcut_id = %q, want uuid-1", got)
		}
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		if header.Filename != "shot.png" {
			t.Errorf("filename = %q, want shot.png", header.Filename)
		}
		w.Write([]byte(`{"screenshot": {"id": 9, "filename": "shot.png"}}`))
	}))
	defer server.Close()

	client := NewClientWithFilesystem(server.URL, "key", memFS)
	resp, err := client.UploadScreenshot("uuid-1", "/screens/shot.png")
	require.NoError(t, err)
	require.Equal(t, 9, resp.Screenshot.ID)
}

func TestDeleteScreenshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/shortcuts/uuid-1/screenshots/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"message": "deleted"}`))
	}, "key")

	// Screenshot IDs pass through opaquely, hence the string.
	msg, err := client.DeleteScreenshot("uuid-1", "42")
	require.NoError(t, err)
	require.Equal(t, "deleted", msg.Message)
}

func TestGetNormalizesEmptyCollections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"shortcut": {"uuid": "u"}}`))
	}, "key")

	details, err := client.Get("u")
	require.NoError(t, err)
	require.NotNil(t, details.Comments)
	require.NotNil(t, details.Screenshots)
}

func TestHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shortcuts/u/history" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"shortcut_name": "Demo", "shortcut_uuid": "u", "changelog": [{"version": "1.0", "status": "approved"}]}`))
	}, "key")

	history, err := client.History("u")
	require.NoError(t, err)
	require.Equal(t, "Demo", history.ShortcutName)
	require.Len(t, history.Changelog, 1)
}
