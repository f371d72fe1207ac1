package sheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tallylabs/expensebot/internal/creds"
)

// testAccount builds a service account with a freshly generated RSA key and
// a token endpoint pointing at the given test server.
func testAccount(t *testing.T, tokenURL string) *creds.ServiceAccount {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshaling key: %v", err)
	}

	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	return &creds.ServiceAccount{
		Type:        "service_account",
		ClientEmail: "bot@test.iam.gserviceaccount.com",
		PrivateKey:  string(pemKey),
		TokenURI:    tokenURL,
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()

	var tokenCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		handler(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := NewTokenSource(testAccount(t, srv.URL+"/token"), SpreadsheetScope)
	client := NewClient("sheet-1", tokens, nil, WithBaseURL(srv.URL))
	return srv, client
}

func TestWorksheets(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/spreadsheets/sheet-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sheets": []map[string]any{
				{"properties": map[string]any{"sheetId": 0, "title": "Sheet1"}},
				{"properties": map[string]any{"sheetId": 1042, "title": "August 2026"}},
			},
		})
	})

	worksheets, err := client.Worksheets(context.Background())
	if err != nil {
		t.Fatalf("Worksheets: %v", err)
	}
	if len(worksheets) != 2 {
		t.Fatalf("expected 2 worksheets, got %d", len(worksheets))
	}
	if worksheets[1].Title != "August 2026" || worksheets[1].SheetID != 1042 {
		t.Errorf("unexpected worksheet: %+v", worksheets[1])
	}

	ws, err := client.Worksheet(context.Background(), "August 2026")
	if err != nil {
		t.Fatalf("Worksheet: %v", err)
	}
	if ws.SheetID != 1042 {
		t.Errorf("unexpected sheet id %d", ws.SheetID)
	}

	if _, err := client.Worksheet(context.Background(), "September 2026"); err == nil {
		t.Error("expected ErrWorksheetNotFound")
	}
}

func TestRowAndColumnValues(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"values": [][]any{{"Groceries", "", "Transport"}},
		})
	})

	row, err := client.RowValues(context.Background(), "August 2026", 1)
	if err != nil {
		t.Fatalf("RowValues: %v", err)
	}
	want := []string{"Groceries", "", "Transport"}
	if len(row) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d: got %q want %q", i, row[i], want[i])
		}
	}
}

func TestUpdateCell(t *testing.T) {
	var captured struct {
		Range  string  `json:"range"`
		Values [][]any `json:"values"`
	}

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		w.Write([]byte("{}"))
	})

	if err := client.UpdateCell(context.Background(), "August 2026", 7, 3, "25.50"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	if captured.Range != "August 2026!C7" {
		t.Errorf("unexpected range %q", captured.Range)
	}
	if len(captured.Values) != 1 || len(captured.Values[0]) != 1 || captured.Values[0][0] != "25.50" {
		t.Errorf("unexpected values %+v", captured.Values)
	}
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{1, "A"}, {2, "B"}, {26, "Z"},
		{27, "AA"}, {28, "AB"}, {52, "AZ"}, {53, "BA"},
		{702, "ZZ"}, {703, "AAA"},
	}

	for _, tt := range tests {
		if got := columnLetter(tt.col); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}
