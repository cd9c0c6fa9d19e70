package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeJobsuche is an in-process stand-in for the Bundesagentur Jobsuche API.
// It serves /pc/v4/jobs and /pc/v4/jobdetails/{base64 refnr} from memory and
// records every request it receives.
type FakeJobsuche struct {
	Server *httptest.Server
	APIKey string

	mu            sync.Mutex
	listings      []map[string]any
	details       map[string]map[string]any
	searchFails   []int
	detailFails   map[string][]int
	searchQueries []url.Values
	detailRefs    []string
}

// NewFakeJobsuche starts a fake upstream that is closed when the test ends.
func NewFakeJobsuche(t testing.TB) *FakeJobsuche {
	t.Helper()
	f := &FakeJobsuche{
		APIKey:      "jobboerse-jobsuche",
		details:     make(map[string]map[string]any),
		detailFails: make(map[string][]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/pc/v4/jobs", f.handleSearch)
	mux.HandleFunc("/pc/v4/jobdetails/", f.handleDetails)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL to configure clients with.
func (f *FakeJobsuche) URL() string {
	return f.Server.URL
}

// AddListing appends a listing to the search index and gives it a minimal
// details record.
func (f *FakeJobsuche) AddListing(refnr, title, employer, ort, plz string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings = append(f.listings, map[string]any{
		"refnr":       refnr,
		"titel":       title,
		"beruf":       title,
		"arbeitgeber": employer,
		"arbeitsort": map[string]any{
			"ort":  ort,
			"plz":  plz,
			"land": "Deutschland",
		},
		"aktuelleVeroeffentlichungsdatum": "2025-01-15",
	})
	if _, ok := f.details[refnr]; !ok {
		f.details[refnr] = map[string]any{
			"titel":       title,
			"arbeitgeber": employer,
			"arbeitsorte": []any{
				map[string]any{"adresse": map[string]any{"ort": ort, "plz": plz}},
			},
			"arbeitszeitVollzeit": true,
		}
	}
}

// SetDetail replaces the details record served for refnr.
func (f *FakeJobsuche) SetDetail(refnr string, body map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[refnr] = body
}

// RemoveDetail makes the details endpoint answer 404 for refnr.
func (f *FakeJobsuche) RemoveDetail(refnr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.details, refnr)
}

// FailSearch queues status codes returned by the next search calls.
func (f *FakeJobsuche) FailSearch(codes ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchFails = append(f.searchFails, codes...)
}

// FailDetails queues status codes returned by the next details calls for refnr.
func (f *FakeJobsuche) FailDetails(refnr string, codes ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailFails[refnr] = append(f.detailFails[refnr], codes...)
}

// SearchQueries returns the query strings of all search calls so far.
func (f *FakeJobsuche) SearchQueries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.searchQueries...)
}

// DetailRequests returns the decoded reference numbers of all details calls so far.
func (f *FakeJobsuche) DetailRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.detailRefs...)
}

func (f *FakeJobsuche) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-API-Key") != f.APIKey {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "invalid api key"})
		return false
	}
	return true
}

func (f *FakeJobsuche) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}

	f.mu.Lock()
	f.searchQueries = append(f.searchQueries, r.URL.Query())
	if len(f.searchFails) > 0 {
		code := f.searchFails[0]
		f.searchFails = f.searchFails[1:]
		f.mu.Unlock()
		writeJSON(w, code, map[string]any{"message": http.StatusText(code)})
		return
	}
	matches := f.match(r.URL.Query())
	f.mu.Unlock()

	page := atoiDefault(r.URL.Query().Get("page"), 1)
	size := atoiDefault(r.URL.Query().Get("size"), 25)
	if page < 1 || size < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid paging"})
		return
	}

	start := (page - 1) * size
	end := start + size
	if start > len(matches) {
		start = len(matches)
	}
	if end > len(matches) {
		end = len(matches)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stellenangebote": matches[start:end],
		// The live API sends some counters as strings.
		"maxErgebnisse": strconv.Itoa(len(matches)),
		"page":          strconv.Itoa(page),
		"size":          size,
	})
}

// match filters listings by the was and wo parameters. Caller holds f.mu.
func (f *FakeJobsuche) match(q url.Values) []map[string]any {
	was := strings.ToLower(strings.TrimSpace(q.Get("was")))
	wo := strings.ToLower(strings.TrimSpace(q.Get("wo")))

	out := make([]map[string]any, 0, len(f.listings))
	for _, l := range f.listings {
		if was != "" && !containsAnyWord(strings.ToLower(l["titel"].(string)+" "+l["arbeitgeber"].(string)), was) {
			continue
		}
		if wo != "" {
			site, _ := l["arbeitsort"].(map[string]any)
			ort, _ := site["ort"].(string)
			if !strings.EqualFold(ort, wo) {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

func (f *FakeJobsuche) handleDetails(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}

	encoded := strings.TrimPrefix(r.URL.Path, "/pc/v4/jobdetails/")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "malformed reference"})
		return
	}
	refnr := string(raw)

	f.mu.Lock()
	f.detailRefs = append(f.detailRefs, refnr)
	if codes := f.detailFails[refnr]; len(codes) > 0 {
		f.detailFails[refnr] = codes[1:]
		f.mu.Unlock()
		writeJSON(w, codes[0], map[string]any{"message": http.StatusText(codes[0])})
		return
	}
	body, ok := f.details[refnr]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
		return
	}
	out := make(map[string]any, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	out["refnr"] = refnr
	writeJSON(w, http.StatusOK, out)
}

func containsAnyWord(haystack, query string) bool {
	for _, word := range strings.Fields(query) {
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
