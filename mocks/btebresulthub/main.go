// Command btebresulthub is a standalone mock of the external results hub,
// used for local development and manual testing of the web fallback. It
// serves a handful of canned roll numbers and misses on everything else.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"
)

type institute struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	District string `json:"district"`
}

type semester struct {
	Semester    string    `json:"semester"`
	GPA         string    `json:"gpa"`
	RefSubjects []string  `json:"ref_subjects,omitempty"`
	Passed      bool      `json:"passed"`
	PublishedAt time.Time `json:"published_at"`
}

type result struct {
	Success    bool       `json:"success"`
	Roll       string     `json:"roll"`
	Name       string     `json:"name"`
	Regulation int        `json:"regulation"`
	Exam       string     `json:"exam"`
	Institute  institute  `json:"institute"`
	ResultData []semester `json:"result_data"`
	CGPA       *float64   `json:"cgpa"`
}

func cgpaOf(v float64) *float64 { return &v }

var published = time.Date(2023, 3, 12, 0, 0, 0, 0, time.UTC)

var records = map[string]result{
	"502760": {
		Success:    true,
		Roll:       "502760",
		Name:       "Mock Student One",
		Regulation: 2022,
		Exam:       "Diploma in Engineering",
		Institute:  institute{Code: "16057", Name: "Feni Polytechnic Institute", District: "Feni"},
		ResultData: []semester{
			{Semester: "1", GPA: "3.50", Passed: true, PublishedAt: published},
			{Semester: "2", GPA: "ref", RefSubjects: []string{"66422"}, PublishedAt: published},
		},
		CGPA: cgpaOf(3.42),
	},
	"721942": {
		Success:    true,
		Roll:       "721942",
		Name:       "Mock Student Two",
		Regulation: 2016,
		Exam:       "Diploma in Engineering",
		Institute:  institute{Code: "16058", Name: "Dhaka Polytechnic Institute", District: "Dhaka"},
		ResultData: []semester{
			{Semester: "1", GPA: "3.08", Passed: true, PublishedAt: published},
		},
	},
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RollNo string `json:"roll_no"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	record, ok := records[req.RollNo]
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]bool{"success": false})
		return
	}
	json.NewEncoder(w).Encode(record)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func main() {
	addr := os.Getenv("MOCK_HUB_ADDR")
	if addr == "" {
		addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", handleSearch)
	mux.HandleFunc("/health", handleHealth)

	log.Printf("mock results hub listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
