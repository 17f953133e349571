package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Page
	}{
		{"defaults", "/sheets", Page{Current: 1, PerPage: 6}},
		{"explicit", "/sheets?currentPage=3&perPage=10", Page{Current: 3, PerPage: 10}},
		{"zero page", "/sheets?currentPage=0", Page{Current: 1, PerPage: 6}},
		{"negative perPage", "/sheets?perPage=-4", Page{Current: 1, PerPage: 6}},
		{"not a number", "/sheets?currentPage=abc", Page{Current: 1, PerPage: 6}},
		{"capped", "/sheets?perPage=5000", Page{Current: 1, PerPage: MaxPerPage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := Parse(r); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestSkipLimit(t *testing.T) {
	p := Page{Current: 3, PerPage: 6}
	if got := p.Skip(); got != 12 {
		t.Errorf("Skip() = %d, want 12", got)
	}
	if got := p.Limit(); got != 6 {
		t.Errorf("Limit() = %d, want 6", got)
	}
	stages := p.Stages()
	if len(stages) != 2 || stages[0]["$skip"] != int64(12) || stages[1]["$limit"] != int64(6) {
		t.Errorf("Stages() = %v", stages)
	}
}

func TestTotalPages(t *testing.T) {
	p := Page{Current: 1, PerPage: 6}
	tests := []struct {
		total int64
		want  int64
	}{
		{0, 0},
		{1, 1},
		{6, 1},
		{7, 2},
		{13, 3},
	}
	for _, tt := range tests {
		if got := p.TotalPages(tt.total); got != tt.want {
			t.Errorf("TotalPages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}
