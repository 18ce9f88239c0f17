package models

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		query     PageQuery
		total     int
		wantPages int
	}{
		{query: PageQuery{Page: 1, Limit: 10}, total: 0, wantPages: 0},
		{query: PageQuery{Page: 1, Limit: 10}, total: 10, wantPages: 1},
		{query: PageQuery{Page: 2, Limit: 10}, total: 11, wantPages: 2},
		{query: PageQuery{Page: 1, Limit: 100}, total: 250, wantPages: 3},
	}

	for _, tt := range tests {
		p := NewPagination(tt.query, tt.total)
		if p.TotalPages != tt.wantPages {
			t.Errorf("NewPagination(%+v, %d).TotalPages = %d, want %d", tt.query, tt.total, p.TotalPages, tt.wantPages)
		}
		if p.Total != tt.total || p.Page != tt.query.Page || p.Limit != tt.query.Limit {
			t.Errorf("NewPagination(%+v, %d) = %+v, fields not carried over", tt.query, tt.total, p)
		}
	}
}

func TestPageQueryOffset(t *testing.T) {
	if got := (PageQuery{Page: 1, Limit: 10}).Offset(); got != 0 {
		t.Errorf("Expected offset 0 for the first page, got %d", got)
	}
	if got := (PageQuery{Page: 3, Limit: 25}).Offset(); got != 50 {
		t.Errorf("Expected offset 50, got %d", got)
	}
}

func TestBookUpdateRequestEmpty(t *testing.T) {
	if !(&BookUpdateRequest{}).Empty() {
		t.Error("Expected a request without fields to be empty")
	}
	title := "Dune"
	if (&BookUpdateRequest{Title: &title}).Empty() {
		t.Error("Expected a request with a title to be non-empty")
	}
}
