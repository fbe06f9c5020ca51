package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"absent", "/properties", 1},
		{"valid", "/properties?start=51", 51},
		{"zero", "/properties?start=0", 1},
		{"negative", "/properties?start=-5", 1},
		{"garbage", "/properties?start=abc", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			if got := ParseStart(r); got != tc.want {
				t.Errorf("ParseStart(%q) = %d, want %d", tc.url, got, tc.want)
			}
		})
	}
}

func page(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestTrimPage_ForwardFullPage(t *testing.T) {
	rows := page(PageSize + 1)
	res := TrimPage(&rows, "", "")

	if len(rows) != PageSize {
		t.Errorf("len = %d, want %d", len(rows), PageSize)
	}
	if rows[0] != 0 {
		t.Errorf("first element = %d, want 0 (tail should be trimmed)", rows[0])
	}
	if !res.HasNext {
		t.Error("HasNext = false, want true")
	}
	if res.HasPrev {
		t.Error("HasPrev = true on first page, want false")
	}
}

func TestTrimPage_ForwardWithAfterCursor(t *testing.T) {
	rows := page(10)
	res := TrimPage(&rows, "", "somecursor")

	if len(rows) != 10 {
		t.Errorf("len = %d, want 10 (short page untouched)", len(rows))
	}
	if res.HasNext {
		t.Error("HasNext = true on short page, want false")
	}
	if !res.HasPrev {
		t.Error("HasPrev = false with after cursor, want true")
	}
}

func TestTrimPage_Backward(t *testing.T) {
	rows := page(PageSize + 1)
	res := TrimPage(&rows, "somecursor", "")

	if len(rows) != PageSize {
		t.Errorf("len = %d, want %d", len(rows), PageSize)
	}
	if rows[0] != 1 {
		t.Errorf("first element = %d, want 1 (head should be trimmed)", rows[0])
	}
	if !res.HasPrev {
		t.Error("HasPrev = false, want true")
	}
	if !res.HasNext {
		t.Error("HasNext = false when paging backward, want true")
	}
}

func TestTrimPage_BackwardShortPage(t *testing.T) {
	rows := page(3)
	res := TrimPage(&rows, "somecursor", "")

	if len(rows) != 3 {
		t.Errorf("len = %d, want 3", len(rows))
	}
	if res.HasPrev {
		t.Error("HasPrev = true on short backward page, want false")
	}
	if !res.HasNext {
		t.Error("HasNext = false when paging backward, want true")
	}
}

func TestComputeRange(t *testing.T) {
	tests := []struct {
		name         string
		start, shown int
		want         Range
	}{
		{"empty", 1, 0, Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}},
		{"first page", 1, PageSize, Range{Start: 1, End: PageSize, PrevStart: 1, NextStart: PageSize + 1}},
		{"second page", PageSize + 1, PageSize, Range{Start: PageSize + 1, End: 2 * PageSize, PrevStart: 1, NextStart: 2*PageSize + 1}},
		{"partial last page", 101, 7, Range{Start: 101, End: 107, PrevStart: 51, NextStart: 108}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeRange(tc.start, tc.shown); got != tc.want {
				t.Errorf("ComputeRange(%d, %d) = %+v, want %+v", tc.start, tc.shown, got, tc.want)
			}
		})
	}
}

func TestConfigureKeyset_Directions(t *testing.T) {
	if cfg := ConfigureKeyset("", ""); cfg.Direction != Forward || cfg.SortOrder != 1 || cfg.Cursor != nil {
		t.Errorf("no cursors: got %+v", cfg)
	}
	if cfg := ConfigureKeyset("bogus-but-present", ""); cfg.Direction != Backward || cfg.SortOrder != -1 {
		t.Errorf("before cursor: got %+v", cfg)
	}
	// Undecodable cursors flip direction but yield no window.
	cfg := ConfigureKeyset("not-a-cursor", "")
	if cfg.KeysetWindow("address") != nil {
		t.Error("undecodable cursor produced a keyset window")
	}
}

func TestReverse(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	Reverse(rows)
	want := []int{4, 3, 2, 1}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("Reverse = %v, want %v", rows, want)
		}
	}

	single := []int{7}
	Reverse(single)
	if single[0] != 7 {
		t.Error("single-element reverse changed the slice")
	}
}
