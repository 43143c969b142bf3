package models

import (
	"encoding/json"
	"testing"
)

func TestPaginate(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name     string
		page     int
		perPage  int
		wantData []int
		wantLast int
	}{
		{"first page", 1, 3, []int{1, 2, 3}, 3},
		{"middle page", 2, 3, []int{4, 5, 6}, 3},
		{"short last page", 3, 3, []int{7}, 3},
		{"beyond last page", 5, 3, []int{}, 3},
		{"everything", 1, 10, []int{1, 2, 3, 4, 5, 6, 7}, 1},
		{"page clamped to 1", 0, 3, []int{1, 2, 3}, 3},
		{"per_page clamped to 1", 1, 0, []int{1}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(items, tt.page, tt.perPage)

			if page.Total != len(items) {
				t.Errorf("Total = %d, want %d", page.Total, len(items))
			}
			if page.LastPage != tt.wantLast {
				t.Errorf("LastPage = %d, want %d", page.LastPage, tt.wantLast)
			}
			if len(page.Data) != len(tt.wantData) {
				t.Fatalf("Data = %v, want %v", page.Data, tt.wantData)
			}
			for i := range tt.wantData {
				if page.Data[i] != tt.wantData[i] {
					t.Fatalf("Data = %v, want %v", page.Data, tt.wantData)
				}
			}
		})
	}
}

func TestPaginate_EmptyInput(t *testing.T) {
	t.Parallel()

	page := Paginate([]string{}, 1, 10)

	if page.Total != 0 || page.LastPage != 1 || len(page.Data) != 0 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestPaginate_JSONShape(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Paginate([]int{1, 2}, 1, 10))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"current_page":1,"data":[1,2],"per_page":10,"total":2,"last_page":1}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	// An empty page still serializes data as [], never null.
	b, err = json.Marshal(Paginate([]int{}, 2, 10))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want = `{"current_page":2,"data":[],"per_page":10,"total":0,"last_page":1}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}
