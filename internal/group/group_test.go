package group

import (
	"errors"
	"testing"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]Range{
		{GroupID: 2, StartID: 14, EndID: 43},
		{GroupID: 1, StartID: 1, EndID: 13},
		{GroupID: 3, StartID: 50, EndID: 60}, // разрыв 44..49
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestTable_Resolve(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		name    string
		id      int
		want    int
		wantErr error
	}{
		{name: "first id", id: 1, want: 1},
		{name: "end of first group", id: 13, want: 1},
		{name: "start of second group", id: 14, want: 2},
		{name: "last id", id: 60, want: 3},
		{name: "gap", id: 45, wantErr: ErrNotFound},
		{name: "zero", id: 0, wantErr: ErrInvalidID},
		{name: "negative", id: -3, wantErr: ErrInvalidID},
		{name: "above max", id: 61, wantErr: ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Resolve(tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%d) error = %v, want %v", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%d) unexpected error: %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%d) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestTable_ResolveEveryIDInRange(t *testing.T) {
	table := testTable(t)
	for _, r := range table.Ranges() {
		for id := r.StartID; id <= r.EndID; id++ {
			got, err := table.Resolve(id)
			if err != nil || got != r.GroupID {
				t.Fatalf("Resolve(%d) = %d, %v; want %d", id, got, err, r.GroupID)
			}
		}
	}
}

func TestTable_MaxIDAndOrder(t *testing.T) {
	table := testTable(t)
	if table.MaxID() != 60 {
		t.Errorf("MaxID() = %d, want 60", table.MaxID())
	}
	ranges := table.Ranges()
	if ranges[0].GroupID != 1 || ranges[2].GroupID != 3 {
		t.Errorf("ranges not sorted by start: %+v", ranges)
	}

	// Копия не должна влиять на таблицу
	ranges[0].EndID = 1000
	if got, _ := table.Resolve(13); got != 1 {
		t.Errorf("table mutated through Ranges() copy")
	}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name   string
		ranges []Range
	}{
		{name: "empty", ranges: nil},
		{name: "overlap", ranges: []Range{{1, 1, 10}, {2, 10, 20}}},
		{name: "end before start", ranges: []Range{{1, 5, 4}}},
		{name: "zero start", ranges: []Range{{1, 0, 4}}},
		{name: "duplicate group", ranges: []Range{{1, 1, 4}, {1, 5, 9}}},
		{name: "zero group", ranges: []Range{{0, 1, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.ranges); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "1", want: 1},
		{raw: "471", want: 471},
		{raw: "007", want: 7},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "12abc", wantErr: true},
		{raw: "-5", wantErr: true},
		{raw: "+5", wantErr: true},
		{raw: " 5", wantErr: true},
		{raw: "99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseID(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Fatalf("ParseID(%q) error = %v, want ErrInvalidID", tt.raw, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseID(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestTable_ResolveString(t *testing.T) {
	table := testTable(t)

	id, g, err := table.ResolveString("20")
	if err != nil || id != 20 || g != 2 {
		t.Fatalf("ResolveString(20) = %d, %d, %v", id, g, err)
	}
	if _, _, err := table.ResolveString("x"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("ResolveString(x) error = %v, want ErrInvalidID", err)
	}
	if _, _, err := table.ResolveString("47"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveString(47) error = %v, want ErrNotFound", err)
	}
}
