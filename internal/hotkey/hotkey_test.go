package hotkey

import (
	"reflect"
	"testing"
	"time"
)

func TestParseAccel(t *testing.T) {
	tests := []struct {
		accel   string
		want    []string
		wantErr bool
	}{
		{"Alt+Shift+V", []string{"alt", "shift", "v"}, false},
		{"ctrl + F9", []string{"ctrl", "f9"}, false},
		{"Option+Command+M", []string{"alt", "cmd", "m"}, false},
		{"V", []string{"v"}, false},
		{"Alt+Shift", nil, true},
		{"Alt++V", nil, true},
		{"A+B", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.accel, func(t *testing.T) {
			got, err := ParseAccel(tt.accel)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDebounce(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	var calls int

	fire := debounce(func() { calls++ }, 300*time.Millisecond, clock)

	fire()
	now = now.Add(100 * time.Millisecond)
	fire()
	now = now.Add(100 * time.Millisecond)
	fire()
	if calls != 1 {
		t.Fatalf("repeats inside the interval should be swallowed, calls=%d", calls)
	}

	now = now.Add(400 * time.Millisecond)
	fire()
	if calls != 2 {
		t.Errorf("expected second call after the interval, calls=%d", calls)
	}
}
