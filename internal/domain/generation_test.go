package domain

import (
	"testing"
	"time"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLon float64
		wantErr bool
	}{
		{name: "valid", input: "45.28571409289627, 20.237433441210115", wantLat: 45.28571409289627, wantLon: 20.237433441210115},
		{name: "no spaces", input: "10.5,-20.25", wantLat: 10.5, wantLon: -20.25},
		{name: "latitude out of range", input: "91,0", wantErr: true},
		{name: "longitude out of range", input: "0,181", wantErr: true},
		{name: "single value", input: "45.0", wantErr: true},
		{name: "not numbers", input: "abc, def", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCoordinates(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseCoordinates(%q) expected error, got %+v", tc.input, got)
				}
				if !IsInputError(err) {
					t.Fatalf("ParseCoordinates(%q) error is not an InputError: %v", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoordinates(%q) returned error: %v", tc.input, err)
			}
			if got.Lat != tc.wantLat || got.Lon != tc.wantLon {
				t.Fatalf("ParseCoordinates(%q) = %+v, want lat=%v lon=%v", tc.input, got, tc.wantLat, tc.wantLon)
			}
		})
	}
}

func TestParseMapSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MapSize
		wantErr bool
	}{
		{name: "valid", input: "2048x2048", want: 2048},
		{name: "uppercase separator", input: "4096X4096", want: 4096},
		{name: "odd size", input: "2047x2047", wantErr: true},
		{name: "not square", input: "2048x4096", wantErr: true},
		{name: "negative", input: "-2048x-2048", wantErr: true},
		{name: "zero", input: "0x0", wantErr: true},
		{name: "garbage", input: "bigxbig", wantErr: true},
		{name: "missing width", input: "2048", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseMapSize(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseMapSize(%q) expected error, got %d", tc.input, got)
				}
				if !IsInputError(err) {
					t.Fatalf("ParseMapSize(%q) error is not an InputError: %v", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMapSize(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseMapSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestSessionName(t *testing.T) {
	coords, err := NewCoordinates(45.28571409289627, 20.237433441210115)
	if err != nil {
		t.Fatalf("NewCoordinates returned error: %v", err)
	}
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got := SessionName(GameFS25, coords, now)
	want := "FS25_45_28571_20_23743_2025-03-14_09-26-53"
	if got != want {
		t.Fatalf("SessionName = %q, want %q", got, want)
	}
}

func TestGameFromCode(t *testing.T) {
	if _, err := GameFromCode("fs22"); err != nil {
		t.Fatalf("GameFromCode(fs22) returned error: %v", err)
	}
	if _, err := GameFromCode("FS99"); err == nil {
		t.Fatal("GameFromCode(FS99) expected error")
	}
}
