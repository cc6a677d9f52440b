package parser

import (
	"reflect"
	"testing"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantIDs      []string
		wantRejected int
	}{
		{
			name:         "paste with duplicate forms and a foreign host",
			input:        "https://youtu.be/dQw4w9WgXcQ, https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s\nhttps://vimeo.com/1",
			wantIDs:      []string{"dQw4w9WgXcQ"},
			wantRejected: 1,
		},
		{
			name:         "newline separated",
			input:        "https://youtu.be/aaaaaaaaaaa\nhttps://youtu.be/bbbbbbbbbbb",
			wantIDs:      []string{"aaaaaaaaaaa", "bbbbbbbbbbb"},
			wantRejected: 0,
		},
		{
			name:         "semicolons and runs of whitespace",
			input:        "https://youtu.be/aaaaaaaaaaa;   https://youtu.be/bbbbbbbbbbb\t https://youtu.be/ccccccccccc",
			wantIDs:      []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"},
			wantRejected: 0,
		},
		{
			name:         "first occurrence order preserved",
			input:        "https://youtu.be/bbbbbbbbbbb https://youtu.be/aaaaaaaaaaa https://youtu.be/bbbbbbbbbbb",
			wantIDs:      []string{"bbbbbbbbbbb", "aaaaaaaaaaa"},
			wantRejected: 0,
		},
		{
			name:         "garbage only",
			input:        "not a url, also;garbage",
			wantIDs:      nil,
			wantRejected: 5,
		},
		{
			name:         "empty input",
			input:        "",
			wantIDs:      nil,
			wantRejected: 0,
		},
		{
			name:         "whitespace only",
			input:        "  \n\t ",
			wantIDs:      nil,
			wantRejected: 0,
		},
		{
			name:         "leading BOM",
			input:        "\uFEFFhttps://youtu.be/aaaaaaaaaaa",
			wantIDs:      []string{"aaaaaaaaaaa"},
			wantRejected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseText(tt.input)
			if !reflect.DeepEqual(got.IDs(), tt.wantIDs) && !(len(got.IDs()) == 0 && len(tt.wantIDs) == 0) {
				t.Errorf("ParseText() ids = %v, want %v", got.IDs(), tt.wantIDs)
			}
			if got.Rejected != tt.wantRejected {
				t.Errorf("ParseText() rejected = %d, want %d", got.Rejected, tt.wantRejected)
			}
		})
	}
}

// Parser output size must equal the number of distinct canonical ids among
// the parseable inputs.
func TestParseText_DedupCount(t *testing.T) {
	input := "https://youtu.be/aaaaaaaaaaa https://www.youtube.com/watch?v=aaaaaaaaaaa " +
		"https://www.youtube.com/embed/aaaaaaaaaaa https://youtu.be/bbbbbbbbbbb"

	got := ParseText(input)
	if len(got.Entries) != 2 {
		t.Errorf("ParseText() produced %d entries, want 2", len(got.Entries))
	}
	if got.Rejected != 0 {
		t.Errorf("ParseText() rejected = %d, want 0", got.Rejected)
	}
}
