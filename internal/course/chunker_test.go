package course

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple",
			text: "A b c. D e f. G h i.",
			want: []string{"A b c.", "D e f.", "G h i."},
		},
		{
			name: "mixed terminators",
			text: "Really? Yes! Good.",
			want: []string{"Really?", "Yes!", "Good."},
		},
		{
			name: "trailing fragment kept",
			text: "Complete sentence. Trailing fragment without punctuation",
			want: []string{"Complete sentence.", "Trailing fragment without punctuation"},
		},
		{
			name: "single sentence",
			text: "Only one sentence here.",
			want: []string{"Only one sentence here."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("splitSentences() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitChunkSizeBound(t *testing.T) {
	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, "This is a filler sentence for the size bound test.")
	}
	text := strings.Join(sentences, " ")

	ck := NewChunker(200, 50)
	chunks := ck.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want multiple", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunks[%d] length = %d, exceeds target 200", i, len(c))
		}
	}
}

func TestSplitOversizedSentence(t *testing.T) {
	long := "This single sentence is far longer than the configured chunk size and must become its own oversized chunk instead of being truncated or dropped."
	text := "Short one. " + long + " Another short one."

	ck := NewChunker(50, 10)
	chunks := ck.Split(text)

	found := false
	for _, c := range chunks {
		if c == long {
			found = true
		}
		if len(c) > 50 && c != long {
			t.Errorf("oversized chunk is not a single sentence: %q", c)
		}
	}
	if !found {
		t.Errorf("oversized sentence not emitted as its own chunk; chunks = %q", chunks)
	}
}

func TestSplitOverlapRoundTrip(t *testing.T) {
	var sentences []string
	for i := 0; i < 25; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d carries its own distinct text.", i))
	}
	original := strings.Join(sentences, " ")

	ck := NewChunker(180, 60)
	chunks := ck.Split(original)
	if len(chunks) < 3 {
		t.Fatalf("len(chunks) = %d, want several for the round trip", len(chunks))
	}

	// Each non-first chunk starts with the overlapped suffix of its
	// predecessor. Removing that prefix and concatenating must recover the
	// normalized input exactly.
	reconstructed := chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		overlap := 0
		for ; overlap < len(cur); overlap++ {
			if strings.HasSuffix(prev, cur[:len(cur)-overlap]) {
				break
			}
		}
		shared := cur[:len(cur)-overlap]
		if shared != "" && !strings.HasSuffix(prev, shared) {
			t.Fatalf("chunk %d does not overlap its predecessor", i)
		}
		reconstructed += " " + strings.TrimPrefix(strings.TrimPrefix(cur, shared), " ")
	}
	if reconstructed != original {
		t.Errorf("round trip mismatch:\n got %q\nwant %q", reconstructed, original)
	}
}

func TestSplitEmptyAndWhitespace(t *testing.T) {
	ck := NewChunker(0, 0)
	if got := ck.Split(""); got != nil {
		t.Errorf("Split(\"\") = %q, want nil", got)
	}
	if got := ck.Split("   \n\t  "); got != nil {
		t.Errorf("Split(whitespace) = %q, want nil", got)
	}
}

func TestSplitNormalizesWhitespace(t *testing.T) {
	ck := NewChunker(800, 100)
	got := ck.Split("Line one\ncontinues here.   Second   sentence.")
	want := "Line one continues here. Second sentence."
	if len(got) != 1 || got[0] != want {
		t.Errorf("Split() = %q, want [%q]", got, want)
	}
}
