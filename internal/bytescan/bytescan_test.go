package bytescan

import (
	"testing"

	"github.com/doodle-lang/doodle/byteset"
)

func TestRunStopsAtFirstNonMember(t *testing.T) {
	bs := byteset.Range('0', '9')
	n := Run([]byte("12345x6789"), bs)
	if n != 5 {
		t.Fatalf("Run() = %d, want 5", n)
	}
}

func TestRunWholeBuffer(t *testing.T) {
	bs := byteset.Full()
	n := Run([]byte("anything"), bs)
	if n != 8 {
		t.Fatalf("Run() = %d, want 8", n)
	}
}

func TestRunMinStopsEarly(t *testing.T) {
	bs := byteset.Full()
	n := RunMin([]byte("0123456789"), bs, 4)
	if n != 4 {
		t.Fatalf("RunMin() = %d, want 4", n)
	}
}

func TestRunEmptyBuffer(t *testing.T) {
	if n := Run(nil, byteset.Full()); n != 0 {
		t.Fatalf("Run(nil) = %d, want 0", n)
	}
}
