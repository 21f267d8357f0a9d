package network

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseHandlePrefix(t *testing.T) {
	cases := []struct {
		text       string
		wantHandle string
		wantOK     bool
	}{
		{"@alice: hi there", "@alice", true},
		{"no prefix here", "", false},
		{"@noColonHandle", "", false},
		{"@: empty handle", "@", true},
	}
	for _, c := range cases {
		handle, ok := parseHandlePrefix(c.text)
		if ok != c.wantOK || handle != c.wantHandle {
			t.Errorf("parseHandlePrefix(%q) = (%q, %v), want (%q, %v)", c.text, handle, ok, c.wantHandle, c.wantOK)
		}
	}
}

func TestFormatCertLineIncludesHexAndBase58(t *testing.T) {
	pub := make([]byte, 32)
	for i := range pub {
		pub[i] = byte(i)
	}
	line := formatCertLine(0, pub)
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		t.Fatalf("formatCertLine produced %d fields, want 4: %q", len(fields), line)
	}
	if fields[1] != fmt.Sprintf("%x", pub) {
		t.Errorf("hex field = %q", fields[1])
	}
	if fields[3] == "" || fields[3] == fields[1] {
		t.Errorf("base58 field missing or identical to hex field: %q", fields[3])
	}
}

func TestSignatureAnnotation(t *testing.T) {
	if got := signatureAnnotation(false, false); got != annotateUnsigned {
		t.Errorf("unsigned = %q, want %q", got, annotateUnsigned)
	}
	if got := signatureAnnotation(true, true); got != annotateVerified {
		t.Errorf("valid = %q, want %q", got, annotateVerified)
	}
	if got := signatureAnnotation(true, false); got != annotateInvalid {
		t.Errorf("invalid = %q, want %q", got, annotateInvalid)
	}
}
