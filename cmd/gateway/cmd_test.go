package main

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordCmd(t *testing.T) {
	cases := map[string]struct {
		args  []string
		stdin string
	}{
		"argument": {args: []string{"hash-password", "--cost", "4", "secret123"}},
		"stdin":    {args: []string{"hash-password", "--cost", "4"}, stdin: "secret123\n"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetArgs(tc.args)
			root.SetIn(strings.NewReader(tc.stdin))
			root.SetOut(&out)

			if err := root.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			digest := strings.TrimSpace(out.String())
			if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte("secret123")); err != nil {
				t.Fatalf("digest does not verify: %v", err)
			}
		})
	}
}

func TestHashPasswordCmd_Empty(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"hash-password"})
	root.SetIn(strings.NewReader("\n"))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
