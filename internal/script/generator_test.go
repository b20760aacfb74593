package script

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"python", Python, false},
		{" Shell ", Shell, false},
		{"BATCH", Batch, false},
		{"ruby", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLanguage(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLanguage(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("ParseLanguage(%q) error does not wrap ErrUnsupportedLanguage", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLanguageAttributes(t *testing.T) {
	tests := []struct {
		lang Language
		ext  string
		tag  string
	}{
		{Python, ".py", "Python_file"},
		{Batch, ".bat", "Batch_file"},
		{Shell, ".sh", "Shell_file"},
	}

	for _, tt := range tests {
		if got := tt.lang.Extension(); got != tt.ext {
			t.Errorf("%s.Extension() = %q, want %q", tt.lang, got, tt.ext)
		}
		if got := tt.lang.MethodTag(); got != tt.tag {
			t.Errorf("%s.MethodTag() = %q, want %q", tt.lang, got, tt.tag)
		}
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		lang  Language
		first string
	}{
		{Python, "#!/usr/bin/env python3"},
		{Batch, "@echo off"},
		{Shell, "#!/bin/bash"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			got, err := Generate("do_something\n\n", tt.lang)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if !strings.HasPrefix(got, tt.first+"\n") {
				t.Errorf("script does not start with %q: %q", tt.first, got)
			}
			if !strings.HasSuffix(got, "do_something\n") {
				t.Errorf("script does not end with the code: %q", got)
			}
		})
	}
}

func TestGenerate_Unsupported(t *testing.T) {
	if _, err := Generate("x", "ruby"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
	}
}
