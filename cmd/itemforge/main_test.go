package main

import (
	"testing"

	"github.com/zen-systems/itemforge/pkg/item"
)

func TestParseTypes(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  int
	}{
		{"empty defaults to all", nil, len(item.RequiredTypes)},
		{"single", []string{"logical_reasoning"}, 1},
		{"comma separated", []string{"logical_reasoning,memory_recall"}, 2},
		{"repeated flag", []string{"logical_reasoning", "verbal_reasoning"}, 2},
		{"blank entries skipped", []string{" , logical_reasoning ,"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, err := parseTypes(tt.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(types) != tt.want {
				t.Fatalf("got %d types, want %d", len(types), tt.want)
			}
		})
	}

	if _, err := parseTypes([]string{"clairvoyance"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
