package controllers

import (
	"reflect"
	"testing"
)

func TestParseAnchorWords(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{`["routine", "fulfillment"]`, []string{"routine", "fulfillment"}},
		{`[" routine ", "", "fulfillment"]`, []string{"routine", "fulfillment"}},
		{"routine, fulfillment", []string{"routine", "fulfillment"}},
		{"routine,,fulfillment,", []string{"routine", "fulfillment"}},
	}
	for _, tc := range cases {
		if got := parseAnchorWords(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseAnchorWords(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
