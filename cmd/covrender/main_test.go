package main

import "testing"

func TestParseSamples(t *testing.T) {
	testCases := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{nil, 4, false},
		{[]string{"16"}, 16, false},
		{[]string{"0"}, 0, false},
		{[]string{"-3"}, 0, true},
		{[]string{"many"}, 0, true},
		{[]string{"4", "8"}, 0, true},
	}

	for _, tc := range testCases {
		got, err := parseSamples(tc.args)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseSamples(%q) error = %v, wantErr %v", tc.args, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("parseSamples(%q) = %d, want %d", tc.args, got, tc.want)
		}
	}
}
