package main

import "testing"

func TestParseDeviceSpec(t *testing.T) {
	cases := []struct {
		spec  string
		count int
		want  []int
		fails bool
	}{
		{spec: "0", count: 4, want: []int{0}},
		{spec: "0,2", count: 4, want: []int{0, 2}},
		{spec: " 1 , 3 ", count: 4, want: []int{1, 3}},
		{spec: "all", count: 3, want: []int{0, 1, 2}},
		{spec: "", count: 2, want: []int{0, 1}},
		{spec: "4", count: 4, fails: true},
		{spec: "-1", count: 4, fails: true},
		{spec: "one", count: 4, fails: true},
	}
	for _, tc := range cases {
		got, err := parseDeviceSpec(tc.spec, tc.count)
		if tc.fails {
			if err == nil {
				t.Errorf("parseDeviceSpec(%q, %d): expected an error", tc.spec, tc.count)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDeviceSpec(%q, %d): %v", tc.spec, tc.count, err)
			continue
		}
		if len(got) != len(tc.want) {
			t.Errorf("parseDeviceSpec(%q, %d): got %v, want %v", tc.spec, tc.count, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("parseDeviceSpec(%q, %d): got %v, want %v", tc.spec, tc.count, got, tc.want)
				break
			}
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:            "512 B",
		2048:           "2.0 KiB",
		3 << 20:        "3.0 MiB",
		int64(1) << 30: "1.0 GiB",
	}
	for n, want := range cases {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
