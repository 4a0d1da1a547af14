package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := Run(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.csv")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

const seattle = `id,lat,lon
pike,47.61524,-122.32080
broadway,47.61515,-122.31128
first-hill,47.61117,-122.32080
`

func TestRun_UsageAndVersion(t *testing.T) {
	if code, _, _ := run(t); code != ExitUsage {
		t.Fatalf("no args exit=%d", code)
	}
	if code, _, errs := run(t, "frobnicate"); code != ExitUsage || !strings.Contains(errs, "unknown command") {
		t.Fatalf("unknown command exit=%d stderr=%s", code, errs)
	}
	if code, out, _ := run(t, "help"); code != ExitOK || !strings.Contains(out, "cover") {
		t.Fatalf("help exit=%d out=%s", code, out)
	}
	if code, out, _ := run(t, "version"); code != ExitOK || strings.TrimSpace(out) != Version {
		t.Fatalf("version exit=%d out=%q", code, out)
	}
	if code, _, _ := run(t, "encode", "--no-such-flag"); code != ExitUsage {
		t.Fatalf("bad flag exit=%d", code)
	}
}

func TestEncode(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"encode", "--precision", "5", "42.6,-5.6"}, "ezs42"},
		{[]string{"encode", "--precision", "8", "--lat=57.64911", "--lon=10.40744"}, "u4pruydq"},
		{[]string{"encode", "--cell-km", "5", "--lat=0", "--lon=0"}, "s0000"},
	}
	for _, tc := range cases {
		code, out, errs := run(t, tc.args...)
		if code != ExitOK || strings.TrimSpace(out) != tc.want {
			t.Fatalf("%v: exit=%d out=%q stderr=%s", tc.args, code, out, errs)
		}
	}

	if code, _, _ := run(t, "encode", "--lat=1"); code != ExitUsage {
		t.Fatalf("missing --lon exit=%d", code)
	}
	if code, _, _ := run(t, "encode", "95,0"); code != ExitFail {
		t.Fatalf("out of range exit=%d", code)
	}
}

func TestDecodeAndNeighbors(t *testing.T) {
	code, out, _ := run(t, "decode", "ezs42", "u000")
	if code != ExitOK {
		t.Fatalf("decode exit=%d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ezs42\tcenter=42.604980,-5.603027\t") {
		t.Fatalf("decode out=%q", out)
	}
	if code, _, _ := run(t, "decode", "ezs4a"); code != ExitFail {
		t.Fatalf("invalid hash exit=%d", code)
	}

	code, out, _ = run(t, "neighbors", "u000")
	if code != ExitOK {
		t.Fatalf("neighbors exit=%d", code)
	}
	want := "north\tu001\nnortheast\tu003\neast\tu002\nsoutheast\tspbr\nsouth\tspbp\nsouthwest\tezzz\nwest\tgbpb\nnorthwest\tgbpc\n"
	if out != want {
		t.Fatalf("neighbors out=%q want %q", out, want)
	}

	_, out, _ = run(t, "neighbors", "zzzz")
	if !strings.Contains(out, "north\t-\n") || !strings.Contains(out, "east\t-\n") {
		t.Fatalf("edge neighbours should be absent, got %q", out)
	}
}

func TestCover(t *testing.T) {
	code, out, errs := run(t, "cover", "--precision", "6",
		"--center", "47.62458533717744,-122.32094919444108",
		"--delta", "0.011187096418588283,0.01022442100079246")
	if code != ExitOK {
		t.Fatalf("cover exit=%d stderr=%s", code, errs)
	}
	cells := strings.Fields(out)
	if len(cells) != 15 || cells[0] != "c23nb7" || cells[14] != "c23nbz" {
		t.Fatalf("cover cells=%v", cells)
	}

	code, out, _ = run(t, "cover", "--precision", "5", "--bbox", "-122.33,47.61,-122.31,47.62", "--format", "geojson")
	if code != ExitOK {
		t.Fatalf("cover geojson exit=%d", code)
	}
	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(fc.Features) != 1 || fc.Features[0].Properties.MustString("geohash") != "c23nb" {
		t.Fatalf("features=%+v", fc.Features)
	}

	for _, args := range [][]string{
		{"cover"},
		{"cover", "--bbox", "-122.33,47.61,-122.31,47.62", "--center", "1,2"},
		{"cover", "--bbox", "1,2,3"},
		{"cover", "--center", "1,2", "--format", "kml"},
		{"cover", "--precision", "13", "--bbox", "-122.33,47.61,-122.31,47.62"},
	} {
		if code, _, _ := run(t, args...); code != ExitUsage {
			t.Fatalf("%v exit=%d want usage", args, code)
		}
	}
}

func TestBucket(t *testing.T) {
	path := writeCSV(t, seattle)

	code, out, errs := run(t, "bucket", "--precision", "6", "--file", path)
	if code != ExitOK {
		t.Fatalf("bucket exit=%d stderr=%s", code, errs)
	}
	want := "# precision=6 buckets=2 elements=3\nc23nbe\t1\tfirst-hill\nc23nbs\t2\tbroadway,pike\n"
	if out != want {
		t.Fatalf("bucket out=%q want %q", out, want)
	}

	_, out, _ = run(t, "bucket", "--precision", "6", "--rehash", "5", "--file", path)
	if out != "# precision=5 buckets=1 elements=3\nc23nb\t3\tbroadway,first-hill,pike\n" {
		t.Fatalf("rehashed out=%q", out)
	}

	_, out, errs = run(t, "bucket", "--precision", "6", "--active", "c23nbe", "--file", path)
	if out != "# precision=6 buckets=1 elements=1\nc23nbe\t1\tfirst-hill\n" {
		t.Fatalf("active out=%q", out)
	}
	if !strings.Contains(errs, "discarded 2 elements in 1 cells") {
		t.Fatalf("stderr=%s", errs)
	}

	_, out, errs = run(t, "bucket", "--precision", "6", "--keep-hot", "1.5", "--file", path)
	if out != "# precision=6 buckets=1 elements=2\nc23nbs\t2\tbroadway,pike\n" || !strings.Contains(errs, "dropped 1 cold elements in 1 cells") {
		t.Fatalf("keep-hot out=%q stderr=%s", out, errs)
	}

	_, out, _ = run(t, "bucket", "--precision", "6", "--policy", "replace", "--file", path)
	if !strings.Contains(out, "buckets=2 elements=2") {
		t.Fatalf("replace out=%q", out)
	}

	code, out, errs = run(t, "bucket", "--precision", "6", "--file", path, "--within", "-122.321,47.615,-122.320,47.616")
	if code != ExitOK || out != "pike\n" {
		t.Fatalf("within exit=%d out=%q stderr=%s", code, out, errs)
	}
}

func TestBucket_WithinRimPoints(t *testing.T) {
	path := writeCSV(t, "id,lat,lon\nnorth,45,0.5\neast,44.5,1\ncorner,45,1\nsouth,44,0.5\nout,45.01,0.5\n")
	code, out, errs := run(t, "bucket", "--precision", "5", "--file", path, "--within", "0,44,1,45")
	if code != ExitOK {
		t.Fatalf("within exit=%d stderr=%s", code, errs)
	}
	if out != "corner\neast\nnorth\nsouth\n" {
		t.Fatalf("within out=%q", out)
	}
}

func TestBucket_Errors(t *testing.T) {
	if code, _, _ := run(t, "bucket"); code != ExitUsage {
		t.Fatalf("missing --file exit=%d", code)
	}
	path := writeCSV(t, seattle)
	if code, _, _ := run(t, "bucket", "--file", path, "--rehash", "0"); code != ExitUsage {
		t.Fatalf("bad rehash exit=%d", code)
	}
	if code, _, _ := run(t, "bucket", "--file", path, "--active", "c23nba"); code != ExitUsage {
		t.Fatalf("bad active exit=%d", code)
	}
	if code, _, _ := run(t, "bucket", "--file", filepath.Join(t.TempDir(), "missing.csv")); code != ExitFail {
		t.Fatalf("missing file exit=%d", code)
	}
	bad := writeCSV(t, "a,1,2\nb,x,2\n")
	if code, _, errs := run(t, "bucket", "--file", bad); code != ExitFail || !strings.Contains(errs, "line 2") {
		t.Fatalf("bad csv exit=%d stderr=%s", code, errs)
	}
	if code, _, _ := run(t, "bucket", "--file", path, "--policy", "lifo"); code != ExitUsage {
		t.Fatalf("bad policy exit=%d", code)
	}
}
