package commands

import (
	"flag"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kutbudev/invctl/internal/config"
	"github.com/kutbudev/invctl/internal/models"
	"github.com/urfave/cli/v2"
)

func newArgsContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr string
	}{
		{name: "plain", args: []string{"12"}, want: 12},
		{name: "hash prefix", args: []string{"#7"}, want: 7},
		{name: "missing", args: nil, wantErr: "tag id is required"},
		{name: "zero", args: []string{"0"}, wantErr: `invalid tag id "0"`},
		{name: "word", args: []string{"abc"}, wantErr: `invalid tag id "abc"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := intArg(newArgsContext(t, tt.args...), 0, "tag id")
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKindArg(t *testing.T) {
	kind, err := kindArg(newArgsContext(t, "Boxes"), 0)
	if err != nil || kind != models.KindBox {
		t.Fatalf("kindArg = %q, %v", kind, err)
	}
	if _, err := kindArg(newArgsContext(t), 0); err == nil {
		t.Error("missing kind should fail")
	}
	if _, err := kindArg(newArgsContext(t, "shelf"), 0); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestConfigSetter(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(cfg config.Config) bool
		wantErr    bool
	}{
		{key: "api_url", value: "https://inv.example.com/", check: func(cfg config.Config) bool { return cfg.APIURL == "https://inv.example.com" }},
		{key: "api-url", value: "inv.example.com", wantErr: true},
		{key: "http_timeout", value: "15", check: func(cfg config.Config) bool { return cfg.HTTPTimeoutSeconds == 15 }},
		{key: "http_timeout", value: "-1", wantErr: true},
		{key: "no-color", value: "true", check: func(cfg config.Config) bool { return cfg.NoColor }},
		{key: "no_color", value: "maybe", wantErr: true},
		{key: "token", value: "x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			apply, err := configSetter(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var cfg config.Config
			apply(&cfg)
			if !tt.check(cfg) {
				t.Errorf("setting not applied: %+v", cfg)
			}
		})
	}
}

func TestTagReport(t *testing.T) {
	tag := models.Tag{ID: 3, Name: "faulty", Color: "FFF", AttachedTabs: []int{1}, AttachedBoxes: []int{9}}
	report := tagReport(tag, map[int]string{1: "RAM"})

	for _, want := range []string{"# faulty", "**ID:** 3", "`#ffffff`", "`#212529`", "- Tab: RAM", "- Box ID: 9"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	empty := tagReport(models.Tag{ID: 4, Name: "new"}, nil)
	if !strings.Contains(empty, "_Not attached to anything._") {
		t.Errorf("empty report:\n%s", empty)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{name: "short", in: "short", maxLen: 10, want: "short"},
		{name: "ascii", in: "a rather long name", maxLen: 10, want: "a rathe..."},
		{name: "cyrillic fits", in: "Ящик 1", maxLen: 6, want: "Ящик 1"},
		{name: "cyrillic cut", in: "Оперативная память серверная DDR4 ECC", maxLen: 20, want: "Оперативная памят..."},
		{name: "tiny limit", in: "Память", maxLen: 2, want: "Па"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateString(tt.in, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result is not valid UTF-8: %q", got)
			}
			if n := utf8.RuneCountInString(got); n > tt.maxLen {
				t.Errorf("result has %d runes, limit %d", n, tt.maxLen)
			}
		})
	}

	long := "Оперативная память серверная DDR4 ECC"
	if got := truncateString(long, 40); got != long {
		t.Errorf("37 runes fit in 40: got %q", got)
	}
	if got := intOrDash(nil); got != "-" {
		t.Errorf("got %q", got)
	}
}

func TestBoxLabel(t *testing.T) {
	boxID := 7
	tests := []struct {
		item models.Item
		want string
	}{
		{models.Item{}, "-"},
		{models.Item{BoxID: &boxID}, "#7"},
		{models.Item{BoxID: &boxID, BoxName: "Ящик 1"}, "Ящик 1 (#7)"},
	}
	for _, tt := range tests {
		if got := boxLabel(tt.item); got != tt.want {
			t.Errorf("boxLabel() = %q, want %q", got, tt.want)
		}
	}
}
