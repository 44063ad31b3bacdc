package browser

import (
	"os/exec"
	"reflect"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		url      string
		wantArgs []string
		wantErr  bool
	}{
		{
			name:     "linux",
			goos:     "linux",
			url:      "https://site.example/wiki/spaces/DOCS/pages/2",
			wantArgs: []string{"xdg-open", "https://site.example/wiki/spaces/DOCS/pages/2"},
		},
		{
			name:     "darwin",
			goos:     "darwin",
			url:      "https://SITE.example/wiki/x",
			wantArgs: []string{"open", "https://SITE.example/wiki/x"},
		},
		{
			name:     "windows",
			goos:     "windows",
			url:      "https://site.example/wiki/x",
			wantArgs: []string{"rundll32", "url.dll,FileProtocolHandler", "https://site.example/wiki/x"},
		},
		{name: "other host", goos: "linux", url: "https://evil.example/x", wantErr: true},
		{name: "file scheme", goos: "linux", url: "file:///etc/passwd", wantErr: true},
		{name: "unsupported os", goos: "plan9", url: "https://site.example/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOpener("https://site.example")
			o.goos = tt.goos

			cmd, err := o.Command(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", cmd.Args)
				}
				return
			}
			if err != nil {
				t.Fatalf("Command failed: %v", err)
			}
			if !reflect.DeepEqual(cmd.Args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", cmd.Args, tt.wantArgs)
			}
		})
	}
}

func TestOpenURL_RunsCommand(t *testing.T) {
	o := NewOpener("")
	o.goos = "linux"
	var ran []string
	o.run = func(cmd *exec.Cmd) error {
		ran = cmd.Args
		return nil
	}

	if err := o.OpenURL("http://localhost:8090/wiki/x"); err != nil {
		t.Fatalf("OpenURL failed: %v", err)
	}
	if len(ran) != 2 || ran[0] != "xdg-open" {
		t.Errorf("unexpected command %v", ran)
	}
}
