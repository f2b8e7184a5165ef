package main

import "testing"

func TestParseArgs(t *testing.T) {
	t.Setenv("LYRICS_ENDPOINT", "")

	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{
			name: "no arguments",
			args: nil,
		},
		{
			name: "fields",
			args: []string{"-t", "Imagine", "--artist", "John Lennon", "-d", "183"},
			want: options{title: "Imagine", artist: "John Lennon", duration: "183"},
		},
		{
			name: "positional title",
			args: []string{"--print", "Imagine"},
			want: options{title: "Imagine", print: true},
		},
		{
			name:    "two titles",
			args:    []string{"-t", "Imagine", "Jealous Guy"},
			wantErr: true,
		},
		{
			name:    "missing value",
			args:    []string{"-a"},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"--lyrics"},
			wantErr: true,
		},
		{
			name:    "embed without file",
			args:    []string{"--embed", "-t", "Imagine"},
			wantErr: true,
		},
		{
			name: "embed dir",
			args: []string{"--embed-dir", "/music", "--overwrite"},
			want: options{embedDir: "/music", overwrite: true},
		},
		{
			name:    "bad parallel value",
			args:    []string{"--embed-dir", "/music", "-j", "many"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, _, err := parseArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("parseArgs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseArgsOverridesConfig(t *testing.T) {
	cfg, _, _, err := parseArgs([]string{"-e", "https://lyrics.example.com", "-j", "8", "-v"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint != "https://lyrics.example.com" || cfg.ParallelJobs != 8 || !cfg.Verbose {
		t.Errorf("cfg = %+v", cfg)
	}
}
