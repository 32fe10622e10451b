package config

import "testing"

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantAddr     string
		wantComplete bool
	}{
		{
			name: "all credentials set",
			env: map[string]string{
				"SPOTIFY_CLIENT_ID":     "client-id",
				"SPOTIFY_CLIENT_SECRET": "client-secret",
				"SPOTIFY_REFRESH_TOKEN": "refresh-token",
				"ADDR":                  "127.0.0.1:9090",
			},
			wantAddr:     "127.0.0.1:9090",
			wantComplete: true,
		},
		{
			name: "missing refresh token",
			env: map[string]string{
				"SPOTIFY_CLIENT_ID":     "client-id",
				"SPOTIFY_CLIENT_SECRET": "client-secret",
			},
			wantAddr:     DefaultAddr,
			wantComplete: false,
		},
		{
			name:         "nothing set",
			env:          map[string]string{},
			wantAddr:     DefaultAddr,
			wantComplete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_REFRESH_TOKEN", "ADDR"} {
				t.Setenv(key, tt.env[key])
			}

			cfg := Load()

			if cfg.Addr != tt.wantAddr {
				t.Errorf("Load() Addr = %q, want %q", cfg.Addr, tt.wantAddr)
			}
			if got := cfg.Credentials.Complete(); got != tt.wantComplete {
				t.Errorf("Credentials.Complete() = %v, want %v", got, tt.wantComplete)
			}
		})
	}
}

func TestCredentialsComplete(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{"all set", Credentials{ClientID: "a", ClientSecret: "b", RefreshToken: "c"}, true},
		{"missing client id", Credentials{ClientSecret: "b", RefreshToken: "c"}, false},
		{"missing secret", Credentials{ClientID: "a", RefreshToken: "c"}, false},
		{"missing refresh token", Credentials{ClientID: "a", ClientSecret: "b"}, false},
		{"empty", Credentials{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}
