package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RAGSITE_REDIS_ADDR", "localhost:6379")
	t.Setenv("RAGSITE_SOURCE_REMOTE", "false")

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.PostsDir != "data/posts" {
		t.Errorf("PostsDir = %q", cfg.PostsDir)
	}
	if !cfg.EnableMarkdown || cfg.EnableRemote || !cfg.EnableArchived {
		t.Errorf("source toggles = %v/%v/%v", cfg.EnableMarkdown, cfg.EnableRemote, cfg.EnableArchived)
	}
	if cfg.ExchangeCacheTTL != time.Hour {
		t.Errorf("ExchangeCacheTTL = %v, want 1h", cfg.ExchangeCacheTTL)
	}
	if cfg.ExchangeBase != "SGD" {
		t.Errorf("ExchangeBase = %q, want SGD", cfg.ExchangeBase)
	}
}

func TestLoadRemoteRequiresCredentials(t *testing.T) {
	t.Setenv("RAGSITE_REDIS_ADDR", "localhost:6379")
	t.Setenv("RAGSITE_SOURCE_REMOTE", "true")
	t.Setenv("BEEHIIV_API_KEY", "")
	t.Setenv("BEEHIIV_PUBLICATION_ID", "")

	defer func() {
		if recover() == nil {
			t.Error("Load() with remote enabled and no credentials should panic")
		}
	}()
	Load()
}

func TestLoadMissingRedisAddr(t *testing.T) {
	t.Setenv("RAGSITE_REDIS_ADDR", "")

	defer func() {
		if recover() == nil {
			t.Error("Load() without redis addr should panic")
		}
	}()
	Load()
}

func TestParseTopicMap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{
			name: "two topics",
			in:   "ragTech=top_abc, FutureNet=top_def",
			want: map[string]string{"ragTech": "top_abc", "FutureNet": "top_def"},
		},
		{
			name: "malformed entries dropped",
			in:   "ragTech=top_abc,broken,=nope",
			want: map[string]string{"ragTech": "top_abc"},
		},
		{
			name: "empty",
			in:   "",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTopicMap(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parseTopicMap() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("topic %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` "a.example.com" , b.example.com ,, `)
	if len(got) != 2 || got[0] != "a.example.com" || got[1] != "b.example.com" {
		t.Errorf("splitAndTrim() = %v", got)
	}
}
