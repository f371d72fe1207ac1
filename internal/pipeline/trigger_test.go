package pipeline

import "testing"

func TestTriggerFromEnv(t *testing.T) {
	t.Setenv(EventNameEnvVar, "push")
	t.Setenv(RefEnvVar, "refs/heads/main")
	t.Setenv(SHAEnvVar, "a1b2c3d4e5f6a7b8")

	trigger := TriggerFromEnv()

	if !trigger.IsPush() {
		t.Error("expected push trigger")
	}
	if trigger.Ref != "refs/heads/main" {
		t.Errorf("unexpected ref %q", trigger.Ref)
	}
	if trigger.ShortSHA() != "a1b2c3d4" {
		t.Errorf("unexpected short sha %q", trigger.ShortSHA())
	}
}

func TestTriggerIsPush(t *testing.T) {
	tests := []struct {
		event string
		want  bool
	}{
		{"push", true},
		{"pull_request", false},
		{"workflow_dispatch", false},
		{"", false},
	}

	for _, tt := range tests {
		trigger := Trigger{EventName: tt.event}
		if got := trigger.IsPush(); got != tt.want {
			t.Errorf("IsPush(%q) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestShortSHAShortInput(t *testing.T) {
	trigger := Trigger{SHA: "abc"}
	if trigger.ShortSHA() != "abc" {
		t.Errorf("unexpected short sha %q", trigger.ShortSHA())
	}
}
