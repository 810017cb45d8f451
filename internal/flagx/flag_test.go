package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

var serverSubset = []string{"-k", "-n", "-f", "-x"}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "control subcommand and its long flags pass through",
			args: []string{"-k", "bunt", "create-user", "-username", "alice", "-family-id", "f1"},
			want: []string{"-k", "bunt"},
		},
		{
			name: "equals form",
			args: []string{"-n=family_recipe", "-force", "-x=30"},
			want: []string{"-n=family_recipe", "-x=30"},
		},
		{
			name: "long flag sharing a prefix is not matched",
			args: []string{"-f", ":memory:", "-force", "-name", "Smiths"},
			want: []string{"-f", ":memory:"},
		},
		{
			name: "flag without value at end",
			args: []string{"create-secret", "-k"},
			want: []string{"-k"},
		},
		{
			name: "next dash token is not a value",
			args: []string{"-n", "-x", "0"},
			want: []string{"-n", "-x", "0"},
		},
		{
			name: "repeated flag keeps order",
			args: []string{"-n", "a", "-n", "b"},
			want: []string{"-n", "a", "-n", "b"},
		},
		{
			name: "nothing allowed",
			args: []string{"apply", "-event", "e.json"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, serverSubset))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	cases := map[string][]string{
		"/etc/fr/short.json": {"testbin", "-k", "bunt", "-c", "/etc/fr/short.json"},
		"/etc/fr/long.json":  {"testbin", "-config=/etc/fr/long.json", "create-secret"},
		"/etc/fr/2.json":     {"testbin", "-c", "/etc/fr/1.json", "-config", "/etc/fr/2.json"},
		"":                   {"testbin", "create-family", "-name", "Smiths"},
	}
	for want, args := range cases {
		os.Args = args
		assert.Equal(t, want, JsonConfigFlags(), "args %v", args)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FR_TEST_SET", "from-env")
	t.Setenv("FR_TEST_EMPTY", "")

	set, empty, missing := "default", "default", "default"
	ApplyEnv(map[string]*string{
		"FR_TEST_SET":     &set,
		"FR_TEST_EMPTY":   &empty,
		"FR_TEST_MISSING": &missing,
	})

	assert.Equal(t, "from-env", set)
	assert.Equal(t, "default", empty)
	assert.Equal(t, "default", missing)
}
