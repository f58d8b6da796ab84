package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"separate value", []string{"-c", "conf.json", "-a", "localhost"}, []string{"-c"}, []string{"-c", "conf.json"}},
		{"equals form", []string{"--config=alt.json", "-a", "x"}, []string{"--config"}, []string{"--config=alt.json"}},
		{"unknown flags dropped", []string{"-x", "1", "--y=2", "positional"}, []string{"-c"}, []string{}},
		{"dangling flag kept", []string{"-p"}, []string{"-p"}, []string{"-p"}},
		{"next flag is not a value", []string{"-c", "-n", "12"}, []string{"-c", "-n"}, []string{"-c", "-n", "12"}},
		{"repeats preserved", []string{"-n", "5", "-n", "7"}, []string{"-n"}, []string{"-n", "5", "-n", "7"}},
		{"empty", nil, []string{"-c"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/bulletin.json", ConfigPath([]string{"-c", "/etc/bulletin.json"}))
	assert.Equal(t, "b.json", ConfigPath([]string{"-config", "a.json", "-a", "host:1", "-c", "b.json"}))
	assert.Equal(t, "c.json", ConfigPath([]string{"--config=c.json"}))
	assert.Empty(t, ConfigPath([]string{"-a", "host:1"}))
}
