package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	// The account service owns -a/-g/-d; the sources loader owns -c/-envfile.
	accountFlags := []string{"-a", "-g", "-d"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "picks own flags out of a mixed command line",
			args:    []string{"-c", "account.json", "-a", ":8080", "-envfile", ".env", "-g", ":9090"},
			allowed: accountFlags,
			want:    []string{"-a", ":8080", "-g", ":9090"},
		},
		{
			name:    "equals form",
			args:    []string{"-d=postgres://localhost/account", "-config=account.json"},
			allowed: accountFlags,
			want:    []string{"-d=postgres://localhost/account"},
		},
		{
			name:    "value containing equals stays intact",
			args:    []string{"-d", "host=db user=svc", "-a", ":8080"},
			allowed: []string{"-d"},
			want:    []string{"-d", "host=db user=svc"},
		},
		{
			name:    "dangling flag at the end",
			args:    []string{"-a", ":8080", "-g"},
			allowed: accountFlags,
			want:    []string{"-a", ":8080", "-g"},
		},
		{
			name:    "next flag is never taken as a value",
			args:    []string{"-c", "-envfile", ".env"},
			allowed: []string{"-c", "-envfile"},
			want:    []string{"-c", "-envfile", ".env"},
		},
		{
			name:    "repeats keep their order",
			args:    []string{"-a", ":1", "-a", ":2"},
			allowed: []string{"-a"},
			want:    []string{"-a", ":1", "-a", ":2"},
		},
		{
			name:    "positional arguments are dropped",
			args:    []string{"serve", "-x", "1"},
			allowed: accountFlags,
			want:    []string{},
		},
		{
			name:    "nil args",
			args:    nil,
			allowed: accountFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigSources(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Sources
	}{
		{"short -c", []string{"-c", "account.json"}, Sources{JSONFile: "account.json"}},
		{"long -config with equals", []string{"-config=category.json"}, Sources{JSONFile: "category.json"}},
		{"env file beside service flags", []string{"-envfile", ".env.local", "-a", ":8080"}, Sources{EnvFile: ".env.local"}},
		{"both", []string{"-envfile=.env", "-c", "reviewctl.json"}, Sources{JSONFile: "reviewctl.json", EnvFile: ".env"}},
		{"nothing", []string{"-a", ":8080"}, Sources{}},
		{"last one wins", []string{"-c", "a.json", "-config", "b.json"}, Sources{JSONFile: "b.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigSources(tt.args))
		})
	}
}
