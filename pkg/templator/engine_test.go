package templator

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terabiome/ksxen/pkg/constants"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars Vars
		want string
	}{
		{
			name: "spaced placeholders",
			text: "memory = {{ ram }}\nname = \"{{ name }}\"\n",
			vars: Vars{"ram": 2048, "name": "web"},
			want: "memory = 2048\nname = \"web\"\n",
		},
		{
			name: "tight placeholders",
			text: "{{a}}-{{b}}",
			vars: Vars{"a": "x", "b": int64(7)},
			want: "x-7",
		},
		{
			name: "values are not escaped",
			text: "rootpw --iscrypted {{ root_passwd }}",
			vars: Vars{"root_passwd": "$6$salt$<&>"},
			want: "rootpw --iscrypted $6$salt$<&>",
		},
		{
			name: "empty value",
			text: "%post\n{{ extra }}\n%end",
			vars: Vars{"extra": ""},
			want: "%post\n\n%end",
		},
		{
			name: "triple braces",
			text: "%post\n{{{ extra }}}\n%end\n",
			vars: Vars{"extra": "echo hi > /etc/motd"},
			want: "%post\necho hi > /etc/motd\n%end\n",
		},
		{
			name: "ampersand form",
			text: "url --url={{& install_url }}",
			vars: Vars{"install_url": "http://mirror/os?a=1&b=2"},
			want: "url --url=http://mirror/os?a=1&b=2",
		},
		{
			name: "comment renders as nothing",
			text: "{{! generated by ksxen }}rootpw {{root_passwd}}\n",
			vars: Vars{"root_passwd": "$6$x$y"},
			want: "rootpw $6$x$y\n",
		},
		{
			name: "mixed double and triple braces",
			text: "{{name}} {{{extra}}} {{ name }}",
			vars: Vars{"name": "web", "extra": "reboot"},
			want: "web reboot web",
		},
		{
			name: "no placeholders",
			text: "reboot\n",
			vars: nil,
			want: "reboot\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.text, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_MissingVariable(t *testing.T) {
	_, err := Render("kernel = {{ tempdir }}/vmlinuz", Vars{"name": "web"})
	require.ErrorIs(t, err, ErrMissingVariable)
	assert.Contains(t, err.Error(), "tempdir")
}

func TestRender_MissingTripleBraceVariable(t *testing.T) {
	_, err := Render("%post\n{{{ extra }}}\n%end\n", Vars{"name": "web"})
	require.ErrorIs(t, err, ErrMissingVariable)
	assert.Contains(t, err.Error(), ": extra")
}

func TestRender_Idempotent(t *testing.T) {
	vars := Vars{
		"name": "web", "uuid": "u", "ram": 512, "mac_addr": "00:16:3E:01:02:03",
		"img_path": "/srv/web.img", "bridge": "br0",
	}

	first, err := Render(xenSteadyTemplate, vars)
	require.NoError(t, err)
	second, err := Render(xenSteadyTemplate, vars)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestXenEngine_RendersBothVariants(t *testing.T) {
	e := NewXenEngine()
	require.True(t, e.HasTemplate(constants.TemplateXenInstall))
	require.True(t, e.HasTemplate(constants.TemplateXenSteady))

	shared := Vars{
		"name":     "web",
		"uuid":     "6c8a2a8e-2f34-4e5c-9d7e-0d7f5a1b2c3d",
		"ram":      1024,
		"mac_addr": "00:16:3E:11:22:33",
		"img_path": "/srv/xen/web.img",
		"bridge":   "xenbr0",
	}

	install := Vars{"tempdir": "/tmp/ksxen-1", "ksurl": "http://10.0.0.1:4242/ks.cfg"}
	for k, v := range shared {
		install[k] = v
	}

	installCfg, err := e.RenderToBytes(constants.TemplateXenInstall, install)
	require.NoError(t, err)
	steadyCfg, err := e.RenderToBytes(constants.TemplateXenSteady, shared)
	require.NoError(t, err)

	assert.Contains(t, string(installCfg), `kernel = "/tmp/ksxen-1/vmlinuz"`)
	assert.Contains(t, string(installCfg), `extra = "text ks=http://10.0.0.1:4242/ks.cfg"`)
	assert.Contains(t, string(installCfg), `on_reboot = "destroy"`)
	assert.Contains(t, string(steadyCfg), `bootloader = "pygrub"`)
	assert.Contains(t, string(steadyCfg), `on_reboot = "restart"`)

	macRe := regexp.MustCompile(`mac=([0-9A-F:]+),`)
	installMAC := macRe.FindStringSubmatch(string(installCfg))
	steadyMAC := macRe.FindStringSubmatch(string(steadyCfg))
	require.Len(t, installMAC, 2)
	require.Len(t, steadyMAC, 2)
	assert.Equal(t, installMAC[1], steadyMAC[1])
}

func TestEngine_LoadTemplateAndRenderToFile(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "custom.tpl")
	require.NoError(t, os.WriteFile(tplPath, []byte("name = \"{{ name }}\"\n"), 0o644))

	e := NewEngine()
	require.NoError(t, e.LoadTemplate("custom", tplPath))

	out := filepath.Join(dir, "out.cfg")
	require.NoError(t, e.RenderToFile("custom", out, Vars{"name": "db"}))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "name = \"db\"\n", string(got))

	assert.Error(t, e.LoadTemplate("missing", filepath.Join(dir, "nope.tpl")))
	_, err = e.RenderToBytes("unknown", nil)
	assert.Error(t, err)
}

func TestEngine_RenderToFileDoesNotWriteOnMissingVariable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.cfg")

	e := NewXenEngine()
	err := e.RenderToFile(constants.TemplateXenSteady, out, Vars{"name": "web"})
	require.ErrorIs(t, err, ErrMissingVariable)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
