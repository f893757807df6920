package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/rules/value"
)

func TestBuiltins(t *testing.T) {
	tr := Default()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "urlencode", input: "a b&c", want: "a+b%26c", wantOK: true},
		{name: "urldecode", input: "a+b%26c", want: "a b&c", wantOK: true},
		{name: "urldecode", input: "%zz", wantOK: false},
		{name: "base64", input: "Corona", want: "Q29yb25h", wantOK: true},
		{name: "base64decode", input: "Q29yb25h", want: "Corona", wantOK: true},
		{name: "base64decode", input: "!!", wantOK: false},
		{name: "upper", input: "Corona", want: "CORONA", wantOK: true},
		{name: "lower", input: "Corona", want: "corona", wantOK: true},
		{name: "title", input: "hello world", want: "Hello World", wantOK: true},
		{name: "trim", input: "  x  ", want: "x", wantOK: true},
		{name: "length", input: "héllo", want: "5", wantOK: true},
		{name: "sha256", input: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", wantOK: true},
		{name: "md5", input: "", want: "d41d8cd98f00b204e9800998ecf8427e", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.input, func(t *testing.T) {
			got, ok := tr.Transform(tt.name, tt.input)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	tr := template.NewTransformer()
	require.NoError(t, Register(tr, "upper", "trim"))
	assert.Equal(t, []string{"trim", "upper"}, tr.Names())

	err := Register(tr, "lower", "nope")
	assert.Error(t, err)
	assert.False(t, tr.Has("lower"), "nothing registered on error")

	all := template.NewTransformer()
	require.NoError(t, Register(all))
	assert.Equal(t, Names(), all.Names())
}

func TestInTemplate(t *testing.T) {
	lookup := template.Values{"city": value.Text("São Paulo")}
	out := template.Render("https://example.com/?q={{urlencode(city)}}", lookup, Default())
	assert.Equal(t, "https://example.com/?q=S%C3%A3o+Paulo", out)
}
