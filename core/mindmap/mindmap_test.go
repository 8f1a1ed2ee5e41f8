package mindmap

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/apoiopedagogico/portal/tests"
)

type fakeCompleter struct {
	out    string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		md     string
		want   Node
		wantOk bool
	}{
		{name: "empty", md: "", wantOk: false},
		{name: "no bullets", md: "Aqui esta o mapa:\n\nnada", wantOk: false},
		{name: "root only", md: "- Leitura", want: Node{Label: "Leitura"}, wantOk: true},
		{
			name: "nested",
			md: "Mapa:\n- **Leitura**\n  - Fluencia\n    - Ritmo\n    - Entoacao\n  - Compreensao\n\t- Inferencias\n",
			want: Node{Label: "Leitura", Children: []Node{
				{Label: "Fluencia", Children: []Node{{Label: "Ritmo"}, {Label: "Entoacao"}}},
				{Label: "Compreensao", Children: []Node{{Label: "Inferencias"}}},
			}},
			wantOk: true,
		},
		{
			name:   "flat list hangs under root",
			md:     "* Matematica\n* Numeros\n* Geometria",
			want:   Node{Label: "Matematica", Children: []Node{{Label: "Numeros"}, {Label: "Geometria"}}},
			wantOk: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.md)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	r := Request{Topic: "  Leitura  "}
	require.NoError(t, r.Validate(validate))
	assert.Equal(t, "Leitura", r.Topic)
	assert.Equal(t, defaultDepth, r.Depth)

	assert.Error(t, (&Request{Topic: ""}).Validate(validate))
	assert.Error(t, (&Request{Topic: "x", Depth: 9}).Validate(validate))
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		fc := &fakeCompleter{out: "- Leitura\n  - Fluencia\n"}
		mm, err := NewGenerator(fc).Generate(ctx, Request{Topic: "Leitura", Audience: "1o ciclo", Depth: 2})
		require.NoError(t, err)
		assert.Equal(t, "Leitura", mm.Root.Label)
		assert.Equal(t, "- Leitura\n  - Fluencia", mm.Markdown)
		assert.Contains(t, fc.prompt, "Topic: Leitura")
		assert.Contains(t, fc.prompt, "Audience: 1o ciclo")
		assert.Contains(t, fc.prompt, "Depth: 2")
	})

	t.Run("no audience", func(t *testing.T) {
		fc := &fakeCompleter{out: "- X"}
		_, err := NewGenerator(fc).Generate(ctx, Request{Topic: "X", Depth: 1})
		require.NoError(t, err)
		assert.NotContains(t, fc.prompt, "Audience")
	})

	t.Run("backend failure", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("quota exceeded")}
		_, err := NewGenerator(fc).Generate(ctx, Request{Topic: "X", Depth: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("unusable output", func(t *testing.T) {
		fc := &fakeCompleter{out: "Desculpe, nao consigo."}
		_, err := NewGenerator(fc).Generate(ctx, Request{Topic: "X", Depth: 1})
		assert.Equal(t, ErrEmptyMap, err)
	})
}
