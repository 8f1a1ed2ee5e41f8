// Package mindmap turns a topic into a mind map with a text generation backend.
package mindmap

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
	appfs "github.com/apoiopedagogico/portal/fs"
)

const (
	promptPath   = "prompts/mindmap.tmpl"
	systemPrompt = "You help Portuguese teacher trainers prepare training sessions. Answer in European Portuguese."
	defaultDepth = 2
)

var (
	ErrEmptyMap = errors.New("generated mind map is empty")

	promptOnce sync.Once
	promptTmpl *template.Template
	promptErr  error
)

type (
	// Completer is implemented by services/textgen.
	Completer interface {
		Complete(ctx context.Context, system, prompt string) (string, error)
	}

	Request struct {
		Topic    string `json:"topic" validate:"required,notblank,max=200"`
		Audience string `json:"audience" validate:"omitempty,max=120"`
		Depth    int    `json:"depth" validate:"omitempty,min=1,max=4"`
	}

	Node struct {
		Label    string `json:"label"`
		Children []Node `json:"children,omitempty"`
	}

	MindMap struct {
		Root     Node   `json:"root"`
		Markdown string `json:"markdown"`
	}

	Generator struct {
		completer Completer
	}
)

func (r *Request) Validate(validate *validator.Validate) error {
	r.Topic = core.CleanString(r.Topic)
	r.Audience = core.CleanString(r.Audience)
	if r.Depth == 0 {
		r.Depth = defaultDepth
	}
	return validate.Struct(r)
}

func NewGenerator(completer Completer) *Generator {
	return &Generator{completer: completer}
}

func prompt(req Request) (string, error) {
	promptOnce.Do(func() {
		promptTmpl, promptErr = template.ParseFS(appfs.FS, promptPath)
		if promptErr == nil {
			promptTmpl = promptTmpl.Option("missingkey=error")
		}
	})
	if promptErr != nil {
		return "", errors.Wrap(promptErr, "parsing mind map prompt")
	}
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, req); err != nil {
		return "", errors.Wrap(err, "rendering mind map prompt")
	}
	return buf.String(), nil
}

// Generate asks the backend for a mind map of req. The request must have been validated.
func (g *Generator) Generate(ctx context.Context, req Request) (MindMap, error) {
	p, err := prompt(req)
	if err != nil {
		return MindMap{}, err
	}
	out, err := g.completer.Complete(ctx, systemPrompt, p)
	if err != nil {
		return MindMap{}, errors.Wrap(err, "generating mind map")
	}

	root, ok := Parse(out)
	if !ok {
		return MindMap{}, ErrEmptyMap
	}
	return MindMap{Root: root, Markdown: strings.TrimSpace(out)}, nil
}

type frame struct {
	indent int
	node   *Node
}

// Parse reads a nested markdown bullet list. The first bullet is the root; later top level bullets become
// its children. Lines that are not bullets are ignored.
func Parse(md string) (Node, bool) {
	var (
		root  *Node
		stack []frame
	)
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimLeft(line, " \t")
		label, ok := bulletLabel(trimmed)
		if !ok || label == "" {
			continue
		}
		indent := indentWidth(line[:len(line)-len(trimmed)])

		if root == nil {
			root = &Node{Label: label}
			stack = []frame{{indent: indent, node: root}}
			continue
		}

		for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, Node{Label: label})
		stack = append(stack, frame{indent: indent, node: &parent.Children[len(parent.Children)-1]})
	}
	if root == nil {
		return Node{}, false
	}
	return *root, true
}

func bulletLabel(s string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(s, prefix) {
			return strings.Trim(strings.TrimSpace(s[len(prefix):]), "*_`"), true
		}
	}
	return "", false
}

func indentWidth(ws string) int {
	n := 0
	for _, r := range ws {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}
