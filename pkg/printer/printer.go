// Package printer renders receipts for the thermal printer spool.
package printer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/pkg/errors"

	"posterminal/pkg/cart"
	"posterminal/pkg/receipt"
)

// Ticket is everything printed on one receipt.
type Ticket struct {
	Receipt receipt.Receipt
	Items   []cart.LineItem
	Total   float64
	Cash    float64
	Change  float64
}

// Printer prints a ticket.
type Printer interface {
	Print(ctx context.Context, t Ticket) error
}

// DefaultTemplate lays a ticket out for a 32 column roll.
const DefaultTemplate = `{{ .Receipt.Number }}
{{ .Receipt.Date }}
--------------------------------
{{ range .Items -}}
{{ .Name }}
  {{ .Quantity }} x {{ price .Price }}  {{ price .Subtotal }}
{{ end -}}
--------------------------------
TOTAL   {{ price .Total }}
CASH    {{ price .Cash }}
CHANGE  {{ price .Change }}
`

// TextPrinter renders tickets with a text/template. A ticket goes to Out
// when set and to a file named after the receipt number in Dir when set.
type TextPrinter struct {
	Dir string
	Out io.Writer

	mu   sync.Mutex
	tmpl *template.Template
}

// New returns a TextPrinter using DefaultTemplate.
func New(dir string, out io.Writer) *TextPrinter {
	p, _ := NewWithTemplate(dir, out, DefaultTemplate)
	return p
}

// NewWithTemplate parses layout as the ticket template.
func NewWithTemplate(dir string, out io.Writer, layout string) (*TextPrinter, error) {
	tmpl, err := template.New("ticket").Funcs(template.FuncMap{"price": FormatPrice}).Parse(layout)
	if err != nil {
		return nil, errors.Wrap(err, "parse ticket template")
	}
	return &TextPrinter{Dir: dir, Out: out, tmpl: tmpl}, nil
}

// Render returns the ticket text.
func (p *TextPrinter) Render(t Ticket) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, t); err != nil {
		return nil, errors.Wrap(err, "render ticket")
	}
	return buf.Bytes(), nil
}

// Print renders t and writes it out.
func (p *TextPrinter) Print(ctx context.Context, t Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := p.Render(t)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Out != nil {
		if _, err := p.Out.Write(text); err != nil {
			return errors.Wrap(err, "write ticket")
		}
	}
	if p.Dir != "" {
		if err := os.MkdirAll(p.Dir, 0o755); err != nil {
			return errors.Wrapf(err, "create spool dir %s", p.Dir)
		}
		name := filepath.Join(p.Dir, spoolName(t.Receipt.Number))
		if err := os.WriteFile(name, text, 0o644); err != nil {
			return errors.Wrapf(err, "write spool file %s", name)
		}
	}
	return nil
}

func spoolName(number string) string {
	if number == "" {
		number = "receipt"
	}
	return strings.NewReplacer("/", "_", `\`, "_").Replace(number) + ".txt"
}

// FormatPrice formats v as rupiah with dot thousands separators, e.g.
// "Rp. 35.000". Fractions are kept after a comma. Zero is "Rp. 0".
func FormatPrice(v float64) string {
	if v == 0 {
		return "Rp. 0"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return "Rp. " + sign + b.String()
}
